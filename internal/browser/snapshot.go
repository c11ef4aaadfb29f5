package browser

import (
	"context"
	"errors"
	"image"

	dimaging "github.com/disintegration/imaging"

	"github.com/ironsheep/color-picker-mcp/internal/dom"
	"github.com/ironsheep/color-picker-mcp/internal/imaging"
	"github.com/ironsheep/color-picker-mcp/internal/logging"
	"github.com/ironsheep/color-picker-mcp/internal/page"
)

// snapshot is one element as captured by snapshotScript.
type snapshot struct {
	Tag    string                       `json:"tag"`
	ID     string                       `json:"id"`
	Rect   rectSnapshot                 `json:"rect"`
	Style  map[string]string            `json:"style"`
	Pseudo map[string]map[string]string `json:"pseudo"`
	Image  *imageSnapshot               `json:"image,omitempty"`
	Canvas *canvasSnapshot              `json:"canvas,omitempty"`
}

type rectSnapshot struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type imageSnapshot struct {
	Src      string `json:"src"`
	Complete bool   `json:"complete"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type canvasSnapshot struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Context string `json:"context"`
	Data    string `json:"data"`
	Tainted bool   `json:"tainted"`
}

// noContext is the context type recorded for canvases without a 2D context.
const noContext = "none"

// buildChain turns a snapshot chain, hit element first, into linked page
// nodes and returns the hit element. Images decode lazily through loader.
func buildChain(ctx context.Context, chain []snapshot, loader *imaging.Loader) dom.Element {
	if len(chain) == 0 {
		return nil
	}
	nodes := make([]*page.Node, len(chain))
	for i, s := range chain {
		nodes[i] = buildNode(ctx, s, loader)
	}
	for i := len(nodes) - 1; i > 0; i-- {
		nodes[i].AppendChild(nodes[i-1])
	}
	return nodes[0].Element()
}

func buildNode(ctx context.Context, s snapshot, loader *imaging.Loader) *page.Node {
	rect := dom.Rect{Left: s.Rect.Left, Top: s.Rect.Top, Width: s.Rect.Width, Height: s.Rect.Height}
	var style page.Style
	if s.Style != nil {
		style = page.Style(s.Style)
	}
	n := page.NewNode(s.Tag, rect, style).SetID(s.ID)
	for name, ps := range s.Pseudo {
		n.SetPseudo(name, page.Style(ps))
	}

	if img := s.Image; img != nil {
		src := img.Src
		n.SetImage(src, img.Width, img.Height, img.Complete && img.Width > 0 && img.Height > 0,
			func(ctx context.Context) (image.Image, error) {
				return loader.Load(ctx, src)
			})
	}
	if c := s.Canvas; c != nil {
		n.SetCanvas(buildCanvas(ctx, *c, loader))
	}
	return n
}

func buildCanvas(ctx context.Context, c canvasSnapshot, loader *imaging.Loader) *page.Canvas {
	switch {
	case c.Context != "2d":
		return page.NewCanvas(nil, noContext, false)
	case c.Tainted:
		return page.NewCanvas(nil, "2d", true)
	}
	img, err := loader.Load(ctx, c.Data)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.Logger().Debug("canvas snapshot unreadable", "error", err)
		}
		return page.NewCanvas(nil, "2d", false)
	}
	return page.NewCanvas(dimaging.Clone(img), "2d", false)
}

package imaging

import (
	"context"
	"errors"
	"image/color"
	"regexp"
	"strings"

	"github.com/ironsheep/color-picker-mcp/internal/colorspace"
	"github.com/ironsheep/color-picker-mcp/internal/dom"
	"github.com/ironsheep/color-picker-mcp/internal/logging"
)

var urlPattern = regexp.MustCompile(`url\(\s*(?:"([^"]*)"|'([^']*)'|([^)\s]*))\s*\)`)

// Sampler reads the color under a point from the element's own pixels:
// image bitmaps, canvas buffers, SVG paint and url() backgrounds.
//
// All sampling failures (not loaded, unsafe source, tainted canvas, missing
// context, zero alpha) yield no color; none of them is returned as an error.
type Sampler struct {
	Loader *Loader
	Policy SourcePolicy
}

// NewSampler returns a Sampler using loader for background images.
func NewSampler(loader *Loader, policy SourcePolicy) *Sampler {
	if loader == nil {
		loader = NewLoader(DefaultLoadTimeout)
	}
	return &Sampler{Loader: loader, Policy: policy}
}

// Sample dispatches on the target kind: image and canvas targets are read
// from their pixels, SVG targets from their paint.
//
// Returns an "rgb(r, g, b)" string (or the raw SVG paint value) and true,
// or "" and false when the target yields no color.
func (s *Sampler) Sample(ctx context.Context, t dom.Target, p dom.Position) (string, bool) {
	switch t.Kind {
	case dom.KindImage:
		return s.SampleImage(ctx, t, p)
	case dom.KindCanvas:
		return s.SampleCanvas(t, p)
	case dom.KindSVG:
		return s.SampleSVG(t)
	}
	return "", false
}

// SampleImage rasterizes the image at natural size into an off-screen
// surface and reads the pixel under p.
func (s *Sampler) SampleImage(ctx context.Context, t dom.Target, p dom.Position) (raw string, ok bool) {
	defer guard("image", &raw, &ok)

	img := t.Image
	if img == nil {
		return "", false
	}
	w, h := img.NaturalSize()
	if !img.Complete() || w <= 0 || h <= 0 {
		logging.Logger().Debug("image not sampled", "reason", ErrNotLoaded, "source", shortSource(img.Source()))
		return "", false
	}
	if err := s.Policy.Check(img.Source(), t.Origin); err != nil {
		logging.Logger().Debug("image not sampled", "reason", err)
		return "", false
	}
	bitmap, err := img.Decode(ctx)
	if err != nil {
		logging.Logger().Debug("image not sampled", "reason", err)
		return "", false
	}

	surf := newSurface(bitmap)
	sw, sh := surf.size()
	x, y, mapped := mapToBuffer(p, img.Rect(), sw, sh)
	if !mapped {
		return "", false
	}
	return opaque(surf.at(x, y))
}

// SampleCanvas reads the canvas buffer pixel under p through its 2D context.
func (s *Sampler) SampleCanvas(t dom.Target, p dom.Position) (raw string, ok bool) {
	defer guard("canvas", &raw, &ok)

	cv := t.Canvas
	if cv == nil {
		return "", false
	}
	ctx2d, err := cv.Context2D()
	if err != nil {
		logging.Logger().Debug("canvas not sampled", "reason", err)
		return "", false
	}
	w, h := cv.BufferSize()
	x, y, mapped := mapToBuffer(p, cv.Rect(), w, h)
	if !mapped {
		return "", false
	}
	px, err := ctx2d.PixelAt(x, y)
	if err != nil {
		if errors.Is(err, dom.ErrTainted) {
			logging.Logger().Debug("canvas not sampled", "reason", err)
		} else {
			logging.Logger().Debug("canvas read failed", "error", err)
		}
		return "", false
	}
	return opaque(px)
}

// SampleSVG returns the element's computed fill, else stroke, else color.
// Empty and "none" values are skipped.
func (s *Sampler) SampleSVG(t dom.Target) (raw string, ok bool) {
	defer guard("svg", &raw, &ok)

	if t.Element == nil || !t.InSVG {
		return "", false
	}
	style, found := t.Element.ComputedStyle("")
	if !found {
		return "", false
	}
	for _, prop := range []string{"fill", "stroke", "color"} {
		v := strings.TrimSpace(style.Value(prop))
		if v != "" && !strings.EqualFold(v, "none") {
			return v, true
		}
	}
	return "", false
}

// SampleBackground loads the first url() image of a computed
// background-image value and samples it under p, stretching the image over
// the element box. The load is bounded by the Loader timeout and ctx.
func (s *Sampler) SampleBackground(ctx context.Context, t dom.Target, p dom.Position, value string) (raw string, ok bool) {
	defer guard("background-image", &raw, &ok)

	if t.Element == nil {
		return "", false
	}
	src := BackgroundURL(value)
	if src == "" {
		return "", false
	}
	if err := s.Policy.Check(src, t.Origin); err != nil {
		logging.Logger().Debug("background image not sampled", "reason", err)
		return "", false
	}
	bitmap, err := s.Loader.Load(ctx, src)
	if err != nil {
		logging.Logger().Debug("background image not sampled", "reason", err)
		return "", false
	}

	surf := newSurface(bitmap)
	w, h := surf.size()
	x, y, mapped := mapToBuffer(p, t.Element.Rect(), w, h)
	if !mapped {
		return "", false
	}
	return opaque(surf.at(x, y))
}

// BackgroundURL extracts the first url() reference from a background-image
// value, or "".
func BackgroundURL(value string) string {
	m := urlPattern.FindStringSubmatch(value)
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}

// opaque formats px as "rgb(r, g, b)"; fully transparent pixels have no color.
func opaque(px color.NRGBA) (string, bool) {
	if px.A == 0 {
		return "", false
	}
	return colorspace.FromRGB(px.R, px.G, px.B).RGBString(), true
}

// guard turns a panic inside a sampling call into "no color".
func guard(kind string, raw *string, ok *bool) {
	if r := recover(); r != nil {
		logging.Logger().Debug("sampling aborted", "kind", kind, "panic", r)
		*raw, *ok = "", false
	}
}

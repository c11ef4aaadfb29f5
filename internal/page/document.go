package page

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	dimaging "github.com/disintegration/imaging"
	"github.com/mazznoer/csscolorparser"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/color-picker-mcp/internal/dom"
	"github.com/ironsheep/color-picker-mcp/internal/imaging"
	"github.com/ironsheep/color-picker-mcp/internal/logging"
)

const (
	defaultViewportWidth  = 1280
	defaultViewportHeight = 800
	defaultConcurrency    = 4
	maxCanvasSide         = 8192
	maxPageBytes          = 16 << 20
)

// Options configures how a page is opened.
type Options struct {
	// Width and Height are the viewport size in CSS pixels. Zero means
	// 1280x800.
	Width, Height float64

	// Loader decodes images at open time. Nil means a loader with the
	// default timeout.
	Loader *imaging.Loader

	// Policy decides which canvas sources taint their canvas.
	Policy imaging.SourcePolicy

	// Concurrency bounds parallel image decoding. Zero means 4.
	Concurrency int

	// Client fetches http(s) pages. Nil means http.DefaultClient.
	Client *http.Client
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = defaultViewportWidth
	}
	if o.Height <= 0 {
		o.Height = defaultViewportHeight
	}
	if o.Loader == nil {
		o.Loader = imaging.NewLoader(imaging.DefaultLoadTimeout)
	}
	if o.Concurrency <= 0 {
		o.Concurrency = defaultConcurrency
	}
	if o.Client == nil {
		o.Client = http.DefaultClient
	}
	return o
}

// Document is a static page: parsed HTML with cascaded styles, absolute
// layout and decoded images. It implements dom.Document.
//
// Document is safe for concurrent use; picker layers are the only mutable
// state.
type Document struct {
	mu       sync.RWMutex
	root     *Node
	nodes    []*Node // document order, picker layers last
	source   string
	base     string
	origin   string
	viewport dom.Rect
}

// Open reads and parses a page from a file path, file: URL or http(s) URL.
func Open(ctx context.Context, src string, opts Options) (*Document, error) {
	opts = opts.withDefaults()

	var (
		data []byte
		base string
		err  error
	)
	lower := strings.ToLower(src)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		data, err = fetchPage(ctx, opts.Client, src)
		base = src
	case strings.HasPrefix(lower, "file:"):
		u, perr := url.Parse(src)
		if perr != nil {
			return nil, fmt.Errorf("invalid page URL: %w", perr)
		}
		data, err = os.ReadFile(u.Path)
		base = filepath.Dir(u.Path)
	default:
		abs, aerr := filepath.Abs(src)
		if aerr != nil {
			return nil, fmt.Errorf("invalid page path: %w", aerr)
		}
		data, err = os.ReadFile(abs)
		base = filepath.Dir(abs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	doc, err := Parse(ctx, bytes.NewReader(data), base, opts)
	if err != nil {
		return nil, err
	}
	doc.source = src
	return doc, nil
}

func fetchPage(ctx context.Context, client *http.Client, src string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
}

// Parse builds a Document from HTML. base is the URL or directory that
// relative references resolve against; it also determines the origin.
func Parse(ctx context.Context, r io.Reader, base string, opts Options) (*Document, error) {
	opts = opts.withDefaults()

	hroot, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	d := &Document{
		base:     base,
		origin:   imaging.Origin(base),
		viewport: dom.Rect{Width: opts.Width, Height: opts.Height},
	}

	byHTML := map[*html.Node]*Node{}
	var (
		order  []*html.Node // parallel to d.nodes
		sheets []string
		inline []*html.Node
		svg    []*html.Node
	)

	var build func(h *html.Node, parent *Node)
	build = func(h *html.Node, parent *Node) {
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			n := &Node{tag: strings.ToLower(c.Data), attrs: map[string]string{}}
			for _, a := range c.Attr {
				n.attrs[strings.ToLower(a.Key)] = a.Val
			}
			n.id = n.attrs["id"]
			if _, ok := n.attrs["style"]; ok {
				inline = append(inline, c)
			}
			if c.Namespace == "svg" {
				svg = append(svg, c)
			}
			if n.tag == "style" && c.FirstChild != nil && c.FirstChild.Type == html.TextNode {
				sheets = append(sheets, c.FirstChild.Data)
			}
			if parent == nil {
				d.root = n
			} else {
				parent.AppendChild(n)
			}
			byHTML[c] = n
			order = append(order, c)
			d.nodes = append(d.nodes, n)
			build(c, n)
		}
	}
	build(hroot, nil)
	if d.root == nil {
		return nil, fmt.Errorf("failed to parse page: no root element")
	}

	rules := matchedRules{}
	for _, h := range svg {
		rules.addPresentation(h)
	}
	for _, text := range sheets {
		rules.addStylesheet(hroot, text)
	}
	for _, h := range inline {
		rules.addInline(h, byHTML[h].attrs["style"])
	}

	resolve := func(ref string) string { return imaging.ResolveSource(d.base, ref) }
	for i, n := range d.nodes {
		var parentStyle Style
		if n.parent != nil {
			parentStyle = n.parent.style
		}
		h := order[i]
		n.style = computeStyle(n.tag, parentStyle, rules[h][""], resolve)
		for _, p := range []string{"::before", "::after"} {
			n.SetPseudo(p, computeStyle("", n.style, rules[h][p], resolve))
		}
	}

	if err := d.loadResources(ctx, opts); err != nil {
		return nil, err
	}

	d.root.layout(d.viewport, d.viewport, false)
	logging.Logger().Info("page opened", "base", base, "elements", len(d.nodes))
	return d, nil
}

// loadResources decodes every image and fills every canvas buffer, in
// parallel. A failed image stays incomplete; only cancellation of ctx
// fails the open.
func (d *Document) loadResources(ctx context.Context, opts Options) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	for _, n := range d.nodes {
		switch n.tag {
		case "img":
			src := imaging.ResolveSource(d.base, n.attrs["src"])
			n.img = &imageState{src: src}
			if src == "" {
				continue
			}
			g.Go(func() error { return d.loadImage(gctx, n, opts.Loader) })
		case "canvas":
			g.Go(func() error { return d.loadCanvas(gctx, n, opts) })
		}
	}
	return g.Wait()
}

func (d *Document) loadImage(ctx context.Context, n *Node, loader *imaging.Loader) error {
	bitmap, err := loader.Load(ctx, n.img.src)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("page open cancelled: %w", ctx.Err())
		}
		logging.Logger().Warn("image not loaded", "error", err)
		return nil
	}
	b := bitmap.Bounds()
	n.img.width, n.img.height = b.Dx(), b.Dy()
	n.img.complete = true
	n.img.decode = func(context.Context) (image.Image, error) { return bitmap, nil }
	return nil
}

// loadCanvas builds the canvas buffer from the width/height attributes,
// paints data-fill and draws data-src stretched over the buffer.
func (d *Document) loadCanvas(ctx context.Context, n *Node, opts Options) error {
	w := min(n.attrInt("width", defaultCanvasWidth), maxCanvasSide)
	h := min(n.attrInt("height", defaultCanvasHeight), maxCanvasSide)
	buf := image.NewNRGBA(image.Rect(0, 0, w, h))

	if fill := n.attrs["data-fill"]; fill != "" {
		if c, err := csscolorparser.Parse(fill); err == nil {
			draw.Draw(buf, buf.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
		}
	}

	tainted := false
	if ref := n.attrs["data-src"]; ref != "" {
		src := imaging.ResolveSource(d.base, ref)
		tainted = opts.Policy.Taints(src, d.origin)
		if !tainted && w > 0 && h > 0 {
			bitmap, err := opts.Loader.Load(ctx, src)
			switch {
			case err == nil:
				fitted := dimaging.Resize(bitmap, w, h, dimaging.NearestNeighbor)
				draw.Draw(buf, buf.Bounds(), fitted, image.Point{}, draw.Over)
			case ctx.Err() != nil:
				return fmt.Errorf("page open cancelled: %w", ctx.Err())
			default:
				logging.Logger().Warn("canvas source not loaded", "error", err)
			}
		}
	}

	n.canvas = NewCanvas(buf, n.attrs["data-context"], tainted)
	return nil
}

// ElementFromPoint implements dom.Document: the last element in document
// order whose box contains p and that takes part in hit testing.
func (d *Document) ElementFromPoint(p dom.Position) dom.Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for i := len(d.nodes) - 1; i >= 0; i-- {
		n := d.nodes[i]
		if n.rect.Contains(p) && n.hitTestable() {
			return n.Element()
		}
	}
	return nil
}

func (n *Node) hitTestable() bool {
	if n.rect.Empty() {
		return false
	}
	switch n.style["visibility"] {
	case "hidden", "collapse":
		return false
	}
	if n.style["pointer-events"] == "none" {
		return false
	}
	for a := n; a != nil; a = a.parent {
		if a.hidden || a.style["display"] == "none" {
			return false
		}
	}
	return true
}

// Origin implements dom.Document.
func (d *Document) Origin() string { return d.origin }

// Base returns the URL or directory relative references resolve against.
func (d *Document) Base() string { return d.base }

// Source returns what the document was opened from ("" for Parse).
func (d *Document) Source() string { return d.source }

// Viewport returns the viewport box.
func (d *Document) Viewport() dom.Rect { return d.viewport }

// ElementByID returns the first element with the given id, or nil.
func (d *Document) ElementByID(id string) dom.Element {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, n := range d.nodes {
		if n.id == id {
			return n.Element()
		}
	}
	return nil
}

// AttachLayer implements dom.Document. The layer is a fixed, transparent
// box covering the viewport, placed after every page element.
func (d *Document) AttachLayer(spec dom.LayerSpec) (dom.Layer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	style := initialStyle.clone()
	style["position"] = "fixed"
	if !spec.PointerEvents {
		style["pointer-events"] = "none"
	}
	n := NewNode("div", d.viewport, style).SetID(spec.ID)

	parent := d.root
	for _, c := range d.root.children {
		if c.tag == "body" {
			parent = c
		}
	}
	parent.AppendChild(n)
	d.nodes = append(d.nodes, n)
	return &layer{doc: d, node: n}, nil
}

type layer struct {
	doc  *Document
	node *Node
}

// Hide implements dom.Layer.
func (l *layer) Hide() func() {
	l.doc.mu.Lock()
	prev := l.node.hidden
	l.node.hidden = true
	l.doc.mu.Unlock()

	return func() {
		l.doc.mu.Lock()
		l.node.hidden = prev
		l.doc.mu.Unlock()
	}
}

// Remove implements dom.Layer.
func (l *layer) Remove() {
	l.doc.mu.Lock()
	defer l.doc.mu.Unlock()

	l.doc.nodes = removeNode(l.doc.nodes, l.node)
	if p := l.node.parent; p != nil {
		p.children = removeNode(p.children, l.node)
		l.node.parent = nil
	}
}

func removeNode(list []*Node, n *Node) []*Node {
	for i, c := range list {
		if c == n {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

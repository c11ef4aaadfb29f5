package page

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"

	"github.com/ironsheep/color-picker-mcp/internal/dom"
)

// Style is a computed style keyed by lowercase CSS property name.
type Style map[string]string

// Value implements dom.Style.
func (s Style) Value(property string) string { return s[strings.ToLower(property)] }

// clone returns a shallow copy of s.
func (s Style) clone() Style {
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// DecodeFunc produces an image element's bitmap.
type DecodeFunc func(ctx context.Context) (image.Image, error)

type imageState struct {
	src      string
	complete bool
	width    int
	height   int
	decode   DecodeFunc
}

// Node is an element of an in-memory document. Nodes built by Parse carry
// cascaded styles and laid-out boxes; other backends build them directly
// with NewNode and the setters.
type Node struct {
	tag      string
	id       string
	attrs    map[string]string
	parent   *Node
	children []*Node

	rect   dom.Rect
	style  Style
	pseudo map[string]Style

	// hidden removes the node from hit testing (picker layers).
	hidden bool

	img    *imageState
	canvas *Canvas
}

// NewNode returns a detached node with a computed style. A nil style makes
// ComputedStyle report false.
func NewNode(tag string, rect dom.Rect, style Style) *Node {
	return &Node{
		tag:   strings.ToLower(tag),
		rect:  rect,
		style: style,
		attrs: map[string]string{},
	}
}

// SetID sets the node's id.
func (n *Node) SetID(id string) *Node {
	n.id = id
	return n
}

// AppendChild attaches c as the last child of n.
func (n *Node) AppendChild(c *Node) {
	c.parent = n
	n.children = append(n.children, c)
}

// SetPseudo sets the computed style of a pseudo-element ("::before", "::after").
func (n *Node) SetPseudo(pseudo string, s Style) {
	if n.pseudo == nil {
		n.pseudo = map[string]Style{}
	}
	n.pseudo[pseudo] = s
}

// SetImage makes n an image element.
func (n *Node) SetImage(src string, width, height int, complete bool, decode DecodeFunc) {
	n.img = &imageState{src: src, width: width, height: height, complete: complete, decode: decode}
}

// SetCanvas makes n a canvas element.
func (n *Node) SetCanvas(c *Canvas) {
	n.canvas = c
}

// Attr returns an attribute value.
func (n *Node) Attr(name string) string { return n.attrs[name] }

// Element returns the dom view of n: an ImageElement for images, a
// CanvasElement for canvases, a plain Element otherwise. Views of the same
// node compare equal.
func (n *Node) Element() dom.Element {
	if n == nil {
		return nil
	}
	switch {
	case n.img != nil:
		return imageElement{element{n}}
	case n.canvas != nil:
		return canvasElement{element{n}}
	}
	return element{n}
}

// NodeOf returns the node behind an element produced by Node.Element.
func NodeOf(el dom.Element) (*Node, bool) {
	switch e := el.(type) {
	case element:
		return e.n, true
	case imageElement:
		return e.n, true
	case canvasElement:
		return e.n, true
	}
	return nil, false
}

type element struct{ n *Node }

func (e element) Tag() string    { return e.n.tag }
func (e element) ID() string     { return e.n.id }
func (e element) Rect() dom.Rect { return e.n.rect }

func (e element) Parent() dom.Element {
	if e.n.parent == nil {
		return nil
	}
	return e.n.parent.Element()
}

func (e element) ComputedStyle(pseudo string) (dom.Style, bool) {
	if pseudo == "" {
		if e.n.style == nil {
			return nil, false
		}
		return e.n.style, true
	}
	s, ok := e.n.pseudo[pseudo]
	if !ok {
		return nil, false
	}
	return s, true
}

type imageElement struct{ element }

func (e imageElement) Complete() bool { return e.n.img.complete }
func (e imageElement) Source() string { return e.n.img.src }

func (e imageElement) NaturalSize() (int, int) {
	return e.n.img.width, e.n.img.height
}

func (e imageElement) Decode(ctx context.Context) (image.Image, error) {
	if e.n.img.decode == nil {
		return nil, errors.New("image has no bitmap")
	}
	return e.n.img.decode(ctx)
}

type canvasElement struct{ element }

func (e canvasElement) BufferSize() (int, int)            { return e.n.canvas.Size() }
func (e canvasElement) Context2D() (dom.Context2D, error) { return e.n.canvas.Context2D() }

// Canvas is a canvas pixel buffer.
type Canvas struct {
	buf         *image.NRGBA
	contextType string
	tainted     bool
}

// NewCanvas wraps buf. contextType "" means "2d". A tainted canvas refuses
// pixel reads; buf may be nil when only the size is known.
func NewCanvas(buf *image.NRGBA, contextType string, tainted bool) *Canvas {
	if contextType == "" {
		contextType = "2d"
	}
	return &Canvas{buf: buf, contextType: strings.ToLower(contextType), tainted: tainted}
}

// Size returns the buffer size.
func (c *Canvas) Size() (int, int) {
	if c.buf == nil {
		return 0, 0
	}
	b := c.buf.Bounds()
	return b.Dx(), b.Dy()
}

// Context2D returns the canvas itself as its 2D context, or
// dom.ErrNoContext for other context types and missing buffers.
func (c *Canvas) Context2D() (dom.Context2D, error) {
	if c.contextType != "2d" || (c.buf == nil && !c.tainted) {
		return nil, dom.ErrNoContext
	}
	return c, nil
}

// PixelAt implements dom.Context2D.
func (c *Canvas) PixelAt(x, y int) (color.NRGBA, error) {
	if c.tainted {
		return color.NRGBA{}, dom.ErrTainted
	}
	b := c.buf.Bounds()
	return c.buf.NRGBAAt(b.Min.X+x, b.Min.Y+y), nil
}

package page

import (
	"math"
	"strconv"

	"github.com/ironsheep/color-picker-mcp/internal/dom"
)

const (
	defaultCanvasWidth  = 300
	defaultCanvasHeight = 150
)

// layout assigns n and its subtree their boxes. A box is its containing
// block offset by left/top and sized by width/height; unsized boxes take
// the rest of the containing block. Fixed boxes are placed against the
// viewport. Images, canvases and SVG shapes fall back to their intrinsic
// or attribute geometry.
func (n *Node) layout(container, viewport dom.Rect, inSVG bool) {
	cb := container
	if n.style["position"] == "fixed" {
		cb = viewport
	}

	left, _ := parseLength(n.style["left"], cb.Width)
	top, _ := parseLength(n.style["top"], cb.Height)
	w, wok := parseLength(n.style["width"], cb.Width)
	h, hok := parseLength(n.style["height"], cb.Height)

	ix, iy, iw, ih, geom := n.intrinsicGeometry(inSVG)
	if geom {
		if n.style["left"] == "" {
			left = ix
		}
		if n.style["top"] == "" {
			top = iy
		}
	}
	if !wok && iw >= 0 {
		w, wok = iw, true
	}
	if !hok && ih >= 0 {
		h, hok = ih, true
	}
	if !wok {
		w = math.Max(cb.Width-left, 0)
	}
	if !hok {
		h = math.Max(cb.Height-top, 0)
	}

	n.rect = dom.Rect{Left: cb.Left + left, Top: cb.Top + top, Width: w, Height: h}

	childSVG := inSVG || n.tag == "svg"
	for _, c := range n.children {
		c.layout(n.rect, viewport, childSVG)
	}
}

// intrinsicGeometry returns the offset and size an element has without CSS
// sizing. Unknown dimensions are -1; geom reports whether x/y came from SVG
// geometry attributes.
func (n *Node) intrinsicGeometry(inSVG bool) (x, y, w, h float64, geom bool) {
	w, h = -1, -1
	switch {
	case n.tag == "img":
		w, h = n.attrNumber("width", -1), n.attrNumber("height", -1)
		if n.img != nil && n.img.width > 0 {
			nw, nh := float64(n.img.width), float64(n.img.height)
			switch {
			case w < 0 && h < 0:
				w, h = nw, nh
			case w < 0:
				w = h * nw / nh
			case h < 0:
				h = w * nh / nw
			}
		}
	case n.tag == "canvas":
		w, h = n.attrNumber("width", defaultCanvasWidth), n.attrNumber("height", defaultCanvasHeight)
	case n.tag == "svg":
		w, h = n.attrNumber("width", -1), n.attrNumber("height", -1)
	case inSVG:
		switch n.tag {
		case "rect", "image", "foreignobject", "use":
			x, y = n.attrNumber("x", 0), n.attrNumber("y", 0)
			w, h = n.attrNumber("width", -1), n.attrNumber("height", -1)
			geom = true
		case "circle":
			r := n.attrNumber("r", 0)
			x, y = n.attrNumber("cx", 0)-r, n.attrNumber("cy", 0)-r
			w, h = 2*r, 2*r
			geom = true
		case "ellipse":
			rx, ry := n.attrNumber("rx", 0), n.attrNumber("ry", 0)
			x, y = n.attrNumber("cx", 0)-rx, n.attrNumber("cy", 0)-ry
			w, h = 2*rx, 2*ry
			geom = true
		}
	}
	return x, y, w, h, geom
}

func (n *Node) attrNumber(name string, fallback float64) float64 {
	v, ok := parseLength(n.attrs[name], 0)
	if !ok {
		return fallback
	}
	return v
}

// attrInt parses an integer attribute, falling back when absent or invalid.
func (n *Node) attrInt(name string, fallback int) int {
	v, err := strconv.Atoi(n.attrs[name])
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

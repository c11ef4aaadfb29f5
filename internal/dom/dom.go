// Package dom describes the rendered document the picker reads colors from.
//
// The interfaces here are the whole contract between the resolution engine
// and a document backend: a static HTML page model, a live browser tab, or a
// test fake. Element references are only valid for the duration of a single
// resolution call; callers must not keep them across picks.
package dom

import (
	"context"
	"errors"
	"image"
	"image/color"
)

var (
	// ErrTainted is returned when pixel data cannot be read back because
	// cross-origin content was drawn into the surface.
	ErrTainted = errors.New("surface is tainted by cross-origin data")

	// ErrNoContext is returned when a canvas has no 2D drawing context.
	ErrNoContext = errors.New("no 2d drawing context")
)

// Position is a viewport-relative point in CSS pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an element's rendered box in viewport coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r (right and bottom edges excluded).
func (r Rect) Contains(p Position) bool {
	return p.X >= r.Left && p.X < r.Left+r.Width && p.Y >= r.Top && p.Y < r.Top+r.Height
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Style is a computed style: property name to computed value.
// Unknown properties return "".
type Style interface {
	Value(property string) string
}

// Element is a node in the rendered document.
type Element interface {
	// Tag is the lowercase local name ("div", "img", "svg", "path", ...).
	Tag() string

	// ID is the element's id attribute, or "".
	ID() string

	// Rect is the rendered box.
	Rect() Rect

	// Parent returns the parent element, or nil at the root.
	Parent() Element

	// ComputedStyle returns the computed style of the element (pseudo == "")
	// or of one of its pseudo-elements ("::before", "::after"). It reports
	// false when the style cannot be resolved.
	ComputedStyle(pseudo string) (Style, bool)
}

// ImageElement is a raster image element.
type ImageElement interface {
	Element

	// Complete reports whether the image finished loading and decoding.
	Complete() bool

	// NaturalSize is the intrinsic pixel size; zero when unknown.
	NaturalSize() (width, height int)

	// Source is the absolute URL (or path) the image was loaded from.
	Source() string

	// Decode returns the decoded bitmap. It may block up to the deadline of
	// ctx and must not be called before the source has been judged safe.
	Decode(ctx context.Context) (image.Image, error)
}

// CanvasElement is a canvas with an existing pixel buffer.
type CanvasElement interface {
	Element

	// BufferSize is the pixel buffer size (the width/height attributes),
	// which may differ from the rendered box.
	BufferSize() (width, height int)

	// Context2D returns the canvas's 2D context, or ErrNoContext.
	Context2D() (Context2D, error)
}

// Context2D reads pixels from a canvas buffer.
type Context2D interface {
	// PixelAt returns the non-premultiplied pixel at buffer coordinates,
	// or ErrTainted.
	PixelAt(x, y int) (color.NRGBA, error)
}

// LayerSpec describes a picker-owned surface placed above the page.
type LayerSpec struct {
	ID string

	// PointerEvents false makes the layer transparent to hit testing even
	// while visible.
	PointerEvents bool
}

// Layer is a picker-owned surface (overlay, cursor, preview window).
type Layer interface {
	// Hide removes the layer from hit testing and returns a func that
	// restores its previous visibility.
	Hide() (restore func())

	// Remove detaches the layer from the document.
	Remove()
}

// Document is the rendered page.
type Document interface {
	// ElementFromPoint returns the topmost hit-testable element at p, or nil.
	ElementFromPoint(p Position) Element

	// AttachLayer adds a picker surface on top of the page.
	AttachLayer(spec LayerSpec) (Layer, error)

	// Origin is the document origin ("https://host:port", or "file://").
	Origin() string
}

// ScreenSampler is implemented by documents that can read the composited
// on-screen pixel directly.
type ScreenSampler interface {
	SampleScreen(ctx context.Context, p Position) (color.NRGBA, error)
}

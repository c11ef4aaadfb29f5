package imaging

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/color-picker-mcp/internal/dom"
)

// surface is an off-screen raster at the bitmap's natural resolution. It is
// created for one sampling call and dropped afterwards.
type surface struct {
	buf *image.NRGBA
}

func newSurface(img image.Image) *surface {
	return &surface{buf: imaging.Clone(img)}
}

func (s *surface) size() (int, int) {
	b := s.buf.Bounds()
	return b.Dx(), b.Dy()
}

// at returns the non-premultiplied pixel, clamping to the buffer.
func (s *surface) at(x, y int) color.NRGBA {
	w, h := s.size()
	return s.buf.NRGBAAt(clampIndex(x, w), clampIndex(y, h))
}

// mapToBuffer maps a viewport point inside box r onto a w x h pixel buffer
// stretched over r, clamped to the buffer. It reports false when r has no
// area or the buffer is empty.
func mapToBuffer(p dom.Position, r dom.Rect, w, h int) (int, int, bool) {
	if r.Empty() || w <= 0 || h <= 0 {
		return 0, 0, false
	}
	x := math.Floor((p.X - r.Left) * (float64(w) / r.Width))
	y := math.Floor((p.Y - r.Top) * (float64(h) / r.Height))
	return clampIndex(clampFloat(x, w), w), clampIndex(clampFloat(y, h), h), true
}

func clampFloat(v float64, n int) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > float64(n-1) {
		return n - 1
	}
	return int(v)
}

func clampIndex(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

package imaging

import (
	"image"
	"image/color"

	"github.com/ironsheep/color-picker-mcp/internal/colorspace"
)

// GridLoupe is Loupe with a line between every magnified pixel and an
// outline around the pixel at (x, y). The outline is black over light
// pixels and white over dark ones.
//
// gridColor is any CSS color; it is drawn at half opacity. Scales below 3
// leave no room between lines and get the outline only.
func GridLoupe(img image.Image, x, y, radius, scale int, gridColor string) (*RenderResult, error) {
	out, region, err := magnify(img, x, y, radius, scale)
	if err != nil {
		return nil, err
	}
	if scale < 1 {
		scale = 1
	}

	if scale >= 3 {
		rgb := colorspace.ParseColorString(gridColor).RGB()
		drawPixelGrid(out, scale, color.NRGBA{rgb.R, rgb.G, rgb.B, 128})
	}

	center := image.Rect(x-region.Min.X, y-region.Min.Y, x-region.Min.X+1, y-region.Min.Y+1)
	mark := color.NRGBA{255, 255, 255, 255}
	if c, err := SampleColor(img, x, y); err == nil && c.HSL.L > 50 {
		mark = color.NRGBA{0, 0, 0, 255}
	}
	drawOutline(out, image.Rect(center.Min.X*scale, center.Min.Y*scale, center.Max.X*scale, center.Max.Y*scale), mark)

	return encodePNG(out)
}

// drawPixelGrid blends a line onto the first row and column of every
// scale-sized cell except the outer edge.
func drawPixelGrid(img *image.NRGBA, scale int, line color.NRGBA) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Draw vertical lines
	for x := scale; x < width; x += scale {
		for y := 0; y < height; y++ {
			blend(img, x, y, line)
		}
	}

	// Draw horizontal lines
	for y := scale; y < height; y += scale {
		for x := 0; x < width; x++ {
			blend(img, x, y, line)
		}
	}
}

// drawOutline draws a one pixel border just inside r.
func drawOutline(img *image.NRGBA, r image.Rectangle, c color.NRGBA) {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		img.SetNRGBA(x, r.Min.Y, c)
		img.SetNRGBA(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.SetNRGBA(r.Min.X, y, c)
		img.SetNRGBA(r.Max.X-1, y, c)
	}
}

// blend composites c over the opaque pixel at (x, y).
func blend(img *image.NRGBA, x, y int, c color.NRGBA) {
	dst := img.NRGBAAt(x, y)
	a := uint32(c.A)
	mixChannel := func(s, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*(255-a) + 127) / 255)
	}
	img.SetNRGBA(x, y, color.NRGBA{
		R: mixChannel(c.R, dst.R),
		G: mixChannel(c.G, dst.G),
		B: mixChannel(c.B, dst.B),
		A: dst.A,
	})
}

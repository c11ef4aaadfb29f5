package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/color-picker-mcp/internal/colorspace"
)

// MaxRenderSize caps the width and height of rendered PNGs.
const MaxRenderSize = 1024

// RenderResult is an encoded PNG.
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Swatch renders the picker's preview swatch: a 45 degree linear gradient
// from `from` at the bottom-left corner to `to` at the top-right corner.
func Swatch(from, to colorspace.Color, width, height int) (*RenderResult, error) {
	if width <= 0 || height <= 0 || width > MaxRenderSize || height > MaxRenderSize {
		return nil, fmt.Errorf("invalid swatch size %dx%d (1 to %d)", width, height, MaxRenderSize)
	}
	a, b := from.RGB(), to.RGB()
	img := imaging.New(width, height, color.NRGBA{a.R, a.G, a.B, 255})

	span := float64(width - 1 + height - 1)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			t := 0.0
			if span > 0 {
				t = float64(x+(height-1-y)) / span
			}
			img.SetNRGBA(x, y, color.NRGBA{
				R: mix(a.R, b.R, t),
				G: mix(a.G, b.G, t),
				B: mix(a.B, b.B, t),
				A: 255,
			})
		}
	}
	return encodePNG(img)
}

func mix(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

// Loupe crops the square of the given radius around (x, y), clamped to the
// image, and magnifies it by scale with nearest-neighbor sampling so pixel
// edges stay sharp.
func Loupe(img image.Image, x, y, radius, scale int) (*RenderResult, error) {
	out, _, err := magnify(img, x, y, radius, scale)
	if err != nil {
		return nil, err
	}
	return encodePNG(out)
}

// magnify returns the scaled crop and the crop region in image coordinates.
func magnify(img image.Image, x, y, radius, scale int) (*image.NRGBA, image.Rectangle, error) {
	bounds := img.Bounds()
	if !(image.Point{X: x, Y: y}).In(bounds) {
		return nil, image.Rectangle{}, fmt.Errorf("coordinates (%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x, y, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if radius < 0 {
		return nil, image.Rectangle{}, fmt.Errorf("invalid loupe radius %d", radius)
	}
	if scale < 1 {
		scale = 1
	}
	if scale > MaxRenderSize {
		return nil, image.Rectangle{}, fmt.Errorf("loupe scale %d exceeds %d", scale, MaxRenderSize)
	}

	region := image.Rect(x-radius, y-radius, x+radius+1, y+radius+1).Intersect(bounds)
	if region.Dx()*scale > MaxRenderSize || region.Dy()*scale > MaxRenderSize {
		return nil, region, fmt.Errorf("loupe of %dx%d at scale %d exceeds %d pixels", region.Dx(), region.Dy(), scale, MaxRenderSize)
	}

	cropped := imaging.Crop(img, region)
	if scale != 1 {
		cropped = imaging.Resize(cropped, region.Dx()*scale, region.Dy()*scale, imaging.NearestNeighbor)
	}
	return cropped, region, nil
}

func encodePNG(img image.Image) (*RenderResult, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return &RenderResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

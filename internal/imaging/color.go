package imaging

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/color-picker-mcp/internal/colorspace"
)

// ColorResult contains a sampled pixel in the canonical color
// representations plus its alpha.
type ColorResult struct {
	Hex   string         `json:"hex"`   // "#rrggbb" (alpha excluded)
	RGB   colorspace.RGB `json:"rgb"`   // 8-bit channels
	HSL   colorspace.HSL `json:"hsl"`   // rounded hue/saturation/lightness
	Alpha uint8          `json:"alpha"` // 0 = fully transparent, 255 = opaque
}

// SampleColor extracts the color value at a specific pixel coordinate.
//
// Parameters:
//   - img: The source image to sample from.
//   - x: X coordinate (0-based, 0 = leftmost pixel).
//   - y: Y coordinate (0-based, 0 = topmost pixel).
//
// Returns:
//   - *ColorResult: The color at (x, y).
//   - error: Non-nil if coordinates are outside the image bounds.
//
// # Color Conversion
//
// The pixel is converted to non-premultiplied 8-bit channels before the
// HSL and hex forms are derived, so translucent pixels report their
// straight color, not a color darkened by alpha.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	bounds := img.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X || y < bounds.Min.Y || y >= bounds.Max.Y {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	px := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	c := colorspace.FromRGB(px.R, px.G, px.B)

	return &ColorResult{
		Hex:   c.Hex(),
		RGB:   c.RGB(),
		HSL:   c.HSL(),
		Alpha: px.A,
	}, nil
}

// LabeledPoint represents a pixel coordinate with an optional descriptive label.
type LabeledPoint struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// LabeledColorResult combines a color sample with its location and optional label.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"`
	X     int         `json:"x"`
	Y     int         `json:"y"`
	Color ColorResult `json:"color"`
}

// SampleColorsMulti extracts colors at multiple pixel coordinates in a single call.
//
// Results are returned in input order. If any coordinate is outside the
// image bounds, an error is returned and no partial results.
func SampleColorsMulti(img image.Image, points []LabeledPoint) ([]LabeledColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		c, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *c,
		})
	}

	return results, nil
}

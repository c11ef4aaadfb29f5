package colorspace

import (
	"encoding/json"
	"fmt"
	"math"
)

// RGB is an 8-bit per channel color triple.
type RGB struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSL is a color in HSL space with integer components.
type HSL struct {
	H int `json:"h"` // Hue: 0-359 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// Color is the canonical color value produced by the picker.
//
// The zero value is not a valid Color; use one of the constructors.
type Color struct {
	rgb RGB
	hsl HSL
	hex string
}

// Default is the color returned when nothing better can be resolved.
func Default() Color {
	return FromRGB(255, 255, 255)
}

// FromRGB builds a Color from 8-bit channels.
func FromRGB(r, g, b uint8) Color {
	return Color{
		rgb: RGB{R: r, G: g, B: b},
		hsl: RGBToHSL(int(r), int(g), int(b)),
		hex: RGBToHex(int(r), int(g), int(b)),
	}
}

// fromInts clamps each channel to [0,255] before building the Color.
func fromInts(r, g, b int) Color {
	return FromRGB(clampByte(r), clampByte(g), clampByte(b))
}

// FromHSL builds a Color from HSL components. The HSL representation keeps
// the given (normalized) components instead of recomputing them from RGB.
func FromHSL(h, s, l int) Color {
	hsl := HSL{H: normalizeHue(h), S: clampPercent(s), L: clampPercent(l)}
	rgb := HSLToRGB(hsl.H, hsl.S, hsl.L)
	return Color{
		rgb: rgb,
		hsl: hsl,
		hex: RGBToHex(int(rgb.R), int(rgb.G), int(rgb.B)),
	}
}

// FromHex builds a Color from a 3- or 6-digit hex string, with or without
// the leading '#'. It reports false for malformed input.
func FromHex(hex string) (Color, bool) {
	rgb, ok := HexToRGB(hex)
	if !ok {
		return Color{}, false
	}
	return FromRGB(rgb.R, rgb.G, rgb.B), true
}

// RGB returns the 8-bit channels.
func (c Color) RGB() RGB { return c.rgb }

// HSL returns the HSL components.
func (c Color) HSL() HSL { return c.hsl }

// Hex returns the lowercase "#rrggbb" form.
func (c Color) Hex() string { return c.hex }

// RGBString returns "rgb(r, g, b)".
func (c Color) RGBString() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.rgb.R, c.rgb.G, c.rgb.B)
}

// HSLString returns "hsl(h, s%, l%)".
func (c Color) HSLString() string {
	return fmt.Sprintf("hsl(%d, %d%%, %d%%)", c.hsl.H, c.hsl.S, c.hsl.L)
}

// String returns the hex form.
func (c Color) String() string { return c.hex }

// IsZero reports whether c was never constructed.
func (c Color) IsZero() bool { return c.hex == "" }

// colorJSON is the wire form consumed by history display and clipboard copy.
type colorJSON struct {
	Hex string `json:"hex"`
	RGB string `json:"rgb"`
	HSL string `json:"hsl"`
}

// MarshalJSON encodes the color as {"hex": ..., "rgb": ..., "hsl": ...}.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(colorJSON{Hex: c.hex, RGB: c.RGBString(), HSL: c.HSLString()})
}

// UnmarshalJSON accepts the wire form and rebuilds the color from its hex
// field, which is authoritative.
func (c *Color) UnmarshalJSON(data []byte) error {
	var w colorJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, ok := FromHex(w.Hex)
	if !ok {
		return fmt.Errorf("invalid hex color %q", w.Hex)
	}
	*c = parsed
	return nil
}

// Lighten moves each channel percent% of the way towards 255, flooring the
// result. It is used to draw the preview gradient next to a picked color.
func Lighten(c Color, percent float64) Color {
	lift := func(v uint8) int {
		return int(math.Floor(float64(v) + (255-float64(v))*percent/100))
	}
	return fromInts(lift(c.rgb.R), lift(c.rgb.G), lift(c.rgb.B))
}

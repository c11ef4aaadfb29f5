package colorspace

import (
	"math"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

var hexPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// RGBToHex formats the channels as lowercase "#rrggbb". Each channel is
// clamped to [0,255] first.
func RGBToHex(r, g, b int) string {
	return colorful.Color{
		R: float64(clampByte(r)) / 255,
		G: float64(clampByte(g)) / 255,
		B: float64(clampByte(b)) / 255,
	}.Hex()
}

// HexToRGB parses a 3- or 6-digit hex color, with or without the leading
// '#'. The 3-digit form is expanded by digit duplication ("abc" -> "aabbcc").
// It reports false for malformed input.
func HexToRGB(hex string) (RGB, bool) {
	m := hexPattern.FindStringSubmatch(strings.TrimSpace(hex))
	if m == nil {
		return RGB{}, false
	}
	digits := m[1]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	c, err := colorful.Hex("#" + digits)
	if err != nil {
		return RGB{}, false
	}
	r, g, b := c.RGB255()
	return RGB{R: r, G: g, B: b}, true
}

// RGBToHSL converts 8-bit channels (clamped to [0,255]) to HSL.
//
// Lightness is (max+min)/2 of the normalized channels. Achromatic input
// (max == min) has hue and saturation 0. Otherwise saturation is
// d/(2-max-min) above 50% lightness and d/(max+min) at or below it, and the
// hue sector is picked by the maximal channel (red first on ties). Hue is
// reduced modulo 360 after rounding.
//
// The channels are integers, so every component is an exact fraction and
// is rounded half away from zero without floating point error.
func RGBToHSL(r, g, b int) HSL {
	rr, gg, bb := int(clampByte(r)), int(clampByte(g)), int(clampByte(b))
	mx := max(rr, gg, bb)
	mn := min(rr, gg, bb)
	sum := mx + mn
	l := roundRatio(100*sum, 510)
	d := mx - mn
	if d == 0 {
		return HSL{H: 0, S: 0, L: l}
	}

	var s int
	if sum > 255 {
		s = roundRatio(100*d, 510-sum)
	} else {
		s = roundRatio(100*d, sum)
	}

	// k/d is the hue in sixths of a turn, in [0, 6).
	var k int
	switch mx {
	case rr:
		k = gg - bb
		if gg < bb {
			k += 6 * d
		}
	case gg:
		k = bb - rr + 2*d
	default:
		k = rr - gg + 4*d
	}
	return HSL{H: normalizeHue(roundRatio(60*k, d)), S: s, L: l}
}

// HSLToRGB converts HSL (h in degrees, s and l in percent) to 8-bit channels
// with the two-stop piecewise hue interpolation. Zero saturation short-cuts
// to r = g = b = l.
func HSLToRGB(h, s, l int) RGB {
	hf := float64(normalizeHue(h))
	sf := float64(clampPercent(s)) / 100
	lf := float64(clampPercent(l)) / 100
	if sf == 0 {
		v := clampByte(roundInt(lf * 255))
		return RGB{R: v, G: v, B: v}
	}
	c := colorful.Hsl(hf, sf, lf)
	return RGB{
		R: clampByte(roundInt(c.R * 255)),
		G: clampByte(roundInt(c.G * 255)),
		B: clampByte(roundInt(c.B * 255)),
	}
}

// roundRatio rounds num/den half away from zero for num >= 0, den > 0.
func roundRatio(num, den int) int {
	return (2*num + den) / (2 * den)
}

// roundInt rounds half away from zero.
func roundInt(v float64) int {
	return int(math.Round(v))
}

func normalizeHue(h int) int {
	h %= 360
	if h < 0 {
		h += 360
	}
	return h
}

func clampByte(v int) uint8 {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}

func clampPercent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

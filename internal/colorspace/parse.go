package colorspace

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

var (
	rgbPattern     = regexp.MustCompile(`rgba?\((\d+),\s*(\d+),\s*(\d+)(?:,\s*[\d.]+)?\)`)
	hexOnlyPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	hslPattern     = regexp.MustCompile(`hsla?\((\d+),\s*(\d+)%,\s*(\d+)%(?:,\s*[\d.]+)?\)`)
)

// Computer resolves a color string that none of the numeric patterns
// recognize (named colors, hwb(), system colors, ...) into a computed-style
// string such as "rgb(255, 99, 71)". It reports false when the string is not
// a color.
//
// A live document can implement Computer by letting a transient styled
// element compute the value; [CSSComputer] does the same offline.
type Computer interface {
	ComputeColor(s string) (string, bool)
}

// CSSComputer resolves CSS color syntax without a document.
type CSSComputer struct{}

// ComputeColor implements [Computer].
func (CSSComputer) ComputeColor(s string) (string, bool) {
	c, err := csscolorparser.Parse(s)
	if err != nil {
		return "", false
	}
	r, g, b, _ := c.RGBA255()
	return FromRGB(r, g, b).RGBString(), true
}

// Parser turns raw color strings into canonical Colors.
type Parser struct {
	// Computer handles syntaxes outside rgb/hex/hsl. Nil means [CSSComputer].
	Computer Computer
}

// ParseColorString parses s with the offline CSS computer.
func ParseColorString(s string) Color {
	return Parser{}.Parse(s)
}

// Parse tries, in order: rgb()/rgba() (alpha ignored), #rgb/#rrggbb,
// hsl()/hsla() (alpha ignored), then the Computer, whose rgb() output is
// parsed again. Empty, "transparent" and unparseable input yield [Default].
func (p Parser) Parse(s string) Color {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "transparent") {
		return Default()
	}
	if c, ok := parseNumeric(s); ok {
		return c
	}

	comp := p.Computer
	if comp == nil {
		comp = CSSComputer{}
	}
	computed, ok := comp.ComputeColor(s)
	if !ok {
		return Default()
	}
	if m := rgbPattern.FindStringSubmatch(computed); m != nil {
		return fromInts(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}
	return Default()
}

// parseNumeric handles the three syntaxes that need no CSS engine.
func parseNumeric(s string) (Color, bool) {
	if m := rgbPattern.FindStringSubmatch(s); m != nil {
		return fromInts(atoi(m[1]), atoi(m[2]), atoi(m[3])), true
	}
	if hexOnlyPattern.MatchString(s) {
		return FromHex(s)
	}
	if m := hslPattern.FindStringSubmatch(s); m != nil {
		return FromHSL(atoi(m[1]), atoi(m[2]), atoi(m[3])), true
	}
	return Color{}, false
}

// atoi parses a run of digits captured by the patterns above. Overlong runs
// saturate instead of failing; channels are clamped afterwards anyway.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 1 << 30
	}
	return n
}

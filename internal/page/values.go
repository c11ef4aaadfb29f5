package page

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mazznoer/csscolorparser"
)

const transparentValue = "rgba(0, 0, 0, 0)"

// colorTokenPattern finds color candidates inside composite values
// (shadows, gradients). url() is matched first so paths are left alone.
var colorTokenPattern = regexp.MustCompile(`(?i)url\([^)]*\)|(?:rgba?|hsla?|hwb)\([^()]*\)|#[0-9a-f]{3,8}\b|[a-z][a-z-]*`)

// computedColor serializes a CSS color the way getComputedStyle does:
// "rgb(r, g, b)" when opaque, "rgba(r, g, b, a)" otherwise.
func computedColor(v string) (string, bool) {
	c, err := csscolorparser.Parse(strings.TrimSpace(v))
	if err != nil {
		return "", false
	}
	r, g, b, _ := c.RGBA255()
	if c.A >= 1 {
		return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b), true
	}
	a := strconv.FormatFloat(math.Round(math.Max(c.A, 0)*1000)/1000, 'f', -1, 64)
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, a), true
}

// normalizeColorTokens rewrites every color inside a composite value to its
// computed form, leaving everything else as written.
func normalizeColorTokens(v string) string {
	var b strings.Builder
	last := 0
	for _, loc := range colorTokenPattern.FindAllStringIndex(v, -1) {
		tok := v[loc[0]:loc[1]]
		lower := strings.ToLower(tok)
		if strings.HasPrefix(lower, "url(") {
			continue
		}
		if loc[1] < len(v) && v[loc[1]] == '(' {
			continue // function name
		}
		if loc[0] > 0 && isIdentByte(v[loc[0]-1]) {
			continue // unit suffix such as the "px" of "2px"
		}
		c, ok := computedColor(tok)
		if !ok {
			continue
		}
		b.WriteString(v[last:loc[0]])
		b.WriteString(c)
		last = loc[1]
	}
	b.WriteString(v[last:])
	return b.String()
}

func isIdentByte(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '-' || c == '_' || c == '.'
}

// splitTopLevel splits a value on whitespace and commas outside parentheses.
func splitTopLevel(v string) []string {
	var out []string
	depth, start := 0, -1
	for i, r := range v {
		switch {
		case r == '(':
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0 && (r == ',' || r == ' ' || r == '\t' || r == '\n'):
			if start >= 0 {
				out = append(out, v[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, v[start:])
	}
	return out
}

// colorOf returns the last color token of a shorthand value.
func colorOf(tokens []string) (string, bool) {
	var found string
	for _, tok := range tokens {
		if strings.EqualFold(tok, "currentcolor") {
			found = "currentcolor"
			continue
		}
		if c, ok := computedColor(tok); ok {
			found = c
		}
	}
	return found, found != ""
}

var cssWideKeywords = map[string]bool{"inherit": true, "initial": true, "unset": true}

var borderSides = []string{"top", "right", "bottom", "left"}

// expand turns a declaration into longhand declarations. Properties that
// are not shorthands are returned as they are.
func expand(d declaration) []declaration {
	value := strings.TrimSpace(d.value)
	with := func(prop, v string) declaration {
		return declaration{property: prop, value: v, important: d.important}
	}
	keyword := cssWideKeywords[strings.ToLower(value)]

	switch d.property {
	case "background":
		if keyword {
			return []declaration{with("background-color", value), with("background-image", value)}
		}
		bg, img := transparentValue, "none"
		var images []string
		for _, tok := range splitTopLevel(value) {
			l := strings.ToLower(tok)
			if strings.HasPrefix(l, "url(") || strings.Contains(l, "gradient(") {
				images = append(images, tok)
				continue
			}
			if c, ok := colorOf([]string{tok}); ok {
				bg = c
			}
		}
		if len(images) > 0 {
			img = strings.Join(images, ", ")
		}
		return []declaration{with("background-color", bg), with("background-image", img)}

	case "border", "border-top", "border-right", "border-bottom", "border-left":
		c := value
		if !keyword {
			var ok bool
			if c, ok = colorOf(splitTopLevel(value)); !ok {
				c = "currentcolor"
			}
		}
		if d.property != "border" {
			return []declaration{with(d.property+"-color", c)}
		}
		out := make([]declaration, 0, len(borderSides))
		for _, side := range borderSides {
			out = append(out, with("border-"+side+"-color", c))
		}
		return out

	case "border-color":
		vals := splitTopLevel(value)
		if keyword || len(vals) == 0 {
			vals = []string{value}
		}
		// top, right, bottom, left with the usual 1-4 value repetition.
		pick := [][]int{nil, {0, 0, 0, 0}, {0, 1, 0, 1}, {0, 1, 2, 1}, {0, 1, 2, 3}}
		n := len(vals)
		if n > 4 {
			n = 4
		}
		out := make([]declaration, 0, len(borderSides))
		for i, side := range borderSides {
			out = append(out, with("border-"+side+"-color", vals[pick[n][i]]))
		}
		return out

	case "outline":
		c := value
		if !keyword {
			var ok bool
			if c, ok = colorOf(splitTopLevel(value)); !ok {
				c = "currentcolor"
			}
		}
		return []declaration{with("outline-color", c)}
	}
	return []declaration{with(d.property, value)}
}

// parseLength parses "12px", "12", or a percentage of ref. "auto" and
// unparseable values report false.
func parseLength(v string, ref float64) (float64, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || v == "auto" {
		return 0, false
	}
	if p, ok := strings.CutSuffix(v, "%"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, false
		}
		return ref * f / 100, true
	}
	v = strings.TrimSuffix(v, "px")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Package cascade derives a color from an element's computed styles when
// there are no pixels to sample.
//
// Resolve always returns a usable color string. The rules, first match
// wins:
//
//  1. background-color, unless transparent
//  2. the first color literal in a linear-gradient, else radial-gradient,
//     background image
//  3. border-top, -right, -bottom, -left color, then the border-color
//     shorthand, skipping transparent and currentcolor
//  4. color, unless transparent
//  5. outline-color, unless transparent or currentcolor
//  6. the first color literal of a box-shadow
//  7. fill, unless none, transparent or currentcolor
//  8. stroke, under the same exclusions
//  9. the first color literal of a text-shadow
//  10. the background-color of the nearest of up to AncestorDepth ancestors
//  11. the ::before, then ::after, background-color
//  12. opaque white
//
// Gradients are not evaluated at the sample point: the first color literal
// of the argument list stands for the whole gradient.
package cascade

import (
	"regexp"
	"strings"

	"github.com/ironsheep/color-picker-mcp/internal/dom"
)

// AncestorDepth is the number of ancestors whose backgrounds are checked.
const AncestorDepth = 10

// DefaultColor is returned when no rule matches.
const DefaultColor = "rgb(255, 255, 255)"

var (
	gradientLiteral = regexp.MustCompile(`rgb\([^)]+\)|rgba\([^)]+\)|#[0-9a-fA-F]{3,6}|hsl\([^)]+\)|hsla\([^)]+\)`)
	shadowLiteral   = regexp.MustCompile(`rgb\([^)]+\)|rgba\([^)]+\)|#[0-9a-fA-F]{3,6}`)
)

// Step identifies the rule that produced a color.
type Step int

const (
	StepBackground Step = iota + 1
	StepGradient
	StepBorder
	StepText
	StepOutline
	StepBoxShadow
	StepFill
	StepStroke
	StepTextShadow
	StepAncestor
	StepPseudo
	StepDefault
)

var stepNames = map[Step]string{
	StepBackground: "background-color",
	StepGradient:   "gradient",
	StepBorder:     "border-color",
	StepText:       "color",
	StepOutline:    "outline-color",
	StepBoxShadow:  "box-shadow",
	StepFill:       "fill",
	StepStroke:     "stroke",
	StepTextShadow: "text-shadow",
	StepAncestor:   "ancestor-background",
	StepPseudo:     "pseudo-background",
	StepDefault:    "default",
}

func (s Step) String() string {
	if n, ok := stepNames[s]; ok {
		return n
	}
	return "unknown"
}

// Resolve returns the color string for el.
func Resolve(el dom.Element) string {
	c, _ := Explain(el)
	return c
}

// Explain is Resolve that also reports which rule matched.
func Explain(el dom.Element) (string, Step) {
	if el == nil {
		return DefaultColor, StepDefault
	}
	if s, ok := el.ComputedStyle(""); ok {
		if c, step, found := ownStyle(s); found {
			return c, step
		}
	}

	p := el.Parent()
	for depth := 0; p != nil && depth < AncestorDepth; depth++ {
		if s, ok := p.ComputedStyle(""); ok {
			if bg := s.Value("background-color"); !isTransparent(bg) {
				return bg, StepAncestor
			}
		}
		p = p.Parent()
	}

	for _, pseudo := range []string{"::before", "::after"} {
		if s, ok := el.ComputedStyle(pseudo); ok {
			if bg := s.Value("background-color"); !isTransparent(bg) {
				return bg, StepPseudo
			}
		}
	}
	return DefaultColor, StepDefault
}

// ownStyle applies rules 1 to 9.
func ownStyle(s dom.Style) (string, Step, bool) {
	if bg := s.Value("background-color"); !isTransparent(bg) {
		return bg, StepBackground, true
	}
	if c, ok := gradientColor(s.Value("background-image")); ok {
		return c, StepGradient, true
	}
	for _, prop := range []string{"border-top-color", "border-right-color", "border-bottom-color", "border-left-color", "border-color"} {
		if c := s.Value(prop); !isTransparent(c) && !isCurrentColor(c) {
			return c, StepBorder, true
		}
	}
	if c := s.Value("color"); !isTransparent(c) {
		return c, StepText, true
	}
	if c := s.Value("outline-color"); !isTransparent(c) && !isCurrentColor(c) {
		return c, StepOutline, true
	}
	if c, ok := shadowColor(s.Value("box-shadow")); ok {
		return c, StepBoxShadow, true
	}
	if c := s.Value("fill"); isPaint(c) {
		return c, StepFill, true
	}
	if c := s.Value("stroke"); isPaint(c) {
		return c, StepStroke, true
	}
	if c, ok := shadowColor(s.Value("text-shadow")); ok {
		return c, StepTextShadow, true
	}
	return "", 0, false
}

// gradientColor scans the argument list of the first linear-gradient, then
// radial-gradient, for a color literal.
func gradientColor(bg string) (string, bool) {
	lower := strings.ToLower(bg)
	for _, fn := range []string{"linear-gradient(", "radial-gradient("} {
		i := strings.Index(lower, fn)
		if i < 0 {
			continue
		}
		if m := gradientLiteral.FindString(argumentList(bg[i+len(fn):])); m != "" {
			return m, true
		}
	}
	return "", false
}

// argumentList returns s up to the parenthesis closing an already opened
// call, or all of s when it is unbalanced.
func argumentList(s string) string {
	depth := 1
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[:i]
			}
		}
	}
	return s
}

func shadowColor(v string) (string, bool) {
	if v == "" || strings.EqualFold(strings.TrimSpace(v), "none") {
		return "", false
	}
	m := shadowLiteral.FindString(v)
	return m, m != ""
}

// isTransparent reports whether v is empty, the keyword transparent or the
// fully transparent rgba(0, 0, 0, 0) form.
func isTransparent(v string) bool {
	v = strings.ToLower(strings.Join(strings.Fields(v), ""))
	return v == "" || v == "transparent" || v == "rgba(0,0,0,0)"
}

func isCurrentColor(v string) bool {
	return strings.EqualFold(strings.TrimSpace(v), "currentcolor")
}

// isPaint reports whether an SVG paint value names a usable color.
func isPaint(v string) bool {
	return !isTransparent(v) && !isCurrentColor(v) && !strings.EqualFold(strings.TrimSpace(v), "none")
}

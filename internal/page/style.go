package page

import (
	"regexp"
	"strings"
)

// initialStyle mirrors the computed style a browser reports for an element
// no rule touches.
var initialStyle = Style{
	"background-color":    transparentValue,
	"background-image":    "none",
	"color":               "rgb(0, 0, 0)",
	"fill":                "rgb(0, 0, 0)",
	"stroke":              "none",
	"border-top-color":    "currentcolor",
	"border-right-color":  "currentcolor",
	"border-bottom-color": "currentcolor",
	"border-left-color":   "currentcolor",
	"border-color":        "currentcolor",
	"outline-color":       "currentcolor",
	"box-shadow":          "none",
	"text-shadow":         "none",
	"display":             "block",
	"visibility":          "visible",
	"pointer-events":      "auto",
	"position":            "static",
}

var inheritedProperties = []string{"color", "fill", "stroke", "visibility", "pointer-events"}

func isInherited(prop string) bool {
	for _, p := range inheritedProperties {
		if p == prop {
			return true
		}
	}
	return false
}

// unrenderedTags never produce a box.
var unrenderedTags = map[string]bool{
	"head": true, "script": true, "style": true, "title": true,
	"meta": true, "link": true, "template": true, "base": true,
}

var colorProperties = map[string]bool{
	"color": true, "background-color": true, "outline-color": true,
	"border-top-color": true, "border-right-color": true,
	"border-bottom-color": true, "border-left-color": true,
	"fill": true, "stroke": true,
}

var keywordProperties = map[string]bool{
	"display": true, "visibility": true, "pointer-events": true, "position": true,
}

var cssURLPattern = regexp.MustCompile(`url\(\s*(?:"([^"]*)"|'([^']*)'|([^)\s]*))\s*\)`)

// computeStyle cascades decls over the initial style and the values
// inherited from parent. Normal declarations apply in order, then
// !important ones in order. resolve makes url() references absolute.
func computeStyle(tag string, parent Style, decls []declaration, resolve func(string) string) Style {
	s := initialStyle.clone()
	if unrenderedTags[tag] {
		s["display"] = "none"
	}
	if parent != nil {
		for _, p := range inheritedProperties {
			s[p] = parent[p]
		}
	}

	for _, important := range []bool{false, true} {
		for _, d := range decls {
			if d.important != important {
				continue
			}
			if v, ok := computeValue(d.property, d.value, parent, resolve); ok {
				s[d.property] = v
			}
		}
	}

	s["border-color"] = borderColor(s)
	return s
}

// computeValue turns one declared value into its computed form. It reports
// false for values a browser would reject.
func computeValue(prop, raw string, parent Style, resolve func(string) string) (string, bool) {
	v := strings.TrimSpace(raw)
	lower := strings.ToLower(v)

	switch lower {
	case "inherit":
		if parent != nil {
			return parent[prop], true
		}
		return initialStyle[prop], true
	case "initial":
		return initialStyle[prop], true
	case "unset":
		if isInherited(prop) && parent != nil {
			return parent[prop], true
		}
		return initialStyle[prop], true
	}

	switch {
	case colorProperties[prop]:
		if lower == "currentcolor" {
			if prop == "color" {
				if parent != nil {
					return parent["color"], true
				}
				return initialStyle["color"], true
			}
			return "currentcolor", true
		}
		if (prop == "fill" || prop == "stroke") && (lower == "none" || strings.HasPrefix(lower, "url(")) {
			return v, true
		}
		return computedColor(v)

	case prop == "background-image":
		if lower == "none" {
			return "none", true
		}
		v = cssURLPattern.ReplaceAllStringFunc(v, func(m string) string {
			sub := cssURLPattern.FindStringSubmatch(m)
			ref := sub[1] + sub[2] + sub[3]
			if resolve != nil {
				ref = resolve(ref)
			}
			return `url("` + ref + `")`
		})
		return normalizeColorTokens(v), true

	case prop == "box-shadow" || prop == "text-shadow":
		if lower == "none" {
			return "none", true
		}
		return normalizeColorTokens(v), true

	case keywordProperties[prop]:
		return lower, true
	}
	return v, true
}

// borderColor serializes the border-color shorthand from its sides.
func borderColor(s Style) string {
	top := s["border-top-color"]
	if s["border-right-color"] == top && s["border-bottom-color"] == top && s["border-left-color"] == top {
		return top
	}
	return strings.Join([]string{top, s["border-right-color"], s["border-bottom-color"], s["border-left-color"]}, " ")
}

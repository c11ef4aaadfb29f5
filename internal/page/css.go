package page

import (
	"strings"

	"github.com/aymerick/douceur/css"
	"github.com/aymerick/douceur/parser"
	selcss "github.com/ericchiang/css"
	"golang.org/x/net/html"

	"github.com/ironsheep/color-picker-mcp/internal/logging"
)

// declaration is one longhand property assignment.
type declaration struct {
	property  string
	value     string
	important bool
}

// matchedRules maps each HTML node to the declarations that apply to it,
// per pseudo-element ("" for the element itself), in cascade order.
type matchedRules map[*html.Node]map[string][]declaration

func (m matchedRules) add(n *html.Node, pseudo string, decls []*css.Declaration) {
	byPseudo := m[n]
	if byPseudo == nil {
		byPseudo = map[string][]declaration{}
		m[n] = byPseudo
	}
	for _, d := range decls {
		byPseudo[pseudo] = append(byPseudo[pseudo], expand(declaration{
			property:  strings.ToLower(strings.TrimSpace(d.Property)),
			value:     d.Value,
			important: d.Important,
		})...)
	}
}

// addStylesheet matches every rule of a <style> block against the tree.
// Rules nested in at-rules (@media, @supports) apply unconditionally.
func (m matchedRules) addStylesheet(root *html.Node, text string) {
	ss, err := parser.Parse(text)
	if err != nil {
		logging.Logger().Warn("stylesheet ignored", "error", err)
		return
	}
	m.addRules(root, ss.Rules)
}

func (m matchedRules) addRules(root *html.Node, rules []*css.Rule) {
	for _, rule := range rules {
		if rule.Kind == css.AtRule {
			m.addRules(root, rule.Rules)
			continue
		}
		for _, selector := range rule.Selectors {
			base, pseudo := splitPseudo(selector)
			sel, err := selcss.Parse(base)
			if err != nil {
				logging.Logger().Debug("selector ignored", "selector", selector, "error", err)
				continue
			}
			for _, match := range sel.Select(root) {
				m.add(match, pseudo, rule.Declarations)
			}
		}
	}
}

// addInline applies a style attribute to n.
func (m matchedRules) addInline(n *html.Node, text string) {
	// the declaration parser is strict about the trailing semicolon
	if !strings.HasSuffix(strings.TrimSpace(text), ";") {
		text += ";"
	}
	decls, err := parser.ParseDeclarations(text)
	if err != nil {
		logging.Logger().Debug("inline style ignored", "style", text, "error", err)
		return
	}
	m.add(n, "", decls)
}

// presentationAttributes are SVG attributes that act as declarations
// weaker than any stylesheet rule.
var presentationAttributes = []string{"fill", "stroke", "color"}

// addPresentation applies the SVG presentation attributes of n.
func (m matchedRules) addPresentation(n *html.Node) {
	var decls []*css.Declaration
	for _, name := range presentationAttributes {
		for _, a := range n.Attr {
			if strings.EqualFold(a.Key, name) {
				decls = append(decls, &css.Declaration{Property: name, Value: a.Val})
			}
		}
	}
	if len(decls) > 0 {
		m.add(n, "", decls)
	}
}

var pseudoElements = []struct{ suffix, name string }{
	{"::before", "::before"},
	{"::after", "::after"},
	{":before", "::before"},
	{":after", "::after"},
}

// splitPseudo separates a trailing ::before/::after from a selector.
func splitPseudo(selector string) (string, string) {
	s := strings.TrimSpace(selector)
	lower := strings.ToLower(s)
	for _, p := range pseudoElements {
		if strings.HasSuffix(lower, p.suffix) {
			base := strings.TrimSpace(s[:len(s)-len(p.suffix)])
			if base == "" {
				base = "*"
			}
			return base, p.name
		}
	}
	return s, ""
}

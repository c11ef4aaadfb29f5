package resolve

import (
	"context"
	"fmt"

	"github.com/ironsheep/color-picker-mcp/internal/cascade"
	"github.com/ironsheep/color-picker-mcp/internal/colorspace"
	"github.com/ironsheep/color-picker-mcp/internal/dom"
	"github.com/ironsheep/color-picker-mcp/internal/imaging"
	"github.com/ironsheep/color-picker-mcp/internal/logging"
)

// Strategy names the step that produced a resolution.
type Strategy string

const (
	StrategyNative     Strategy = "native"
	StrategyImage      Strategy = "image-pixel"
	StrategyCanvas     Strategy = "canvas-pixel"
	StrategySVG        Strategy = "svg-style"
	StrategyBackground Strategy = "background-image"
	StrategyCascade    Strategy = "style-cascade"
	StrategyNone       Strategy = "none"
)

// Resolution is the color at a position and how it was found.
type Resolution struct {
	Color    colorspace.Color `json:"color"`
	Strategy Strategy         `json:"strategy"`

	// Rule is the cascade rule for StrategyCascade ("background-color",
	// "ancestor-background", ...).
	Rule string `json:"rule,omitempty"`

	// Raw is the color string before canonicalization.
	Raw string `json:"raw,omitempty"`

	// Element describes the hit element, e.g. "div#card".
	Element string `json:"element,omitempty"`
}

// Options configures a Pipeline.
type Options struct {
	// Sampler reads pixels. Nil means a sampler with the default loader and
	// the default deny list.
	Sampler *imaging.Sampler

	// Native enables the document's ScreenSampler when it has one.
	Native bool

	// Backgrounds enables sampling of url() background images.
	Backgrounds bool
}

// Pipeline resolves positions to colors. It holds no per-call state and is
// safe for concurrent use.
type Pipeline struct {
	sampler     *imaging.Sampler
	native      bool
	backgrounds bool
}

// NewPipeline returns a Pipeline.
func NewPipeline(opts Options) *Pipeline {
	s := opts.Sampler
	if s == nil {
		s = imaging.NewSampler(nil, imaging.SourcePolicy{DenyHosts: imaging.DefaultDenyHosts})
	}
	return &Pipeline{sampler: s, native: opts.Native, backgrounds: opts.Backgrounds}
}

// ResolveAt returns the color at pos. It never fails: when ctx is
// cancelled the result is the default color with StrategyNone.
//
// layers are hidden while the hit element is looked up.
func (p *Pipeline) ResolveAt(ctx context.Context, doc dom.Document, pos dom.Position, layers ...dom.Layer) Resolution {
	r, ok := p.Resolve(ctx, doc, pos, layers...)
	if !ok {
		return Resolution{Color: colorspace.Default(), Strategy: StrategyNone}
	}
	return r
}

// Resolve is ResolveAt that reports false when ctx was cancelled before a
// strategy produced a color. Cancellation is checked between steps.
func (p *Pipeline) Resolve(ctx context.Context, doc dom.Document, pos dom.Position, layers ...dom.Layer) (Resolution, bool) {
	log := logging.Logger()
	if ctx.Err() != nil {
		return Resolution{}, false
	}

	if p.native {
		if ss, ok := doc.(dom.ScreenSampler); ok {
			px, err := ss.SampleScreen(ctx, pos)
			switch {
			case err != nil:
				log.Debug("native sampling failed", "error", err)
			case px.A > 0:
				c := colorspace.FromRGB(px.R, px.G, px.B)
				return Resolution{Color: c, Strategy: StrategyNative, Raw: c.RGBString()}, true
			}
		}
		if ctx.Err() != nil {
			return Resolution{}, false
		}
	}

	el := elementFromPoint(doc, pos, layers)
	if el == nil {
		log.Debug("no element at position", "x", pos.X, "y", pos.Y)
		return Resolution{Color: colorspace.Default(), Strategy: StrategyNone}, true
	}

	target := dom.Classify(el, doc.Origin())
	parser := colorspace.Parser{Computer: computerOf(doc)}
	done := func(s Strategy, raw, rule string) (Resolution, bool) {
		log.Debug("color resolved", "strategy", s, "rule", rule, "raw", raw, "kind", target.Kind)
		return Resolution{Color: parser.Parse(raw), Strategy: s, Rule: rule, Raw: raw, Element: describe(el)}, true
	}

	type step struct {
		strategy Strategy
		run      func() (string, bool)
	}
	steps := []step{
		{StrategyImage, func() (string, bool) {
			if target.Kind != dom.KindImage {
				return "", false
			}
			return p.sampler.SampleImage(ctx, target, pos)
		}},
		{StrategyCanvas, func() (string, bool) {
			if target.Kind != dom.KindCanvas {
				return "", false
			}
			return p.sampler.SampleCanvas(target, pos)
		}},
		{StrategySVG, func() (string, bool) {
			if !target.InSVG {
				return "", false
			}
			return p.sampler.SampleSVG(target)
		}},
		{StrategyBackground, func() (string, bool) {
			if !p.backgrounds {
				return "", false
			}
			s, ok := el.ComputedStyle("")
			if !ok {
				return "", false
			}
			return p.sampler.SampleBackground(ctx, target, pos, s.Value("background-image"))
		}},
	}

	for _, st := range steps {
		if ctx.Err() != nil {
			return Resolution{}, false
		}
		if raw, ok := st.run(); ok {
			return done(st.strategy, raw, "")
		}
	}
	if ctx.Err() != nil {
		return Resolution{}, false
	}

	raw, rule := cascade.Explain(el)
	return done(StrategyCascade, raw, rule.String())
}

// elementFromPoint hides the picker layers for the duration of the lookup.
func elementFromPoint(doc dom.Document, pos dom.Position, layers []dom.Layer) dom.Element {
	restores := make([]func(), 0, len(layers))
	defer func() {
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
	}()
	for _, l := range layers {
		restores = append(restores, l.Hide())
	}
	return doc.ElementFromPoint(pos)
}

func computerOf(doc dom.Document) colorspace.Computer {
	if c, ok := doc.(colorspace.Computer); ok {
		return c
	}
	return colorspace.CSSComputer{}
}

func describe(el dom.Element) string {
	if id := el.ID(); id != "" {
		return fmt.Sprintf("%s#%s", el.Tag(), id)
	}
	return el.Tag()
}

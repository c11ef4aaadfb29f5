package dom

// Kind is the variant of a Target.
type Kind int

const (
	// KindStyled is a generic element, resolvable from its styles only.
	KindStyled Kind = iota
	// KindImage is an <img> element with a rasterizable bitmap.
	KindImage
	// KindCanvas is a <canvas> element with a pixel buffer.
	KindCanvas
	// KindSVG is an <svg> element or an element inside one.
	KindSVG
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindCanvas:
		return "canvas"
	case KindSVG:
		return "svg"
	default:
		return "styled"
	}
}

// Target is the element under the query point, classified once per
// resolution call.
type Target struct {
	Kind    Kind
	Element Element

	// Image is set for KindImage.
	Image ImageElement

	// Canvas is set for KindCanvas.
	Canvas CanvasElement

	// InSVG reports whether the element is an <svg> or has one as ancestor.
	// It can be true for any kind.
	InSVG bool

	// Origin is the origin of the document the element belongs to.
	Origin string
}

// Classify inspects el and returns its Target.
func Classify(el Element, origin string) Target {
	t := Target{Kind: KindStyled, Element: el, Origin: origin}
	if el == nil {
		return t
	}
	t.InSVG = el.Tag() == "svg" || Closest(el, "svg") != nil

	switch el.Tag() {
	case "img":
		if img, ok := el.(ImageElement); ok {
			t.Kind = KindImage
			t.Image = img
			return t
		}
	case "canvas":
		if cv, ok := el.(CanvasElement); ok {
			t.Kind = KindCanvas
			t.Canvas = cv
			return t
		}
	}
	if t.InSVG {
		t.Kind = KindSVG
	}
	return t
}

// Closest returns the nearest strict ancestor of el with the given tag.
func Closest(el Element, tag string) Element {
	for p := el.Parent(); p != nil; p = p.Parent() {
		if p.Tag() == tag {
			return p
		}
	}
	return nil
}

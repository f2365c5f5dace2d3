// Package picture builds responsive <picture> elements from up to two authored
// source images (desktop and mobile).
//
// Construction is split in two steps:
//   - Build decides which conditional sources and which fallback image to emit.
//     It is pure and knows nothing about the HTML tree.
//   - Render materializes a Spec as fresh html.Node values.
//
// Neither step mutates the authored source nodes.
package picture

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Breakpoint is the viewport width (CSS pixels) at which the desktop source
// takes over from the mobile source.
const Breakpoint = 768

const (
	NarrowMedia = "(max-width: 767px)"
	WideMedia   = "(min-width: 768px)"

	LoadingLazy = "lazy"
)

// Source is a reference to one authored image.
type Source struct {
	URL string
	Alt string

	// Node is the authored <img>, if any. It is only ever read or cloned.
	Node *html.Node
}

// ConditionalSource is one <source> entry of a picture.
type ConditionalSource struct {
	Media  string
	SrcSet string
}

// Fallback describes the <img> every picture ends with.
type Fallback struct {
	URL  string
	Alt  string
	Lazy bool

	// Origin is set when the fallback duplicates a single authored image.
	// Render clones it so authored attributes (width, height, class...) survive.
	Origin *html.Node
}

// Spec is the tagged result of Build.
//
// A zero Spec (no sources, nil Fallback) means no usable image was supplied.
type Spec struct {
	Sources  []ConditionalSource
	Fallback *Fallback
}

// Empty reports whether the spec carries no image at all.
func (s Spec) Empty() bool {
	return s.Fallback == nil
}

// SourceFromNode reads src and alt off an <img> node. It returns nil for nil.
func SourceFromNode(n *html.Node) *Source {
	if n == nil {
		return nil
	}
	return &Source{
		URL:  attr(n, "src"),
		Alt:  attr(n, "alt"),
		Node: n,
	}
}

// Build decides the shape of the responsive image.
//
// Resolution rules:
//   - neither source: zero Spec.
//   - both sources with different URLs: a narrow source bound to the mobile
//     URL, a wide source bound to the desktop URL, then a lazy fallback on the
//     desktop URL.
//   - otherwise the single resolved source (desktop first) becomes the lazy
//     fallback and no conditional sources are emitted.
//
// The fallback alt text is altOverride when non-empty, else the chosen
// source's own alt, else "".
func Build(desktop, mobile *Source, altOverride string) Spec {
	if desktop == nil && mobile == nil {
		return Spec{}
	}

	if desktop != nil && mobile != nil && desktop.URL != mobile.URL {
		return Spec{
			Sources: []ConditionalSource{
				{Media: NarrowMedia, SrcSet: mobile.URL},
				{Media: WideMedia, SrcSet: desktop.URL},
			},
			Fallback: &Fallback{
				URL:  desktop.URL,
				Alt:  resolveAlt(altOverride, desktop.Alt),
				Lazy: true,
			},
		}
	}

	src := desktop
	if src == nil {
		src = mobile
	}
	return Spec{
		Fallback: &Fallback{
			URL:    src.URL,
			Alt:    resolveAlt(altOverride, src.Alt),
			Lazy:   true,
			Origin: src.Node,
		},
	}
}

func resolveAlt(override, own string) string {
	if override != "" {
		return override
	}
	return own
}

// Render materializes spec as a new, parentless <picture> element.
// An empty spec renders as an empty <picture>.
func Render(spec Spec) *html.Node {
	pic := newElement(atom.Picture)

	for _, s := range spec.Sources {
		src := newElement(atom.Source)
		setAttr(src, "media", s.Media)
		setAttr(src, "srcset", s.SrcSet)
		pic.AppendChild(src)
	}

	if spec.Fallback != nil {
		pic.AppendChild(renderFallback(spec.Fallback))
	}
	return pic
}

// BuildResponsivePicture is Render(Build(desktop, mobile, altOverride)).
func BuildResponsivePicture(desktop, mobile *Source, altOverride string) *html.Node {
	return Render(Build(desktop, mobile, altOverride))
}

func renderFallback(fb *Fallback) *html.Node {
	var img *html.Node
	if fb.Origin != nil {
		img = cloneNode(fb.Origin)
	} else {
		img = newElement(atom.Img)
		setAttr(img, "src", fb.URL)
	}
	setAttr(img, "alt", fb.Alt)
	if fb.Lazy {
		setAttr(img, "loading", LoadingLazy)
	}
	return img
}

// cloneNode deep-copies n into a detached tree.
func cloneNode(n *html.Node) *html.Node {
	return goquery.NewDocumentFromNode(n).Clone().Get(0)
}

func newElement(a atom.Atom) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// setAttr overwrites key in place, or appends it.
func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

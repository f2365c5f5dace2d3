// Package linkwrap wraps a rendered element in an anchor.
package linkwrap

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	TargetSelf  = "_self"
	TargetBlank = "_blank"

	// RelNewContext isolates the opener and suppresses the referrer for links
	// that open a new browsing context.
	RelNewContext = "noopener noreferrer"
)

// Wrap returns a new <a> element whose only child is content.
//
// href and target are always set. title is set only when non-empty. rel is
// set to RelNewContext only when target is TargetBlank; any other target
// value is passed through untouched and gets no rel.
//
// content is detached from its current parent before it is appended.
func Wrap(href, title, target string, content *html.Node) *html.Node {
	a := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.A,
		Data:     atom.A.String(),
	}
	a.Attr = append(a.Attr,
		html.Attribute{Key: "href", Val: href},
		html.Attribute{Key: "target", Val: target},
	)
	if title != "" {
		a.Attr = append(a.Attr, html.Attribute{Key: "title", Val: title})
	}
	if target == TargetBlank {
		a.Attr = append(a.Attr, html.Attribute{Key: "rel", Val: RelNewContext})
	}

	if content != nil {
		if content.Parent != nil {
			content.Parent.RemoveChild(content)
		}
		a.AppendChild(content)
	}
	return a
}

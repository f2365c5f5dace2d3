package block

import (
	"strings"

	"pictureblock/internal/linkwrap"
	"pictureblock/internal/picture"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// Row positions of the authored block. The authoring tool emits exactly these
// five rows in this order.
const (
	rowDesktop = iota
	rowMobile
	rowAlt
	rowLink
	rowTarget
)

// Rows is the named view of the five positional rows of a picture-link block.
//
// Missing rows leave their slot at the zero value.
type Rows struct {
	Desktop *picture.Source
	Mobile  *picture.Source
	Alt     string
	Link    *html.Node // first <a> of the link row
	Target  string     // never empty; defaults to linkwrap.TargetSelf
}

// ReadRows extracts the named slots from block's direct children.
func ReadRows(block *goquery.Selection) Rows {
	rows := block.First().Children()

	r := Rows{
		Desktop: picture.SourceFromNode(firstNode(rows.Eq(rowDesktop).Find("img"))),
		Mobile:  picture.SourceFromNode(firstNode(rows.Eq(rowMobile).Find("img"))),
		Alt:     rowText(rows.Eq(rowAlt)),
		Link:    firstNode(rows.Eq(rowLink).Find("a")),
		Target:  rowText(rows.Eq(rowTarget)),
	}
	if r.Target == "" {
		r.Target = linkwrap.TargetSelf
	}
	return r
}

// HasImage reports whether at least one of the image rows produced a source.
func (r Rows) HasImage() bool {
	return r.Desktop != nil || r.Mobile != nil
}

// Href returns the link row's href, or "" when there is no anchor.
func (r Rows) Href() string {
	return linkAttr(r.Link, "href")
}

// Title returns the link row anchor's own title attribute. The authoring tool
// collapses the separate link-title field into it.
func (r Rows) Title() string {
	return linkAttr(r.Link, "title")
}

func linkAttr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func firstNode(sel *goquery.Selection) *html.Node {
	if sel.Length() == 0 {
		return nil
	}
	return sel.Get(0)
}

func rowText(row *goquery.Selection) string {
	if row.Length() == 0 {
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(row.Text()))
}

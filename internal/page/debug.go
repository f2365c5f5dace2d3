package page

import (
	"fmt"
	"io"
	"strings"

	"pictureblock/internal/block"
	"pictureblock/internal/picture"

	"github.com/PuerkitoBio/goquery"
)

// DebugPrintRows prints the named slots read from every block matched by
// selector, without decorating anything. It is the "-rows" mode of the
// command and helps authors see how their rows are interpreted.
func DebugPrintRows(w io.Writer, src, selector string) error {
	m, err := Options{Selector: selector}.matcher()
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("parse html: %w", err)
	}

	doc.FindMatcher(m).Each(func(i int, sel *goquery.Selection) {
		r := block.ReadRows(sel)

		fmt.Fprintf(w, "block %d:\n", i+1)
		fmt.Fprintf(w, "  desktop: %s\n", describeSource(r.Desktop))
		fmt.Fprintf(w, "  mobile:  %s\n", describeSource(r.Mobile))
		fmt.Fprintf(w, "  alt:     %q\n", r.Alt)
		if r.Link == nil {
			fmt.Fprintln(w, "  link:    -")
		} else {
			fmt.Fprintf(w, "  link:    %q (title %q)\n", r.Href(), r.Title())
		}
		fmt.Fprintf(w, "  target:  %s\n", r.Target)
		fmt.Fprintln(w)
	})
	return nil
}

func describeSource(s *picture.Source) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("%s (alt %q)", s.URL, s.Alt)
}

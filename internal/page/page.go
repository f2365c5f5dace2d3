// Package page runs the block decorator over whole HTML documents.
//
// It finds every block root matched by a CSS selector, decorates each one in
// document order, and serializes the resulting document. Each block and page
// is reported to internal/metrics.
package page

import (
	"fmt"
	"strings"
	"time"

	"pictureblock/internal/block"
	"pictureblock/internal/metrics"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// DefaultSelector matches the block roots the authoring tool emits.
const DefaultSelector = "div.picture-link"

// Options configures page decoration.
type Options struct {
	// Selector matches block roots. Empty means DefaultSelector.
	Selector string

	Block block.Options
}

// Stats counts what a decoration pass did.
type Stats struct {
	Pages    int
	Blocks   int
	Linked   int
	Pictures int
	Missing  int
	Sources  int
}

// Add accounts for one decorated block.
func (s *Stats) Add(r block.Result) {
	s.Blocks++
	s.Sources += r.Sources
	switch r.Outcome {
	case block.OutcomeLinked:
		s.Linked++
	case block.OutcomePicture:
		s.Pictures++
	case block.OutcomeMissingImage:
		s.Missing++
	}
}

// Merge folds o into s.
func (s *Stats) Merge(o Stats) {
	s.Pages += o.Pages
	s.Blocks += o.Blocks
	s.Linked += o.Linked
	s.Pictures += o.Pictures
	s.Missing += o.Missing
	s.Sources += o.Sources
}

func (o Options) matcher() (cascadia.Selector, error) {
	sel := strings.TrimSpace(o.Selector)
	if sel == "" {
		sel = DefaultSelector
	}
	m, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", sel, err)
	}
	return m, nil
}

// DecorateHTML decorates every block in src and returns the serialized
// document.
//
// src is parsed as a full HTML document, so fragments come back wrapped in
// <html><head></head><body>. A document without blocks is returned
// re-serialized and is not an error.
func DecorateHTML(src string, opts Options) (string, Stats, error) {
	start := time.Now()

	out, stats, err := decorateHTML(src, opts)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.IncCounter(metrics.PagesTotal, 1, metrics.Labels{"status": status})
	metrics.ObserveHistogram(metrics.PageDurationSeconds, time.Since(start).Seconds(), metrics.Labels{"status": status})

	return out, stats, err
}

func decorateHTML(src string, opts Options) (string, Stats, error) {
	m, err := opts.matcher()
	if err != nil {
		return "", Stats{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return "", Stats{}, fmt.Errorf("parse html: %w", err)
	}

	stats := decorateDocument(doc, m, opts.Block)

	out, err := doc.Html()
	if err != nil {
		return "", Stats{}, fmt.Errorf("render html: %w", err)
	}
	return out, stats, nil
}

// decorateDocument decorates each match of m. Matches are collected before
// any mutation, so nested blocks inside a decorated block are not revisited
// once their parent has been rewritten.
func decorateDocument(doc *goquery.Document, m cascadia.Selector, opts block.Options) Stats {
	stats := Stats{Pages: 1}

	doc.FindMatcher(m).Each(func(_ int, sel *goquery.Selection) {
		if !inDocument(doc, sel) {
			return
		}
		res := block.DecorateWith(sel, opts)
		stats.Add(res)

		metrics.IncCounter(metrics.BlocksTotal, 1, metrics.Labels{"outcome": res.Outcome.String()})
		metrics.IncCounter(metrics.SourcesTotal, float64(res.Sources), nil)
	})
	return stats
}

// inDocument reports whether sel is still attached under the document root.
func inDocument(doc *goquery.Document, sel *goquery.Selection) bool {
	root := doc.Get(0)
	for n := sel.Get(0); n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

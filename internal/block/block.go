// Package block decorates authored picture-link blocks in place.
//
// A block is an element with five rows: desktop image, mobile image, alt
// text, link, link target. Decorate replaces the rows with a responsive
// <picture>, wrapped in an anchor when the link row carries an href.
//
// A block without any image is rendered as a short message instead. That is
// the only failure mode, and it is never returned as an error.
package block

import (
	"strings"

	"pictureblock/internal/linkwrap"
	"pictureblock/internal/picture"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMissingImageMessage is the text a block shows when no image row
// resolved to an image.
const DefaultMissingImageMessage = "Please add at least one image to this block."

// Outcome classifies what Decorate left in the block.
type Outcome int

const (
	OutcomeMissingImage Outcome = iota
	OutcomePicture
	OutcomeLinked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeMissingImage:
		return "missing_image"
	case OutcomePicture:
		return "picture"
	case OutcomeLinked:
		return "linked"
	default:
		return "unknown"
	}
}

// Result is informational; callers use it for counters only.
type Result struct {
	Outcome Outcome
	Sources int // conditional <source> elements emitted
}

// Options tunes decoration.
type Options struct {
	// MissingImageMessage replaces DefaultMissingImageMessage unless it is
	// blank.
	MissingImageMessage string
}

// DefaultOptions returns the options Decorate uses.
func DefaultOptions() Options {
	return Options{MissingImageMessage: DefaultMissingImageMessage}
}

// Decorate is DecorateWith(block, DefaultOptions()).
func Decorate(block *goquery.Selection) Result {
	return DecorateWith(block, DefaultOptions())
}

// DecorateWith rewrites the first element of block in place.
//
// Steps:
//  1. read the five rows into named slots;
//  2. if neither image row has an image, replace the content with the
//     missing-image message and stop;
//  3. clear the block;
//  4. build the responsive picture;
//  5. wrap it in an anchor when the link row has a non-empty href, and
//     append the result.
//
// An anchor with an empty href is treated as "no link", not as an error.
func DecorateWith(block *goquery.Selection, opts Options) Result {
	block = block.First()
	rows := ReadRows(block)

	if !rows.HasImage() {
		msg := opts.MissingImageMessage
		if strings.TrimSpace(msg) == "" {
			msg = DefaultMissingImageMessage
		}
		block.SetText(msg)
		return Result{Outcome: OutcomeMissingImage}
	}

	block.Empty()

	spec := picture.Build(rows.Desktop, rows.Mobile, rows.Alt)
	pic := picture.Render(spec)
	res := Result{Outcome: OutcomePicture, Sources: len(spec.Sources)}

	if href := rows.Href(); rows.Link != nil && href != "" {
		block.AppendNodes(linkwrap.Wrap(href, rows.Title(), rows.Target, pic))
		res.Outcome = OutcomeLinked
		return res
	}

	block.AppendNodes(pic)
	return res
}

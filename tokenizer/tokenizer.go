// Package tokenizer converts a word-processor document body into an ordered
// stream of Tokens: one Token per paragraph, each carrying a block style
// classification and the paragraph's styled text runs.
//
// Two adapters normalize into the same Token model:
//
//   - ReadDocx / ParseDocx — the zipped container format
//     (word/document.xml, optionally word/styles.xml)
//   - ParseHTML — pre-flattened markup using the fixed tag vocabulary
//     h1-h4, p, u, b/strong, mark, span[class]
//
// Tokenization is strictly sequential and side-effect free. Structural
// corruption in a single paragraph or run degrades that node to defaults
// (text style, no run styles) without aborting the document; only an
// unreadable container is fatal.
package tokenizer

import "github.com/debatekit/cardpipe/styles"

// Run is a contiguous styled text span within a paragraph. Immutable once
// produced.
type Run struct {
	Text   string           `json:"text"`
	Styles styles.RunStyles `json:"styles"`
}

// Token is one paragraph: its block style classification plus its runs in
// source order. SequenceIndex is the zero-based paragraph position in the
// original document; segmentation and card output both depend on it.
type Token struct {
	BlockStyle    styles.Name `json:"blockStyle"`
	Runs          []Run       `json:"runs"`
	OutlineLevel  int         `json:"outlineLevel"`
	SequenceIndex int         `json:"sequenceIndex"`
}

// Text concatenates the token's run text in order.
func (t Token) Text() string {
	var n int
	for _, r := range t.Runs {
		n += len(r.Text)
	}
	buf := make([]byte, 0, n)
	for _, r := range t.Runs {
		buf = append(buf, r.Text...)
	}
	return string(buf)
}

// IsHeading reports whether the token carries one of the heading styles.
func (t Token) IsHeading() bool { return styles.IsHeading(t.BlockStyle) }

package cards

import (
	"strings"

	"github.com/debatekit/cardpipe/styles"
	"github.com/debatekit/cardpipe/tokenizer"
)

// Options configures one segmentation run.
type Options struct {
	// AccessDate is stamped on every emitted card.
	AccessDate CardDate
	// Citation, when set, receives each card's accumulated heading text
	// (lines joined by newline, top-level heading first) together with the
	// card just before it is sealed, and fills the citation fields.
	Citation func(heading string, c *Card)
}

// segmentation states
const (
	stSeeking = iota
	stInHeading
	stInBody
)

// Segment partitions tokens into cards in document order.
//
// A pocket token closes the open card and opens a new one. Consecutive
// heading tokens after the pocket accumulate into the card's citation
// heading. The first text token starts the body; from then on every token,
// including hat/block/tag headings, is body text — malformed documents reuse
// heading styles mid-body and that must not reopen citation parsing. Tokens
// before the first pocket belong to no card. End of stream seals the open
// card; a heading with no body still yields a card.
func Segment(tokens []tokenizer.Token, opts Options) []Card {
	var (
		out     []Card
		cur     *Card
		heading []string
		state   = stSeeking
	)

	seal := func() {
		if cur == nil {
			return
		}
		if opts.Citation != nil {
			opts.Citation(strings.Join(heading, "\n"), cur)
		}
		out = append(out, *cur)
		cur = nil
		heading = heading[:0]
	}

	for _, tok := range tokens {
		switch {
		case tok.BlockStyle == styles.Pocket:
			seal()
			cur = &Card{
				Tag:        tok.Text(),
				Authors:    []Author{},
				AccessDate: opts.AccessDate,
				Paras:      []tokenizer.Token{},
			}
			heading = append(heading, tok.Text())
			state = stInHeading

		case cur == nil:
			// Seeking: body text with no enclosing heading is not a card.

		case state == stInHeading && tok.IsHeading():
			heading = append(heading, tok.Text())

		default:
			state = stInBody
			cur.Paras = append(cur.Paras, tok)
		}
	}
	seal()
	return out
}

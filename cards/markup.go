package cards

import (
	"html"
	"strings"

	"github.com/debatekit/cardpipe/styles"
	"github.com/debatekit/cardpipe/tokenizer"
)

// Markup renders a card's body back to the fixed markup vocabulary
// (p/h1-h4 blocks, u/b/mark inline tags). Run boundaries with identical
// styles collapse into one tagged span; the text itself round-trips.
func Markup(c Card) string {
	var sb strings.Builder
	for _, tok := range c.Paras {
		writeBlock(&sb, tok)
	}
	return sb.String()
}

func writeBlock(sb *strings.Builder, tok tokenizer.Token) {
	el := styles.Lookup(tok.BlockStyle).DOMElement
	sb.WriteString("<")
	sb.WriteString(el)
	sb.WriteString(">")

	var open styles.RunStyles
	for _, r := range tok.Runs {
		if r.Styles != open {
			writeTags(sb, open, true)
			writeTags(sb, r.Styles, false)
			open = r.Styles
		}
		sb.WriteString(html.EscapeString(r.Text))
	}
	writeTags(sb, open, true)

	sb.WriteString("</")
	sb.WriteString(el)
	sb.WriteString(">")
}

// writeTags opens (or closes, in reverse order) the inline tags for one
// style set. Fixed nesting u > b > mark keeps the output well-formed.
func writeTags(sb *strings.Builder, rs styles.RunStyles, closing bool) {
	tags := make([]string, 0, 3)
	if rs.Underline {
		tags = append(tags, "u")
	}
	if rs.Strong {
		tags = append(tags, "b")
	}
	if rs.Mark {
		tags = append(tags, "mark")
	}
	if closing {
		for i := len(tags) - 1; i >= 0; i-- {
			sb.WriteString("</" + tags[i] + ">")
		}
		return
	}
	for _, t := range tags {
		sb.WriteString("<" + t + ">")
	}
}

// PlainText renders the card body as paragraphs joined by newlines, all
// styling dropped.
func PlainText(c Card) string {
	lines := make([]string, len(c.Paras))
	for i, tok := range c.Paras {
		lines[i] = tok.Text()
	}
	return strings.Join(lines, "\n")
}

// StyledText concatenates body run text carrying all of the wanted style
// flags, paragraphs joined by spaces. Used to pull the highlighted or
// underlined reading of a card out of its full body.
func StyledText(c Card, want styles.RunStyles) string {
	var parts []string
	for _, tok := range c.Paras {
		var sb strings.Builder
		for _, r := range tok.Runs {
			if r.Styles.Merge(want) == r.Styles {
				sb.WriteString(r.Text)
			}
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

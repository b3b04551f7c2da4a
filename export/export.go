// Package export renders extracted cards to markdown for editor interop.
package export

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"github.com/debatekit/cardpipe/cards"
	"github.com/debatekit/cardpipe/cite"
)

// Exporter converts card bodies from their markup form to markdown.
type Exporter struct {
	conv *converter.Converter
}

// New creates an Exporter.
func New() *Exporter {
	return &Exporter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Markdown renders one card: tag as a heading, a compact citation line, then
// the body converted from markup.
func (e *Exporter) Markdown(c cards.Card) (string, error) {
	body, err := e.conv.ConvertString(cards.Markup(c))
	if err != nil {
		return "", fmt.Errorf("export: convert card body: %w", err)
	}

	var sb strings.Builder
	if c.Tag != "" {
		sb.WriteString("## ")
		sb.WriteString(c.Tag)
		sb.WriteString("\n\n")
	}
	if cite := citationLine(c); cite != "" {
		sb.WriteString(cite)
		sb.WriteString("\n\n")
	}
	sb.WriteString(strings.TrimSpace(body))
	sb.WriteString("\n")
	return sb.String(), nil
}

// Markdowns renders a whole document, cards separated by rules.
func (e *Exporter) Markdowns(cc []cards.Card) (string, error) {
	parts := make([]string, 0, len(cc))
	for i, c := range cc {
		md, err := e.Markdown(c)
		if err != nil {
			return "", fmt.Errorf("export: card %d: %w", i, err)
		}
		parts = append(parts, md)
	}
	return strings.Join(parts, "\n---\n\n"), nil
}

func citationLine(c cards.Card) string {
	var parts []string
	if a := cite.FormatAuthorsShort(c); a != nil {
		parts = append(parts, "**"+*a+"**")
	}
	if y := cite.FormatDateShort(c.Date); y != nil {
		parts = append(parts, *y)
	}
	if c.Title != "" {
		parts = append(parts, `"`+c.Title+`"`)
	}
	if c.SiteName != "" {
		parts = append(parts, "*"+c.SiteName+"*")
	}
	if c.URL != "" {
		parts = append(parts, "<"+c.URL+">")
	}
	return strings.Join(parts, ", ")
}

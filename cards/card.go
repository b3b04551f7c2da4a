// Package cards segments a token stream into citation cards: the unit of
// debate evidence, a heading-derived citation plus a body of styled
// paragraphs. Segmentation is a pure function of the token stream; citation
// field extraction is delegated to a caller-supplied callback so this
// package stays free of parsing heuristics.
package cards

import (
	"github.com/debatekit/cardpipe/tokenizer"
)

// CardDate holds unparsed numeral strings. Keeping the raw fields tolerates
// partial or garbled dates; validity is a derived property, never enforced
// at construction.
type CardDate struct {
	Month string `json:"month"`
	Day   string `json:"day"`
	Year  string `json:"year"`
}

// IsZero reports whether no field is set.
func (d CardDate) IsZero() bool { return d.Month == "" && d.Day == "" && d.Year == "" }

// Author is one citation author. IsPerson distinguishes individuals (citable
// by surname) from organizations (citable by full name). Description carries
// author qualifications when the citation provides them, nil otherwise.
type Author struct {
	ID          string  `json:"id,omitempty"`
	Name        string  `json:"name"`
	IsPerson    bool    `json:"isPerson"`
	Description *string `json:"description"`
}

// Card is one extracted citation + evidence unit. Tag is the top-level
// heading that opened the card; Title, Authors, Date, URL and SiteName are
// parsed out of the card's heading lines; Paras is the body in document
// order. Summary and Fulltext are derived downstream and emitted empty here.
type Card struct {
	Tag        string            `json:"tag"`
	Title      string            `json:"title"`
	Authors    []Author          `json:"authors"`
	Date       *CardDate         `json:"date"`
	AccessDate CardDate          `json:"accessDate"`
	URL        string            `json:"url"`
	SiteName   string            `json:"siteName"`
	Paras      []tokenizer.Token `json:"paras"`
	Summary    string            `json:"summary"`
	Fulltext   string            `json:"fulltext"`
}

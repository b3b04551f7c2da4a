package cite

import (
	"testing"

	"github.com/debatekit/cardpipe/cards"
)

func TestValidateDate(t *testing.T) {
	tests := []struct {
		name string
		in   cards.CardDate
		want DateValidity
	}{
		// Day 30 in February passes: range-only validation, no calendar check.
		{"range only", cards.CardDate{Month: "02", Day: "30", Year: "2024"},
			DateValidity{Month: true, Day: true, Year: true}},
		{"bad month short year", cards.CardDate{Month: "13", Day: "1", Year: "24"},
			DateValidity{Month: false, Day: true, Year: false}},
		{"empty", cards.CardDate{}, DateValidity{}},
		{"zero fields", cards.CardDate{Month: "0", Day: "0", Year: "000"},
			DateValidity{Year: true}},
		{"non-numeric", cards.CardDate{Month: "ab", Day: "cd", Year: "efgh"},
			DateValidity{}},
		{"long month", cards.CardDate{Month: "012", Day: "31", Year: "1999"},
			DateValidity{Day: true, Year: true}},
	}
	for _, tt := range tests {
		if got := ValidateDate(tt.in); got != tt.want {
			t.Errorf("%s: ValidateDate(%+v) = %+v, want %+v", tt.name, tt.in, got, tt.want)
		}
	}
}

func TestValidateAuthors(t *testing.T) {
	if ValidateAuthors(nil) {
		t.Error("no authors must not validate")
	}
	if ValidateAuthors([]cards.Author{{Name: ""}}) {
		t.Error("empty primary name must not validate")
	}
	if !ValidateAuthors([]cards.Author{{Name: "Smith"}}) {
		t.Error("one named author must validate")
	}
}

func deref(t *testing.T, s *string) string {
	t.Helper()
	if s == nil {
		t.Fatal("got nil, want a rendered string")
	}
	return *s
}

func TestFormatAuthorsShort(t *testing.T) {
	person := cards.Card{Authors: []cards.Author{{Name: "Jane Q Smith", IsPerson: true}}}
	if got := deref(t, FormatAuthorsShort(person)); got != "Smith" {
		t.Errorf("person short = %q, want Smith", got)
	}
	org := cards.Card{Authors: []cards.Author{{Name: "World Health Organization"}}}
	if got := deref(t, FormatAuthorsShort(org)); got != "World Health Organization" {
		t.Errorf("org short = %q", got)
	}
	if FormatAuthorsShort(cards.Card{}) != nil {
		t.Error("no authors must render nil")
	}
}

func TestFormatAuthorsFull(t *testing.T) {
	a := func(name string) cards.Author { return cards.Author{Name: name, IsPerson: true} }
	tests := []struct {
		name    string
		authors []cards.Author
		want    string
	}{
		{"single person", []cards.Author{a("Jane Smith")}, "Smith, Jane"},
		{"single token", []cards.Author{a("Smith")}, "Smith"},
		{"org", []cards.Author{{Name: "UN Panel"}}, "UN Panel"},
		{"two", []cards.Author{a("Jane Smith"), a("Bob Jones")}, "Smith and Jones"},
		{"three", []cards.Author{a("Jane Smith"), a("Bob Jones"), a("Ann Lee")}, "Smith, et al."},
	}
	for _, tt := range tests {
		got := FormatAuthorsFull(cards.Card{Authors: tt.authors})
		if got == nil || *got != tt.want {
			t.Errorf("%s: FormatAuthorsFull = %v, want %q", tt.name, got, tt.want)
		}
	}
	if FormatAuthorsFull(cards.Card{}) != nil {
		t.Error("no authors must render nil")
	}
}

func TestFormatDate(t *testing.T) {
	full := &cards.CardDate{Month: "3", Day: "4", Year: "2023"}
	if got := deref(t, FormatDateShort(full)); got != "2023" {
		t.Errorf("short = %q", got)
	}
	if got := deref(t, FormatDateFull(full)); got != "4 Mar 2023" {
		t.Errorf("full = %q", got)
	}

	partial := &cards.CardDate{Year: "2023"}
	if got := deref(t, FormatDateShort(partial)); got != "2023" {
		t.Errorf("year-only short = %q", got)
	}
	if FormatDateFull(partial) != nil {
		t.Error("partial date must not render a full format")
	}

	if FormatDateShort(nil) != nil || FormatDateFull(nil) != nil {
		t.Error("nil date must render nil")
	}
	if FormatDateShort(&cards.CardDate{Year: "24"}) != nil {
		t.Error("two-digit year must not validate")
	}
}

func TestFormatAccessDate(t *testing.T) {
	got := FormatAccessDate(cards.CardDate{Month: "12", Day: "25", Year: "2025"})
	if got == nil || *got != "Accessed 25 Dec 2025" {
		t.Fatalf("access date = %v", got)
	}
	if FormatAccessDate(cards.CardDate{Year: "2025"}) != nil {
		t.Error("incomplete access date must render nil")
	}
}

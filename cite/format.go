package cite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/debatekit/cardpipe/cards"
)

// DateValidity is the per-field well-formedness of a CardDate.
type DateValidity struct {
	Month bool
	Day   bool
	Year  bool
}

// All reports whether every field validates.
func (v DateValidity) All() bool { return v.Month && v.Day && v.Year }

// ValidateDate checks each field's range independently. Month and day are
// range-only checks: "02/30" passes because calendar consistency is not this
// layer's problem, and partial dates must still render their valid parts.
func ValidateDate(d cards.CardDate) DateValidity {
	return DateValidity{
		Month: numericInRange(d.Month, 1, 12) && len(d.Month) <= 2,
		Day:   numericInRange(d.Day, 1, 31) && len(d.Day) <= 2,
		Year:  len(d.Year) > 2 && isNumeric(d.Year),
	}
}

func numericInRange(s string, lo, hi int) bool {
	n, err := strconv.Atoi(s)
	return err == nil && n >= lo && n <= hi
}

func isNumeric(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

// ValidateAuthors reports whether the card has a usable primary author.
func ValidateAuthors(authors []cards.Author) bool {
	return len(authors) > 0 && authors[0].Name != ""
}

// Surname returns the last space-delimited token of a person's name, or the
// name verbatim for organizations.
func Surname(a cards.Author) string {
	if !a.IsPerson {
		return a.Name
	}
	fields := strings.Fields(a.Name)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// FormatAuthorsShort renders the primary author for compact citation
// display: surname for a person, full name for an organization. Nil when no
// valid author exists.
func FormatAuthorsShort(c cards.Card) *string {
	if !ValidateAuthors(c.Authors) {
		return nil
	}
	s := Surname(c.Authors[0])
	if s == "" {
		return nil
	}
	return &s
}

// FormatAuthorsFull renders the author list in the abbreviated academic
// convention: "Last, First" for one person, "A and B" for two, "A, et al."
// for three or more. Name particles ("van", "de") are not special-cased.
func FormatAuthorsFull(c cards.Card) *string {
	if !ValidateAuthors(c.Authors) {
		return nil
	}
	var s string
	switch len(c.Authors) {
	case 1:
		a := c.Authors[0]
		if !a.IsPerson {
			s = a.Name
			break
		}
		fields := strings.Fields(a.Name)
		if len(fields) < 2 {
			s = a.Name
			break
		}
		s = fields[len(fields)-1] + ", " + strings.Join(fields[:len(fields)-1], " ")
	case 2:
		s = Surname(c.Authors[0]) + " and " + Surname(c.Authors[1])
	default:
		s = Surname(c.Authors[0]) + ", et al."
	}
	if s == "" {
		return nil
	}
	return &s
}

// FormatDateShort renders the year alone; nil unless the year validates.
func FormatDateShort(d *cards.CardDate) *string {
	if d == nil || !ValidateDate(*d).Year {
		return nil
	}
	return &d.Year
}

// FormatDateFull renders "D Mon YYYY". Partial dates render as nil rather
// than a partially-filled string.
func FormatDateFull(d *cards.CardDate) *string {
	if d == nil || !ValidateDate(*d).All() {
		return nil
	}
	s := renderDMonY(*d)
	return &s
}

// FormatAccessDate renders "Accessed D Mon YYYY"; nil unless complete.
func FormatAccessDate(d cards.CardDate) *string {
	if !ValidateDate(d).All() {
		return nil
	}
	s := "Accessed " + renderDMonY(d)
	return &s
}

func renderDMonY(d cards.CardDate) string {
	day, _ := strconv.Atoi(d.Day)
	month, _ := strconv.Atoi(d.Month)
	return fmt.Sprintf("%d %s %s", day, monthsShort[month], d.Year)
}

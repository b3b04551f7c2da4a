// Package cite extracts structured citation fields from the free-text
// heading lines of a card, and renders them back to display strings.
//
// Extraction is best-effort by design: heading lines are human-written and
// frequently garbled, so a field that cannot be confidently parsed stays at
// its zero value. Nothing in this package returns an error.
package cite

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/debatekit/cardpipe/cards"
)

// Fields is the parse result for one card heading.
type Fields struct {
	Title    string
	Authors  []cards.Author
	Date     *cards.CardDate
	URL      string
	SiteName string
}

// Apply parses the heading and fills the card's citation fields in place.
// Shaped to plug straight into the segmenter's citation callback.
func Apply(heading string, c *cards.Card) {
	f := Parse(heading)
	c.Title = f.Title
	if len(f.Authors) > 0 {
		c.Authors = f.Authors
	}
	c.Date = f.Date
	c.URL = f.URL
	c.SiteName = f.SiteName
}

// Parse extracts citation fields from heading text. Lines are expected
// newline-joined, top-level heading first.
func Parse(heading string) Fields {
	f := Fields{Authors: []cards.Author{}}
	f.URL = extractURL(heading)
	if m := titleRe.FindStringSubmatch(heading); m != nil {
		f.Title = strings.TrimRight(strings.TrimSpace(m[1]), ".,")
	}
	f.Date = extractDate(heading)
	f.SiteName = extractSiteName(heading, f.URL)
	f.Authors = extractAuthors(heading)
	return f
}

var (
	titleRe = regexp.MustCompile(`["“”]([^"“”]*)["“”]`)
	urlRe   = regexp.MustCompile(`(?:https?://|www\.)[^\s<>"]+`)

	// Date shapes tried in order of confidence.
	numericDateRe  = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})\b`)
	monthFirstRe   = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})\b`)
	dayFirstRe     = regexp.MustCompile(`(?i)\b(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+(\d{4})\b`)
	monthYearRe    = regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+(\d{4})\b`)
	apostYearRe    = regexp.MustCompile(`['‘’](\d{2})\b`)
	fullYearRe     = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	shortYearRe    = regexp.MustCompile(`\b(\d{2})(?:[.,]|\s|$)`)
	trailingPunct  = ")]};:,.|><'\"-"
	orgAcronymRe   = regexp.MustCompile(`^[A-Z]{2,6}$`)
	andSplitRe     = regexp.MustCompile(`\s+(?:and|&)\s+|;\s*`)
	etAlRe         = regexp.MustCompile(`(?i)[,\s]*\bet\.?\s*al\.?`)
	personFirstRe  = regexp.MustCompile(`^[A-Z][\w'’.-]*(?:\s+[A-Z][\w'’.-]*)?$`)
	siteNameStopRe = regexp.MustCompile(`[,.;—\n]|\s[-–]\s`)
)

var monthsShort = [...]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func monthNumber(name string) string {
	low := strings.ToLower(name[:3])
	for i := 1; i < len(monthsShort); i++ {
		if strings.ToLower(monthsShort[i]) == low {
			return strconv.Itoa(i)
		}
	}
	return ""
}

func extractURL(text string) string {
	m := urlRe.FindString(text)
	if m == "" {
		return ""
	}
	return strings.TrimRight(m, trailingPunct)
}

// expandYear widens a two-digit year: 00-30 read as 2000s, the rest 1900s.
func expandYear(y string) string {
	if len(y) != 2 {
		return y
	}
	n, err := strconv.Atoi(y)
	if err != nil {
		return y
	}
	if n <= 30 {
		return strconv.Itoa(2000 + n)
	}
	return strconv.Itoa(1900 + n)
}

func extractDate(text string) *cards.CardDate {
	if m := numericDateRe.FindStringSubmatch(text); m != nil {
		return &cards.CardDate{Month: m[1], Day: m[2], Year: expandYear(m[3])}
	}
	if m := monthFirstRe.FindStringSubmatch(text); m != nil {
		return &cards.CardDate{Month: monthNumber(m[1]), Day: m[2], Year: m[3]}
	}
	if m := dayFirstRe.FindStringSubmatch(text); m != nil {
		return &cards.CardDate{Month: monthNumber(m[2]), Day: m[1], Year: m[3]}
	}
	if m := monthYearRe.FindStringSubmatch(text); m != nil {
		return &cards.CardDate{Month: monthNumber(m[1]), Year: m[2]}
	}
	if m := apostYearRe.FindStringSubmatch(text); m != nil {
		return &cards.CardDate{Year: expandYear(m[1])}
	}
	if m := fullYearRe.FindStringSubmatch(text); m != nil {
		return &cards.CardDate{Year: m[1]}
	}
	if m := shortYearRe.FindStringSubmatch(text); m != nil {
		return &cards.CardDate{Year: expandYear(m[1])}
	}
	return nil
}

// extractSiteName prefers the publication segment directly after the quoted
// title, and falls back to the URL host.
func extractSiteName(text, url string) string {
	if loc := titleRe.FindStringIndex(text); loc != nil {
		rest := strings.TrimLeft(text[loc[1]:], " \t,.—-–")
		if stop := siteNameStopRe.FindStringIndex(rest); stop != nil {
			rest = rest[:stop[0]]
		}
		rest = strings.TrimSpace(rest)
		if rest != "" && len(rest) <= 60 &&
			!strings.ContainsAny(rest, "0123456789") && !urlRe.MatchString(rest) {
			return rest
		}
	}
	if url != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
		host = strings.TrimPrefix(host, "www.")
		if i := strings.IndexByte(host, '/'); i >= 0 {
			host = host[:i]
		}
		return host
	}
	return ""
}

// extractAuthors parses the author segment: the text preceding the first
// citation signal (date, quoted title, or URL) on the line carrying it.
// Lines with no signal carry no authors.
func extractAuthors(heading string) []cards.Author {
	for _, line := range strings.Split(heading, "\n") {
		idx := signalIndex(line)
		if idx < 0 {
			continue
		}
		seg := strings.TrimRight(strings.TrimSpace(line[:idx]), " \t,.;:—-–('‘’\"")
		seg = etAlRe.ReplaceAllString(seg, "")
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		if authors := parseAuthorSegment(seg); len(authors) > 0 {
			return authors
		}
	}
	return []cards.Author{}
}

func signalIndex(line string) int {
	idx := -1
	for _, re := range []*regexp.Regexp{numericDateRe, monthFirstRe, dayFirstRe,
		apostYearRe, fullYearRe, titleRe, urlRe} {
		if loc := re.FindStringIndex(line); loc != nil && (idx < 0 || loc[0] < idx) {
			idx = loc[0]
		}
	}
	return idx
}

func parseAuthorSegment(seg string) []cards.Author {
	parts := andSplitRe.Split(seg, -1)

	// A lone comma-separated segment is one author. "Last, First" reads as a
	// reversed person name; anything after that (or a non-name second piece)
	// is a qualification.
	if len(parts) == 1 && strings.Contains(parts[0], ",") {
		pieces := strings.Split(parts[0], ",")
		for i := range pieces {
			pieces[i] = strings.TrimSpace(pieces[i])
		}
		if len(pieces) >= 2 && pieces[0] != "" && pieces[1] != "" {
			if personFirstRe.MatchString(pieces[1]) && !isQualification(pieces[1]) {
				return []cards.Author{newAuthor(pieces[1]+" "+pieces[0], joinDesc(pieces[2:]))}
			}
			return []cards.Author{newAuthor(pieces[0], joinDesc(pieces[1:]))}
		}
	}

	var out []cards.Author
	for _, p := range parts {
		name, desc := p, (*string)(nil)
		if n, d, ok := strings.Cut(p, ","); ok {
			d = strings.TrimSpace(d)
			if d != "" {
				name, desc = n, &d
			}
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, newAuthor(name, desc))
	}
	return out
}

func joinDesc(pieces []string) *string {
	var kept []string
	for _, p := range pieces {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	s := strings.Join(kept, ", ")
	return &s
}

func newAuthor(name string, desc *string) cards.Author {
	return cards.Author{Name: name, IsPerson: !isOrganization(name), Description: desc}
}

var orgTerms = map[string]bool{
	"inc": true, "ltd": true, "llc": true, "corp": true, "corporation": true,
	"company": true, "group": true, "institute": true, "university": true,
	"college": true, "center": true, "centre": true, "council": true,
	"committee": true, "commission": true, "agency": true, "bureau": true,
	"department": true, "ministry": true, "organization": true,
	"association": true, "foundation": true, "society": true, "union": true,
	"federation": true, "alliance": true, "coalition": true, "board": true,
	"news": true, "times": true, "post": true, "press": true, "journal": true,
	"review": true, "network": true, "administration": true,
}

var qualificationTerms = map[string]bool{
	"professor": true, "director": true, "phd": true, "ph.d": true,
	"analyst": true, "fellow": true, "researcher": true, "editor": true,
	"reporter": true, "correspondent": true, "scientist": true,
	"economist": true, "lecturer": true, "chair": true, "president": true,
	"founder": true, "expert": true, "staff": true, "writer": true,
	"journalist": true, "senior": true,
}

func isOrganization(name string) bool {
	if orgAcronymRe.MatchString(name) {
		return true
	}
	for _, w := range strings.Fields(strings.ToLower(name)) {
		if orgTerms[strings.Trim(w, ".,")] {
			return true
		}
	}
	return false
}

func isQualification(s string) bool {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		if qualificationTerms[strings.Trim(w, ".,")] {
			return true
		}
	}
	return false
}

// Package styles is the single authoritative mapping between structural
// markers observed in a source document (outline levels, named paragraph
// styles, run-level formatting flags) and the closed set of semantic style
// names used by the rest of the pipeline.
//
// Block styles classify whole paragraphs and are mutually exclusive:
//
//	pocket  — outline level 1 (top-level heading, card boundary)
//	hat     — outline level 2
//	block   — outline level 3
//	tag     — outline level 4
//	text    — plain paragraph
//
// Run styles classify text ranges and combine freely:
//
//	underline, strong, mark
//
// Resolution is total: unknown or out-of-range markers always degrade to
// the most permissive classification (text, no run styles) and never fail.
package styles

import "strings"

// Name identifies one semantic style.
type Name string

const (
	Pocket Name = "pocket"
	Hat    Name = "hat"
	Block  Name = "block"
	Tag    Name = "tag"
	Text   Name = "text"

	Underline Name = "underline"
	Strong    Name = "strong"
	Mark      Name = "mark"
)

// Descriptor is the static metadata for one style name.
type Descriptor struct {
	// Block reports whether the style classifies a whole paragraph.
	Block bool
	// Heading reports whether the style marks a citation heading line.
	Heading bool
	// OutlineLevel is the document outline level that produces the style
	// (1-4), or 0 when no outline level maps to it.
	OutlineLevel int
	// XMLName is the named paragraph style that produces the style
	// (e.g. "Heading1"), or "" when none does.
	XMLName string
	// DOMElement is the tag used when re-serializing to markup.
	DOMElement string
	// DOMSelectors are the markup tags that resolve to the style when
	// reading flattened HTML input.
	DOMSelectors []string
}

// table is the fixed style metadata. It is never mutated after init;
// callers get copies via Table and read-only lookups via the resolvers.
var table = map[Name]Descriptor{
	Pocket: {Block: true, Heading: true, OutlineLevel: 1, XMLName: "Heading1", DOMElement: "h1", DOMSelectors: []string{"h1"}},
	Hat:    {Block: true, Heading: true, OutlineLevel: 2, XMLName: "Heading2", DOMElement: "h2", DOMSelectors: []string{"h2"}},
	Block:  {Block: true, Heading: true, OutlineLevel: 3, XMLName: "Heading3", DOMElement: "h3", DOMSelectors: []string{"h3"}},
	Tag:    {Block: true, Heading: true, OutlineLevel: 4, XMLName: "Heading4", DOMElement: "h4", DOMSelectors: []string{"h4"}},
	Text:   {Block: true, DOMElement: "p", DOMSelectors: []string{"p"}},

	Underline: {DOMElement: "u", DOMSelectors: []string{"u", "span"}},
	Strong:    {DOMElement: "b", DOMSelectors: []string{"b", "strong"}},
	Mark:      {DOMElement: "mark", DOMSelectors: []string{"mark"}},
}

// Table returns a copy of the full style metadata table.
func Table() map[Name]Descriptor {
	out := make(map[Name]Descriptor, len(table))
	for k, v := range table {
		out[k] = v
	}
	return out
}

// Lookup returns the descriptor for a style name. Unknown names return the
// text descriptor, keeping downstream rendering total.
func Lookup(n Name) Descriptor {
	if d, ok := table[n]; ok {
		return d
	}
	return table[Text]
}

// IsHeading reports whether n is one of the four heading styles.
func IsHeading(n Name) bool { return table[n].Heading }

// HeadingNames returns the heading styles in outline-level order.
func HeadingNames() []Name { return []Name{Pocket, Hat, Block, Tag} }

// BlockNames returns all paragraph-level styles.
func BlockNames() []Name { return []Name{Pocket, Hat, Block, Tag, Text} }

// ResolveOutlineLevel maps a document outline level to a block style.
// Levels outside 1-4 (including 0 for "no heading marker") resolve to text.
func ResolveOutlineLevel(level int) Name {
	switch level {
	case 1:
		return Pocket
	case 2:
		return Hat
	case 3:
		return Block
	case 4:
		return Tag
	default:
		return Text
	}
}

// ResolveXMLStyle maps a named paragraph style (e.g. "Heading2") to a block
// style. Unknown names resolve to text.
func ResolveXMLStyle(styleID string) Name {
	for _, n := range HeadingNames() {
		if strings.EqualFold(table[n].XMLName, styleID) {
			return n
		}
	}
	return Text
}

// ResolveBlockTag maps a markup tag from the flattened-HTML input vocabulary
// to a block style. Unknown tags resolve to text.
func ResolveBlockTag(tag string) Name {
	switch strings.ToLower(tag) {
	case "h1":
		return Pocket
	case "h2":
		return Hat
	case "h3":
		return Block
	case "h4":
		return Tag
	default:
		return Text
	}
}

// RunStyles is the set of run-level formatting flags carried by one text
// range. The zero value means an unstyled run.
type RunStyles struct {
	Underline bool `json:"underline"`
	Strong    bool `json:"strong"`
	Mark      bool `json:"mark"`
}

// None reports whether no flag is set.
func (r RunStyles) None() bool { return !r.Underline && !r.Strong && !r.Mark }

// Merge returns the union of two flag sets.
func (r RunStyles) Merge(o RunStyles) RunStyles {
	return RunStyles{
		Underline: r.Underline || o.Underline,
		Strong:    r.Strong || o.Strong,
		Mark:      r.Mark || o.Mark,
	}
}

// RunMarkers are the raw structural markers observed on one text range.
type RunMarkers struct {
	// StyleClass is the named run style (docx rStyle, or span class).
	StyleClass   string
	HasUnderline bool
	HasBold      bool
	HasHighlight bool
}

// ResolveRunStyles maps raw run markers to the run style flags. A style
// class whose name contains "emphasis" activates both strong and underline:
// the source format uses emphasis-named character styles as a combined
// bold+underline alias, and that idiosyncrasy is preserved here so it stays
// in exactly one place.
func ResolveRunStyles(m RunMarkers) RunStyles {
	rs := RunStyles{
		Underline: m.HasUnderline,
		Strong:    m.HasBold,
		Mark:      m.HasHighlight,
	}
	class := strings.ToLower(m.StyleClass)
	if class == "" {
		return rs
	}
	if strings.Contains(class, "emphasis") {
		rs.Strong = true
		rs.Underline = true
	}
	if strings.Contains(class, "bold") {
		rs.Strong = true
	}
	if strings.Contains(class, "underline") {
		rs.Underline = true
	}
	if strings.Contains(class, "highli") {
		rs.Mark = true
	}
	return rs
}

package tokenizer

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/debatekit/cardpipe/styles"
)

// ParseHTML tokenizes flattened markup that uses the fixed vocabulary
// h1-h4, p, u, b/strong, mark and span[class]. Span class names resolve
// through the same run-style aliases as named docx character styles, so a
// document round-tripped through markup tokenizes identically.
//
// Elements outside the vocabulary are transparent: their block descendants
// are still visited, their inline text is ignored unless it sits inside a
// recognized block.
func ParseHTML(src string) ([]Token, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var (
		tokens []Token
		seq    int
	)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.P:
				name := styles.ResolveBlockTag(n.Data)
				tokens = append(tokens, Token{
					BlockStyle:    name,
					Runs:          collectRuns(n, styles.RunStyles{}),
					OutlineLevel:  styles.Lookup(name).OutlineLevel,
					SequenceIndex: seq,
				})
				seq++
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return tokens, nil
}

// collectRuns flattens the inline content of one block element. Each text
// node becomes its own run carrying the styles accumulated on the path from
// the block root; runs are never merged.
func collectRuns(block *html.Node, inherited styles.RunStyles) []Run {
	var runs []Run
	for c := block.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if c.Data == "" {
				continue
			}
			runs = append(runs, Run{Text: c.Data, Styles: inherited})
		case html.ElementNode:
			switch c.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				continue
			}
			runs = append(runs, collectRuns(c, inherited.Merge(inlineStyles(c)))...)
		}
	}
	return runs
}

// inlineStyles maps one inline element to the run flags it contributes.
func inlineStyles(n *html.Node) styles.RunStyles {
	switch n.DataAtom {
	case atom.U:
		return styles.RunStyles{Underline: true}
	case atom.B, atom.Strong:
		return styles.RunStyles{Strong: true}
	case atom.Mark:
		return styles.RunStyles{Mark: true}
	case atom.Span:
		for _, a := range n.Attr {
			if a.Key == "class" {
				return styles.ResolveRunStyles(styles.RunMarkers{StyleClass: a.Val})
			}
		}
	}
	return styles.RunStyles{}
}

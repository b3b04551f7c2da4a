package tokenizer

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/debatekit/cardpipe/styles"
)

// maxXMLDepth bounds element nesting in the body part. Word never produces
// anything close to this; hitting it means a hostile or corrupt document,
// and the walk stops with whatever tokens were already produced.
const maxXMLDepth = 256

// Word serializes with namespace prefixes (w:p, w:r, ...). The prefixes are
// stripped textually before decoding so the walk matches on local names
// regardless of which prefix a producer chose. The rewrite is irreversible
// and total: it cannot fail, only ever shortens the input.
var (
	nsOpenRe  = regexp.MustCompile(`<[a-zA-Z]*?:`)
	nsCloseRe = regexp.MustCompile(`</[a-zA-Z]*?:`)
)

func stripNamespaces(raw []byte) []byte {
	raw = nsOpenRe.ReplaceAll(raw, []byte("<"))
	return nsCloseRe.ReplaceAll(raw, []byte("</"))
}

// ReadDocx tokenizes the document at path. The file must be a zip container
// holding word/document.xml; anything else returns *ContainerFormatError.
func ReadDocx(path string) ([]Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}

	toks, err := ParseDocx(f, st.Size())
	if err != nil {
		var cfe *ContainerFormatError
		if errors.As(err, &cfe) && cfe.Path == "" {
			cfe.Path = path
		}
		return nil, err
	}
	return toks, nil
}

// ParseDocx tokenizes a zip container read from r. word/styles.xml, when
// present, supplies named run-style classes referenced by rStyle elements.
func ParseDocx(r io.ReaderAt, size int64) ([]Token, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &ContainerFormatError{Reason: "not a zip archive", Err: err}
	}

	var docFile, stylesFile *zip.File
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			docFile = f
		case "word/styles.xml":
			stylesFile = f
		}
	}
	if docFile == nil {
		return nil, &ContainerFormatError{Reason: "word/document.xml not found in archive"}
	}

	classes := map[string]styles.RunStyles{}
	if stylesFile != nil {
		if raw, err := readZipPart(stylesFile); err == nil {
			classes = parseStyleClasses(raw)
		}
		// An unreadable styles part only loses class definitions; the body
		// still tokenizes.
	}

	raw, err := readZipPart(docFile)
	if err != nil {
		return nil, &ContainerFormatError{Reason: "read word/document.xml", Err: err}
	}
	return walkBody(raw, classes), nil
}

func readZipPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// parseStyleClasses reads word/styles.xml into a per-class run-style map.
// Keys are lowercased style IDs. A style ID naming a highlight marks mark
// even when the definition carries no explicit highlight element.
func parseStyleClasses(raw []byte) map[string]styles.RunStyles {
	classes := map[string]styles.RunStyles{}
	dec := xml.NewDecoder(bytes.NewReader(stripNamespaces(raw)))

	var (
		current string
		flags   styles.RunStyles
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "style":
				current = ""
				flags = styles.RunStyles{}
				if id := attrVal(t, "styleId"); id != "" {
					current = strings.ToLower(id)
					if strings.Contains(current, "highli") {
						flags.Mark = true
					}
				}
			case "u":
				if current != "" && attrVal(t, "val") != "none" {
					flags.Underline = true
				}
			case "b":
				if current != "" && attrVal(t, "val") != "0" {
					flags.Strong = true
				}
			case "highlight":
				if current != "" && attrVal(t, "val") != "none" {
					flags.Mark = true
				}
			}
		case xml.EndElement:
			if t.Name.Local == "style" && current != "" {
				classes[current] = flags
				current = ""
			}
		}
	}
	return classes
}

// walkBody streams word/document.xml into Tokens. One Token per w:p, one Run
// per w:r with non-empty text. Malformed nodes degrade to defaults; the walk
// itself never fails.
func walkBody(raw []byte, classes map[string]styles.RunStyles) []Token {
	dec := xml.NewDecoder(bytes.NewReader(stripNamespaces(raw)))

	var (
		tokens []Token
		depth  int
		seq    int

		inPara     bool
		blockStyle styles.Name
		outline    int
		runs       []Run

		inRun    bool
		markers  styles.RunMarkers
		runClass styles.RunStyles
		inText   bool
		text     strings.Builder
	)

	emitRun := func() {
		if !inRun {
			return
		}
		inRun = false
		if text.Len() == 0 {
			return
		}
		rs := styles.ResolveRunStyles(markers).Merge(runClass)
		runs = append(runs, Run{Text: text.String(), Styles: rs})
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			// io.EOF ends the document; any other decode error means the
			// remainder is unreadable. Either way, what was tokenized stands.
			break
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth > maxXMLDepth {
				return tokens
			}
			switch t.Name.Local {
			case "p":
				inPara = true
				blockStyle = styles.Text
				outline = 0
				runs = nil
			case "pStyle":
				if !inPara {
					continue
				}
				if s := styles.ResolveXMLStyle(attrVal(t, "val")); s != styles.Text {
					blockStyle = s
					outline = styles.Lookup(s).OutlineLevel
				}
			case "outlineLvl":
				if !inPara {
					continue
				}
				// Stored zero-based; level 0 is the top of the outline.
				if n, err := strconv.Atoi(attrVal(t, "val")); err == nil {
					if s := styles.ResolveOutlineLevel(n + 1); s != styles.Text {
						blockStyle = s
						outline = n + 1
					}
				}
			case "r":
				if !inPara {
					continue
				}
				inRun = true
				markers = styles.RunMarkers{}
				runClass = styles.RunStyles{}
				text.Reset()
			case "rStyle":
				if !inRun {
					continue
				}
				val := attrVal(t, "val")
				markers.StyleClass = val
				if cls, ok := classes[strings.ToLower(val)]; ok {
					runClass = cls
				}
			case "u":
				if inRun && attrVal(t, "val") != "none" {
					markers.HasUnderline = true
				}
			case "b":
				if inRun && attrVal(t, "val") != "0" {
					markers.HasBold = true
				}
			case "highlight":
				if inRun && attrVal(t, "val") != "none" {
					markers.HasHighlight = true
				}
			case "t":
				if inRun {
					inText = true
				}
			}

		case xml.CharData:
			if inText {
				text.Write(t)
			}

		case xml.EndElement:
			depth--
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				emitRun()
			case "p":
				if !inPara {
					continue
				}
				emitRun()
				inPara = false
				tokens = append(tokens, Token{
					BlockStyle:    blockStyle,
					Runs:          runs,
					OutlineLevel:  outline,
					SequenceIndex: seq,
				})
				seq++
			}
		}
	}
	return tokens
}

func attrVal(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

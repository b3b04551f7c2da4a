package tokenizer

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/debatekit/cardpipe/styles"
)

// writeDocx builds a minimal docx container in a temp dir. stylesXML may be
// empty to omit word/styles.xml entirely.
func writeDocx(t *testing.T, documentXML, stylesXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if stylesXML != "" {
		w, err := zw.Create("word/styles.xml")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(stylesXML)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func para(inner string) string { return "<w:p>" + inner + "</w:p>" }

func body(paras ...string) string {
	return `<?xml version="1.0"?><w:document xmlns:w="ns"><w:body>` +
		strings.Join(paras, "") + `</w:body></w:document>`
}

func TestReadDocxTokens(t *testing.T) {
	doc := body(
		para(`<w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Economy</w:t></w:r>`),
		para(`<w:r><w:rPr><w:u w:val="single"/></w:rPr><w:t>underlined</w:t></w:r>`+
			`<w:r><w:rPr><w:b/><w:highlight w:val="yellow"/></w:rPr><w:t> hot</w:t></w:r>`+
			`<w:r><w:t> plain</w:t></w:r>`),
	)
	path := writeDocx(t, doc, "")

	toks, err := ReadDocx(path)
	if err != nil {
		t.Fatalf("ReadDocx: %v", err)
	}
	want := []Token{
		{
			BlockStyle:    styles.Pocket,
			Runs:          []Run{{Text: "Economy"}},
			OutlineLevel:  1,
			SequenceIndex: 0,
		},
		{
			BlockStyle: styles.Text,
			Runs: []Run{
				{Text: "underlined", Styles: styles.RunStyles{Underline: true}},
				{Text: " hot", Styles: styles.RunStyles{Strong: true, Mark: true}},
				{Text: " plain"},
			},
			SequenceIndex: 1,
		},
	}
	if !reflect.DeepEqual(toks, want) {
		t.Fatalf("tokens = %+v\nwant %+v", toks, want)
	}
}

func TestReadDocxOutlineLevel(t *testing.T) {
	// outlineLvl is stored zero-based: val="0" is the top heading level.
	doc := body(
		para(`<w:pPr><w:outlineLvl w:val="0"/></w:pPr><w:r><w:t>top</w:t></w:r>`),
		para(`<w:pPr><w:outlineLvl w:val="3"/></w:pPr><w:r><w:t>tagline</w:t></w:r>`),
		para(`<w:pPr><w:outlineLvl w:val="7"/></w:pPr><w:r><w:t>deep</w:t></w:r>`),
	)
	toks, err := ReadDocx(writeDocx(t, doc, ""))
	if err != nil {
		t.Fatal(err)
	}
	wantStyles := []styles.Name{styles.Pocket, styles.Tag, styles.Text}
	wantLevels := []int{1, 4, 0}
	for i, tok := range toks {
		if tok.BlockStyle != wantStyles[i] || tok.OutlineLevel != wantLevels[i] {
			t.Errorf("token %d = %q level %d, want %q level %d",
				i, tok.BlockStyle, tok.OutlineLevel, wantStyles[i], wantLevels[i])
		}
	}
}

func TestReadDocxMalformedParagraphDegrades(t *testing.T) {
	doc := body(
		para(`<w:r><w:t>before</w:t></w:r>`),
		para(`<w:pPr><w:pStyle/><w:outlineLvl w:val="junk"/></w:pPr><w:r><w:t>broken markers</w:t></w:r>`),
		para(`<w:pPr><w:pStyle w:val="Heading2"/></w:pPr><w:r><w:t>after</w:t></w:r>`),
	)
	toks, err := ReadDocx(writeDocx(t, doc, ""))
	if err != nil {
		t.Fatalf("malformed paragraph must not abort: %v", err)
	}
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3", len(toks))
	}
	if toks[1].BlockStyle != styles.Text || toks[1].Text() != "broken markers" {
		t.Errorf("degraded token = %q %q, want text style with original text",
			toks[1].BlockStyle, toks[1].Text())
	}
	if toks[0].BlockStyle != styles.Text || toks[2].BlockStyle != styles.Hat {
		t.Error("neighbors of a malformed paragraph must be unaffected")
	}
}

func TestReadDocxEmptyParagraph(t *testing.T) {
	doc := body(
		para(``),
		para(`<w:r><w:t></w:t></w:r>`),
		para(`<w:r><w:t>real</w:t></w:r>`),
	)
	toks, err := ReadDocx(writeDocx(t, doc, ""))
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3 (empty paragraphs are emitted)", len(toks))
	}
	for i := 0; i < 2; i++ {
		if len(toks[i].Runs) != 0 {
			t.Errorf("token %d: empty-text runs must be dropped, got %+v", i, toks[i].Runs)
		}
	}
	if toks[2].SequenceIndex != 2 {
		t.Errorf("sequence index = %d, want 2", toks[2].SequenceIndex)
	}
}

func TestReadDocxRunStyleClasses(t *testing.T) {
	stylesXML := `<?xml version="1.0"?><w:styles xmlns:w="ns">` +
		`<w:style w:styleId="CardUnderline"><w:rPr><w:u w:val="single"/></w:rPr></w:style>` +
		`<w:style w:styleId="GreenHighlight"><w:rPr/></w:style>` +
		`</w:styles>`
	doc := body(
		para(`<w:r><w:rPr><w:rStyle w:val="CardUnderline"/></w:rPr><w:t>defined</w:t></w:r>`),
		para(`<w:r><w:rPr><w:rStyle w:val="GreenHighlight"/></w:rPr><w:t>named</w:t></w:r>`),
		para(`<w:r><w:rPr><w:rStyle w:val="IntenseEmphasis"/></w:rPr><w:t>alias</w:t></w:r>`),
	)
	toks, err := ReadDocx(writeDocx(t, doc, stylesXML))
	if err != nil {
		t.Fatal(err)
	}
	want := []styles.RunStyles{
		{Underline: true},
		{Mark: true},
		{Strong: true, Underline: true},
	}
	for i, tok := range toks {
		if len(tok.Runs) != 1 || tok.Runs[0].Styles != want[i] {
			t.Errorf("token %d runs = %+v, want single run styled %+v", i, tok.Runs, want[i])
		}
	}
}

func TestReadDocxContainerErrors(t *testing.T) {
	t.Run("not a zip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bogus.docx")
		if err := os.WriteFile(path, []byte("plain text, no archive"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := ReadDocx(path)
		var cfe *ContainerFormatError
		if !errors.As(err, &cfe) {
			t.Fatalf("err = %v, want *ContainerFormatError", err)
		}
		if cfe.Path != path {
			t.Errorf("error path = %q, want %q", cfe.Path, path)
		}
	})

	t.Run("missing body part", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.docx")
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		zw := zip.NewWriter(f)
		w, _ := zw.Create("word/other.xml")
		w.Write([]byte("<x/>"))
		zw.Close()
		f.Close()

		_, err = ReadDocx(path)
		var cfe *ContainerFormatError
		if !errors.As(err, &cfe) {
			t.Fatalf("err = %v, want *ContainerFormatError", err)
		}
	})
}

func TestReadDocxDepthGuard(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0"?><w:document xmlns:w="ns"><w:body>`)
	sb.WriteString(para(`<w:r><w:t>before the bomb</w:t></w:r>`))
	for i := 0; i < 400; i++ {
		sb.WriteString("<w:sdt>")
	}
	for i := 0; i < 400; i++ {
		sb.WriteString("</w:sdt>")
	}
	sb.WriteString(`</w:body></w:document>`)

	toks, err := ReadDocx(writeDocx(t, sb.String(), ""))
	if err != nil {
		t.Fatal(err)
	}
	if len(toks) != 1 || toks[0].Text() != "before the bomb" {
		t.Fatalf("tokens before the guard tripped must survive, got %+v", toks)
	}
}

func TestParseHTML(t *testing.T) {
	src := `<h1>Economy</h1>` +
		`<p><u>underlined</u><b> hot</b><mark> marked</mark> plain &amp; entities</p>` +
		`<div><h4>nested tagline</h4></div>` +
		`<p><span class="IntenseEmphasis">aliased</span></p>` +
		`<script>ignore()</script>`
	toks, err := ParseHTML(src)
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}
	want := []Token{
		{BlockStyle: styles.Pocket, Runs: []Run{{Text: "Economy"}}, OutlineLevel: 1, SequenceIndex: 0},
		{BlockStyle: styles.Text, Runs: []Run{
			{Text: "underlined", Styles: styles.RunStyles{Underline: true}},
			{Text: " hot", Styles: styles.RunStyles{Strong: true}},
			{Text: " marked", Styles: styles.RunStyles{Mark: true}},
			{Text: " plain & entities"},
		}, SequenceIndex: 1},
		{BlockStyle: styles.Tag, Runs: []Run{{Text: "nested tagline"}}, OutlineLevel: 4, SequenceIndex: 2},
		{BlockStyle: styles.Text, Runs: []Run{
			{Text: "aliased", Styles: styles.RunStyles{Strong: true, Underline: true}},
		}, SequenceIndex: 3},
	}
	if !reflect.DeepEqual(toks, want) {
		t.Fatalf("tokens = %+v\nwant %+v", toks, want)
	}
}

func TestParseHTMLNestedInline(t *testing.T) {
	toks, err := ParseHTML(`<p><u><b>both</b> just-u</u></p>`)
	if err != nil {
		t.Fatal(err)
	}
	want := []Run{
		{Text: "both", Styles: styles.RunStyles{Underline: true, Strong: true}},
		{Text: " just-u", Styles: styles.RunStyles{Underline: true}},
	}
	if len(toks) != 1 || !reflect.DeepEqual(toks[0].Runs, want) {
		t.Fatalf("runs = %+v, want %+v", toks, want)
	}
}

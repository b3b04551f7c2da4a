package cards

import (
	"strings"
	"testing"

	"github.com/debatekit/cardpipe/styles"
	"github.com/debatekit/cardpipe/tokenizer"
)

func TestMarkup(t *testing.T) {
	c := Card{Paras: []tokenizer.Token{
		{BlockStyle: styles.Text, Runs: []tokenizer.Run{
			{Text: "plain "},
			{Text: "hot", Styles: styles.RunStyles{Underline: true, Mark: true}},
			{Text: " & after"},
		}},
		{BlockStyle: styles.Tag, Runs: []tokenizer.Run{{Text: "stray"}}},
	}}
	got := Markup(c)
	want := "<p>plain <u><mark>hot</mark></u> &amp; after</p><h4>stray</h4>"
	if got != want {
		t.Fatalf("Markup = %q, want %q", got, want)
	}
}

func TestMarkupCollapsesEqualRuns(t *testing.T) {
	c := Card{Paras: []tokenizer.Token{
		{BlockStyle: styles.Text, Runs: []tokenizer.Run{
			{Text: "one ", Styles: styles.RunStyles{Strong: true}},
			{Text: "two", Styles: styles.RunStyles{Strong: true}},
		}},
	}}
	if got, want := Markup(c), "<p><b>one two</b></p>"; got != want {
		t.Fatalf("Markup = %q, want %q", got, want)
	}
}

func TestPlainTextRoundTrip(t *testing.T) {
	paras := []tokenizer.Token{
		{BlockStyle: styles.Text, Runs: []tokenizer.Run{
			{Text: "first "}, {Text: "half", Styles: styles.RunStyles{Strong: true}},
		}},
		{BlockStyle: styles.Text, Runs: []tokenizer.Run{{Text: "second"}}},
	}
	got := PlainText(Card{Paras: paras})
	if got != "first half\nsecond" {
		t.Fatalf("PlainText = %q", got)
	}
	// Concatenated run text reproduces the body with nothing dropped.
	var all strings.Builder
	for _, p := range paras {
		all.WriteString(p.Text())
	}
	if strings.ReplaceAll(got, "\n", "") != all.String() {
		t.Fatal("plain text must preserve every run")
	}
}

func TestStyledText(t *testing.T) {
	c := Card{Paras: []tokenizer.Token{
		{BlockStyle: styles.Text, Runs: []tokenizer.Run{
			{Text: "cold "},
			{Text: "warm", Styles: styles.RunStyles{Underline: true}},
			{Text: " hot", Styles: styles.RunStyles{Underline: true, Mark: true}},
		}},
		{BlockStyle: styles.Text, Runs: []tokenizer.Run{
			{Text: "also hot", Styles: styles.RunStyles{Mark: true}},
		}},
	}}
	if got := StyledText(c, styles.RunStyles{Mark: true}); got != "hot also hot" {
		t.Errorf("marked text = %q, want %q", got, "hot also hot")
	}
	if got := StyledText(c, styles.RunStyles{Underline: true}); got != "warm hot" {
		t.Errorf("underlined text = %q, want %q", got, "warm hot")
	}
}

// Command card2json converts a single .docx or .html document into its
// card array, written to the sibling .json path.
//
// Usage:
//
//	card2json evidence.docx
//	card2json -o - evidence.docx     # write JSON to stdout
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/debatekit/cardpipe/pipeline"
	"github.com/debatekit/cardpipe/tokenizer"
)

func main() {
	out := flag.String("o", "", "output path; '-' writes to stdout (default: sibling .json)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: card2json [-o output] [-v] <document.docx|document.html>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	lvl := slog.LevelWarn
	if *verbose {
		lvl = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	pipe := pipeline.New(pipeline.Config{Logger: logger})

	doc, err := pipe.Extract(context.Background(), flag.Arg(0))
	if err != nil {
		var cfe *tokenizer.ContainerFormatError
		if errors.As(err, &cfe) {
			slog.Error("not a readable document container", "path", cfe.Path, "reason", cfe.Reason)
		} else {
			slog.Error("extract failed", "error", err)
		}
		os.Exit(1)
	}

	if *out == "-" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc.Cards); err != nil {
			slog.Error("encode", "error", err)
			os.Exit(1)
		}
		return
	}

	if *out != "" {
		data, err := json.MarshalIndent(doc.Cards, "", "  ")
		if err != nil {
			slog.Error("marshal", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			slog.Error("write", "error", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "%s: %d cards -> %s\n", flag.Arg(0), len(doc.Cards), *out)
		return
	}

	written, err := pipe.WriteCardsJSON(doc)
	if err != nil {
		slog.Error("write", "error", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%s: %d cards -> %s\n", flag.Arg(0), len(doc.Cards), written)
}

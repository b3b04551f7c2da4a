// Package pipeline wires the extraction stages together: container reading,
// tokenizing, card segmentation and citation parsing.
//
// Usage:
//
//	pipe := pipeline.New(pipeline.Config{})
//	doc, err := pipe.Extract(ctx, "/path/to/evidence.docx")
//	fmt.Println(len(doc.Cards), "cards")
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/debatekit/cardpipe/cards"
	"github.com/debatekit/cardpipe/cite"
	"github.com/debatekit/cardpipe/tokenizer"
)

// Format identifies a supported input format.
type Format string

const (
	FormatDocx Format = "docx"
	FormatHTML Format = "html"
)

// Document is the result of extracting one source file.
type Document struct {
	Path   string       `json:"path"`
	Format Format       `json:"format"`
	Cards  []cards.Card `json:"cards"`
}

// Pipeline is the card extraction engine.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline with the given configuration.
func New(cfg Config) *Pipeline {
	cfg.defaults()
	return &Pipeline{
		cfg:    cfg,
		logger: cfg.Logger,
	}
}

// Detect returns the document format based on file extension.
func (p *Pipeline) Detect(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".docx":
		return FormatDocx, nil
	case ".html", ".htm":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported format: %q", ext)
	}
}

// Extract reads a document file and returns its cards.
func (p *Pipeline) Extract(ctx context.Context, path string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.Size() > p.cfg.MaxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), p.cfg.MaxFileSize)
	}

	format, err := p.Detect(path)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("extracting document", "path", path, "format", format)

	var tokens []tokenizer.Token
	switch format {
	case FormatDocx:
		tokens, err = tokenizer.ReadDocx(path)
	case FormatHTML:
		var data []byte
		if data, err = os.ReadFile(path); err == nil {
			tokens, err = tokenizer.ParseHTML(string(data))
		}
	}
	if err != nil {
		// Container errors surface unchanged so callers can match on them.
		return nil, err
	}

	doc := &Document{
		Path:   path,
		Format: format,
		Cards:  p.ExtractCards(tokens),
	}
	p.logger.Debug("extracted cards", "path", path, "tokens", len(tokens), "cards", len(doc.Cards))
	return doc, nil
}

// ExtractHTML extracts cards from an already-flattened markup string.
func (p *Pipeline) ExtractHTML(ctx context.Context, src string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tokens, err := tokenizer.ParseHTML(src)
	if err != nil {
		return nil, err
	}
	return &Document{
		Format: FormatHTML,
		Cards:  p.ExtractCards(tokens),
	}, nil
}

// ExtractCards segments a token stream into cards with citation fields
// parsed and the access date stamped from the pipeline clock.
func (p *Pipeline) ExtractCards(tokens []tokenizer.Token) []cards.Card {
	now := p.cfg.Now()
	out := cards.Segment(tokens, cards.Options{
		AccessDate: cards.CardDate{
			Month: strconv.Itoa(int(now.Month())),
			Day:   strconv.Itoa(now.Day()),
			Year:  strconv.Itoa(now.Year()),
		},
		Citation: cite.Apply,
	})
	if out == nil {
		out = []cards.Card{}
	}
	return out
}

// OutputPath returns the sibling .json path for a source document.
func OutputPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".json"
}

// WriteCardsJSON writes the serialized card array next to the source
// document and returns the path written.
func (p *Pipeline) WriteCardsJSON(doc *Document) (string, error) {
	out := OutputPath(doc.Path)
	data, err := json.MarshalIndent(doc.Cards, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal cards: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}
	return out, nil
}

// SupportedFormats returns all supported format extensions.
func SupportedFormats() []string {
	return []string{"docx", "html"}
}

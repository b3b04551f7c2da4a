// Package search maintains a full-text index over extracted cards.
package search

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/debatekit/cardpipe/cards"
	"github.com/debatekit/cardpipe/styles"
)

// Index wraps the bleve card index.
type Index struct {
	idx bleve.Index
}

func cardMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()
	text.Analyzer = en.AnalyzerName

	dm := bleve.NewDocumentMapping()
	for _, field := range []string{"tag", "title", "authors", "body", "highlighted"} {
		dm.AddFieldMappingsAt(field, text)
	}

	m := bleve.NewIndexMapping()
	m.AddDocumentMapping("card", dm)
	m.DefaultType = "card"
	return m
}

// Open opens the index at path, creating it on first use.
func Open(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		idx, err = bleve.New(path, cardMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("search: open index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// OpenMemory creates an unpersisted index, for tests and one-shot runs.
func OpenMemory() (*Index, error) {
	idx, err := bleve.NewMemOnly(cardMapping())
	if err != nil {
		return nil, fmt.Errorf("search: open memory index: %w", err)
	}
	return &Index{idx: idx}, nil
}

// Close closes the underlying index.
func (s *Index) Close() error {
	if s.idx == nil {
		return nil
	}
	return s.idx.Close()
}

// IndexCard indexes one card under the given ID. The highlighted reading is
// indexed as its own field so a search can favor what the author actually
// emphasized.
func (s *Index) IndexCard(id string, c cards.Card) error {
	authors := make([]string, len(c.Authors))
	for i, a := range c.Authors {
		authors[i] = a.Name
	}
	data := map[string]any{
		"tag":         c.Tag,
		"title":       c.Title,
		"authors":     strings.Join(authors, " "),
		"body":        cards.PlainText(c),
		"highlighted": cards.StyledText(c, styles.RunStyles{Mark: true}),
	}
	if err := s.idx.Index(id, data); err != nil {
		return fmt.Errorf("search: index card %s: %w", id, err)
	}
	return nil
}

// Delete removes one card from the index.
func (s *Index) Delete(id string) error {
	if err := s.idx.Delete(id); err != nil {
		return fmt.Errorf("search: delete %s: %w", id, err)
	}
	return nil
}

// Hit is one search result.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Search matches q against all card fields and returns up to limit hits,
// best first.
func (s *Index) Search(q string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 10
	}
	req := bleve.NewSearchRequest(bleve.NewMatchQuery(q))
	req.Size = limit

	res, err := s.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: query %q: %w", q, err)
	}

	hits := make([]Hit, len(res.Hits))
	for i, h := range res.Hits {
		hits[i] = Hit{ID: h.ID, Score: h.Score}
	}
	return hits, nil
}

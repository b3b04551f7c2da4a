package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/debatekit/cardpipe/cards"
)

func sampleCards() []cards.Card {
	return []cards.Card{
		{
			Tag:     "Warming heading",
			Title:   "Warming Accelerates",
			Authors: []cards.Author{{Name: "Jane Smith", IsPerson: true}},
			Date:    &cards.CardDate{Month: "3", Day: "14", Year: "2023"},
		},
		{
			Tag:     "Second heading",
			Authors: []cards.Author{},
		},
	}
}

func TestSaveAndListRoundTrip(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	docID, err := s.SaveDocument(ctx, "/aff/warming.docx", "docx", sampleCards())
	if err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ID != docID || docs[0].Format != "docx" {
		t.Fatalf("documents = %+v", docs)
	}

	recs, err := s.ListCards(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d cards, want 2", len(recs))
	}
	for i, rec := range recs {
		if rec.Position != i {
			t.Errorf("card %d position = %d", i, rec.Position)
		}
	}
	got := recs[0].Card
	if got.Tag != "Warming heading" || got.Title != "Warming Accelerates" {
		t.Errorf("card round-trip lost fields: %+v", got)
	}
	if got.Date == nil || got.Date.Year != "2023" {
		t.Errorf("card date = %+v", got.Date)
	}
	if len(got.Authors) != 1 || got.Authors[0].Name != "Jane Smith" {
		t.Errorf("card authors = %+v", got.Authors)
	}
}

func TestSaveDocumentReplacesPreviousPath(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	first, err := s.SaveDocument(ctx, "/aff/warming.docx", "docx", sampleCards())
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.SaveDocument(ctx, "/aff/warming.docx", "docx", sampleCards()[:1])
	if err != nil {
		t.Fatal(err)
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ID != second {
		t.Fatalf("documents after re-ingest = %+v", docs)
	}
	if recs, _ := s.ListCards(ctx, first); len(recs) != 0 {
		t.Errorf("cards of replaced document still present: %d", len(recs))
	}
}

func TestGetCard(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	docID, err := s.SaveDocument(ctx, "/aff/warming.docx", "docx", sampleCards())
	if err != nil {
		t.Fatal(err)
	}
	recs, err := s.ListCards(ctx, docID)
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetCard(ctx, recs[1].ID)
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if got.Card.Tag != "Second heading" {
		t.Errorf("card = %+v", got.Card)
	}

	if _, err := s.GetCard(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing card err = %v, want sql.ErrNoRows", err)
	}
}

func TestDeleteDocumentCascades(t *testing.T) {
	s := OpenMemory(t)
	ctx := context.Background()

	docID, err := s.SaveDocument(ctx, "/aff/warming.docx", "docx", sampleCards())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteDocument(ctx, docID); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	if recs, _ := s.ListCards(ctx, docID); len(recs) != 0 {
		t.Errorf("cards survived document delete: %d", len(recs))
	}
	if err := s.DeleteDocument(ctx, docID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("double delete err = %v, want sql.ErrNoRows", err)
	}
}

func TestOpenOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cards.db")
	s, err := Open(path, WithMkdirAll())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if _, err := s.SaveDocument(context.Background(), "/x.docx", "docx", nil); err != nil {
		t.Fatalf("SaveDocument on disk: %v", err)
	}
}

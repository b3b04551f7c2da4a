// Package store persists extracted documents and their cards to SQLite.
//
// Usage:
//
//	import _ "modernc.org/sqlite"
//	st, err := store.Open("cards.db")
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/debatekit/cardpipe/cards"
	"github.com/debatekit/cardpipe/idgen"
)

// Schema creates the documents and cards tables. Card bodies are stored as
// the serialized card JSON; the indexed columns exist for listing and joins,
// not for querying inside the body.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	path TEXT NOT NULL,
	format TEXT NOT NULL,
	ingested_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS cards (
	id TEXT PRIMARY KEY,
	document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	tag TEXT NOT NULL,
	title TEXT NOT NULL,
	year TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cards_document ON cards(document_id, position);
CREATE INDEX IF NOT EXISTS idx_documents_path ON documents(path);
`

type config struct {
	driver      string
	busyTimeout int
	synchronous string
	mkdirAll    bool
	pingRetries uint
	newID       idgen.Generator
}

func defaults() config {
	return config{
		driver:      "sqlite",
		busyTimeout: 10_000,
		synchronous: "NORMAL",
		pingRetries: 3,
		newID:       idgen.Default,
	}
}

// Option customises Open behaviour.
type Option func(*config)

// WithDriver sets the database/sql driver name. Default: "sqlite".
func WithDriver(name string) Option { return func(c *config) { c.driver = name } }

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithSynchronous sets PRAGMA synchronous. Default: "NORMAL".
func WithSynchronous(mode string) Option { return func(c *config) { c.synchronous = mode } }

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithIDGenerator overrides the row ID strategy. Default: UUIDv7.
func WithIDGenerator(g idgen.Generator) Option { return func(c *config) { c.newID = g } }

// WithPingRetries sets how many times the post-open ping is retried against
// transient locking before Open gives up. Default: 3.
func WithPingRetries(n uint) Option { return func(c *config) { c.pingRetries = n } }

// Store wraps the card database.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
}

// Open opens the SQLite database at path with WAL pragmas applied and the
// schema in place. Another writer holding the database briefly is tolerated
// through a retried ping.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("store: mkdir: %w", err)
		}
	}

	db, err := sql.Open(cfg.driver, path)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if path == ":memory:" {
		// Each connection to :memory: is its own database; the schema must
		// land on the one connection every query will use.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		fmt.Sprintf("PRAGMA synchronous = %s", cfg.synchronous),
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: exec schema: %w", err)
	}

	err = retry.Do(db.Ping,
		retry.Attempts(cfg.pingRetries),
		retry.Delay(100*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	return &Store{db: db, newID: cfg.newID}, nil
}

// OpenMemory opens an in-memory store for testing. MaxOpenConns(1) keeps
// every query on the same in-memory database; the store closes itself via
// t.Cleanup.
func OpenMemory(t testing.TB, opts ...Option) *Store {
	t.Helper()
	s, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("store.OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying handle for callers that need raw queries.
func (s *Store) DB() *sql.DB { return s.db }

// DocumentRecord is one persisted source document.
type DocumentRecord struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Format     string    `json:"format"`
	IngestedAt time.Time `json:"ingestedAt"`
}

// CardRecord is one persisted card with its storage identity.
type CardRecord struct {
	ID         string     `json:"id"`
	DocumentID string     `json:"documentId"`
	Position   int        `json:"position"`
	Card       cards.Card `json:"card"`
}

// SaveDocument stores a document and its cards in one transaction, replacing
// any previous rows for the same path. Returns the new document ID.
func (s *Store) SaveDocument(ctx context.Context, path, format string, cc []cards.Card) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents WHERE path = ?`, path); err != nil {
		return "", fmt.Errorf("store: clear previous document: %w", err)
	}

	docID := s.newID()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, path, format, ingested_at) VALUES (?, ?, ?, ?)`,
		docID, path, format, time.Now().Unix()); err != nil {
		return "", fmt.Errorf("store: insert document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cards (id, document_id, position, tag, title, year, body) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("store: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range cc {
		body, err := json.Marshal(c)
		if err != nil {
			return "", fmt.Errorf("store: marshal card %d: %w", i, err)
		}
		var year string
		if c.Date != nil {
			year = c.Date.Year
		}
		if _, err := stmt.ExecContext(ctx, s.newID(), docID, i, c.Tag, c.Title, year, body); err != nil {
			return "", fmt.Errorf("store: insert card %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit: %w", err)
	}
	return docID, nil
}

// ListDocuments returns all stored documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, format, ingested_at FROM documents ORDER BY ingested_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("store: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRecord
	for rows.Next() {
		var d DocumentRecord
		var ts int64
		if err := rows.Scan(&d.ID, &d.Path, &d.Format, &ts); err != nil {
			return nil, fmt.Errorf("store: scan document: %w", err)
		}
		d.IngestedAt = time.Unix(ts, 0).UTC()
		out = append(out, d)
	}
	return out, rows.Err()
}

// ListCards returns a document's cards in extraction order.
func (s *Store) ListCards(ctx context.Context, documentID string) ([]CardRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, position, body FROM cards WHERE document_id = ? ORDER BY position`,
		documentID)
	if err != nil {
		return nil, fmt.Errorf("store: list cards: %w", err)
	}
	defer rows.Close()

	var out []CardRecord
	for rows.Next() {
		rec, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetCard fetches one card by its row ID.
func (s *Store) GetCard(ctx context.Context, id string) (CardRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, position, body FROM cards WHERE id = ?`, id)
	if err != nil {
		return CardRecord{}, fmt.Errorf("store: get card: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return CardRecord{}, fmt.Errorf("store: get card: %w", err)
		}
		return CardRecord{}, sql.ErrNoRows
	}
	return scanCard(rows)
}

func scanCard(rows *sql.Rows) (CardRecord, error) {
	var rec CardRecord
	var body []byte
	if err := rows.Scan(&rec.ID, &rec.DocumentID, &rec.Position, &body); err != nil {
		return CardRecord{}, fmt.Errorf("store: scan card: %w", err)
	}
	if err := json.Unmarshal(body, &rec.Card); err != nil {
		return CardRecord{}, fmt.Errorf("store: decode card %s: %w", rec.ID, err)
	}
	return rec, nil
}

// DeleteDocument removes a document and, via the cascade, its cards.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

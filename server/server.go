// Package server exposes the extraction pipeline over HTTP: document
// upload, pasted-markup extraction, stored card listing and full-text
// search.
package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"

	"github.com/debatekit/cardpipe/export"
	"github.com/debatekit/cardpipe/pipeline"
	"github.com/debatekit/cardpipe/search"
	"github.com/debatekit/cardpipe/store"
	"github.com/debatekit/cardpipe/tokenizer"
)

// Server wires the pipeline, store and index behind the HTTP surface.
type Server struct {
	cfg      *Config
	logger   *slog.Logger
	pipe     *pipeline.Pipeline
	store    *store.Store
	index    *search.Index
	exporter *export.Exporter
	sanitize *bluemonday.Policy
}

// New creates a Server. store and index may be nil; the extraction routes
// still work, persistence and search respond 503.
func New(cfg *Config, pipe *pipeline.Pipeline, st *store.Store, idx *search.Index, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	// Pasted markup is untrusted; strip it down to the tag vocabulary the
	// tokenizer understands before it goes anywhere near parsing.
	policy := bluemonday.NewPolicy()
	policy.AllowElements("p", "u", "b", "strong", "mark", "h1", "h2", "h3", "h4")
	policy.AllowAttrs("class").OnElements("span")

	return &Server{
		cfg:      cfg,
		logger:   logger,
		pipe:     pipe,
		store:    st,
		index:    idx,
		exporter: export.New(),
		sanitize: policy,
	}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/v1/health", s.handleHealth)
	r.Post("/v1/extract", s.handleExtract)
	r.Post("/v1/extract/html", s.handleExtractHTML)
	r.Get("/v1/documents", s.handleListDocuments)
	r.Get("/v1/documents/{id}/cards", s.handleListCards)
	r.Delete("/v1/documents/{id}", s.handleDeleteDocument)
	r.Get("/v1/cards/{id}", s.handleGetCard)
	r.Get("/v1/cards/{id}/markdown", s.handleCardMarkdown)
	r.Get("/v1/search", s.handleSearch)
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtract accepts a multipart upload ("file" field) and returns the
// extracted document. With ?persist=1 the cards are stored and indexed and
// the response carries the document ID.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileBytes())
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()

	// The extractor works from paths; spool the upload keeping the original
	// extension so format detection still applies.
	tmpDir, err := os.MkdirTemp("", "cardpipe-upload-")
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	defer os.RemoveAll(tmpDir)

	tmpPath := filepath.Join(tmpDir, filepath.Base(header.Filename))
	dst, err := os.Create(tmpPath)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	dst.Close()

	doc, err := s.pipe.Extract(r.Context(), tmpPath)
	if err != nil {
		var cfe *tokenizer.ContainerFormatError
		if errors.As(err, &cfe) {
			writeError(w, http.StatusUnprocessableEntity, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	doc.Path = header.Filename

	resp := struct {
		*pipeline.Document
		DocumentID string `json:"documentId,omitempty"`
	}{Document: doc}

	if r.URL.Query().Get("persist") == "1" {
		id, err := s.persist(r, doc)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, err)
			return
		}
		resp.DocumentID = id
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) persist(r *http.Request, doc *pipeline.Document) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("persistence not configured")
	}
	id, err := s.store.SaveDocument(r.Context(), doc.Path, string(doc.Format), doc.Cards)
	if err != nil {
		return "", err
	}
	if s.index != nil {
		recs, err := s.store.ListCards(r.Context(), id)
		if err != nil {
			return "", err
		}
		for _, rec := range recs {
			if err := s.index.IndexCard(rec.ID, rec.Card); err != nil {
				return "", err
			}
		}
	}
	return id, nil
}

// handleExtractHTML extracts cards from a pasted markup body. The body is
// sanitized to the fixed tag vocabulary first, so script, style and layout
// noise from a browser clipboard never reach the tokenizer.
func (s *Server) handleExtractHTML(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxFileBytes()))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("empty body"))
		return
	}

	clean := s.sanitize.Sanitize(string(body))
	doc, err := s.pipe.ExtractHTML(r.Context(), clean)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("persistence not configured"))
		return
	}
	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if docs == nil {
		docs = []store.DocumentRecord{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("persistence not configured"))
		return
	}
	recs, err := s.store.ListCards(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []store.CardRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("persistence not configured"))
		return
	}
	id := chi.URLParam(r, "id")

	// Drop index entries before the rows disappear.
	if s.index != nil {
		recs, err := s.store.ListCards(r.Context(), id)
		if err == nil {
			for _, rec := range recs {
				_ = s.index.Delete(rec.ID)
			}
		}
	}

	err := s.store.DeleteDocument(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, fmt.Errorf("document %s not found", id))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.cardByID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCardMarkdown(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.cardByID(w, r)
	if !ok {
		return
	}
	md, err := s.exporter.Markdown(rec.Card)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, md)
}

func (s *Server) cardByID(w http.ResponseWriter, r *http.Request) (store.CardRecord, bool) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("persistence not configured"))
		return store.CardRecord{}, false
	}
	id := chi.URLParam(r, "id")
	rec, err := s.store.GetCard(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, fmt.Errorf("card %s not found", id))
		return store.CardRecord{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return store.CardRecord{}, false
	}
	return rec, true
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.index == nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("search not configured"))
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("q is required"))
		return
	}
	limit := 10
	if l := r.URL.Query().Get("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}
	hits, err := s.index.Search(q, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	writeJSON(w, http.StatusOK, hits)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

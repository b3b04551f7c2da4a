// Package watch converts documents dropped into a directory. Every created
// or rewritten .docx/.html file is extracted and its card array written to
// the sibling .json path, continuously, until the context is cancelled.
//
// Typical usage:
//
//	w := watch.New(pipe, watch.Options{Debounce: 500 * time.Millisecond})
//	err := w.Run(ctx, "/drops", nil)
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/debatekit/cardpipe/pipeline"
)

// Options tunes the watcher behaviour.
type Options struct {
	// Debounce is the quiet period after the last write to a file before
	// conversion fires. Editors and network copies write in bursts; the
	// timer resets on every event for the same path. Default: 500ms.
	Debounce time.Duration
	// Extensions lists the file extensions to convert (lowercase, with
	// dot). Default: .docx, .html, .htm.
	Extensions []string
	// Logger overrides the default slog logger.
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Debounce <= 0 {
		o.Debounce = 500 * time.Millisecond
	}
	if len(o.Extensions) == 0 {
		o.Extensions = []string{".docx", ".html", ".htm"}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Watcher converts dropped documents. Safe for concurrent use; each file
// converts independently so one corrupt document never stalls the rest.
type Watcher struct {
	pipe *pipeline.Pipeline
	opts Options

	mu     sync.Mutex
	timers map[string]*time.Timer

	// Counters for observability (exported via Stats).
	events    atomic.Int64
	converted atomic.Int64
	errors    atomic.Int64
}

// Stats are point-in-time counters.
type Stats struct {
	Events    int64 `json:"events"`
	Converted int64 `json:"converted"`
	Errors    int64 `json:"errors"`
}

// New creates a Watcher. Call Run to start the loop.
func New(pipe *pipeline.Pipeline, opts Options) *Watcher {
	opts.defaults()
	return &Watcher{
		pipe:   pipe,
		opts:   opts,
		timers: make(map[string]*time.Timer),
	}
}

// Stats returns the current counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Events:    w.events.Load(),
		Converted: w.converted.Load(),
		Errors:    w.errors.Load(),
	}
}

// Run blocks until ctx is cancelled, converting matching files as they
// appear in dir. onDone, when non-nil, is called after each successful
// conversion with the extracted document and the path written.
func (w *Watcher) Run(ctx context.Context, dir string, onDone func(doc *pipeline.Document, out string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch: add %s: %w", dir, err)
	}

	log := w.opts.Logger
	log.Info("watch: started", "dir", dir, "debounce", w.opts.Debounce)

	for {
		select {
		case <-ctx.Done():
			log.Info("watch: stopped", "dir", dir)
			w.stopTimers()
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if !w.matches(ev.Name) {
				continue
			}
			w.events.Add(1)
			w.schedule(ctx, ev.Name, onDone)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.errors.Add(1)
			log.Warn("watch: watcher error", "error", err)
		}
	}
}

func (w *Watcher) matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.opts.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// schedule (re)arms the per-file debounce timer.
func (w *Watcher) schedule(ctx context.Context, path string, onDone func(*pipeline.Document, string)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.convert(ctx, path, onDone)
	})
}

func (w *Watcher) convert(ctx context.Context, path string, onDone func(*pipeline.Document, string)) {
	log := w.opts.Logger

	doc, err := w.pipe.Extract(ctx, path)
	if err != nil {
		w.errors.Add(1)
		log.Error("watch: extract failed", "path", path, "error", err)
		return
	}
	out, err := w.pipe.WriteCardsJSON(doc)
	if err != nil {
		w.errors.Add(1)
		log.Error("watch: write failed", "path", path, "error", err)
		return
	}
	w.converted.Add(1)
	log.Info("watch: converted", "path", path, "out", out, "cards", len(doc.Cards))
	if onDone != nil {
		onDone(doc, out)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

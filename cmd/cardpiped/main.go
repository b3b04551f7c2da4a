// Command cardpiped runs the card extraction service: HTTP API, SQLite
// persistence, full-text search, optional drop-directory conversion and
// optional MCP over stdio.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/debatekit/cardpipe/pipeline"
	"github.com/debatekit/cardpipe/search"
	"github.com/debatekit/cardpipe/server"
	"github.com/debatekit/cardpipe/store"
	"github.com/debatekit/cardpipe/watch"
)

func main() {
	configPath := env("CONFIG", "")
	logLevel := env("LOG_LEVEL", "info")
	mcpTransport := env("MCP_TRANSPORT", "")

	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	cfg := server.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = server.LoadConfig(configPath)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
	}
	if listen := env("LISTEN", ""); listen != "" {
		cfg.Listen = listen
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pipe := pipeline.New(pipeline.Config{
		MaxFileSize: cfg.MaxFileBytes(),
		Logger:      logger,
	})

	st, err := store.Open(cfg.DBPath, store.WithMkdirAll())
	if err != nil {
		slog.Error("open store", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	idx, err := search.Open(cfg.IndexPath)
	if err != nil {
		slog.Error("open index", "path", cfg.IndexPath, "error", err)
		os.Exit(1)
	}
	defer idx.Close()

	// Optional drop-directory conversion alongside the HTTP surface.
	if cfg.WatchDir != "" {
		w := watch.New(pipe, watch.Options{
			Debounce: time.Duration(cfg.WatchDebounceMS) * time.Millisecond,
			Logger:   logger,
		})
		go func() {
			if err := w.Run(ctx, cfg.WatchDir, nil); err != nil {
				slog.Error("watch", "dir", cfg.WatchDir, "error", err)
			}
		}()
	}

	// Optional MCP over stdio; the HTTP server keeps running alongside.
	if mcpTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "cardpipe",
			Version: "1.0.0",
		}, nil)
		pipe.RegisterMCP(mcpSrv)
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("mcp stdio", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.New(cfg, pipe, st, idx, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package pipeline

import (
	"log/slog"
	"time"
)

// Config configures the extraction pipeline.
type Config struct {
	// MaxFileSize is the maximum document size to process (default: 50 MB).
	MaxFileSize int64 `json:"max_file_size" yaml:"max_file_size"`

	// Logger for debug/error messages.
	Logger *slog.Logger `json:"-" yaml:"-"`

	// Now supplies the clock used for card access dates. Overridable in
	// tests; defaults to time.Now.
	Now func() time.Time `json:"-" yaml:"-"`
}

func (c *Config) defaults() {
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = 50 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

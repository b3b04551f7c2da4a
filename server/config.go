package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the full card service configuration.
type Config struct {
	Listen    string `yaml:"listen"`
	DBPath    string `yaml:"db_path"`
	IndexPath string `yaml:"index_path"`
	// WatchDir, when set, is converted continuously alongside the HTTP
	// surface (dropped .docx → sibling .json).
	WatchDir        string `yaml:"watch_dir"`
	WatchDebounceMS int    `yaml:"watch_debounce_ms"`
	MaxFileMB       int    `yaml:"max_file_mb"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:          ":8084",
		DBPath:          "cardpipe.db",
		IndexPath:       "cardpipe.bleve",
		WatchDebounceMS: 500,
		MaxFileMB:       50,
	}
}

// LoadConfig reads and parses a YAML config file. Returns DefaultConfig
// merged with the file.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.IndexPath == "" {
		return fmt.Errorf("index_path is required")
	}
	if c.MaxFileMB <= 0 {
		return fmt.Errorf("max_file_mb must be > 0")
	}
	if c.WatchDebounceMS < 0 {
		return fmt.Errorf("watch_debounce_ms must be >= 0")
	}
	return nil
}

// MaxFileBytes returns the max upload size in bytes.
func (c *Config) MaxFileBytes() int64 { return int64(c.MaxFileMB) * 1024 * 1024 }

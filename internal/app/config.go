package app

import (
	"errors"
	"fmt"

	"golang.org/x/text/language"

	"github.com/specialistvlad/definer/internal/doctree"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Paths   []string // document files or directories
	Element string   // root-level element name to construct
	Format  string   // forces a document format; empty means by extension

	Culture    string // BCP 47 tag for culture-aware values; empty is invariant
	IgnoreCase bool   // enumeration names ignore case

	KeyStorePath string // SQLite key store; empty disables persistence
	KeysOut      string // key table export (.yaml, .yml or .json)
	Dump         bool   // print constructed objects

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Paths) == 0 {
		return nil, errors.New("at least one document path is required")
	}
	if cfg.Element == "" {
		return nil, errors.New("Element is a required configuration field and cannot be empty")
	}
	if cfg.Format != "" {
		if _, err := doctree.ParseFormat(cfg.Format); err != nil {
			return nil, err
		}
	}
	if cfg.Culture != "" {
		if _, err := language.Parse(cfg.Culture); err != nil {
			return nil, fmt.Errorf("invalid culture %q: %w", cfg.Culture, err)
		}
	}
	if cfg.KeysOut != "" {
		if _, err := keysFormat(cfg.KeysOut); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

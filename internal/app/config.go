package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/charsmith/internal/mutator"
)

// Selection is a user choice submitted on top of the character file.
type Selection struct {
	Path  string
	Value string
}

// ParseSelection parses "path=value".
func ParseSelection(raw string) (Selection, error) {
	path, value, ok := strings.Cut(raw, "=")
	path = strings.TrimSpace(path)
	if !ok || path == "" {
		return Selection{}, fmt.Errorf("invalid selection %q: want path=value", raw)
	}
	return Selection{Path: path, Value: strings.TrimSpace(value)}, nil
}

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	CharacterPath string   // hcl file with the character
	CharacterID   string   // empty when the file holds exactly one character
	ContentPaths  []string // hcl files or directories
	StorePath     string   // sqlite file; empty keeps content in memory

	LogFormat    string
	LogLevel     string
	OutputFormat string

	Workers        int
	Ordering       mutator.Ordering
	MaxExtraRounds int
	DeferLookups   bool

	Selections []Selection
	Conditions []string
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.CharacterPath == "" {
		return nil, errors.New("CharacterPath is a required configuration field and cannot be empty")
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	switch cfg.OutputFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid output format %q: must be 'text' or 'json'", cfg.OutputFormat)
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	if cfg.MaxExtraRounds < 0 {
		return nil, fmt.Errorf("max extra rounds must not be negative, got %d", cfg.MaxExtraRounds)
	}
	ordering, err := mutator.ParseOrdering(string(cfg.Ordering))
	if err != nil {
		return nil, err
	}
	cfg.Ordering = ordering
	return &cfg, nil
}

package config

import "context"

// Loader is the interface for a format-specific content and character loader.
type Loader interface {
	// Load reads every file reachable from paths and translates what it finds
	// into the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

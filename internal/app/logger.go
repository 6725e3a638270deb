package app

import (
	"fmt"
	"io"
	"log/slog"
)

// parseLevel accepts the names slog itself understands: debug, info, warn and
// error in any case, optionally with an offset such as "info+2".
func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", s)
	}
	return level, nil
}

// newLogger builds the application logger from a validated Config.
func newLogger(cfg *Config, logW io.Writer) *slog.Logger {
	level, err := parseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(logW, opts))
	}
	return slog.New(slog.NewTextHandler(logW, opts))
}

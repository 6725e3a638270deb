package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/specialistvlad/charsmith/internal/config"
	"github.com/specialistvlad/charsmith/internal/ctxlog"
	"github.com/specialistvlad/charsmith/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *config.Model
	config   *Config
}

// NewApp is the constructor for the main application. The sheet is written to
// outW and logs to logW. Content that cannot be loaded or compiled is a fatal
// startup error and panics; the entrypoint recovers it into a clean message.
func NewApp(outW, logW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Content packs and the character file go through the same loader.
	paths := append(slices.Clone(cfg.ContentPaths), cfg.CharacterPath)
	model, err := loader.Load(ctx, paths...)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.",
		"objects", model.KindCounts(), "characters", model.CharacterIDs())

	if len(modules) == 0 {
		modules = coreModules
	}
	reg := registry.NewWith(modules...)
	logger.Debug("All mutator modules registered.", "count", len(modules), "kinds", reg.Kinds())

	if err := reg.Validate(ctx, model.Objects); err != nil {
		panic(err)
	}

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    model,
		config:   cfg,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns everything that was loaded. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/coordinator"
	"github.com/specialistvlad/charsmith/internal/ctxlog"
	"github.com/specialistvlad/charsmith/internal/pipeline"
	"github.com/specialistvlad/charsmith/internal/telemetry"
)

const serviceName = "charsmith"

// Run derives the configured character and writes its sheet.
func (a *App) Run(ctx context.Context) (err error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	shutdown, err := telemetry.Setup(ctx, serviceName)
	if err != nil {
		a.logger.Warn("Tracing is disabled; the exporter could not be configured.", "error", err)
	}
	defer func() {
		if serr := shutdown(context.WithoutCancel(ctx)); serr != nil {
			a.logger.Warn("Failed to flush traces.", "error", serr)
		}
	}()

	ch, err := a.model.Character(a.config.CharacterID)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close content store: %w", cerr)
		}
	}()

	agg := character.New(ch.ID, ch.Persistent, a.registry, a.config.Ordering)
	coord := coordinator.New(ctx, agg, store, pipeline.Options{
		Workers:        a.config.Workers,
		MaxExtraRounds: a.config.MaxExtraRounds,
		DeferLookups:   a.config.DeferLookups,
	})

	coord.Invalidate()
	for _, s := range a.config.Selections {
		coord.SubmitEdit(character.Select(s.Path, s.Value))
	}
	for _, id := range a.config.Conditions {
		coord.SubmitEdit(character.AddCondition(id))
	}

	if err := coord.Settle(ctx); err != nil {
		return fmt.Errorf("waiting for recompute: %w", err)
	}
	if err := coord.Err(); err != nil {
		return fmt.Errorf("recompute failed: %w", err)
	}

	published := coord.Published()
	d := published.Derived
	for _, m := range d.MissingSelections {
		a.logger.Warn("Selection missing.", "path", m.Path, "kind", m.Kind, "reason", m.Reason)
	}
	for _, u := range d.Unresolved {
		a.logger.Warn("Reference unresolved; its effects are missing from the sheet.", "id", u.ID, "kind", u.Kind, "source_path", u.Path, "reason", u.Reason)
	}
	a.logger.Info("Character sheet ready.", "character", published.ID, "level", d.Level,
		"objects", len(d.Objects), "recomputes", coord.Recomputes(), "refreshes", coord.Refreshes())

	if err := render(a.outW, published, a.config.OutputFormat); err != nil {
		return fmt.Errorf("failed to render sheet: %w", err)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}

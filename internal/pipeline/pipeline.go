package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/ctxlog"
	"github.com/specialistvlad/charsmith/internal/objcache"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// Phase names a step of the recompute state machine.
type Phase string

const (
	PhaseInit        Phase = "init"
	PhaseInsertion   Phase = "insertion"
	PhaseResolution  Phase = "resolution"
	PhaseApplication Phase = "application"
	PhaseIndirection Phase = "indirection"
	PhaseReady       Phase = "ready"
)

// ErrRoundCapExceeded is the reason recorded on references left pending when
// resolution stops at the round cap.
var ErrRoundCapExceeded = errors.New("object resolution round cap exceeded")

// Recompute rebuilds agg.Derived from agg.Persistent and the objects served
// by provider.
func Recompute(ctx context.Context, agg *character.Aggregate, provider content.Provider, opts Options) (err error) {
	tracer := opts.tracer()
	ctx, span := tracer.Start(ctx, "pipeline.Recompute", trace.WithAttributes(attribute.String("character.id", agg.ID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ctx = ctxlog.With(ctx, "character", agg.ID)
	logger := ctxlog.FromContext(ctx)
	start := time.Now()
	logger.Debug("Recompute started.")

	phases := []struct {
		phase Phase
		run   func(ctx context.Context) error
	}{
		{PhaseInit, func(context.Context) error {
			agg.Reset()
			return nil
		}},
		{PhaseInsertion, func(ctx context.Context) error {
			return insert(ctx, agg)
		}},
		{PhaseResolution, func(ctx context.Context) error {
			return resolve(ctx, agg, provider, opts)
		}},
		{PhaseApplication, func(ctx context.Context) error {
			return agg.Scheduler.Drain(ctx)
		}},
		{PhaseIndirection, func(ctx context.Context) error {
			return materialize(ctx, agg, provider, opts)
		}},
	}

	for _, p := range phases {
		if err := runPhase(ctx, tracer, p.phase, p.run); err != nil {
			logger.Error("Recompute failed.", "phase", p.phase, "error", err)
			return fmt.Errorf("recompute %q: %s phase: %w", agg.ID, p.phase, err)
		}
	}

	agg.Derived.Finalize()
	logger.Debug("Recompute finished.", "phase", PhaseReady, "duration", time.Since(start),
		"objects", len(agg.Derived.Objects), "unresolved", len(agg.Derived.Unresolved),
		"missing_selections", len(agg.Derived.MissingSelections))
	return nil
}

// Refresh is the non-structural pass: it folds background lookups into the
// existing derived data without re-running any rules. It returns how many
// references were filled in.
func Refresh(ctx context.Context, agg *character.Aggregate, opts Options) int {
	_, span := opts.tracer().Start(ctx, "pipeline.Refresh", trace.WithAttributes(attribute.String("character.id", agg.ID)))
	defer span.End()

	filled := agg.ApplyLookups()
	agg.Derived.Finalize()
	span.SetAttributes(attribute.Int("lookups.filled", filled))
	ctxlog.FromContext(ctx).Debug("Refreshed derived data.", "character", agg.ID, "filled", filled)
	return filled
}

func runPhase(ctx context.Context, tracer trace.Tracer, phase Phase, run func(context.Context) error) error {
	ctx, span := tracer.Start(ctx, "pipeline."+string(phase))
	defer span.End()

	if err := run(ctxlog.With(ctx, "phase", phase)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// insert runs every top-level rule source in declaration order.
func insert(ctx context.Context, agg *character.Aggregate) error {
	sources := append([]character.RuleSource{Defaults()}, character.PersistentSources(&agg.Persistent)...)
	for _, src := range sources {
		if err := src.ContributeMutators(ctx, agg); err != nil {
			return err
		}
	}
	ctxlog.FromContext(ctx).Debug("Inserted rule sources.", "sources", len(sources), "entries", agg.Scheduler.Len())
	return nil
}

// resolve fetches and applies object references to a fixpoint. The resolved
// map is carried from round to round so no object is fetched twice, while
// references discovered during a round collect in agg.Objects for the next.
func resolve(ctx context.Context, agg *character.Aggregate, provider content.Provider, opts Options) error {
	logger := ctxlog.FromContext(ctx)

	round := 0
	for agg.Objects.HasPending() {
		if round > opts.MaxExtraRounds {
			capExceeded(ctx, agg, round, opts.MaxExtraRounds)
			break
		}
		rctx := ctxlog.With(ctx, "round", round)

		batch := agg.Objects.TakeResolved()
		batch.Merge(agg.Objects)
		agg.Objects = objcache.New()

		if err := batch.ResolvePending(rctx, provider, opts.Workers); err != nil {
			return err
		}
		if err := batch.ApplyTo(rctx, agg); err != nil {
			return err
		}

		next := batch.TakeResolved()
		next.Merge(batch)
		next.Merge(agg.Objects)
		agg.Objects = next
		round++
	}

	logger.Debug("Object resolution finished.", "rounds", round, "applied", len(agg.Objects.Applied()))
	return nil
}

func capExceeded(ctx context.Context, agg *character.Aggregate, round, maxExtra int) {
	var left []string
	for _, ref := range agg.Objects.Pending() {
		for _, id := range ref.IDs {
			if agg.Objects.IsApplied(id) {
				continue
			}
			agg.MarkUnresolved(id, ref.Kind, ref.SourcePath, ErrRoundCapExceeded)
			left = append(left, id+"@"+ref.SourcePath.String())
		}
	}
	ctxlog.FromContext(ctx).Error("Object resolution hit the round cap; a reference cycle or runaway grant chain is likely. Continuing with partial data.",
		"rounds", round, "max_extra_rounds", maxExtra, "unresolved", left)
}

type lookupResult struct {
	id    string
	brief content.Brief
	err   error
}

// materialize fills in spells granted by id. Background lookups already on
// the aggregate are used first; the rest are fetched unless deferred.
func materialize(ctx context.Context, agg *character.Aggregate, provider content.Provider, opts Options) error {
	logger := ctxlog.FromContext(ctx)

	agg.ApplyLookups()
	ids := agg.UnresolvedSpells()
	if len(ids) == 0 {
		return nil
	}
	if opts.DeferLookups {
		logger.Debug("Deferring indirect lookups.", "count", len(ids))
		return nil
	}

	results := make(chan lookupResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	if opts.Workers > 0 {
		g.SetLimit(opts.Workers)
	}
	for _, id := range ids {
		g.Go(func() error {
			brief, err := provider.FetchIndirect(gctx, id)
			results <- lookupResult{id: id, brief: brief, err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	if err := ctx.Err(); err != nil {
		return err
	}

	found := make(map[string]content.Brief, len(ids))
	failed := make(map[string]error)
	for r := range results {
		if r.err != nil {
			failed[r.id] = r.err
			continue
		}
		found[r.id] = r.brief
	}
	agg.Derived.ResolveSpells(found)

	for _, s := range agg.Derived.Spells {
		err, ok := failed[s.ID]
		if !ok {
			continue
		}
		logger.Warn("Failed to resolve indirect reference; leaving it unmaterialized.", "id", s.ID, "source_path", s.Source, "error", err)
		agg.Derived.Unresolved = append(agg.Derived.Unresolved, character.Unresolved{
			ID:     s.ID,
			Kind:   content.KindSpell,
			Path:   s.Source,
			Reason: err.Error(),
		})
	}
	return nil
}

package character

import (
	"context"
	"fmt"
	"maps"

	"github.com/mitchellh/copystructure"
	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/ctxlog"
	"github.com/specialistvlad/charsmith/internal/mutator"
	"github.com/specialistvlad/charsmith/internal/objcache"
	"github.com/specialistvlad/charsmith/internal/rulepath"
)

// Mutator is an executable mutator compiled from authored content.
type Mutator interface {
	// OnInsert runs when the mutator's entry is registered. It may register
	// object references but must not write derived data.
	OnInsert(ctx context.Context, agg *Aggregate, at rulepath.Path)
	// Apply writes the mutator's effect into agg.Derived.
	Apply(ctx context.Context, agg *Aggregate, at rulepath.Path)
}

// Builder compiles authored mutator specs.
type Builder interface {
	Build(spec content.MutatorSpec) (Mutator, error)
}

// Aggregate is one character: persistent data, derived data and the state of
// the recompute currently building it.
type Aggregate struct {
	ID         string
	Persistent Persistent
	Derived    Derived
	// Lookups holds indirect references materialized by background lookups
	// and FailedLookups the ones that could not be. Both survive recomputes
	// and clones.
	Lookups       map[string]content.Brief
	FailedLookups map[string]string

	// Scheduler and Objects exist only while a recompute runs.
	Scheduler mutator.Scheduler
	Objects   *objcache.Cache

	builder    Builder
	ordering   mutator.Ordering
	structural bool
}

// New returns an aggregate that compiles mutators with b and orders them with o.
func New(id string, p Persistent, b Builder, o mutator.Ordering) *Aggregate {
	agg := &Aggregate{
		ID:            id,
		Persistent:    p,
		Lookups:       make(map[string]content.Brief),
		FailedLookups: make(map[string]string),
		builder:       b,
		ordering:      o,
	}
	agg.Reset()
	return agg
}

// Reset clears derived data and all transient recompute state. An existing
// scheduler is emptied and reused.
func (a *Aggregate) Reset() {
	a.Derived = NewDerived()
	if a.Scheduler == nil {
		a.Scheduler = mutator.New(a.ordering)
	} else {
		a.Scheduler.Reset()
	}
	a.Objects = objcache.New()
	a.structural = false
}

// MarkStructural records that persistent data changed in a way that needs a
// full recompute.
func (a *Aggregate) MarkStructural() { a.structural = true }

// NeedsRecompute reports whether a structural change is pending.
func (a *Aggregate) NeedsRecompute() bool { return a.structural }

// Clone returns a deep copy of the persistent data, derived data and lookups.
// Transient recompute state is not copied.
func (a *Aggregate) Clone() (*Aggregate, error) {
	persistent, err := copystructure.Copy(a.Persistent)
	if err != nil {
		return nil, fmt.Errorf("copying persistent data of %q: %w", a.ID, err)
	}
	derived, err := copystructure.Copy(a.Derived)
	if err != nil {
		return nil, fmt.Errorf("copying derived data of %q: %w", a.ID, err)
	}

	out := &Aggregate{
		ID:            a.ID,
		Persistent:    persistent.(Persistent),
		Lookups:       maps.Clone(a.Lookups),
		FailedLookups: maps.Clone(a.FailedLookups),
		builder:       a.builder,
		ordering:      a.ordering,
		structural:    a.structural,
	}
	if out.Lookups == nil {
		out.Lookups = make(map[string]content.Brief)
	}
	if out.FailedLookups == nil {
		out.FailedLookups = make(map[string]string)
	}
	out.Derived = derived.(Derived)
	out.Scheduler = mutator.New(a.ordering)
	out.Objects = objcache.New()
	return out, nil
}

// AddMutator registers m under nodeID at the given path. It returns the
// scheduler's error when the entry closes a dependency cycle.
func (a *Aggregate) AddMutator(ctx context.Context, nodeID string, deps mutator.Deps, at rulepath.Path, m Mutator) error {
	err := a.Scheduler.Insert(mutator.Entry{
		NodeID:     nodeID,
		ParentPath: at,
		Deps:       deps,
		Apply:      func(ctx context.Context) { m.Apply(ctx, a, at) },
	})
	if err != nil {
		return err
	}
	m.OnInsert(ctx, a, at)
	return nil
}

// AddSpec compiles and registers an authored mutator. Specs that fail to
// compile, or that require a higher level, are skipped.
func (a *Aggregate) AddSpec(ctx context.Context, spec content.MutatorSpec, at rulepath.Path) error {
	logger := ctxlog.FromContext(ctx)

	if level := a.Persistent.Level(); spec.MinLevel > level {
		logger.Debug("Skipping mutator above character level.", "mutator", spec.NodeID(), "min_level", spec.MinLevel, "level", level, "source_path", at.String())
		return nil
	}
	m, err := a.builder.Build(spec)
	if err != nil {
		logger.Warn("Skipping mutator that failed to compile.", "mutator", spec.NodeID(), "kind", spec.Kind, "source_path", at.String(), "error", err)
		return nil
	}

	deps := mutator.Unconstrained()
	if spec.DependsOn != nil {
		deps = mutator.On(spec.DependsOn...)
	}
	return a.AddMutator(ctx, spec.NodeID(), deps, at, m)
}

// ApplyObject implements objcache.Applier.
func (a *Aggregate) ApplyObject(ctx context.Context, obj *content.Object, at rulepath.Path, asParentFeature bool) error {
	a.Derived.Objects = append(a.Derived.Objects, AppliedObject{
		ID:              obj.ID,
		Kind:            obj.Kind,
		Path:            at.String(),
		AsParentFeature: asParentFeature,
	})
	for _, spec := range obj.Mutators {
		if err := a.AddSpec(ctx, spec, at); err != nil {
			return fmt.Errorf("applying %s %q at %q: %w", obj.Kind, obj.ID, at.String(), err)
		}
	}
	return nil
}

// MarkUnresolved implements objcache.Applier.
func (a *Aggregate) MarkUnresolved(id string, kind content.Kind, at rulepath.Path, reason error) {
	a.Derived.Unresolved = append(a.Derived.Unresolved, Unresolved{
		ID:     id,
		Kind:   kind,
		Path:   at.String(),
		Reason: reason.Error(),
	})
}

// ApplyLookups copies materialized lookups into unresolved spell references
// and drops their unresolved markers. Spells whose lookup failed get a marker
// if they do not have one yet. It returns how many references were filled in.
func (a *Aggregate) ApplyLookups() int {
	filled := a.Derived.ResolveSpells(a.Lookups)

	kept := a.Derived.Unresolved[:0]
	for _, u := range a.Derived.Unresolved {
		if _, ok := a.Lookups[u.ID]; ok && u.Kind == content.KindSpell {
			continue
		}
		kept = append(kept, u)
	}
	a.Derived.Unresolved = kept

	for _, s := range a.Derived.Spells {
		reason, failed := a.FailedLookups[s.ID]
		if s.Resolved || !failed || a.hasUnresolvedSpell(s.ID) {
			continue
		}
		a.Derived.Unresolved = append(a.Derived.Unresolved, Unresolved{
			ID:     s.ID,
			Kind:   content.KindSpell,
			Path:   s.Source,
			Reason: reason,
		})
	}
	return filled
}

func (a *Aggregate) hasUnresolvedSpell(id string) bool {
	for _, u := range a.Derived.Unresolved {
		if u.ID == id && u.Kind == content.KindSpell {
			return true
		}
	}
	return false
}

// UnresolvedSpells returns the ids of spells still waiting for a lookup,
// skipping those whose lookup already failed.
func (a *Aggregate) UnresolvedSpells() []string {
	var ids []string
	for _, s := range a.Derived.Spells {
		if _, failed := a.FailedLookups[s.ID]; !s.Resolved && !failed {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

var _ objcache.Applier = (*Aggregate)(nil)

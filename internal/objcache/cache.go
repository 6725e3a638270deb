package objcache

import (
	"context"
	"errors"
	"maps"

	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/ctxlog"
	"github.com/specialistvlad/charsmith/internal/rulepath"
	"golang.org/x/sync/errgroup"
)

// Reference asks for one or more objects to be fetched and applied as if they
// were authored at SourcePath.
type Reference struct {
	IDs        []string
	Kind       content.Kind
	SourcePath rulepath.Path
	// PropagateAsParentFeature applies the objects at SourcePath itself
	// instead of at a child path named after each object.
	PropagateAsParentFeature bool
}

// Applier receives resolved objects from ApplyTo.
type Applier interface {
	// ApplyObject folds obj into the character at the given path. An error is
	// fatal for the recompute.
	ApplyObject(ctx context.Context, obj *content.Object, at rulepath.Path, asParentFeature bool) error
	// MarkUnresolved records a referenced object that could not be fetched.
	MarkUnresolved(id string, kind content.Kind, at rulepath.Path, reason error)
}

// Cache is not safe for concurrent use.
type Cache struct {
	pending    []Reference
	resolved   map[string]*content.Object
	failed     map[string]error
	applied    []Reference
	appliedIDs map[string]struct{}
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		resolved:   make(map[string]*content.Object),
		failed:     make(map[string]error),
		appliedIDs: make(map[string]struct{}),
	}
}

// Insert records ref as pending. Nothing is fetched until ResolvePending.
func (c *Cache) Insert(ref Reference) {
	if len(ref.IDs) == 0 {
		return
	}
	c.pending = append(c.pending, ref)
}

// HasPending reports whether any reference waits to be resolved.
func (c *Cache) HasPending() bool {
	return len(c.pending) > 0
}

// Pending returns a copy of the pending references.
func (c *Cache) Pending() []Reference {
	return append([]Reference(nil), c.pending...)
}

// Applied returns a copy of the references already drained by ApplyTo.
func (c *Cache) Applied() []Reference {
	return append([]Reference(nil), c.applied...)
}

// IsApplied reports whether id was applied during this recompute.
func (c *Cache) IsApplied(id string) bool {
	_, ok := c.appliedIDs[id]
	return ok
}

// TakeResolved moves the resolved map, together with the record of failed
// fetches, into a new cache and returns it. The receiver keeps its pending
// and applied parts.
func (c *Cache) TakeResolved() *Cache {
	out := New()
	out.resolved, c.resolved = c.resolved, make(map[string]*content.Object)
	out.failed, c.failed = c.failed, make(map[string]error)
	return out
}

// Merge appends other's pending and applied parts to c. Resolved maps are
// never combined; use TakeResolved to carry them forward.
func (c *Cache) Merge(other *Cache) {
	c.pending = append(c.pending, other.pending...)
	c.applied = append(c.applied, other.applied...)
	maps.Copy(c.appliedIDs, other.appliedIDs)
}

type fetchResult struct {
	id   string
	kind content.Kind
	at   rulepath.Path
	obj  *content.Object
	err  error
}

// ResolvePending fetches every id named by a pending reference that has not
// been fetched or failed before. At most workers fetches run at once; zero or
// less means no limit. A failed fetch is logged and recorded, and never stops
// the others. The only error returned is the context's.
func (c *Cache) ResolvePending(ctx context.Context, provider content.Provider, workers int) error {
	logger := ctxlog.FromContext(ctx)

	type want struct {
		id   string
		kind content.Kind
		at   rulepath.Path
	}
	var wants []want
	seen := make(map[string]struct{})
	for _, ref := range c.pending {
		for _, id := range ref.IDs {
			if _, ok := c.resolved[id]; ok {
				continue
			}
			if _, ok := c.failed[id]; ok {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			wants = append(wants, want{id: id, kind: ref.Kind, at: ref.SourcePath})
		}
	}
	if len(wants) == 0 {
		return nil
	}

	logger.Debug("Resolving referenced objects.", "count", len(wants))
	results := make(chan fetchResult, len(wants))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, w := range wants {
		g.Go(func() error {
			obj, err := provider.FetchObject(gctx, w.id, w.kind)
			results <- fetchResult{id: w.id, kind: w.kind, at: w.at, obj: obj, err: err}
			return nil
		})
	}
	_ = g.Wait()
	close(results)

	for r := range results {
		if r.err != nil {
			if errors.Is(r.err, context.Canceled) || errors.Is(r.err, context.DeadlineExceeded) {
				continue
			}
			logger.Warn("Failed to fetch referenced object; its effects will be missing.",
				"id", r.id, "kind", r.kind, "source_path", r.at.String(), "error", r.err)
			c.failed[r.id] = r.err
			continue
		}
		c.resolved[r.id] = r.obj
	}
	return ctx.Err()
}

// ApplyTo drains the pending references in order and applies each resolved
// object through a. An id already applied during this recompute is skipped.
// Ids that failed to resolve are reported with MarkUnresolved. The first
// error from a stops the drain and is returned.
func (c *Cache) ApplyTo(ctx context.Context, a Applier) error {
	logger := ctxlog.FromContext(ctx)

	for len(c.pending) > 0 {
		ref := c.pending[0]
		c.pending = c.pending[1:]

		for _, id := range ref.IDs {
			if _, done := c.appliedIDs[id]; done {
				logger.Debug("Object already applied in this recompute; skipping.", "id", id, "source_path", ref.SourcePath.String())
				continue
			}
			obj, ok := c.resolved[id]
			if !ok {
				reason, failed := c.failed[id]
				if !failed {
					reason = content.NotFound(id, ref.Kind)
				}
				a.MarkUnresolved(id, ref.Kind, ref.SourcePath, reason)
				continue
			}

			at := ref.SourcePath
			if !ref.PropagateAsParentFeature {
				at = at.Child(id)
			}
			c.appliedIDs[id] = struct{}{}
			if err := a.ApplyObject(ctx, obj, at, ref.PropagateAsParentFeature); err != nil {
				return err
			}
		}
		c.applied = append(c.applied, ref)
	}
	return nil
}

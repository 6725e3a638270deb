package coordinator

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/ctxlog"
	"github.com/specialistvlad/charsmith/internal/pipeline"
	"golang.org/x/sync/semaphore"
)

// op is one queued edit or background result.
type op struct {
	id   string
	edit *character.Edit
	item Item
}

func (o op) name() string {
	if o.edit != nil {
		return o.edit.Name
	}
	return o.item.Key()
}

// Coordinator serializes recomputes of a single character.
type Coordinator struct {
	ctx      context.Context
	provider content.Provider
	opts     pipeline.Options

	published atomic.Pointer[character.Aggregate]
	busy      atomic.Bool

	recomputes atomic.Int64
	refreshes  atomic.Int64

	// sem bounds background lookups; nil means unbounded.
	sem *semaphore.Weighted

	mu       sync.Mutex
	working  *character.Aggregate
	queue    []op
	inflight map[string]struct{}
	lastErr  error
	changed  chan struct{}
}

// New returns a coordinator publishing initial as is. No recompute is queued:
// an aggregate that has never been derived stays underived until the caller
// submits a structural edit, usually Invalidate, and the first drain settles.
// Background work runs under ctx, which must carry a logger; cancelling it
// fails any recompute in flight and leaves the published aggregate untouched.
func New(ctx context.Context, initial *character.Aggregate, provider content.Provider, opts pipeline.Options) *Coordinator {
	c := &Coordinator{
		ctx:      ctxlog.With(ctx, "character", initial.ID),
		provider: provider,
		opts:     opts,
		inflight: make(map[string]struct{}),
		changed:  make(chan struct{}),
	}
	if opts.Workers > 0 {
		c.sem = semaphore.NewWeighted(int64(opts.Workers))
	}
	c.published.Store(initial)
	return c
}

// Published returns the last fully recomputed aggregate. Callers must treat it
// as read-only.
func (c *Coordinator) Published() *character.Aggregate {
	return c.published.Load()
}

// Busy reports whether a recompute is currently running.
func (c *Coordinator) Busy() bool {
	return c.busy.Load()
}

// Err returns the error of the last failed drain, or nil when the last drain
// published successfully.
func (c *Coordinator) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Recomputes returns how many full pipeline runs were started.
func (c *Coordinator) Recomputes() int64 { return c.recomputes.Load() }

// Refreshes returns how many non-structural refreshes were started.
func (c *Coordinator) Refreshes() int64 { return c.refreshes.Load() }

// SubmitEdit queues edit and returns its operation id. It never blocks on a
// recompute.
//
// Queued edits are never dropped before they reach a drain. Once folded into
// a drain, an edit shares that drain's fate: when the recompute fails
// fatally, every operation of the batch is discarded with the working copy,
// including non-structural ones, and Err reports the failure.
func (c *Coordinator) SubmitEdit(edit character.Edit) string {
	return c.enqueue(op{id: uuid.NewString(), edit: &edit})
}

// Invalidate forces a full recompute without changing persistent data, for
// example after the content behind the provider changed.
func (c *Coordinator) Invalidate() string {
	return c.SubmitEdit(character.Edit{
		Name:       "invalidate",
		Structural: true,
		Fn:         func(*character.Persistent) error { return nil },
	})
}

// MergeBackgroundResult queues item for the next drain. It is safe to call
// from any number of goroutines.
func (c *Coordinator) MergeBackgroundResult(item Item) string {
	return c.enqueue(op{id: uuid.NewString(), item: item})
}

// Settle blocks until no drain is running, nothing is queued and no
// background lookup is outstanding.
func (c *Coordinator) Settle(ctx context.Context) error {
	for {
		c.mu.Lock()
		if c.working == nil && len(c.queue) == 0 && len(c.inflight) == 0 {
			c.mu.Unlock()
			return nil
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Coordinator) enqueue(o op) string {
	c.mu.Lock()
	c.queue = append(c.queue, o)
	c.mu.Unlock()

	ctxlog.FromContext(c.ctx).Debug("Operation queued.", "op", o.id, "name", o.name())
	c.drainAttempt()
	return o.id
}

// drainAttempt claims the working slot when it is free and there is queued
// work, then hands the claimed operations to a drain goroutine.
func (c *Coordinator) drainAttempt() {
	logger := ctxlog.FromContext(c.ctx)

	c.mu.Lock()
	if c.working != nil || len(c.queue) == 0 {
		c.mu.Unlock()
		return
	}
	working, err := c.published.Load().Clone()
	if err != nil {
		c.lastErr = err
		c.queue = nil
		c.broadcastLocked()
		c.mu.Unlock()
		logger.Error("Failed to seed the working copy; queued operations were dropped.", "error", err)
		return
	}
	ops := c.queue
	c.queue = nil
	c.working = working
	c.busy.Store(true)
	c.mu.Unlock()

	go c.drain(working, ops)
}

func (c *Coordinator) drain(working *character.Aggregate, ops []op) {
	ctx := c.ctx
	logger := ctxlog.FromContext(ctx)

	for _, o := range ops {
		switch {
		case o.edit != nil:
			if err := o.edit.ApplyTo(working); err != nil {
				logger.Warn("Edit rejected; it will not be applied.", "op", o.id, "name", o.edit.Name, "error", err)
			}
		case o.item != nil:
			o.item.MergeInto(working)
		}
	}

	var err error
	if working.NeedsRecompute() {
		c.recomputes.Add(1)
		err = pipeline.Recompute(ctx, working, c.provider, c.opts)
	} else {
		c.refreshes.Add(1)
		pipeline.Refresh(ctx, working, c.opts)
	}

	var lookups []string
	c.mu.Lock()
	if err != nil {
		c.lastErr = err
	} else {
		c.published.Store(working)
		c.lastErr = nil
		if c.opts.DeferLookups {
			lookups = c.claimLookupsLocked(working)
		}
	}
	c.working = nil
	c.busy.Store(false)
	c.broadcastLocked()
	c.mu.Unlock()

	if err != nil {
		logger.Error("Recompute failed; keeping the previously published character.", "operations", len(ops), "error", err)
	} else {
		logger.Debug("Published character.", "operations", len(ops), "recomputes", c.recomputes.Load())
		for _, id := range lookups {
			go c.lookup(id)
		}
	}
	c.drainAttempt()
}

// broadcastLocked wakes every Settle waiter. c.mu must be held.
func (c *Coordinator) broadcastLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

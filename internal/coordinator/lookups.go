package coordinator

import (
	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/ctxlog"
)

// claimLookupsLocked marks every unresolved spell of agg that nobody is
// looking up yet as in flight and returns those ids. c.mu must be held.
func (c *Coordinator) claimLookupsLocked(agg *character.Aggregate) []string {
	var ids []string
	for _, id := range agg.UnresolvedSpells() {
		if _, ok := c.inflight[id]; ok || c.queuedLocked(id) {
			continue
		}
		c.inflight[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// queuedLocked reports whether a result for id is already waiting in the
// queue. c.mu must be held.
func (c *Coordinator) queuedLocked(id string) bool {
	for _, o := range c.queue {
		switch it := o.item.(type) {
		case Lookup:
			if it.Brief.ID == id {
				return true
			}
		case SpellText:
			if it.ID == id {
				return true
			}
		case LookupFailed:
			if it.ID == id {
				return true
			}
		}
	}
	return false
}

// lookup resolves one indirect reference and merges the outcome back. The
// result is queued before the id leaves the in-flight set so a publish in
// between never starts a second lookup for it.
func (c *Coordinator) lookup(id string) {
	logger := ctxlog.FromContext(c.ctx)
	defer func() {
		c.mu.Lock()
		delete(c.inflight, id)
		c.broadcastLocked()
		c.mu.Unlock()
	}()

	if c.sem != nil {
		if err := c.sem.Acquire(c.ctx, 1); err != nil {
			return
		}
		defer c.sem.Release(1)
	}

	brief, err := c.provider.FetchIndirect(c.ctx, id)
	if err != nil {
		if c.ctx.Err() != nil {
			return
		}
		logger.Warn("Background lookup failed; the reference stays unresolved.", "id", id, "error", err)
		c.MergeBackgroundResult(LookupFailed{ID: id, Reason: err.Error()})
		return
	}
	logger.Debug("Background lookup resolved.", "id", id, "kind", brief.Kind)
	c.MergeBackgroundResult(Lookup{Brief: brief})
}

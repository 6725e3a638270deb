package mutator

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/charsmith/internal/ctxlog"
)

// Ordering selects a Scheduler implementation.
type Ordering string

const (
	// OrderingComparator is the binary-insertion scheduler.
	OrderingComparator Ordering = "comparator"
	// OrderingGraph is the explicit dependency-graph scheduler.
	OrderingGraph Ordering = "graph"
)

// ParseOrdering validates an ordering name. The empty string selects the
// comparator scheduler.
func ParseOrdering(raw string) (Ordering, error) {
	switch o := Ordering(strings.ToLower(strings.TrimSpace(raw))); o {
	case "", OrderingComparator:
		return OrderingComparator, nil
	case OrderingGraph:
		return OrderingGraph, nil
	default:
		return "", fmt.Errorf("unknown ordering %q (want %q or %q)", raw, OrderingComparator, OrderingGraph)
	}
}

// Scheduler collects mutator entries during a recompute and applies them in
// dependency order.
//
// Implementations are not safe for concurrent use: a scheduler belongs to the
// single task holding a character's working copy.
type Scheduler interface {
	// Insert adds an entry. It returns an error wrapping ErrCircularDependency
	// when the scheduler detects a cycle at insertion time.
	Insert(e Entry) error
	// Drain applies every inserted entry exactly once, front to back, then
	// empties the scheduler. Entries inserted while draining are discarded
	// with a warning.
	Drain(ctx context.Context) error
	// Len returns the number of entries waiting to be applied.
	Len() int
	// Reset discards all entries.
	Reset()
}

// New returns an empty scheduler for the given ordering.
func New(o Ordering) Scheduler {
	if o == OrderingGraph {
		return NewGraphScheduler()
	}
	return NewComparatorScheduler()
}

// applyAll runs each entry of batch in order. pending reports the entries
// that were inserted into the scheduler while batch was running; they are
// logged and handed back so the caller can discard them.
func applyAll(ctx context.Context, batch []Entry, pending func() []Entry) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Applying mutator entries.", "count", len(batch))

	for _, e := range batch {
		e.Apply(ctx)
	}

	if orphans := pending(); len(orphans) > 0 {
		ids := make([]string, len(orphans))
		for i, o := range orphans {
			ids[i] = o.String()
		}
		logger.Warn("Mutator entries were inserted while the scheduler was draining and will not be applied; dependency ordering may be violated.",
			"count", len(orphans), "entries", ids)
	}
}

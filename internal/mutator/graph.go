package mutator

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/specialistvlad/charsmith/internal/ctxlog"
	"github.com/specialistvlad/charsmith/internal/dag"
)

// GraphScheduler collects entries in insertion order and sorts them on Drain
// over an explicit dependency graph. A dependency on a name matches every
// entry with that NodeID. Names that match no entry are ignored.
type GraphScheduler struct {
	entries []Entry
}

// NewGraphScheduler returns an empty GraphScheduler.
func NewGraphScheduler() *GraphScheduler {
	return &GraphScheduler{}
}

// Insert records e. Cycles are detected by Drain, never here.
func (s *GraphScheduler) Insert(e Entry) error {
	s.entries = append(s.entries, e)
	return nil
}

// Drain sorts and applies every entry. Nothing is applied when the
// dependencies contain a cycle.
func (s *GraphScheduler) Drain(ctx context.Context) error {
	batch, err := s.sorted(ctx)
	s.entries = nil
	if err != nil {
		return err
	}

	applyAll(ctx, batch, func() []Entry {
		orphans := s.entries
		s.entries = nil
		return orphans
	})
	return nil
}

// Len returns the number of entries waiting to be applied.
func (s *GraphScheduler) Len() int { return len(s.entries) }

// Reset discards all entries.
func (s *GraphScheduler) Reset() { s.entries = nil }

func (s *GraphScheduler) sorted(ctx context.Context) ([]Entry, error) {
	logger := ctxlog.FromContext(ctx)

	g := dag.New()
	byName := make(map[string][]string)
	keys := make([]string, len(s.entries))
	index := make(map[string]int, len(s.entries))
	for i, e := range s.entries {
		key := strconv.Itoa(i)
		keys[i] = key
		index[key] = i
		g.AddNode(key)
		byName[e.NodeID] = append(byName[e.NodeID], key)
	}

	for i, e := range s.entries {
		for _, name := range e.Deps.Names() {
			if name == e.NodeID {
				continue
			}
			providers, ok := byName[name]
			if !ok {
				logger.Debug("Mutator dependency names no scheduled entry.", "id", e.NodeID, "dependency", name, "source_path", e.ParentPath.String())
				continue
			}
			for _, from := range providers {
				if err := g.AddEdge(from, keys[i]); err != nil {
					return nil, fmt.Errorf("adding dependency %q of %q: %w", name, e.NodeID, err)
				}
			}
		}
	}

	order, err := g.TopoSort(func(a, b string) int {
		ea, eb := s.entries[index[a]], s.entries[index[b]]
		if ca, cb := ea.Deps.Constrained(), eb.Deps.Constrained(); ca != cb {
			if ca {
				return 1
			}
			return -1
		}
		return cmp.Or(cmp.Compare(ea.NodeID, eb.NodeID), cmp.Compare(index[a], index[b]))
	})
	if err != nil {
		var ce *dag.CycleError
		if errors.As(err, &ce) {
			names := make([]string, len(ce.Cycle))
			for i, key := range ce.Cycle {
				names[i] = s.entries[index[key]].String()
			}
			return nil, fmt.Errorf("%w: %s", ErrCircularDependency, strings.Join(names, " -> "))
		}
		return nil, fmt.Errorf("%w: %w", ErrCircularDependency, err)
	}

	out := make([]Entry, len(order))
	for i, key := range order {
		out[i] = s.entries[index[key]]
	}
	return out, nil
}

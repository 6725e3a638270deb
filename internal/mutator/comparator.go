package mutator

import (
	"context"
	"slices"
	"strings"
)

// ComparatorScheduler keeps entries in a single ordered slice and places each
// incoming entry with a binary search over a pairwise comparator.
type ComparatorScheduler struct {
	entries []Entry
}

// NewComparatorScheduler returns an empty ComparatorScheduler.
func NewComparatorScheduler() *ComparatorScheduler {
	return &ComparatorScheduler{}
}

// Insert places e after every visited entry that does not compare greater than
// it, so entries that compare equal keep their insertion order.
func (s *ComparatorScheduler) Insert(e Entry) error {
	lo, hi := 0, len(s.entries)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		c, err := compare(s.entries[mid], e)
		if err != nil {
			return err
		}
		if c <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	s.entries = slices.Insert(s.entries, lo, e)
	return nil
}

// Drain applies and removes every entry.
func (s *ComparatorScheduler) Drain(ctx context.Context) error {
	batch := s.entries
	s.entries = nil

	applyAll(ctx, batch, func() []Entry {
		orphans := s.entries
		s.entries = nil
		return orphans
	})
	return nil
}

// Len returns the number of entries waiting to be applied.
func (s *ComparatorScheduler) Len() int { return len(s.entries) }

// Reset discards all entries.
func (s *ComparatorScheduler) Reset() { s.entries = nil }

// compare reports whether present should sort before (-1), level with (0) or
// after (+1) incoming.
func compare(present, incoming Entry) (int, error) {
	pc, ic := present.Deps.Constrained(), incoming.Deps.Constrained()
	switch {
	case !pc && !ic:
		return strings.Compare(present.NodeID, incoming.NodeID), nil
	case pc && !ic:
		return 1, nil
	case !pc && ic:
		return -1, nil
	}

	presentNeedsIncoming := present.Deps.Has(incoming.NodeID)
	incomingNeedsPresent := incoming.Deps.Has(present.NodeID)
	switch {
	case presentNeedsIncoming && incomingNeedsPresent:
		return 0, &CycleError{
			A:     present.NodeID,
			PathA: present.ParentPath.String(),
			B:     incoming.NodeID,
			PathB: incoming.ParentPath.String(),
		}
	case presentNeedsIncoming:
		return 1, nil
	case incomingNeedsPresent:
		return -1, nil
	default:
		return strings.Compare(present.NodeID, incoming.NodeID), nil
	}
}

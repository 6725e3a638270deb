// Package mutator holds the ordering machinery for mutator entries: the
// dependency set attached to each entry, the entry itself and the schedulers
// that turn a recompute's entries into a single application order.
//
// # Why Two Schedulers Exist
//
// ComparatorScheduler is the default. Each incoming entry is placed with a
// binary search driven by a pairwise comparator, so only the entries the search
// happens to visit are ever compared with it. A direct pair that names each
// other is a fatal configuration error. A transitive chain (X needs Y, Y needs
// Z) is ordered correctly only when the comparator happens to be consistent for
// the visited triples; the scheduler never builds a graph to check.
//
// GraphScheduler implements the same Scheduler interface on top of an explicit
// dependency graph and Kahn's algorithm. It honours chains of any length and
// reports cycles of any length, at the cost of deferring all ordering work to
// Drain.
//
// # Lifecycle
//
// Entries are inserted during the insertion and resolution phases of a
// recompute and applied exactly once by Drain. Anything inserted while Drain
// is running is reported as a consistency warning and discarded.
package mutator

// Package dag is a small directed acyclic graph over string node ids. It backs
// the explicit-graph mutator scheduler: nodes are mutator entries, an edge
// a -> b means b must run after a, and TopoSort produces a deterministic
// application order with Kahn's algorithm.
//
// # Why a Graph Exists Next to the Comparator
//
// The default scheduler orders entries by pairwise comparison during a binary
// search and never looks at transitive chains. The graph keeps every declared
// edge, so chains of any length are honoured and cycles of any length are
// reported instead of only direct two-entry cycles.
package dag

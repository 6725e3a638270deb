package dag

// Graph is a collection of nodes and their dependencies, representing a DAG.
// A Graph is built and sorted by a single goroutine.
type Graph struct {
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
}

// node is un-exported to enforce interaction with the graph via string IDs.
type node struct {
	id string
	// deps holds the set of nodes that this node depends on (predecessors).
	deps map[string]*node
	// dependents holds the set of nodes that depend on this node (successors).
	dependents map[string]*node
}

package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is wrapped by every error reporting a cycle in the graph.
var ErrCycle = errors.New("cycle detected")

// CycleError lists the nodes of one cycle in edge order. The first node is
// repeated at the end.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Cycle, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// DetectCycles checks the graph for any cycles. It returns a *CycleError
// listing the nodes of the first cycle found, in edge order. Nodes are
// visited in sorted order so the reported cycle is stable across runs.
func (g *Graph) DetectCycles() error {
	// Three-colour depth-first search:
	// permanent: fully visited and not part of a cycle.
	// onStack: position of a node on the current traversal path.
	permanent := make(map[string]bool)
	onStack := make(map[string]int)
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if pos, ok := onStack[n.id]; ok {
			cycle := slices.Clone(stack[pos:])
			return &CycleError{Cycle: append(cycle, n.id)}
		}

		onStack[n.id] = len(stack)
		stack = append(stack, n.id)
		for _, id := range sortedKeys(n.dependents) {
			if err := visit(n.dependents[id]); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		delete(onStack, n.id)
		permanent[n.id] = true
		return nil
	}

	for _, id := range sortedKeys(g.nodes) {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}
	return nil
}

// TopoSort returns every node ID in dependency order using Kahn's algorithm.
// Among nodes that are ready at the same time, the one ordered first by cmp
// is emitted first, which makes the result deterministic. When the graph
// contains a cycle the *CycleError from DetectCycles is returned.
func (g *Graph) TopoSort(cmp func(a, b string) int) ([]string, error) {
	if err := g.DetectCycles(); err != nil {
		return nil, err
	}

	remaining := make(map[string]int, len(g.nodes))
	var ready []string
	for id, n := range g.nodes {
		remaining[id] = len(n.deps)
		if len(n.deps) == 0 {
			ready = append(ready, id)
		}
	}
	slices.SortFunc(ready, cmp)

	order := make([]string, 0, len(g.nodes))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for depID := range g.nodes[id].dependents {
			remaining[depID]--
			if remaining[depID] == 0 {
				pos, _ := slices.BinarySearchFunc(ready, depID, cmp)
				ready = slices.Insert(ready, pos, depID)
			}
		}
	}

	return order, nil
}

func sortedKeys(m map[string]*node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

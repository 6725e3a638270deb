package mutator

import (
	"maps"
	"slices"
)

// Deps is the dependency set of an entry. The zero value is unconstrained:
// the entry declares no prerequisites at all. A constrained set may still be
// empty, which orders like any other constrained set that names nobody.
type Deps struct {
	names map[string]struct{}
}

// Unconstrained returns the dependency set of an entry with no prerequisites.
func Unconstrained() Deps {
	return Deps{}
}

// On returns a constrained dependency set naming the given identifiers.
func On(names ...string) Deps {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return Deps{names: set}
}

// Constrained reports whether any prerequisites were declared.
func (d Deps) Constrained() bool {
	return d.names != nil
}

// Has reports whether id is a named prerequisite.
func (d Deps) Has(id string) bool {
	_, ok := d.names[id]
	return ok
}

// Names returns the prerequisites in sorted order, or nil when unconstrained.
func (d Deps) Names() []string {
	if d.names == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(d.names))
}

// Package proficiency provides the `proficiency` mutator kind.
package proficiency

import (
	"context"
	"errors"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/registry"
	"github.com/specialistvlad/charsmith/internal/rulepath"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a proficiency mutator. Name and Names may
// be combined.
type Input struct {
	Category string   `mutator:"category,required"`
	Name     string   `mutator:"name"`
	Names    []string `mutator:"names"`
}

type grant struct {
	category string
	names    []string
}

// New validates in and returns the mutator.
func New(in Input) (character.Mutator, error) {
	names := in.Names
	if in.Name != "" {
		names = append([]string{in.Name}, names...)
	}
	if len(names) == 0 {
		return nil, errors.New("proficiency needs name or names")
	}
	return &grant{category: in.Category, names: names}, nil
}

func (g *grant) OnInsert(context.Context, *character.Aggregate, rulepath.Path) {}

func (g *grant) Apply(_ context.Context, agg *character.Aggregate, at rulepath.Path) {
	for _, n := range g.names {
		agg.Derived.AddProficiency(g.category, n, at.String())
	}
}

// Register registers the mutator kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	registry.Register(r, "proficiency", New)
}

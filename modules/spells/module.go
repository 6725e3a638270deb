// Package spells provides the `spell_access` mutator kind. Spells are granted
// by id only; their names and text are materialized later by indirect
// resolution.
package spells

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/registry"
	"github.com/specialistvlad/charsmith/internal/rulepath"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a spell_access mutator.
type Input struct {
	Spells  []string `mutator:"spells,required"`
	Ability string   `mutator:"ability"`
}

type access struct {
	in Input
}

// New validates in and returns the mutator.
func New(in Input) (character.Mutator, error) {
	if len(in.Spells) == 0 {
		return nil, errors.New("spell_access needs at least one spell")
	}
	if in.Ability != "" && !slices.Contains(character.Abilities, in.Ability) {
		return nil, fmt.Errorf("unknown ability %q", in.Ability)
	}
	return &access{in: in}, nil
}

func (a *access) OnInsert(context.Context, *character.Aggregate, rulepath.Path) {}

func (a *access) Apply(_ context.Context, agg *character.Aggregate, at rulepath.Path) {
	for _, id := range a.in.Spells {
		agg.Derived.AddSpell(id, at.String(), a.in.Ability)
	}
}

// Register registers the mutator kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	registry.Register(r, "spell_access", New)
}

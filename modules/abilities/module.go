// Package abilities provides the `ability_bonus` mutator kind.
package abilities

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/registry"
	"github.com/specialistvlad/charsmith/internal/rulepath"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of an ability_bonus mutator.
type Input struct {
	Ability string `mutator:"ability,required"`
	Amount  int    `mutator:"amount,required"`
}

type bonus struct {
	in Input
}

// New validates in and returns the mutator.
func New(in Input) (character.Mutator, error) {
	if !slices.Contains(character.Abilities, in.Ability) {
		return nil, fmt.Errorf("unknown ability %q", in.Ability)
	}
	return &bonus{in: in}, nil
}

func (b *bonus) OnInsert(context.Context, *character.Aggregate, rulepath.Path) {}

// Apply adds the bonus to the ability, attributed to the mutator's path.
func (b *bonus) Apply(_ context.Context, agg *character.Aggregate, at rulepath.Path) {
	score := agg.Derived.Ability(b.in.Ability)
	score.Bonuses = append(score.Bonuses, character.Bonus{Source: at.String(), Amount: b.in.Amount})
}

// Register registers the mutator kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	registry.Register(r, "ability_bonus", New)
}

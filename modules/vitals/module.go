// Package vitals provides the `hit_points` and `speed` mutator kinds.
//
// hit_points reads the character level and an ability modifier when it is
// applied, so content should declare `depends_on = ["level"]` and list any
// ability bonuses it must see.
package vitals

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

// HitPointsInput defines the arguments of a hit_points mutator. Ability
// defaults to "con"; "none" disables the modifier.
type HitPointsInput struct {
	PerLevel   int    `mutator:"per_level,required"`
	FirstLevel int    `mutator:"first_level"`
	Ability    string `mutator:"ability"`
}

// SpeedInput defines the arguments of a speed mutator.
type SpeedInput struct {
	Amount int `mutator:"amount,required"`
}

type hitPoints struct {
	in HitPointsInput
}

// NewHitPoints validates in and returns the mutator.
func NewHitPoints(in HitPointsInput) (character.Mutator, error) {
	if in.Ability == "" {
		in.Ability = "con"
	}
	if in.Ability != "none" && !slices.Contains(character.Abilities, in.Ability) {
		return nil, fmt.Errorf("unknown ability %q", in.Ability)
	}
	if in.PerLevel < 0 || in.FirstLevel < 0 {
		return nil, fmt.Errorf("hit points cannot be negative")
	}
	return &hitPoints{in: in}, nil
}

func (h *hitPoints) OnInsert(context.Context, *character.Aggregate, rulepath.Path) {}

// Apply adds per_level for every level, with first_level replacing it for
// the first, plus the ability modifier once per level.
func (h *hitPoints) Apply(_ context.Context, agg *character.Aggregate, at rulepath.Path) {
	level := agg.Derived.Level
	if level <= 0 {
		return
	}
	total := h.in.PerLevel * level
	if h.in.FirstLevel > 0 {
		total += h.in.FirstLevel - h.in.PerLevel
	}
	if h.in.Ability != "none" {
		total += agg.Derived.Ability(h.in.Ability).Modifier() * level
	}
	agg.Derived.AddHitPoints(at.String(), total)
}

type speed struct {
	amount int
}

// NewSpeed returns the mutator.
func NewSpeed(in SpeedInput) (character.Mutator, error) {
	return &speed{amount: in.Amount}, nil
}

func (s *speed) OnInsert(context.Context, *character.Aggregate, rulepath.Path) {}

func (s *speed) Apply(_ context.Context, agg *character.Aggregate, at rulepath.Path) {
	agg.Derived.AddSpeed(at.String(), s.amount)
}

// Register registers the mutator kinds with the registry.
func (m *Module) Register(r *registry.Registry) {
	registry.Register(r, "hit_points", NewHitPoints)
	registry.Register(r, "speed", NewSpeed)
}

package pipeline

import (
	"context"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/mutator"
	"github.com/specialistvlad/charsmith/internal/rulepath"
)

// BaseSpeed is the walking speed every character starts with.
const BaseSpeed = 30

// defaultRules is the built-in rule block inserted before the persistent
// tree. Content that reads its results declares a dependency on its entry
// names: base_abilities, base_speed, level and proficiency_bonus.
type defaultRules struct {
	path rulepath.Path
}

// Defaults returns the default rule block at path `defaults`.
func Defaults() character.RuleSource {
	d := &defaultRules{}
	d.AssignPath(rulepath.Of("defaults"))
	return d
}

func (d *defaultRules) AssignPath(p rulepath.Path) { d.path = p }

func (d *defaultRules) ContributeMutators(ctx context.Context, agg *character.Aggregate) error {
	entries := []struct {
		id   string
		deps mutator.Deps
		m    character.Mutator
	}{
		{"base_abilities", mutator.Unconstrained(), applyFunc(baseAbilities)},
		{"base_speed", mutator.Unconstrained(), applyFunc(baseSpeed)},
		{"level", mutator.Unconstrained(), applyFunc(level)},
		{"proficiency_bonus", mutator.On("level"), applyFunc(proficiencyBonus)},
	}
	for _, e := range entries {
		if err := agg.AddMutator(ctx, e.id, e.deps, d.path, e.m); err != nil {
			return err
		}
	}
	return nil
}

// applyFunc adapts a plain function into a mutator with no insertion effect.
type applyFunc func(agg *character.Aggregate, at rulepath.Path)

func (f applyFunc) OnInsert(context.Context, *character.Aggregate, rulepath.Path) {}

func (f applyFunc) Apply(_ context.Context, agg *character.Aggregate, at rulepath.Path) {
	f(agg, at)
}

func baseAbilities(agg *character.Aggregate, _ rulepath.Path) {
	for _, name := range character.Abilities {
		agg.Derived.Ability(name).Base = agg.Persistent.AbilityBase(name)
	}
}

func baseSpeed(agg *character.Aggregate, at rulepath.Path) {
	agg.Derived.AddSpeed(at.String(), BaseSpeed)
}

func level(agg *character.Aggregate, _ rulepath.Path) {
	agg.Derived.Level = agg.Persistent.Level()
}

// proficiencyBonus is +2 at levels 1-4 and one more every four levels.
func proficiencyBonus(agg *character.Aggregate, _ rulepath.Path) {
	lvl := max(agg.Derived.Level, 1)
	agg.Derived.ProficiencyBonus = 2 + (lvl-1)/4
}

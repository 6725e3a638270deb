// Package features provides the `feature` mutator kind.
package features

import (
	"context"
	"errors"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/registry"
	"github.com/specialistvlad/charsmith/internal/rulepath"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a feature mutator.
type Input struct {
	Title string `mutator:"title,required"`
	Text  string `mutator:"text"`
}

type feature struct {
	in Input
}

// New validates in and returns the mutator.
func New(in Input) (character.Mutator, error) {
	if in.Title == "" {
		return nil, errors.New("feature title cannot be empty")
	}
	return &feature{in: in}, nil
}

func (f *feature) OnInsert(context.Context, *character.Aggregate, rulepath.Path) {}

func (f *feature) Apply(_ context.Context, agg *character.Aggregate, at rulepath.Path) {
	agg.Derived.Features = append(agg.Derived.Features, character.Feature{
		Title:  f.in.Title,
		Text:   f.in.Text,
		Source: at.String(),
	})
}

// Register registers the mutator kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	registry.Register(r, "feature", New)
}

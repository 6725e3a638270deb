// Package grant provides the `grant` mutator kind, which pulls further rule
// objects into the character. The reference is registered as soon as the
// mutator is inserted, so granted objects are fetched in the next resolution
// round.
package grant

import (
	"context"
	"errors"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/objcache"
	"github.com/specialistvlad/charsmith/internal/registry"
	"github.com/specialistvlad/charsmith/internal/rulepath"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a grant mutator.
type Input struct {
	IDs             []string `mutator:"ids,required"`
	Kind            string   `mutator:"kind"`
	AsParentFeature bool     `mutator:"as_parent_feature"`
}

type grant struct {
	ids      []string
	kind     content.Kind
	asParent bool
}

// New validates in and returns the mutator. Kind defaults to bundle.
func New(in Input) (character.Mutator, error) {
	if len(in.IDs) == 0 {
		return nil, errors.New("grant needs at least one id")
	}
	kind := content.KindBundle
	if in.Kind != "" {
		k, err := content.ParseKind(in.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}
	return &grant{ids: in.IDs, kind: kind, asParent: in.AsParentFeature}, nil
}

func (g *grant) OnInsert(_ context.Context, agg *character.Aggregate, at rulepath.Path) {
	agg.Objects.Insert(objcache.Reference{
		IDs:                      g.ids,
		Kind:                     g.kind,
		SourcePath:               at,
		PropagateAsParentFeature: g.asParent,
	})
}

func (g *grant) Apply(context.Context, *character.Aggregate, rulepath.Path) {}

// Register registers the mutator kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	registry.Register(r, "grant", New)
}

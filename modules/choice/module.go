// Package choice provides the `choice` mutator kind: a slot the user fills
// by recording a selection under the slot's path, e.g.
// `classes[0].wizard.school = "evocation"`.
//
// A made selection becomes an object reference at insertion time. A missing
// or disallowed one is reported on the derived data when the mutator is
// applied, so the presentation layer can prompt for it.
package choice

import (
	"context"
	"fmt"
	"slices"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/objcache"
	"github.com/specialistvlad/charsmith/internal/registry"
	"github.com/specialistvlad/charsmith/internal/rulepath"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a choice mutator. An empty Options list
// accepts any id.
type Input struct {
	Key     string   `mutator:"key,required"`
	Kind    string   `mutator:"kind,required"`
	Options []string `mutator:"options"`
}

type choice struct {
	key     string
	kind    content.Kind
	options []string
}

// New validates in and returns the mutator.
func New(in Input) (character.Mutator, error) {
	kind, err := content.ParseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	if _, err := rulepath.Parse(in.Key); err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	return &choice{key: in.Key, kind: kind, options: in.Options}, nil
}

// selection returns the slot path and the user's valid selection, if any.
func (c *choice) selection(agg *character.Aggregate, at rulepath.Path) (rulepath.Path, string, string) {
	slot := at.Key(c.key)
	value, ok := agg.Persistent.Selection(slot.String())
	switch {
	case !ok:
		return slot, "", "no selection made"
	case len(c.options) > 0 && !slices.Contains(c.options, value):
		return slot, "", fmt.Sprintf("selection %q is not one of the options", value)
	}
	return slot, value, ""
}

func (c *choice) OnInsert(_ context.Context, agg *character.Aggregate, at rulepath.Path) {
	slot, value, _ := c.selection(agg, at)
	if value == "" {
		return
	}
	agg.Objects.Insert(objcache.Reference{
		IDs:        []string{value},
		Kind:       c.kind,
		SourcePath: slot,
	})
}

func (c *choice) Apply(_ context.Context, agg *character.Aggregate, at rulepath.Path) {
	slot, value, reason := c.selection(agg, at)
	if value != "" {
		return
	}
	agg.Derived.MissingSelections = append(agg.Derived.MissingSelections, character.MissingSelection{
		Path:    slot.String(),
		Kind:    c.kind,
		Options: slices.Clone(c.options),
		Reason:  reason,
	})
}

// Register registers the mutator kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	registry.Register(r, "choice", New)
}

package character

import (
	"context"

	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/objcache"
	"github.com/specialistvlad/charsmith/internal/rulepath"
)

// RuleSource contributes mutators during the insertion phase.
type RuleSource interface {
	// AssignPath tells the source where it sits in the character tree.
	AssignPath(p rulepath.Path)
	// ContributeMutators registers the source's entries and references.
	ContributeMutators(ctx context.Context, agg *Aggregate) error
}

// referenceSource is a persistent child that names rule objects of one kind.
type referenceSource struct {
	ids  []string
	kind content.Kind
	path rulepath.Path
}

func (s *referenceSource) AssignPath(p rulepath.Path) { s.path = p }

func (s *referenceSource) ContributeMutators(_ context.Context, agg *Aggregate) error {
	agg.Objects.Insert(objcache.Reference{
		IDs:                      s.ids,
		Kind:                     s.kind,
		SourcePath:               s.path,
		PropagateAsParentFeature: true,
	})
	return nil
}

// PersistentSources returns the rule sources of the user's persistent data in
// sheet order: classes, background, equipped items, conditions. Each source
// has its path assigned, e.g. `classes[0].wizard` or `background.sage`.
func PersistentSources(p *Persistent) []RuleSource {
	var sources []RuleSource
	add := func(ids []string, kind content.Kind, at rulepath.Path) {
		s := &referenceSource{ids: ids, kind: kind}
		s.AssignPath(at)
		sources = append(sources, s)
	}

	for i, c := range p.Classes {
		add([]string{c.ID}, content.KindClass, rulepath.Root().Indexed("classes", i).Child(c.ID))
	}
	if p.Background != "" {
		add([]string{p.Background}, content.KindBackground, rulepath.Of("background", p.Background))
	}
	for i, it := range p.Inventory {
		if !it.Equipped {
			continue
		}
		add([]string{it.ID}, content.KindItem, rulepath.Root().Indexed("inventory", i).Child(it.ID))
	}
	for _, id := range p.Conditions {
		add([]string{id}, content.KindCondition, rulepath.Of("conditions", id))
	}
	return sources
}

package pipeline

import (
	"testing"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/mutator"
	"github.com/specialistvlad/charsmith/internal/registry"
	"github.com/specialistvlad/charsmith/modules/abilities"
	"github.com/specialistvlad/charsmith/modules/choice"
	"github.com/specialistvlad/charsmith/modules/features"
	"github.com/specialistvlad/charsmith/modules/grant"
	"github.com/specialistvlad/charsmith/modules/proficiency"
	"github.com/specialistvlad/charsmith/modules/spells"
	"github.com/specialistvlad/charsmith/modules/vitals"
	"github.com/zclconf/go-cty/cty"
)

func newRegistry() *registry.Registry {
	return registry.NewWith(
		&abilities.Module{},
		&choice.Module{},
		&features.Module{},
		&grant.Module{},
		&proficiency.Module{},
		&spells.Module{},
		&vitals.Module{},
	)
}

func newAggregate(p character.Persistent, o mutator.Ordering) *character.Aggregate {
	return character.New("hero", p, newRegistry(), o)
}

func obj(id string, kind content.Kind, muts ...content.MutatorSpec) *content.Object {
	return &content.Object{ID: id, Kind: kind, Name: id, Mutators: muts}
}

func spec(kind string, attrs map[string]cty.Value) content.MutatorSpec {
	return content.MutatorSpec{Kind: kind, Args: cty.ObjectVal(attrs)}
}

func named(name string, deps []string, s content.MutatorSpec) content.MutatorSpec {
	s.Name = name
	s.DependsOn = deps
	return s
}

func strs(ss ...string) cty.Value {
	vals := make([]cty.Value, len(ss))
	for i, s := range ss {
		vals[i] = cty.StringVal(s)
	}
	return cty.TupleVal(vals)
}

func bonus(ability string, amount int) content.MutatorSpec {
	return spec("ability_bonus", map[string]cty.Value{
		"ability": cty.StringVal(ability),
		"amount":  cty.NumberIntVal(int64(amount)),
	})
}

func feature(title string) content.MutatorSpec {
	return spec("feature", map[string]cty.Value{"title": cty.StringVal(title)})
}

func grants(ids ...string) content.MutatorSpec {
	return spec("grant", map[string]cty.Value{"ids": strs(ids...)})
}

func featureTitles(d character.Derived) []string {
	var out []string
	for _, f := range d.Features {
		out = append(out, f.Title)
	}
	return out
}

func unresolvedIDs(d character.Derived) []string {
	var out []string
	for _, u := range d.Unresolved {
		out = append(out, u.ID)
	}
	return out
}

// chain returns a class that grants b1, with each bundle granting the next
// up to bn. Every object contributes a feature named after itself.
func chain(t *testing.T, n int) []*content.Object {
	t.Helper()
	ids := []string{"root"}
	for i := 1; i <= n; i++ {
		ids = append(ids, "b"+string(rune('0'+i)))
	}

	var objs []*content.Object
	for i, id := range ids {
		kind := content.KindBundle
		if i == 0 {
			kind = content.KindClass
		}
		muts := []content.MutatorSpec{feature(id)}
		if i+1 < len(ids) {
			muts = append(muts, grants(ids[i+1]))
		}
		objs = append(objs, obj(id, kind, muts...))
	}
	return objs
}

package character

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/mutator"
	"github.com/specialistvlad/charsmith/internal/objcache"
	"github.com/specialistvlad/charsmith/internal/rulepath"
	"github.com/specialistvlad/charsmith/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bonusMutator adds one point of str at apply time and counts OnInsert calls.
type bonusMutator struct {
	inserted *int
}

func (m bonusMutator) OnInsert(context.Context, *Aggregate, rulepath.Path) {
	if m.inserted != nil {
		*m.inserted++
	}
}

func (m bonusMutator) Apply(_ context.Context, agg *Aggregate, at rulepath.Path) {
	s := agg.Derived.Ability("str")
	s.Bonuses = append(s.Bonuses, Bonus{Source: at.String(), Amount: 1})
}

type stubBuilder struct {
	inserted int
}

func (b *stubBuilder) Build(spec content.MutatorSpec) (Mutator, error) {
	if spec.Kind != "bonus" {
		return nil, errors.New("unknown kind")
	}
	return bonusMutator{inserted: &b.inserted}, nil
}

func newTestAggregate(p Persistent) (*Aggregate, *stubBuilder) {
	b := &stubBuilder{}
	return New("hero", p, b, mutator.OrderingComparator), b
}

func TestAggregate_AddSpec(t *testing.T) {
	ctx, logs := testutil.Context(t)
	agg, b := newTestAggregate(Persistent{Classes: []ClassLevel{{ID: "fighter", Level: 2}}})
	at := rulepath.Of("classes", "fighter")

	require.NoError(t, agg.AddSpec(ctx, content.MutatorSpec{Kind: "bonus"}, at))
	require.NoError(t, agg.AddSpec(ctx, content.MutatorSpec{Kind: "bonus", Name: "late", MinLevel: 3}, at))
	require.NoError(t, agg.AddSpec(ctx, content.MutatorSpec{Kind: "nope"}, at))

	assert.Equal(t, 1, agg.Scheduler.Len())
	assert.Equal(t, 1, b.inserted)
	assert.Contains(t, logs.String(), "Skipping mutator above character level.")
	assert.Contains(t, logs.String(), "Skipping mutator that failed to compile.")

	require.NoError(t, agg.Scheduler.Drain(ctx))
	assert.Equal(t, 1, agg.Derived.Ability("str").Score(), "no base block ran, only the bonus")
	assert.Equal(t, []Bonus{{Source: "classes.fighter", Amount: 1}}, agg.Derived.Ability("str").Bonuses)
}

func TestAggregate_AddSpecCycleIsReturned(t *testing.T) {
	ctx, _ := testutil.Context(t)
	agg, _ := newTestAggregate(Persistent{})

	require.NoError(t, agg.AddSpec(ctx, content.MutatorSpec{Kind: "bonus", Name: "a", DependsOn: []string{"b"}}, rulepath.Of("x")))
	err := agg.AddSpec(ctx, content.MutatorSpec{Kind: "bonus", Name: "b", DependsOn: []string{"a"}}, rulepath.Of("y"))
	require.ErrorIs(t, err, mutator.ErrCircularDependency)
}

func TestAggregate_ApplyObjectAndUnresolved(t *testing.T) {
	ctx, _ := testutil.Context(t)
	agg, _ := newTestAggregate(Persistent{})

	obj := &content.Object{ID: "belt", Kind: content.KindItem, Mutators: []content.MutatorSpec{{Kind: "bonus"}, {Kind: "bonus"}}}
	require.NoError(t, agg.ApplyObject(ctx, obj, rulepath.Of("inventory", "belt"), true))
	agg.MarkUnresolved("ghost", content.KindBundle, rulepath.Of("inventory", "belt"), content.NotFound("ghost", content.KindBundle))

	assert.Equal(t, 2, agg.Scheduler.Len())
	assert.Equal(t, []AppliedObject{{ID: "belt", Kind: content.KindItem, Path: "inventory.belt", AsParentFeature: true}}, agg.Derived.Objects)
	require.Len(t, agg.Derived.Unresolved, 1)
	assert.Equal(t, "ghost", agg.Derived.Unresolved[0].ID)
	assert.Contains(t, agg.Derived.Unresolved[0].Reason, "not found")
}

func TestAggregate_CloneIsDeep(t *testing.T) {
	agg, _ := newTestAggregate(Persistent{
		Name:       "Ada",
		Abilities:  map[string]int{"str": 12},
		Classes:    []ClassLevel{{ID: "wizard", Level: 1}},
		Selections: map[string]string{"classes[0].wizard.school": "evocation"},
	})
	agg.Derived.Ability("int").Base = 16
	agg.Lookups["fire_bolt"] = content.Brief{ID: "fire_bolt", Name: "Fire Bolt"}
	agg.Objects.Insert(objcache.Reference{IDs: []string{"x"}, Kind: content.KindBundle})

	clone, err := agg.Clone()
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(agg.Persistent, clone.Persistent))
	assert.Empty(t, cmp.Diff(agg.Derived, clone.Derived))
	assert.False(t, clone.Objects.HasPending(), "transient state is not cloned")

	clone.Persistent.Abilities["str"] = 8
	clone.Persistent.Classes[0].Level = 5
	clone.Persistent.Selections["classes[0].wizard.school"] = "abjuration"
	clone.Derived.Ability("int").Base = 8
	clone.Lookups["fire_bolt"] = content.Brief{ID: "fire_bolt", Name: "changed"}

	assert.Equal(t, 12, agg.Persistent.Abilities["str"])
	assert.Equal(t, 1, agg.Persistent.Classes[0].Level)
	assert.Equal(t, "evocation", agg.Persistent.Selections["classes[0].wizard.school"])
	assert.Equal(t, 16, agg.Derived.Ability("int").Base)
	assert.Equal(t, "Fire Bolt", agg.Lookups["fire_bolt"].Name)
}

func TestAggregate_ApplyLookups(t *testing.T) {
	agg, _ := newTestAggregate(Persistent{})
	agg.Derived.AddSpell("fire_bolt", "classes[0].wizard", "int")
	agg.Derived.AddSpell("shield", "classes[0].wizard", "int")
	agg.Derived.Unresolved = []Unresolved{
		{ID: "fire_bolt", Kind: content.KindSpell, Path: "classes[0].wizard"},
		{ID: "shield", Kind: content.KindSpell, Path: "classes[0].wizard"},
	}

	assert.Zero(t, agg.ApplyLookups())
	assert.Equal(t, []string{"fire_bolt", "shield"}, agg.UnresolvedSpells())

	agg.Lookups["fire_bolt"] = content.Brief{ID: "fire_bolt", Name: "Fire Bolt", Text: "A mote of fire."}
	assert.Equal(t, 1, agg.ApplyLookups())

	assert.True(t, agg.Derived.Spells[0].Resolved)
	assert.Equal(t, "Fire Bolt", agg.Derived.Spells[0].Name)
	assert.Equal(t, []string{"shield"}, agg.UnresolvedSpells())
	require.Len(t, agg.Derived.Unresolved, 1)
	assert.Equal(t, "shield", agg.Derived.Unresolved[0].ID)
}

func TestAggregate_ResetClearsDerived(t *testing.T) {
	ctx, _ := testutil.Context(t)
	agg, _ := newTestAggregate(Persistent{})
	agg.Derived.AddSpeed("x", 30)
	agg.MarkStructural()
	require.NoError(t, agg.AddSpec(ctx, content.MutatorSpec{Kind: "bonus"}, rulepath.Of("x")))
	scheduler := agg.Scheduler

	agg.Reset()
	assert.Zero(t, agg.Derived.Speed)
	assert.False(t, agg.NeedsRecompute())
	assert.Same(t, scheduler, agg.Scheduler, "the scheduler is emptied in place")
	assert.Zero(t, agg.Scheduler.Len())

	require.NoError(t, agg.Scheduler.Drain(ctx))
	assert.Zero(t, agg.Derived.Ability("str").Score(), "the discarded entry never applies")
}

func TestAggregate_FailedLookupsAreMarkedOnce(t *testing.T) {
	agg, _ := newTestAggregate(Persistent{})
	agg.Derived.AddSpell("wish", "classes[0].wizard", "int")
	agg.FailedLookups["wish"] = "spell store offline"

	assert.Empty(t, agg.UnresolvedSpells(), "failed lookups are not retried")
	agg.ApplyLookups()
	agg.ApplyLookups()

	assert.Equal(t, []Unresolved{{
		ID:     "wish",
		Kind:   content.KindSpell,
		Path:   "classes[0].wizard",
		Reason: "spell store offline",
	}}, agg.Derived.Unresolved)
}

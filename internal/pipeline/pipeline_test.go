package pipeline

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/mutator"
	"github.com/specialistvlad/charsmith/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestRecompute_Defaults(t *testing.T) {
	ctx, _ := testutil.Context(t)
	provider := testutil.NewFakeProvider(
		obj("fighter", content.KindClass,
			named("hp", []string{"level"}, spec("hit_points", map[string]cty.Value{
				"per_level":   cty.NumberIntVal(6),
				"first_level": cty.NumberIntVal(10),
			})),
		),
	)
	agg := newAggregate(character.Persistent{
		Abilities: map[string]int{"con": 14},
		Classes:   []character.ClassLevel{{ID: "fighter", Level: 5}},
	}, mutator.OrderingComparator)

	require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))

	d := agg.Derived
	assert.Equal(t, 5, d.Level)
	assert.Equal(t, 3, d.ProficiencyBonus)
	assert.Equal(t, 30, d.Speed)
	assert.Equal(t, 14, d.Abilities["con"].Score())
	assert.Equal(t, 10, d.Abilities["str"].Score())
	// 10 for the first level, 6 for each of the other four, +2 con per level.
	assert.Equal(t, 10+6*4+2*5, d.MaxHitPoints)
	assert.Equal(t, []character.Bonus{{Source: "classes[0].fighter", Amount: 44}}, d.HitPointSources)
}

func TestRecompute_AptitudeBonus(t *testing.T) {
	ctx, _ := testutil.Context(t)
	provider := testutil.NewFakeProvider(
		obj("wizard", content.KindClass, bonus("int", 2)),
		obj("sage", content.KindBackground, bonus("int", 1)),
	)
	agg := newAggregate(character.Persistent{
		Abilities:  map[string]int{"int": 15},
		Classes:    []character.ClassLevel{{ID: "wizard", Level: 1}},
		Background: "sage",
	}, mutator.OrderingComparator)

	require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))

	score := agg.Derived.Abilities["int"]
	assert.Equal(t, 15, score.Base)
	assert.Equal(t, 18, score.Score())
	assert.Equal(t, 4, score.Modifier())
	assert.Equal(t, []character.Bonus{
		{Source: "classes[0].wizard", Amount: 2},
		{Source: "background.sage", Amount: 1},
	}, score.Bonuses)
}

func TestRecompute_ChainedReference(t *testing.T) {
	ctx, _ := testutil.Context(t)
	provider := testutil.NewFakeProvider(
		obj("x", content.KindClass, feature("from x"), grants("y")),
		obj("y", content.KindBundle, feature("from y"), grants("z")),
		obj("z", content.KindBundle, feature("from z"), bonus("dex", 1)),
	)
	agg := newAggregate(character.Persistent{Classes: []character.ClassLevel{{ID: "x", Level: 1}}}, mutator.OrderingComparator)

	require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))

	assert.Equal(t, []string{"from x", "from y", "from z"}, featureTitles(agg.Derived))
	assert.Equal(t, 11, agg.Derived.Abilities["dex"].Score())
	assert.Equal(t, []character.AppliedObject{
		{ID: "x", Kind: content.KindClass, Path: "classes[0].x", AsParentFeature: true},
		{ID: "y", Kind: content.KindBundle, Path: "classes[0].x.y"},
		{ID: "z", Kind: content.KindBundle, Path: "classes[0].x.y.z"},
	}, agg.Derived.Objects)
	assert.Equal(t, "classes[0].x.y.z", agg.Derived.Features[2].Source)
}

func TestRecompute_MissingProviderObject(t *testing.T) {
	ctx, logs := testutil.Context(t)
	provider := testutil.NewFakeProvider(
		obj("x", content.KindClass, feature("from x"), grants("ghost", "real")),
		obj("real", content.KindBundle, feature("from real")),
	)
	agg := newAggregate(character.Persistent{Classes: []character.ClassLevel{{ID: "x", Level: 1}}}, mutator.OrderingComparator)

	require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))

	assert.Equal(t, []string{"from x", "from real"}, featureTitles(agg.Derived))
	assert.Equal(t, []string{"ghost"}, unresolvedIDs(agg.Derived))
	assert.Equal(t, "classes[0].x", agg.Derived.Unresolved[0].Path)
	assert.Contains(t, logs.String(), "Failed to fetch referenced object")
	assert.Contains(t, logs.String(), "id=ghost")
}

func TestRecompute_StoreFailureIsNotFatal(t *testing.T) {
	ctx, _ := testutil.Context(t)
	provider := testutil.NewFakeProvider(obj("x", content.KindClass, feature("from x"), grants("flaky")))
	provider.Fail("flaky", errors.Join(content.ErrStore, errors.New("disk on fire")))
	agg := newAggregate(character.Persistent{Classes: []character.ClassLevel{{ID: "x", Level: 1}}}, mutator.OrderingComparator)

	require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))
	assert.Equal(t, []string{"from x"}, featureTitles(agg.Derived))
	require.Len(t, agg.Derived.Unresolved, 1)
	assert.Contains(t, agg.Derived.Unresolved[0].Reason, "disk on fire")
}

func TestRecompute_FixpointTermination(t *testing.T) {
	t.Run("chain within the cap resolves fully", func(t *testing.T) {
		ctx, _ := testutil.Context(t)
		provider := testutil.NewFakeProvider(chain(t, DefaultMaxExtraRounds)...)
		agg := newAggregate(character.Persistent{Classes: []character.ClassLevel{{ID: "root", Level: 1}}}, mutator.OrderingComparator)

		require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))
		assert.Equal(t, []string{"root", "b1", "b2", "b3"}, featureTitles(agg.Derived))
		assert.Empty(t, agg.Derived.Unresolved)
	})

	t.Run("chain beyond the cap stops and omits only the tail", func(t *testing.T) {
		ctx, logs := testutil.Context(t)
		provider := testutil.NewFakeProvider(chain(t, DefaultMaxExtraRounds+2)...)
		agg := newAggregate(character.Persistent{Classes: []character.ClassLevel{{ID: "root", Level: 1}}}, mutator.OrderingComparator)

		require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))
		assert.Equal(t, []string{"root", "b1", "b2", "b3"}, featureTitles(agg.Derived))
		assert.Equal(t, []string{"b4"}, unresolvedIDs(agg.Derived))
		assert.Equal(t, ErrRoundCapExceeded.Error(), agg.Derived.Unresolved[0].Reason)
		assert.Zero(t, provider.Fetches("b4"))
		assert.Zero(t, provider.Fetches("b5"))
		assert.Contains(t, logs.String(), "Object resolution hit the round cap")
	})

	t.Run("self-granting bundle terminates", func(t *testing.T) {
		ctx, _ := testutil.Context(t)
		provider := testutil.NewFakeProvider(
			obj("x", content.KindClass, grants("loop")),
			obj("loop", content.KindBundle, feature("loop"), grants("loop")),
		)
		agg := newAggregate(character.Persistent{Classes: []character.ClassLevel{{ID: "x", Level: 1}}}, mutator.OrderingComparator)

		require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))
		assert.Equal(t, []string{"loop"}, featureTitles(agg.Derived))
		assert.Equal(t, 1, provider.Fetches("loop"))
		assert.Empty(t, agg.Derived.Unresolved)
	})
}

func TestRecompute_SharedReferenceFetchedOnce(t *testing.T) {
	ctx, _ := testutil.Context(t)
	provider := testutil.NewFakeProvider(
		obj("x", content.KindClass, grants("shared")),
		obj("sage", content.KindBackground, grants("shared")),
		obj("shared", content.KindBundle, bonus("wis", 1)),
	)
	agg := newAggregate(character.Persistent{
		Classes:    []character.ClassLevel{{ID: "x", Level: 1}},
		Background: "sage",
	}, mutator.OrderingComparator)

	require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))
	assert.Equal(t, 1, provider.Fetches("shared"))
	assert.Equal(t, 11, agg.Derived.Abilities["wis"].Score(), "applied at most once")
}

func TestRecompute_CircularDependencyIsFatal(t *testing.T) {
	ctx, _ := testutil.Context(t)
	provider := testutil.NewFakeProvider(
		obj("x", content.KindClass,
			named("a", []string{"b"}, feature("a")),
			named("b", []string{"a"}, feature("b")),
		),
	)
	agg := newAggregate(character.Persistent{Classes: []character.ClassLevel{{ID: "x", Level: 1}}}, mutator.OrderingComparator)

	err := Recompute(ctx, agg, provider, DefaultOptions())
	require.ErrorIs(t, err, mutator.ErrCircularDependency)
	assert.ErrorContains(t, err, "resolution phase")
}

func TestRecompute_GraphOrderingFindsLongCycles(t *testing.T) {
	ctx, _ := testutil.Context(t)
	provider := testutil.NewFakeProvider(
		obj("x", content.KindClass,
			named("a", []string{"c"}, feature("a")),
			named("b", []string{"a"}, feature("b")),
			named("c", []string{"b"}, feature("c")),
		),
	)
	agg := newAggregate(character.Persistent{Classes: []character.ClassLevel{{ID: "x", Level: 1}}}, mutator.OrderingGraph)

	err := Recompute(ctx, agg, provider, DefaultOptions())
	require.ErrorIs(t, err, mutator.ErrCircularDependency)
	assert.ErrorContains(t, err, "application phase")
}

func TestRecompute_Choices(t *testing.T) {
	ctx, _ := testutil.Context(t)
	provider := testutil.NewFakeProvider(
		obj("wizard", content.KindClass, spec("choice", map[string]cty.Value{
			"key":     cty.StringVal("school"),
			"kind":    cty.StringVal("feat"),
			"options": strs("evocation", "abjuration"),
		})),
		obj("evocation", content.KindFeat, feature("Sculpt Spells")),
		obj("necromancy", content.KindFeat, feature("Grim Harvest")),
	)

	t.Run("missing selection is reported", func(t *testing.T) {
		agg := newAggregate(character.Persistent{Classes: []character.ClassLevel{{ID: "wizard", Level: 1}}}, mutator.OrderingComparator)
		require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))

		assert.Equal(t, []character.MissingSelection{{
			Path:    "classes[0].wizard.school",
			Kind:    content.KindFeat,
			Options: []string{"evocation", "abjuration"},
			Reason:  "no selection made",
		}}, agg.Derived.MissingSelections)
		assert.Empty(t, agg.Derived.Features)
	})

	t.Run("made selection is applied", func(t *testing.T) {
		agg := newAggregate(character.Persistent{
			Classes:    []character.ClassLevel{{ID: "wizard", Level: 1}},
			Selections: map[string]string{"classes[0].wizard.school": "evocation"},
		}, mutator.OrderingComparator)
		require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))

		assert.Empty(t, agg.Derived.MissingSelections)
		assert.Equal(t, []string{"Sculpt Spells"}, featureTitles(agg.Derived))
		assert.Equal(t, "classes[0].wizard.school.evocation", agg.Derived.Features[0].Source)
	})

	t.Run("disallowed selection is reported", func(t *testing.T) {
		agg := newAggregate(character.Persistent{
			Classes:    []character.ClassLevel{{ID: "wizard", Level: 1}},
			Selections: map[string]string{"classes[0].wizard.school": "necromancy"},
		}, mutator.OrderingComparator)
		require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))

		require.Len(t, agg.Derived.MissingSelections, 1)
		assert.Contains(t, agg.Derived.MissingSelections[0].Reason, `"necromancy" is not one of the options`)
		assert.Zero(t, provider.Fetches("necromancy"))
	})
}

func TestRecompute_MinLevel(t *testing.T) {
	ctx, _ := testutil.Context(t)
	extra := feature("Extra Attack")
	extra.MinLevel = 5
	provider := testutil.NewFakeProvider(obj("fighter", content.KindClass, feature("Second Wind"), extra))

	low := newAggregate(character.Persistent{Classes: []character.ClassLevel{{ID: "fighter", Level: 4}}}, mutator.OrderingComparator)
	require.NoError(t, Recompute(ctx, low, provider, DefaultOptions()))
	assert.Equal(t, []string{"Second Wind"}, featureTitles(low.Derived))

	high := newAggregate(character.Persistent{Classes: []character.ClassLevel{{ID: "fighter", Level: 5}}}, mutator.OrderingComparator)
	require.NoError(t, Recompute(ctx, high, provider, DefaultOptions()))
	assert.Equal(t, []string{"Second Wind", "Extra Attack"}, featureTitles(high.Derived))
}

func TestRecompute_Indirection(t *testing.T) {
	wizard := obj("wizard", content.KindClass, spec("spell_access", map[string]cty.Value{
		"spells":  strs("fire_bolt", "unknown_spell"),
		"ability": cty.StringVal("int"),
	}))
	fireBolt := &content.Object{ID: "fire_bolt", Kind: content.KindSpell, Name: "Fire Bolt", Text: "Hurl a mote of fire."}
	persistent := character.Persistent{Classes: []character.ClassLevel{{ID: "wizard", Level: 1}}}

	t.Run("spells are materialized from the provider", func(t *testing.T) {
		ctx, logs := testutil.Context(t)
		provider := testutil.NewFakeProvider(wizard, fireBolt)
		agg := newAggregate(persistent, mutator.OrderingComparator)

		require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))

		require.Len(t, agg.Derived.Spells, 2)
		assert.Equal(t, character.SpellRef{
			ID: "fire_bolt", Source: "classes[0].wizard", Ability: "int",
			Resolved: true, Name: "Fire Bolt", Text: "Hurl a mote of fire.",
		}, agg.Derived.Spells[0])
		assert.False(t, agg.Derived.Spells[1].Resolved)
		assert.Equal(t, []string{"unknown_spell"}, unresolvedIDs(agg.Derived))
		assert.Contains(t, logs.String(), "Failed to resolve indirect reference")
	})

	t.Run("deferred lookups leave spells pending", func(t *testing.T) {
		ctx, _ := testutil.Context(t)
		provider := testutil.NewFakeProvider(wizard, fireBolt)
		agg := newAggregate(persistent, mutator.OrderingComparator)
		opts := DefaultOptions()
		opts.DeferLookups = true

		require.NoError(t, Recompute(ctx, agg, provider, opts))
		assert.Equal(t, []string{"fire_bolt", "unknown_spell"}, agg.UnresolvedSpells())
		assert.Zero(t, provider.IndirectFetches("fire_bolt"))
		assert.Empty(t, agg.Derived.Unresolved)
	})

	t.Run("background lookups are used before the provider", func(t *testing.T) {
		ctx, _ := testutil.Context(t)
		provider := testutil.NewFakeProvider(wizard, fireBolt)
		agg := newAggregate(persistent, mutator.OrderingComparator)
		agg.Lookups["fire_bolt"] = content.Brief{ID: "fire_bolt", Name: "Fire Bolt (cached)"}

		require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))
		assert.Equal(t, "Fire Bolt (cached)", agg.Derived.Spells[0].Name)
		assert.Zero(t, provider.IndirectFetches("fire_bolt"))
		assert.Equal(t, 1, provider.IndirectFetches("unknown_spell"))
	})
}

func TestRefresh(t *testing.T) {
	ctx, _ := testutil.Context(t)
	provider := testutil.NewFakeProvider(
		obj("wizard", content.KindClass, spec("spell_access", map[string]cty.Value{"spells": strs("shield")})),
	)
	agg := newAggregate(character.Persistent{Classes: []character.ClassLevel{{ID: "wizard", Level: 1}}}, mutator.OrderingComparator)
	require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))
	require.Equal(t, []string{"shield"}, unresolvedIDs(agg.Derived))

	agg.Lookups["shield"] = content.Brief{ID: "shield", Name: "Shield"}
	assert.Equal(t, 1, Refresh(ctx, agg, DefaultOptions()))
	assert.True(t, agg.Derived.Spells[0].Resolved)
	assert.Empty(t, agg.Derived.Unresolved)
	assert.Equal(t, 1, provider.TotalFetches(), "refresh never refetches rule objects")
}

func richCharacter() (character.Persistent, []*content.Object) {
	p := character.Persistent{
		Name:       "Ada",
		Abilities:  map[string]int{"str": 8, "dex": 14, "con": 13, "int": 16, "wis": 12, "cha": 10},
		Classes:    []character.ClassLevel{{ID: "wizard", Level: 3}, {ID: "rogue", Level: 1}},
		Background: "sage",
		Inventory:  []character.Item{{ID: "boots", Equipped: true}, {ID: "rope"}},
		Conditions: []string{"blessed"},
		Selections: map[string]string{"classes[0].wizard.school": "evocation"},
	}
	objs := []*content.Object{
		obj("wizard", content.KindClass,
			bonus("int", 1),
			spec("proficiency", map[string]cty.Value{"category": cty.StringVal("save"), "names": strs("int", "wis")}),
			named("hp", []string{"level"}, spec("hit_points", map[string]cty.Value{"per_level": cty.NumberIntVal(4), "first_level": cty.NumberIntVal(6)})),
			spec("choice", map[string]cty.Value{"key": cty.StringVal("school"), "kind": cty.StringVal("feat")}),
			spec("spell_access", map[string]cty.Value{"spells": strs("fire_bolt", "shield"), "ability": cty.StringVal("int")}),
			grants("arcane_recovery"),
		),
		obj("rogue", content.KindClass,
			spec("proficiency", map[string]cty.Value{"category": cty.StringVal("skill"), "name": cty.StringVal("stealth")}),
			feature("Sneak Attack"),
		),
		obj("sage", content.KindBackground,
			spec("proficiency", map[string]cty.Value{"category": cty.StringVal("skill"), "names": strs("arcana", "history", "stealth")}),
		),
		obj("boots", content.KindItem, spec("speed", map[string]cty.Value{"amount": cty.NumberIntVal(10)})),
		obj("rope", content.KindItem, feature("never applied")),
		obj("blessed", content.KindCondition, feature("Blessed")),
		obj("evocation", content.KindFeat, feature("Sculpt Spells")),
		obj("arcane_recovery", content.KindBundle, feature("Arcane Recovery")),
		{ID: "fire_bolt", Kind: content.KindSpell, Name: "Fire Bolt"},
		{ID: "shield", Kind: content.KindSpell, Name: "Shield"},
	}
	return p, objs
}

func TestRecompute_Deterministic(t *testing.T) {
	ctx, _ := testutil.Context(t)
	p, objs := richCharacter()

	var outputs [][]byte
	for range 5 {
		agg := newAggregate(p, mutator.OrderingComparator)
		require.NoError(t, Recompute(ctx, agg, testutil.NewFakeProvider(objs...), DefaultOptions()))
		raw, err := json.Marshal(agg.Derived)
		require.NoError(t, err)
		outputs = append(outputs, raw)
	}
	for _, out := range outputs[1:] {
		assert.Equal(t, string(outputs[0]), string(out))
	}

	// Recomputing the same aggregate again rebuilds from scratch.
	agg := newAggregate(p, mutator.OrderingComparator)
	provider := testutil.NewFakeProvider(objs...)
	require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))
	require.NoError(t, Recompute(ctx, agg, provider, DefaultOptions()))
	raw, err := json.Marshal(agg.Derived)
	require.NoError(t, err)
	assert.Equal(t, string(outputs[0]), string(raw))
}

func TestRecompute_RichSheet(t *testing.T) {
	ctx, _ := testutil.Context(t)
	p, objs := richCharacter()
	agg := newAggregate(p, mutator.OrderingComparator)
	require.NoError(t, Recompute(ctx, agg, testutil.NewFakeProvider(objs...), DefaultOptions()))

	d := agg.Derived
	assert.Equal(t, 4, d.Level)
	assert.Equal(t, 2, d.ProficiencyBonus)
	assert.Equal(t, 17, d.Abilities["int"].Score())
	assert.Equal(t, 40, d.Speed)
	// 6 + 4*3 + con modifier (+1) per level.
	assert.Equal(t, 6+4*3+1*4, d.MaxHitPoints)
	assert.Equal(t, []string{"Sneak Attack", "Blessed", "Sculpt Spells", "Arcane Recovery"}, featureTitles(d))
	assert.Empty(t, d.MissingSelections)
	assert.Empty(t, d.Unresolved)
	assert.Empty(t, agg.UnresolvedSpells())

	stealth := d.Proficiencies[slicesIndex(d.Proficiencies, "skill", "stealth")]
	assert.Equal(t, []string{"classes[1].rogue", "background.sage"}, stealth.Sources)
}

func TestRecompute_GraphOrderingMatchesComparator(t *testing.T) {
	ctx, _ := testutil.Context(t)
	p, objs := richCharacter()

	byComparator := newAggregate(p, mutator.OrderingComparator)
	require.NoError(t, Recompute(ctx, byComparator, testutil.NewFakeProvider(objs...), DefaultOptions()))
	byGraph := newAggregate(p, mutator.OrderingGraph)
	require.NoError(t, Recompute(ctx, byGraph, testutil.NewFakeProvider(objs...), DefaultOptions()))

	assert.Empty(t, cmp.Diff(byComparator.Derived, byGraph.Derived))
}

func TestRecompute_Spans(t *testing.T) {
	ctx, _ := testutil.Context(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(ctx) })

	opts := DefaultOptions()
	opts.Tracer = tp.Tracer("test")
	agg := newAggregate(character.Persistent{}, mutator.OrderingComparator)
	require.NoError(t, Recompute(ctx, agg, testutil.NewFakeProvider(), opts))

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		"pipeline.init",
		"pipeline.insertion",
		"pipeline.resolution",
		"pipeline.application",
		"pipeline.indirection",
		"pipeline.Recompute",
	}, names)
}

func slicesIndex(ps []character.Proficiency, category, name string) int {
	for i, p := range ps {
		if p.Category == category && p.Name == name {
			return i
		}
	}
	return -1
}

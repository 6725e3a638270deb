package character

import (
	"cmp"
	"slices"

	"github.com/specialistvlad/charsmith/internal/content"
)

// Bonus is an amount contributed by the rule source at Source.
type Bonus struct {
	Source string `json:"source"`
	Amount int    `json:"amount"`
}

// AbilityScore is a base score plus attributed bonuses.
type AbilityScore struct {
	Base    int     `json:"base"`
	Bonuses []Bonus `json:"bonuses,omitempty"`
}

// Score returns the base plus every bonus.
func (a *AbilityScore) Score() int {
	total := a.Base
	for _, b := range a.Bonuses {
		total += b.Amount
	}
	return total
}

// Modifier returns the ability modifier for the current score.
func (a *AbilityScore) Modifier() int {
	return Modifier(a.Score())
}

// Modifier converts a score into its modifier, rounding down.
func Modifier(score int) int {
	d := score - 10
	if d < 0 {
		return (d - 1) / 2
	}
	return d / 2
}

// Proficiency is a named proficiency and every source granting it.
type Proficiency struct {
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Sources  []string `json:"sources"`
}

// Feature is a titled piece of rules text attributed to a source.
type Feature struct {
	Title  string `json:"title"`
	Text   string `json:"text,omitempty"`
	Source string `json:"source"`
}

// SpellRef is a spell granted by id. Name, Summary and Text are filled in by
// indirect resolution; Resolved stays false until they are.
type SpellRef struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Ability  string `json:"ability,omitempty"`
	Resolved bool   `json:"resolved"`
	Name     string `json:"name,omitempty"`
	Summary  string `json:"summary,omitempty"`
	Text     string `json:"text,omitempty"`
}

// AppliedObject records a rule object folded into the character.
type AppliedObject struct {
	ID              string       `json:"id"`
	Kind            content.Kind `json:"kind"`
	Path            string       `json:"path"`
	AsParentFeature bool         `json:"as_parent_feature,omitempty"`
}

// MissingSelection is a choice the content requires and the user has not made.
type MissingSelection struct {
	Path    string       `json:"path"`
	Kind    content.Kind `json:"kind"`
	Options []string     `json:"options,omitempty"`
	Reason  string       `json:"reason"`
}

// Unresolved marks a referenced object whose effects or text are missing.
type Unresolved struct {
	ID     string       `json:"id"`
	Kind   content.Kind `json:"kind"`
	Path   string       `json:"path"`
	Reason string       `json:"reason"`
}

// Derived is rebuilt from scratch on every structural recompute.
type Derived struct {
	Level             int                      `json:"level"`
	ProficiencyBonus  int                      `json:"proficiency_bonus"`
	Abilities         map[string]*AbilityScore `json:"abilities"`
	Proficiencies     []Proficiency            `json:"proficiencies,omitempty"`
	MaxHitPoints      int                      `json:"max_hit_points"`
	HitPointSources   []Bonus                  `json:"hit_point_sources,omitempty"`
	Speed             int                      `json:"speed"`
	SpeedSources      []Bonus                  `json:"speed_sources,omitempty"`
	Features          []Feature                `json:"features,omitempty"`
	Spells            []SpellRef               `json:"spells,omitempty"`
	Objects           []AppliedObject          `json:"objects,omitempty"`
	MissingSelections []MissingSelection       `json:"missing_selections,omitempty"`
	Unresolved        []Unresolved             `json:"unresolved,omitempty"`
}

// NewDerived returns empty derived data.
func NewDerived() Derived {
	return Derived{Abilities: make(map[string]*AbilityScore, len(Abilities))}
}

// Ability returns the score for name, creating it when absent.
func (d *Derived) Ability(name string) *AbilityScore {
	if d.Abilities == nil {
		d.Abilities = make(map[string]*AbilityScore, len(Abilities))
	}
	a, ok := d.Abilities[name]
	if !ok {
		a = &AbilityScore{}
		d.Abilities[name] = a
	}
	return a
}

// AddProficiency attributes a proficiency to source. Granting the same
// proficiency twice only adds the source.
func (d *Derived) AddProficiency(category, name, source string) {
	for i := range d.Proficiencies {
		p := &d.Proficiencies[i]
		if p.Category == category && p.Name == name {
			if !slices.Contains(p.Sources, source) {
				p.Sources = append(p.Sources, source)
			}
			return
		}
	}
	d.Proficiencies = append(d.Proficiencies, Proficiency{Category: category, Name: name, Sources: []string{source}})
}

// AddHitPoints adds attributed maximum hit points.
func (d *Derived) AddHitPoints(source string, amount int) {
	d.MaxHitPoints += amount
	d.HitPointSources = append(d.HitPointSources, Bonus{Source: source, Amount: amount})
}

// AddSpeed adds attributed walking speed.
func (d *Derived) AddSpeed(source string, amount int) {
	d.Speed += amount
	d.SpeedSources = append(d.SpeedSources, Bonus{Source: source, Amount: amount})
}

// AddSpell grants a spell. A spell granted twice keeps its first source.
func (d *Derived) AddSpell(id, source, ability string) {
	if slices.ContainsFunc(d.Spells, func(s SpellRef) bool { return s.ID == id }) {
		return
	}
	d.Spells = append(d.Spells, SpellRef{ID: id, Source: source, Ability: ability})
}

// ResolveSpells fills in every unresolved spell found in briefs and returns
// how many were filled.
func (d *Derived) ResolveSpells(briefs map[string]content.Brief) int {
	filled := 0
	for i := range d.Spells {
		s := &d.Spells[i]
		if s.Resolved {
			continue
		}
		b, ok := briefs[s.ID]
		if !ok {
			continue
		}
		s.Resolved = true
		s.Name, s.Summary, s.Text = b.Name, b.Summary, b.Text
		filled++
	}
	return filled
}

// Finalize sorts collections whose order has no meaning so that output is
// stable regardless of application order.
func (d *Derived) Finalize() {
	slices.SortStableFunc(d.Proficiencies, func(a, b Proficiency) int {
		return cmp.Or(cmp.Compare(a.Category, b.Category), cmp.Compare(a.Name, b.Name))
	})
}

package character

import (
	"fmt"
	"slices"
)

// Ability names, in sheet order.
var Abilities = []string{"str", "dex", "con", "int", "wis", "cha"}

// DefaultAbilityScore is the base score of an ability the user has not set.
const DefaultAbilityScore = 10

// ClassLevel is one class the character has levels in.
type ClassLevel struct {
	ID    string `json:"id"`
	Level int    `json:"level"`
}

// Item is an inventory entry. Only equipped items contribute rules.
type Item struct {
	ID       string `json:"id"`
	Equipped bool   `json:"equipped"`
}

// Persistent is the data the user edits directly.
type Persistent struct {
	Name       string            `json:"name"`
	Notes      string            `json:"notes,omitempty"`
	Abilities  map[string]int    `json:"abilities,omitempty"`
	Classes    []ClassLevel      `json:"classes,omitempty"`
	Background string            `json:"background,omitempty"`
	Inventory  []Item            `json:"inventory,omitempty"`
	Conditions []string          `json:"conditions,omitempty"`
	Selections map[string]string `json:"selections,omitempty"`
}

// Level is the sum of all class levels.
func (p *Persistent) Level() int {
	total := 0
	for _, c := range p.Classes {
		total += c.Level
	}
	return total
}

// AbilityBase returns the assigned score for name, or DefaultAbilityScore.
func (p *Persistent) AbilityBase(name string) int {
	if v, ok := p.Abilities[name]; ok {
		return v
	}
	return DefaultAbilityScore
}

// Selection returns the user's choice recorded under path.
func (p *Persistent) Selection(path string) (string, bool) {
	v, ok := p.Selections[path]
	return v, ok && v != ""
}

// Validate reports persistent data that can never produce a sheet.
func (p *Persistent) Validate() error {
	for name := range p.Abilities {
		if !slices.Contains(Abilities, name) {
			return fmt.Errorf("unknown ability %q", name)
		}
	}
	for i, c := range p.Classes {
		if c.ID == "" {
			return fmt.Errorf("class %d has no id", i)
		}
		if c.Level < 1 {
			return fmt.Errorf("class %q has level %d, want at least 1", c.ID, c.Level)
		}
	}
	return nil
}

package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/content"
)

// Model is the unified representation of everything loaded from disk.
type Model struct {
	Objects    []*content.Object
	Characters []*Character
}

// Character is a character definition together with where it came from.
type Character struct {
	ID         string
	Source     string
	Persistent character.Persistent
}

// Merge appends other's objects and characters to m.
func (m *Model) Merge(other *Model) {
	if other == nil {
		return
	}
	m.Objects = append(m.Objects, other.Objects...)
	m.Characters = append(m.Characters, other.Characters...)
}

// Character returns the character with the given id. An empty id selects the
// only character in the model.
func (m *Model) Character(id string) (*Character, error) {
	if id == "" {
		switch len(m.Characters) {
		case 0:
			return nil, fmt.Errorf("no character defined")
		case 1:
			return m.Characters[0], nil
		default:
			return nil, fmt.Errorf("%d characters defined (%s); pick one", len(m.Characters), strings.Join(m.CharacterIDs(), ", "))
		}
	}
	for _, c := range m.Characters {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("character %q not defined", id)
}

// CharacterIDs returns the ids of all characters, sorted.
func (m *Model) CharacterIDs() []string {
	ids := make([]string, 0, len(m.Characters))
	for _, c := range m.Characters {
		ids = append(ids, c.ID)
	}
	sort.Strings(ids)
	return ids
}

// KindCounts returns how many objects of each kind the model holds.
func (m *Model) KindCounts() map[content.Kind]int {
	out := make(map[content.Kind]int)
	for _, o := range m.Objects {
		out[o.Kind]++
	}
	return out
}

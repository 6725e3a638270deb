package character

import (
	"fmt"
	"slices"

	"github.com/mitchellh/copystructure"
)

// Edit is a user-initiated change to persistent data.
type Edit struct {
	// Name describes the edit in logs.
	Name string
	// Structural edits require a full recompute. Others only refresh
	// presentation-level derived data.
	Structural bool
	Fn         func(p *Persistent) error
}

// ApplyTo runs the edit against agg and marks it for recompute when the edit
// is structural.
func (e Edit) ApplyTo(agg *Aggregate) error {
	if err := e.Fn(&agg.Persistent); err != nil {
		return fmt.Errorf("edit %s: %w", e.Name, err)
	}
	if e.Structural {
		agg.MarkStructural()
	}
	return nil
}

// Rename changes the character's display name.
func Rename(name string) Edit {
	return Edit{Name: "rename", Fn: func(p *Persistent) error {
		p.Name = name
		return nil
	}}
}

// SetNotes replaces the free-text notes.
func SetNotes(notes string) Edit {
	return Edit{Name: "set_notes", Fn: func(p *Persistent) error {
		p.Notes = notes
		return nil
	}}
}

// SetAbility assigns a base ability score.
func SetAbility(ability string, score int) Edit {
	return Edit{Name: "set_ability", Structural: true, Fn: func(p *Persistent) error {
		if !slices.Contains(Abilities, ability) {
			return fmt.Errorf("unknown ability %q", ability)
		}
		if p.Abilities == nil {
			p.Abilities = make(map[string]int)
		}
		p.Abilities[ability] = score
		return nil
	}}
}

// SetClassLevel sets the level of a class, adding the class when absent and
// removing it when level is zero.
func SetClassLevel(classID string, level int) Edit {
	return Edit{Name: "set_class_level", Structural: true, Fn: func(p *Persistent) error {
		if level < 0 {
			return fmt.Errorf("class %q: negative level %d", classID, level)
		}
		i := slices.IndexFunc(p.Classes, func(c ClassLevel) bool { return c.ID == classID })
		switch {
		case i < 0 && level > 0:
			p.Classes = append(p.Classes, ClassLevel{ID: classID, Level: level})
		case i >= 0 && level == 0:
			p.Classes = slices.Delete(p.Classes, i, i+1)
		case i >= 0:
			p.Classes[i].Level = level
		}
		return nil
	}}
}

// SetBackground replaces the background.
func SetBackground(id string) Edit {
	return Edit{Name: "set_background", Structural: true, Fn: func(p *Persistent) error {
		p.Background = id
		return nil
	}}
}

// Select records the user's choice for the selection at path. An empty value
// clears it.
func Select(path, value string) Edit {
	return Edit{Name: "select", Structural: true, Fn: func(p *Persistent) error {
		if path == "" {
			return fmt.Errorf("selection path cannot be empty")
		}
		if value == "" {
			delete(p.Selections, path)
			return nil
		}
		if p.Selections == nil {
			p.Selections = make(map[string]string)
		}
		p.Selections[path] = value
		return nil
	}}
}

// AddCondition applies a condition. Adding a present condition is a no-op.
func AddCondition(id string) Edit {
	return Edit{Name: "add_condition", Structural: true, Fn: func(p *Persistent) error {
		if !slices.Contains(p.Conditions, id) {
			p.Conditions = append(p.Conditions, id)
		}
		return nil
	}}
}

// RemoveCondition removes a condition.
func RemoveCondition(id string) Edit {
	return Edit{Name: "remove_condition", Structural: true, Fn: func(p *Persistent) error {
		p.Conditions = slices.DeleteFunc(p.Conditions, func(c string) bool { return c == id })
		return nil
	}}
}

// Equip adds an item to the inventory if needed and sets its equipped flag.
func Equip(itemID string, equipped bool) Edit {
	return Edit{Name: "equip", Structural: true, Fn: func(p *Persistent) error {
		i := slices.IndexFunc(p.Inventory, func(it Item) bool { return it.ID == itemID })
		if i < 0 {
			p.Inventory = append(p.Inventory, Item{ID: itemID, Equipped: equipped})
			return nil
		}
		p.Inventory[i].Equipped = equipped
		return nil
	}}
}

// Replace swaps in a whole new persistent record, as when a character file is
// loaded.
func Replace(next Persistent) Edit {
	return Edit{Name: "replace", Structural: true, Fn: func(p *Persistent) error {
		if err := next.Validate(); err != nil {
			return err
		}
		cp, err := copystructure.Copy(next)
		if err != nil {
			return err
		}
		*p = cp.(Persistent)
		return nil
	}}
}

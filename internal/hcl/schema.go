package hcl

import "github.com/hashicorp/hcl/v2"

// rootSchema lists the top-level blocks a file may contain. Blocks are
// extracted with their definition ranges so duplicates can be reported at
// both sites, then their bodies are decoded with gohcl.
var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "object", LabelNames: []string{"kind", "id"}},
		{Type: "character", LabelNames: []string{"id"}},
	},
}

// Object is the HCL schema of an `object` block body.
type Object struct {
	Name     string     `hcl:"name,optional"`
	Summary  string     `hcl:"summary,optional"`
	Text     string     `hcl:"text,optional"`
	Mutators []*Mutator `hcl:"mutator,block"`
}

// Mutator is the HCL schema of a `mutator` block. Args holds every attribute
// not named here.
type Mutator struct {
	Kind      string         `hcl:"kind,label"`
	Name      string         `hcl:"name,optional"`
	DependsOn hcl.Expression `hcl:"depends_on,optional"`
	MinLevel  int            `hcl:"min_level,optional"`
	Args      hcl.Body       `hcl:",remain"`
}

// Character is the HCL schema of a `character` block body.
type Character struct {
	Name       string            `hcl:"name,optional"`
	Notes      string            `hcl:"notes,optional"`
	Abilities  map[string]int    `hcl:"abilities,optional"`
	Classes    []*Class          `hcl:"class,block"`
	Background string            `hcl:"background,optional"`
	Items      []*Item           `hcl:"item,block"`
	Conditions []string          `hcl:"conditions,optional"`
	Selections map[string]string `hcl:"selections,optional"`
}

// Class is a `class` block inside a character. An omitted level means 1.
type Class struct {
	ID    string `hcl:"id,label"`
	Level int    `hcl:"level,optional"`
}

// Item is an `item` block inside a character.
type Item struct {
	ID       string `hcl:"id,label"`
	Equipped bool   `hcl:"equipped,optional"`
}

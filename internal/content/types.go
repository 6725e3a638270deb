package content

import (
	"fmt"
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Kind tags a rule object with the family it belongs to.
type Kind string

const (
	KindClass      Kind = "class"
	KindBackground Kind = "background"
	KindCondition  Kind = "condition"
	KindBundle     Kind = "bundle"
	KindItem       Kind = "item"
	KindSpell      Kind = "spell"
	KindFeat       Kind = "feat"
)

// Kinds lists every known kind in a stable order.
var Kinds = []Kind{KindClass, KindBackground, KindCondition, KindBundle, KindItem, KindSpell, KindFeat}

// ParseKind validates a kind name.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if !slices.Contains(Kinds, k) {
		return "", fmt.Errorf("unknown object kind %q", raw)
	}
	return k, nil
}

// Object is a single authored rule object.
type Object struct {
	ID       string
	Kind     Kind
	Name     string
	Summary  string
	Text     string
	Mutators []MutatorSpec
}

// Brief returns the materialized form used for indirect references.
func (o *Object) Brief() Brief {
	return Brief{ID: o.ID, Kind: o.Kind, Name: o.Name, Summary: o.Summary, Text: o.Text}
}

// MutatorSpec is a mutator as authored inside an object. Kind selects the
// registered implementation and Args carries its kind-specific attributes.
type MutatorSpec struct {
	// Name identifies the mutator for dependency ordering. Authors may leave it
	// empty, in which case the kind is used.
	Name string
	Kind string
	// DependsOn is nil when the mutator declares no prerequisites.
	DependsOn []string
	// MinLevel skips the mutator when the character level is lower.
	MinLevel int
	// Args is an object value, or cty.NilVal when the mutator has none.
	Args cty.Value
}

// NodeID returns the identifier used to order the mutator.
func (m MutatorSpec) NodeID() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Kind
}

// Brief is the value returned when an indirect reference is materialized.
type Brief struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Name    string `json:"name"`
	Summary string `json:"summary,omitempty"`
	Text    string `json:"text,omitempty"`
}

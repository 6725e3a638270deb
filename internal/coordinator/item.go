package coordinator

import (
	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/content"
)

// Item is a result discovered outside the recompute pipeline.
type Item interface {
	// Key identifies the item in logs.
	Key() string
	// MergeInto folds the item into a working aggregate.
	MergeInto(agg *character.Aggregate)
}

// SpellText carries the full text of a spell resolved after the fact.
type SpellText struct {
	ID      string
	Name    string
	Summary string
	Text    string
}

func (s SpellText) Key() string { return string(content.KindSpell) + "/" + s.ID }

func (s SpellText) MergeInto(agg *character.Aggregate) {
	agg.Lookups[s.ID] = content.Brief{
		ID:      s.ID,
		Kind:    content.KindSpell,
		Name:    s.Name,
		Summary: s.Summary,
		Text:    s.Text,
	}
	delete(agg.FailedLookups, s.ID)
}

// Lookup carries any indirect reference returned by a content provider.
type Lookup struct {
	Brief content.Brief
}

func (l Lookup) Key() string { return string(l.Brief.Kind) + "/" + l.Brief.ID }

func (l Lookup) MergeInto(agg *character.Aggregate) {
	agg.Lookups[l.Brief.ID] = l.Brief
	delete(agg.FailedLookups, l.Brief.ID)
}

// LookupFailed records that an indirect reference could not be resolved so
// it is marked instead of being retried on every publish.
type LookupFailed struct {
	ID     string
	Reason string
}

func (l LookupFailed) Key() string { return "failed/" + l.ID }

func (l LookupFailed) MergeInto(agg *character.Aggregate) {
	agg.FailedLookups[l.ID] = l.Reason
}

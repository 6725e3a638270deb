package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mitchellh/go-wordwrap"
	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/rulepath"
	"github.com/xlab/treeprint"
)

const wrapWidth = 72

// sheet is the JSON form of a published character.
type sheet struct {
	ID        string               `json:"id"`
	Character character.Persistent `json:"character"`
	Derived   character.Derived    `json:"derived"`
}

func render(w io.Writer, agg *character.Aggregate, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sheet{ID: agg.ID, Character: agg.Persistent, Derived: agg.Derived})
	}
	return renderText(w, agg)
}

func renderText(w io.Writer, agg *character.Aggregate) error {
	var b strings.Builder
	p, d := agg.Persistent, agg.Derived

	fmt.Fprintf(&b, "%s (%s), level %d\n", p.Name, agg.ID, d.Level)
	fmt.Fprintf(&b, "Proficiency bonus %+d   Max HP %d   Speed %d\n", d.ProficiencyBonus, d.MaxHitPoints, d.Speed)

	b.WriteString("\n")
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ABILITY\tSCORE\tMOD\tBONUSES")
	for _, name := range character.Abilities {
		score, ok := d.Abilities[name]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%+d\t%s\n", name, score.Score(), score.Modifier(), bonuses(score.Bonuses))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(d.Proficiencies) > 0 {
		b.WriteString("\nProficiencies\n")
		for _, pr := range d.Proficiencies {
			fmt.Fprintf(&b, "  %s: %s (%s)\n", pr.Category, pr.Name, strings.Join(pr.Sources, ", "))
		}
	}

	if len(d.Features) > 0 {
		b.WriteString("\nFeatures\n")
		for _, f := range d.Features {
			fmt.Fprintf(&b, "  %s [%s]\n", f.Title, f.Source)
			writeWrapped(&b, f.Text)
		}
	}

	if len(d.Spells) > 0 {
		b.WriteString("\nSpells\n")
		for _, s := range d.Spells {
			name := s.Name
			if !s.Resolved {
				name = s.ID + " (unresolved)"
			}
			ability := ""
			if s.Ability != "" {
				ability = ", " + s.Ability
			}
			fmt.Fprintf(&b, "  %s [%s%s]\n", name, s.Source, ability)
			writeWrapped(&b, s.Text)
		}
	}

	if len(d.Objects) > 0 {
		b.WriteString("\nRule objects\n")
		b.WriteString(objectTree(d.Objects).String())
	}

	if len(d.MissingSelections) > 0 {
		b.WriteString("\nMissing selections\n")
		for _, m := range d.MissingSelections {
			fmt.Fprintf(&b, "  %s (%s): %s", m.Path, m.Kind, m.Reason)
			if len(m.Options) > 0 {
				fmt.Fprintf(&b, "; options: %s", strings.Join(m.Options, ", "))
			}
			b.WriteString("\n")
		}
	}

	if len(d.Unresolved) > 0 {
		b.WriteString("\nUnresolved\n")
		for _, u := range d.Unresolved {
			fmt.Fprintf(&b, "  %s (%s) at %s: %s\n", u.ID, u.Kind, u.Path, u.Reason)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func bonuses(bs []character.Bonus) string {
	parts := make([]string, 0, len(bs))
	for _, bonus := range bs {
		parts = append(parts, fmt.Sprintf("%+d %s", bonus.Amount, bonus.Source))
	}
	return strings.Join(parts, ", ")
}

func writeWrapped(b *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, line := range strings.Split(wordwrap.WrapString(text, wrapWidth), "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteString("\n")
	}
}

// objectNode is one path segment of the applied-object tree.
type objectNode struct {
	label    string
	objects  []character.AppliedObject
	children []*objectNode
	index    map[string]*objectNode
}

func (n *objectNode) child(label string) *objectNode {
	if c, ok := n.index[label]; ok {
		return c
	}
	c := &objectNode{label: label, index: make(map[string]*objectNode)}
	n.index[label] = c
	n.children = append(n.children, c)
	return c
}

// objectTree groups applied objects by the segments of their paths, keeping
// the order in which they were applied.
func objectTree(objs []character.AppliedObject) treeprint.Tree {
	root := &objectNode{index: make(map[string]*objectNode)}
	for _, o := range objs {
		node := root
		if path, err := rulepath.Parse(o.Path); err == nil {
			for _, seg := range path.Segments() {
				node = node.child(seg.String())
			}
		} else {
			node = node.child(o.Path)
		}
		node.objects = append(node.objects, o)
	}

	tree := treeprint.New()
	var emit func(t treeprint.Tree, n *objectNode)
	emit = func(t treeprint.Tree, n *objectNode) {
		for _, o := range n.objects {
			label := o.ID
			if o.AsParentFeature && o.Kind == content.KindBundle {
				label += " (merged into parent)"
			}
			t.AddMetaNode(o.Kind, label)
		}
		for _, c := range n.children {
			emit(t.AddBranch(c.label), c)
		}
	}
	emit(tree, root)
	return tree
}

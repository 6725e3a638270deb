// This file contains the logic for translating decoded HCL blocks into the
// format-agnostic model defined in the config package.

package hcl

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/config"
	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// translateObject converts an `object` block into a rule object. It returns
// nil when the block is unusable.
func (l *Loader) translateObject(ctx context.Context, blk *hcl.Block) (*content.Object, hcl.Diagnostics) {
	logger := ctxlog.FromContext(ctx).With("object_kind", blk.Labels[0], "object_id", blk.Labels[1])
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL object to internal model.")

	var diags hcl.Diagnostics
	kind, err := content.ParseKind(blk.Labels[0])
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid object kind",
			Detail:   fmt.Sprintf("%s. Valid kinds are: %s.", capitalize(err.Error()), kindList()),
			Subject:  blk.LabelRanges[0].Ptr(),
		})
	}
	id := strings.TrimSpace(blk.Labels[1])
	if id == "" {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing object id",
			Detail:   "An object needs a non-empty id label.",
			Subject:  blk.LabelRanges[1].Ptr(),
		})
	}

	var body Object
	diags = append(diags, gohcl.DecodeBody(blk.Body, nil, &body)...)
	if diags.HasErrors() {
		return nil, diags
	}

	obj := &content.Object{ID: id, Kind: kind, Name: body.Name, Summary: body.Summary, Text: body.Text}
	if obj.Name == "" {
		obj.Name = id
	}
	for _, m := range body.Mutators {
		spec, mDiags := l.translateMutator(ctx, m)
		diags = append(diags, mDiags...)
		obj.Mutators = append(obj.Mutators, spec)
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return obj, diags
}

// translateMutator converts a `mutator` block. Its leftover attributes are
// evaluated without variables or functions into an object value.
func (l *Loader) translateMutator(ctx context.Context, m *Mutator) (content.MutatorSpec, hcl.Diagnostics) {
	spec := content.MutatorSpec{Name: m.Name, Kind: m.Kind, MinLevel: m.MinLevel}

	var diags hcl.Diagnostics
	if isExprDefined(ctx, m.DependsOn, "depends_on") {
		names, d := dependencyNames(m.DependsOn)
		diags = append(diags, d...)
		spec.DependsOn = names
	}
	if m.MinLevel < 0 {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid min_level",
			Detail:   fmt.Sprintf("min_level must not be negative, got %d.", m.MinLevel),
		})
	}

	attrs, d := m.Args.JustAttributes()
	diags = append(diags, d...)
	vals := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		v, d := attr.Expr.Value(nil)
		diags = append(diags, d...)
		vals[name] = v
	}
	spec.Args = cty.ObjectVal(vals)
	return spec, diags
}

// dependencyNames reads a depends_on list whose elements are either bare
// names or strings. The result is never nil, so an empty list stays distinct
// from an omitted attribute.
func dependencyNames(expr hcl.Expression) ([]string, hcl.Diagnostics) {
	exprs, diags := hcl.ExprList(expr)
	names := make([]string, 0, len(exprs))
	for _, e := range exprs {
		if kw := hcl.ExprAsKeyword(e); kw != "" {
			names = append(names, kw)
			continue
		}
		var s string
		if d := gohcl.DecodeExpression(e, nil, &s); d.HasErrors() {
			diags = append(diags, d...)
			continue
		}
		names = append(names, s)
	}
	return names, diags
}

// translateCharacter converts a `character` block into persistent data.
func (l *Loader) translateCharacter(ctx context.Context, blk *hcl.Block, source string) (*config.Character, hcl.Diagnostics) {
	id := strings.TrimSpace(blk.Labels[0])
	ctxlog.FromContext(ctx).Debug("Translating HCL character to internal model.", "character", id)

	var body Character
	diags := gohcl.DecodeBody(blk.Body, nil, &body)
	if diags.HasErrors() {
		return nil, diags
	}

	p := character.Persistent{
		Name:       body.Name,
		Notes:      body.Notes,
		Abilities:  body.Abilities,
		Background: body.Background,
		Conditions: body.Conditions,
		Selections: body.Selections,
	}
	if p.Name == "" {
		p.Name = id
	}
	for _, c := range body.Classes {
		level := c.Level
		if level == 0 {
			level = 1
		}
		p.Classes = append(p.Classes, character.ClassLevel{ID: c.ID, Level: level})
	}
	for _, it := range body.Items {
		p.Inventory = append(p.Inventory, character.Item{ID: it.ID, Equipped: it.Equipped})
	}

	if id == "" {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing character id",
			Detail:   "A character needs a non-empty id label.",
			Subject:  blk.LabelRanges[0].Ptr(),
		})
	}
	if err := p.Validate(); err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid character",
			Detail:   capitalize(err.Error()) + ".",
			Subject:  blk.DefRange.Ptr(),
		})
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return &config.Character{ID: id, Source: source, Persistent: p}, diags
}

func kindList() string {
	names := make([]string, len(content.Kinds))
	for i, k := range content.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

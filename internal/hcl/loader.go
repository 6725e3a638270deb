package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/charsmith/internal/config"
	"github.com/specialistvlad/charsmith/internal/ctxlog"
	"github.com/specialistvlad/charsmith/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// loadState accumulates one Load call. Definition sites are remembered so a
// duplicate can point at the first definition.
type loadState struct {
	model      *config.Model
	objects    map[string]hcl.Range
	characters map[string]hcl.Range
}

func newLoadState() *loadState {
	return &loadState{
		model:      &config.Model{},
		objects:    make(map[string]hcl.Range),
		characters: make(map[string]hcl.Range),
	}
}

// Load parses every .hcl file reachable from paths. Directories are searched
// recursively. Object and character ids must be unique across all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindFiles(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	st := newLoadState()
	for _, name := range files {
		file, diags := parser.ParseHCLFile(name)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", name, diags)
		}
		if err := l.decodeFile(ctx, name, file.Body, st); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.", "objects", len(st.model.Objects), "characters", len(st.model.Characters))
	return st.model, nil
}

// Parse decodes a single in-memory HCL source. filename is only used in
// diagnostics.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}
	st := newLoadState()
	if err := l.decodeFile(ctx, filename, file.Body, st); err != nil {
		return nil, err
	}
	return st.model, nil
}

func (l *Loader) decodeFile(ctx context.Context, name string, body hcl.Body, st *loadState) error {
	content, diags := body.Content(rootSchema)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", name, diags)
	}

	for _, blk := range content.Blocks {
		switch blk.Type {
		case "object":
			obj, objDiags := l.translateObject(ctx, blk)
			diags = append(diags, objDiags...)
			if obj == nil {
				continue
			}
			if prev, ok := st.objects[obj.ID]; ok {
				diags = append(diags, duplicate("object", obj.ID, prev, blk.DefRange))
				continue
			}
			st.objects[obj.ID] = blk.DefRange
			st.model.Objects = append(st.model.Objects, obj)

		case "character":
			c, charDiags := l.translateCharacter(ctx, blk, name)
			diags = append(diags, charDiags...)
			if c == nil {
				continue
			}
			if prev, ok := st.characters[c.ID]; ok {
				diags = append(diags, duplicate("character", c.ID, prev, blk.DefRange))
				continue
			}
			st.characters[c.ID] = blk.DefRange
			st.model.Characters = append(st.model.Characters, c)
		}
	}

	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", name, diags)
	}
	return nil
}

func duplicate(what, id string, prev, at hcl.Range) *hcl.Diagnostic {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  fmt.Sprintf("Duplicate %s", what),
		Detail:   fmt.Sprintf("The %s %q was already defined at %s.", what, id, prev.String()),
		Subject:  at.Ptr(),
	}
}

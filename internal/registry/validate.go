package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/charsmith/internal/content"
	"github.com/specialistvlad/charsmith/internal/ctxlog"
)

// Validate compiles every mutator of every object once, so authoring mistakes
// surface at load time instead of as skipped mutators during a recompute.
func (r *Registry) Validate(ctx context.Context, objs []*content.Object) error {
	logger := ctxlog.FromContext(ctx)

	var errs []error
	checked := 0
	for _, o := range objs {
		for i, spec := range o.Mutators {
			checked++
			if _, err := r.Build(spec); err != nil {
				errs = append(errs, fmt.Errorf("%s %q mutator #%d: %w", o.Kind, o.ID, i, err))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("content validation failed: %w", errors.Join(errs...))
	}
	logger.Debug("Content validation passed.", "objects", len(objs), "mutators", checked)
	return nil
}

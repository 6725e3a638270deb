package mutator

import (
	"context"

	"github.com/specialistvlad/charsmith/internal/rulepath"
)

// ApplyFunc is the effect of a mutator. It is invoked exactly once, by Drain.
type ApplyFunc func(ctx context.Context)

// Entry pairs a mutator with its declared name, dependency set and the path
// under which it was discovered.
type Entry struct {
	NodeID     string
	ParentPath rulepath.Path
	Deps       Deps
	Apply      ApplyFunc
}

// String renders the entry as `id@path` for logs and errors.
func (e Entry) String() string {
	return e.NodeID + "@" + e.ParentPath.String()
}

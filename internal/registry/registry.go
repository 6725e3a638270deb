package registry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/specialistvlad/charsmith/internal/character"
	"github.com/specialistvlad/charsmith/internal/content"
)

// Module is the interface that all mutator modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// kind holds the compiled Go parts of one mutator kind.
type kind struct {
	newArgs func() any
	build   func(args any) (character.Mutator, error)
}

// Registry holds every registered mutator kind for a single application
// instance. It is populated at startup and read-only afterwards.
type Registry struct {
	kinds map[string]*kind
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{kinds: make(map[string]*kind)}
}

// NewWith creates a Registry and registers every module.
func NewWith(modules ...Module) *Registry {
	r := New()
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register adds a mutator kind whose arguments decode into A. Fields of A are
// bound with `mutator:"name"` tags; `mutator:"name,required"` makes an
// argument mandatory.
func Register[A any](r *Registry, name string, build func(args A) (character.Mutator, error)) {
	if _, exists := r.kinds[name]; exists {
		panic(fmt.Sprintf("mutator kind '%s' already registered", name))
	}
	slog.Debug("Registering mutator kind.", "kind", name)
	r.kinds[name] = &kind{
		newArgs: func() any { return new(A) },
		build: func(args any) (character.Mutator, error) {
			return build(*args.(*A))
		},
	}
}

// Kinds returns the registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	return slices.Sorted(maps.Keys(r.kinds))
}

// Build implements character.Builder.
func (r *Registry) Build(spec content.MutatorSpec) (character.Mutator, error) {
	k, ok := r.kinds[spec.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown mutator kind %q", spec.Kind)
	}
	args := k.newArgs()
	if err := decodeArgs(spec.Args, args); err != nil {
		return nil, fmt.Errorf("mutator %q (%s): %w", spec.NodeID(), spec.Kind, err)
	}
	return k.build(args)
}

var _ character.Builder = (*Registry)(nil)

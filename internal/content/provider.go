package content

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped when a provider has no object with the requested id.
	ErrNotFound = errors.New("content object not found")
	// ErrStore is wrapped when the backing store fails.
	ErrStore = errors.New("content store failure")
)

// NotFound returns an error wrapping ErrNotFound for the given object.
func NotFound(id string, kind Kind) error {
	if kind == "" {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

// Provider fetches rule objects from an external store.
//
// Implementations must be safe for concurrent use by multiple goroutines
// fetching distinct identifiers. No ordering is guaranteed across calls.
type Provider interface {
	// FetchObject returns the object with the given id. A kind mismatch is
	// reported as not found.
	FetchObject(ctx context.Context, id string, kind Kind) (*Object, error)
	// FetchIndirect materializes an object named only by its id.
	FetchIndirect(ctx context.Context, id string) (Brief, error)
}

// Store is a Provider that can also be written to.
type Store interface {
	Provider
	// Put inserts or replaces objects.
	Put(ctx context.Context, objs ...*Object) error
}

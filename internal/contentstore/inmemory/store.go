package inmemory

import (
	"context"
	"sync"

	"github.com/specialistvlad/charsmith/internal/content"
)

// Store is an in-memory implementation of content.Store.
type Store struct {
	objects sync.Map // Key: object id, Value: *content.Object
}

// New creates a new, empty in-memory content store.
func New() *Store {
	return &Store{}
}

// Put inserts or replaces objects by id.
func (s *Store) Put(ctx context.Context, objs ...*content.Object) error {
	for _, o := range objs {
		s.objects.Store(o.ID, o)
	}
	return nil
}

// FetchObject returns the object with the given id and kind.
func (s *Store) FetchObject(ctx context.Context, id string, kind content.Kind) (*content.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := s.objects.Load(id)
	if !ok {
		return nil, content.NotFound(id, kind)
	}
	obj := v.(*content.Object)
	if obj.Kind != kind {
		return nil, content.NotFound(id, kind)
	}
	return obj, nil
}

// FetchIndirect returns the brief of the object with the given id,
// whatever its kind.
func (s *Store) FetchIndirect(ctx context.Context, id string) (content.Brief, error) {
	if err := ctx.Err(); err != nil {
		return content.Brief{}, err
	}
	v, ok := s.objects.Load(id)
	if !ok {
		return content.Brief{}, content.NotFound(id, "")
	}
	return v.(*content.Object).Brief(), nil
}

// Len returns the number of stored objects.
func (s *Store) Len() int {
	n := 0
	s.objects.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

package testutil

import (
	"context"
	"sync"

	"github.com/specialistvlad/charsmith/internal/content"
)

// FakeProvider is an in-memory content.Provider that records every fetch and
// can hold fetches until a test releases them.
type FakeProvider struct {
	mu       sync.Mutex
	objects  map[string]*content.Object
	failures map[string]error
	fetches  map[string]int
	indirect map[string]int
	gate     chan struct{}
	entered  chan string
}

// NewFakeProvider returns a provider serving objs.
func NewFakeProvider(objs ...*content.Object) *FakeProvider {
	p := &FakeProvider{
		objects:  make(map[string]*content.Object),
		failures: make(map[string]error),
		fetches:  make(map[string]int),
		indirect: make(map[string]int),
	}
	p.Add(objs...)
	return p
}

// Add makes objs available, replacing any with the same id.
func (p *FakeProvider) Add(objs ...*content.Object) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range objs {
		p.objects[o.ID] = o
	}
}

// Fail makes every fetch of id return err.
func (p *FakeProvider) Fail(id string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[id] = err
}

// Block holds every subsequent fetch until release is called. The returned
// channel receives the id of each fetch as it starts waiting.
func (p *FakeProvider) Block() (release func(), entered <-chan string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	gate := make(chan struct{})
	p.gate = gate
	p.entered = make(chan string, 256)
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			p.gate = nil
			p.mu.Unlock()
			close(gate)
		})
	}, p.entered
}

// Fetches returns how many times FetchObject was called for id.
func (p *FakeProvider) Fetches(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fetches[id]
}

// IndirectFetches returns how many times FetchIndirect was called for id.
func (p *FakeProvider) IndirectFetches(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.indirect[id]
}

// TotalFetches returns the number of FetchObject calls across all ids.
func (p *FakeProvider) TotalFetches() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.fetches {
		total += n
	}
	return total
}

// FetchObject implements content.Provider.
func (p *FakeProvider) FetchObject(ctx context.Context, id string, kind content.Kind) (*content.Object, error) {
	p.mu.Lock()
	p.fetches[id]++
	p.mu.Unlock()

	obj, err := p.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if obj.Kind != kind {
		return nil, content.NotFound(id, kind)
	}
	return obj, nil
}

// FetchIndirect implements content.Provider.
func (p *FakeProvider) FetchIndirect(ctx context.Context, id string) (content.Brief, error) {
	p.mu.Lock()
	p.indirect[id]++
	p.mu.Unlock()

	obj, err := p.lookup(ctx, id)
	if err != nil {
		return content.Brief{}, err
	}
	return obj.Brief(), nil
}

func (p *FakeProvider) lookup(ctx context.Context, id string) (*content.Object, error) {
	p.mu.Lock()
	gate, entered := p.gate, p.entered
	p.mu.Unlock()

	if gate != nil {
		select {
		case entered <- id:
		default:
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.failures[id]; ok {
		return nil, err
	}
	obj, ok := p.objects[id]
	if !ok {
		return nil, content.NotFound(id, "")
	}
	return obj, nil
}

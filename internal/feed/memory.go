// internal/feed/memory.go
package feed

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus for tests and single-node runs without
// redis. Delivery is synchronous with Publish.
type MemoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]*memorySub
}

type memorySub struct {
	id     int
	bus    *MemoryBus
	table  string
	filter Filter
	mask   Mask
	fn     func(Event)
}

// NewMemoryBus returns an empty in-process bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[int]*memorySub)}
}

func (b *MemoryBus) Publish(ctx context.Context, e Event) error {
	b.mu.Lock()
	var matched []*memorySub
	for _, s := range b.subs {
		if s.table == e.Table && s.mask.Has(e.Kind) && s.filter.Matches(e) {
			matched = append(matched, s)
		}
	}
	b.mu.Unlock()

	// Callbacks run outside the lock so they may Subscribe/Unsubscribe.
	for _, s := range matched {
		s.fn(e)
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, table string, filter Filter, mask Mask, fn func(Event)) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	s := &memorySub{id: b.nextID, bus: b, table: table, filter: filter, mask: mask, fn: fn}
	b.subs[s.id] = s
	return s, nil
}

func (s *memorySub) Unsubscribe() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.subs, s.id)
}

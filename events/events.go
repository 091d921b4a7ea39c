// Package events provides the in-process channel collection operations
// publish their lifecycle events on.
package events

import (
	"context"
	"sync"
)

// Event describes one collection operation.
type Event struct {
	// Collection is the name of the collection the operation ran on.
	Collection string
	// Name is the operation name, e.g. "insert" or "restore".
	Name string
	// Payload carries operation specific values.
	Payload map[string]any
}

// Handler receives published events. An error returned by a handler is
// propagated to the publishing operation as its own failure.
type Handler func(ctx context.Context, e Event) error

// Wildcard subscribes a handler to every event name.
const Wildcard = "*"

type subscription struct {
	id int
	fn Handler
}

// Bus delivers events to subscribers synchronously in subscription order.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]subscription
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// Subscribe registers a handler for the given event name and returns a
// function that removes the subscription.
func (b *Bus) Subscribe(name string, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[name]
		for i, s := range subs {
			if s.id == id {
				b.subs[name] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers the event to every matching subscriber and waits for
// each to finish. The first handler error stops delivery and is returned.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	b.mu.Lock()
	subs := make([]subscription, 0, len(b.subs[e.Name])+len(b.subs[Wildcard]))
	subs = append(subs, b.subs[e.Name]...)
	subs = append(subs, b.subs[Wildcard]...)
	b.mu.Unlock()

	for _, s := range subs {
		if err := s.fn(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

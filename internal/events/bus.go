package events

import (
	"log"
	"sync"
)

// Bus fans out events to dynamically registered subscribers. Broadcast walks
// a snapshot of the subscriber set, so handlers may unsubscribe (or new ones
// subscribe) mid-delivery without corrupting iteration. A panicking handler
// is isolated and logged; it never blocks delivery to the others.
type Bus[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(T)
}

func NewBus[T any]() *Bus[T] {
	return &Bus[T]{subs: make(map[int]func(T))}
}

// Subscribe registers a handler and returns its unsubscribe function.
// Unsubscribing twice is harmless.
func (b *Bus[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Bus[T]) Publish(evt T) {
	b.mu.Lock()
	snapshot := make([]func(T), 0, len(b.subs))
	for _, fn := range b.subs {
		snapshot = append(snapshot, fn)
	}
	b.mu.Unlock()

	for _, fn := range snapshot {
		deliver(fn, evt)
	}
}

func (b *Bus[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func deliver[T any](fn func(T), evt T) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("event subscriber panic: %v", r)
		}
	}()
	fn(evt)
}

// Package events carries process-wide signals between the HTTP client and
// the session manager without a package-level global.
package events

import "sync"

// Unauthorized is published when the backend rejects the current credential
// and when the user signs out. It carries no payload.
type Unauthorized struct{}

// Topic is a typed publish/subscribe channel. Delivery is synchronous and
// follows subscription order.
type Topic[T any] struct {
	mu     sync.Mutex
	nextID int
	order  []int
	subs   map[int]func(T)
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is harmless.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.subs == nil {
		t.subs = make(map[int]func(T))
	}
	id := t.nextID
	t.nextID++
	t.subs[id] = fn
	t.order = append(t.order, id)

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()

		if _, ok := t.subs[id]; !ok {
			return
		}
		delete(t.subs, id)
		for i, v := range t.order {
			if v == id {
				t.order = append(t.order[:i], t.order[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers v to every current subscriber. Subscribers may subscribe,
// unsubscribe or publish from inside their callback.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	fns := make([]func(T), 0, len(t.order))
	for _, id := range t.order {
		fns = append(fns, t.subs[id])
	}
	t.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Bus groups the topics shared by one client process.
type Bus struct {
	Unauthorized Topic[Unauthorized]
}

// NewBus creates a Bus with no subscribers.
func NewBus() *Bus {
	return &Bus{}
}

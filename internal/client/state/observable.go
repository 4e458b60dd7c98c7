// Package state provides a minimal observable value holder used by the
// session manager and the cart store. It is independent of any UI layer.
package state

import "sync"

// Observable holds a value of type T and notifies subscribers after every
// change. Notifications run synchronously on the mutating goroutine, before
// Set or Update return, outside the internal lock.
type Observable[T any] struct {
	mu     sync.RWMutex
	value  T
	nextID int
	order  []int
	subs   map[int]func(T)
}

// New creates an Observable holding initial.
func New[T any](initial T) *Observable[T] {
	return &Observable[T]{value: initial, subs: make(map[int]func(T))}
}

// Get returns the current value.
func (o *Observable[T]) Get() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Set replaces the value and notifies subscribers.
func (o *Observable[T]) Set(v T) {
	o.Update(func(T) T { return v })
}

// Update applies fn to the current value atomically and notifies
// subscribers with the result.
func (o *Observable[T]) Update(fn func(T) T) {
	o.mu.Lock()
	o.value = fn(o.value)
	v := o.value
	fns := make([]func(T), 0, len(o.order))
	for _, id := range o.order {
		fns = append(fns, o.subs[id])
	}
	o.mu.Unlock()

	for _, sub := range fns {
		sub(v)
	}
}

// Subscribe registers fn for future changes and returns a function that
// removes it.
func (o *Observable[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.order = append(o.order, id)

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()

		if _, ok := o.subs[id]; !ok {
			return
		}
		delete(o.subs, id)
		for i, v := range o.order {
			if v == id {
				o.order = append(o.order[:i], o.order[i+1:]...)
				break
			}
		}
	}
}

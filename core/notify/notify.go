package notify

import "sync"

// Registry is a minimal observer list. Subscribers are invoked synchronously,
// in subscription order, on the goroutine that calls Publish; they must not
// assume a particular thread and must not block for long.
type Registry[T any] struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(T)
}

// NewRegistry creates an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{subs: make(map[int]func(T))}
}

// Subscribe registers fn and returns a function that removes the
// subscription. Unsubscribing twice is harmless.
func (r *Registry[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.next
	r.next++
	r.subs[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}
}

// Publish delivers the event to every current subscriber.
func (r *Registry[T]) Publish(event T) {
	r.mu.RLock()
	fns := make([]func(T), 0, len(r.subs))
	for id := 0; id < r.next; id++ {
		if fn, ok := r.subs[id]; ok {
			fns = append(fns, fn)
		}
	}
	r.mu.RUnlock()

	for _, fn := range fns {
		fn(event)
	}
}

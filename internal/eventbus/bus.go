package eventbus

import (
	"fmt"
	"sync"
)

// Handler receives one published event.
type Handler[E any] func(E)

// PanicHandler is told about a handler that panicked during Publish.
type PanicHandler[K comparable] func(kind K, recovered any)

// Option configures a Bus.
type Option[K comparable] func(*options[K])

type options[K comparable] struct {
	onPanic PanicHandler[K]
}

// WithRecover installs a hook called with the value recovered from a
// panicking handler. Without it panics are still contained.
func WithRecover[K comparable](fn PanicHandler[K]) Option[K] {
	return func(o *options[K]) { o.onPanic = fn }
}

// Bus is a synchronous, ordered publish/subscribe hub keyed by event kind.
//
// Contract:
//   - Publish calls every handler for the kind, in subscription order, on
//     the caller's goroutine, and returns only after the last one.
//   - A panicking handler is recovered; the rest still run.
//   - Subscribing or unsubscribing during a Publish does not change the set
//     of handlers that Publish calls.
//
// The zero value is not usable; call New.
type Bus[K comparable, E any] struct {
	mu      sync.Mutex
	subs    map[K][]subscription[E]
	seq     uint64
	onPanic PanicHandler[K]
}

type subscription[E any] struct {
	id uint64
	fn Handler[E]
}

// New returns an empty Bus.
func New[K comparable, E any](opts ...Option[K]) *Bus[K, E] {
	var o options[K]
	for _, opt := range opts {
		opt(&o)
	}
	return &Bus[K, E]{subs: map[K][]subscription[E]{}, onPanic: o.onPanic}
}

// Subscribe registers fn for kind and returns a func that removes it.
// The returned func is idempotent.
func (b *Bus[K, E]) Subscribe(kind K, fn Handler[E]) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	b.mu.Lock()
	b.seq++
	id := b.seq
	// Copy on write: a Publish holding the old slice keeps its snapshot.
	cur := b.subs[kind]
	next := make([]subscription[E], len(cur), len(cur)+1)
	copy(next, cur)
	b.subs[kind] = append(next, subscription[E]{id: id, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(kind, id) })
	}
}

func (b *Bus[K, E]) remove(kind K, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := b.subs[kind]
	next := make([]subscription[E], 0, len(cur))
	for _, s := range cur {
		if s.id != id {
			next = append(next, s)
		}
	}
	if len(next) == 0 {
		delete(b.subs, kind)
		return
	}
	b.subs[kind] = next
}

// Publish delivers e to every handler subscribed to kind.
func (b *Bus[K, E]) Publish(kind K, e E) {
	b.mu.Lock()
	handlers := b.subs[kind]
	b.mu.Unlock()

	for _, s := range handlers {
		b.call(kind, s.fn, e)
	}
}

// Count reports how many handlers are subscribed to kind.
func (b *Bus[K, E]) Count(kind K) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[kind])
}

func (b *Bus[K, E]) call(kind K, fn Handler[E], e E) {
	defer func() {
		if r := recover(); r != nil && b.onPanic != nil {
			b.onPanic(kind, r)
		}
	}()
	fn(e)
}

// PanicError turns a recovered value into an error.
func PanicError(recovered any) error {
	if err, ok := recovered.(error); ok {
		return fmt.Errorf("handler panic: %w", err)
	}
	return fmt.Errorf("handler panic: %v", recovered)
}

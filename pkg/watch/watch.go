package watch

import (
	"context"
	"sync"
)

// Value is a single-writer, multi-reader broadcast cell. Readers always
// observe the latest published value and never block the writer: each
// subscriber channel holds at most one pending value, and a newer Set
// replaces whatever the subscriber has not consumed yet.
type Value[T any] struct {
	mu   sync.Mutex
	cur  T
	subs map[int]chan T
	next int
}

// New creates a Value holding the given initial state
func New[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[int]chan T),
	}
}

// Get returns the most recently published value
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set publishes a new value to all subscribers without blocking
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cur = val

	for _, ch := range v.subs {
		// Drop the stale pending value, then push the fresh one
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- val:
		default:
		}
	}
}

// Watch subscribes to value updates. The returned channel is primed with
// the current value and closed when ctx is cancelled.
func (v *Value[T]) Watch(ctx context.Context) <-chan T {
	v.mu.Lock()

	ch := make(chan T, 1)
	id := v.next
	v.next++
	v.subs[id] = ch
	ch <- v.cur

	v.mu.Unlock()

	go func() {
		<-ctx.Done()

		v.mu.Lock()
		delete(v.subs, id)
		close(ch)
		v.mu.Unlock()
	}()

	return ch
}

package notify

import (
	"context"
	"sync"
)

// Notifier broadcasts "the message table changed" signals from store
// mutations to live watchers. Signals carry no payload: subscribers are
// expected to re-read the store.
type Notifier interface {
	Publish(ctx context.Context) error
	Subscribe(ctx context.Context) <-chan struct{}
}

// Local is an in-process Notifier for single-binary deployments.
// Signals are coalesced: a subscriber that has not consumed the previous
// signal will not queue up more of them.
type Local struct {
	mu   sync.Mutex
	subs map[int]chan struct{}
	next int
}

func NewLocal() *Local {
	return &Local{
		subs: make(map[int]chan struct{}),
	}
}

func (n *Local) Publish(_ context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}

	return nil
}

func (n *Local) Subscribe(ctx context.Context) <-chan struct{} {
	n.mu.Lock()

	ch := make(chan struct{}, 1)
	id := n.next
	n.next++
	n.subs[id] = ch

	n.mu.Unlock()

	go func() {
		<-ctx.Done()

		n.mu.Lock()
		delete(n.subs, id)
		close(ch)
		n.mu.Unlock()
	}()

	return ch
}

package db

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/rx3lixir/memo/pkg/notify"
)

// Lister is the read side the watcher needs from a store
type Lister interface {
	ListMessages(ctx context.Context) ([]*Message, error)
}

// Watcher turns the keyed store into a live ordered read stream: it
// republishes the full conversation, oldest first, after every store
// mutation announced by the notifier.
type Watcher struct {
	lister   Lister
	notifier notify.Notifier
	logger   *log.Logger
}

func NewWatcher(lister Lister, notifier notify.Notifier, logger *log.Logger) *Watcher {
	return &Watcher{
		lister:   lister,
		notifier: notifier,
		logger:   logger,
	}
}

// Watch streams the ordered message list until ctx is cancelled. The
// first list is delivered right away. A slow reader only ever misses
// intermediate lists, never the latest one.
func (w *Watcher) Watch(ctx context.Context) <-chan []*Message {
	out := make(chan []*Message, 1)
	changes := w.notifier.Subscribe(ctx)

	go func() {
		defer close(out)

		w.publish(ctx, out)

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				w.publish(ctx, out)
			}
		}
	}()

	return out
}

func (w *Watcher) publish(ctx context.Context, out chan []*Message) {
	messages, err := w.lister.ListMessages(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error("Failed to re-read messages", "error", err)
		}
		return
	}

	// Replace a pending unconsumed list with the fresh one
	select {
	case <-out:
	default:
	}
	select {
	case out <- messages:
	default:
	}
}

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalPublishReachesAllSubscribers(t *testing.T) {
	n := NewLocal()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := n.Subscribe(ctx)
	b := n.Subscribe(ctx)

	require.NoError(t, n.Publish(context.Background()))

	for name, ch := range map[string]<-chan struct{}{"a": a, "b": b} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s did not receive signal", name)
		}
	}
}

func TestLocalSignalsCoalesce(t *testing.T) {
	n := NewLocal()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := n.Subscribe(ctx)

	// Publisher never blocks on a slow subscriber
	for i := 0; i < 10; i++ {
		require.NoError(t, n.Publish(context.Background()))
	}

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no signal delivered")
	}

	// All ten publishes collapse into a single pending signal
	select {
	case <-ch:
		t.Fatal("signals should have been coalesced")
	default:
	}
}

func TestLocalUnsubscribeOnCancel(t *testing.T) {
	n := NewLocal()

	ctx, cancel := context.WithCancel(context.Background())
	ch := n.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	require.NoError(t, n.Publish(context.Background()))
}

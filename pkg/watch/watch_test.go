package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReturnsLatest(t *testing.T) {
	v := New(1)
	assert.Equal(t, 1, v.Get())

	v.Set(2)
	v.Set(3)
	assert.Equal(t, 3, v.Get())
}

func TestWatchPrimedWithCurrent(t *testing.T) {
	v := New("hello")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Watch(ctx)

	select {
	case got := <-ch:
		assert.Equal(t, "hello", got)
	case <-time.After(time.Second):
		t.Fatal("no initial value delivered")
	}
}

func TestSlowReaderSeesLatestOnly(t *testing.T) {
	v := New(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := v.Watch(ctx)

	// Consume the primed value so the buffer is empty
	<-ch

	// Writer never blocks, even with nobody reading
	for i := 1; i <= 100; i++ {
		v.Set(i)
	}

	select {
	case got := <-ch:
		assert.Equal(t, 100, got, "reader should observe the latest value")
	case <-time.After(time.Second):
		t.Fatal("no value delivered")
	}
}

func TestWatchClosedOnCancel(t *testing.T) {
	v := New(0)

	ctx, cancel := context.WithCancel(context.Background())
	ch := v.Watch(ctx)
	<-ch

	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing after unsubscribe must not panic
	v.Set(42)
	assert.Equal(t, 42, v.Get())
}

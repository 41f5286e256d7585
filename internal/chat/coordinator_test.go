package chat

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rx3lixir/memo/internal/db"
	"github.com/rx3lixir/memo/internal/player"
	"github.com/rx3lixir/memo/internal/recorder"
	"github.com/rx3lixir/memo/pkg/notify"
)

// fakeStore is an in-memory MessageStore that announces mutations the
// same way the postgres store does
type fakeStore struct {
	mu       sync.Mutex
	notifier *notify.Local

	messages []*db.Message
	updated  []*db.Message
	deleted  []uuid.UUID
}

func newFakeStore() *fakeStore {
	return &fakeStore{notifier: notify.NewLocal()}
}

func (f *fakeStore) CreateMessage(ctx context.Context, msg *db.Message) error {
	f.mu.Lock()
	f.messages = append(f.messages, msg)
	f.mu.Unlock()
	return f.notifier.Publish(ctx)
}

func (f *fakeStore) UpdateMessage(ctx context.Context, msg *db.Message) error {
	f.mu.Lock()
	f.updated = append(f.updated, msg)
	for i, existing := range f.messages {
		if existing.ID == msg.ID {
			f.messages[i] = msg
		}
	}
	f.mu.Unlock()
	return f.notifier.Publish(ctx)
}

func (f *fakeStore) GetMessageByID(_ context.Context, id uuid.UUID) (*db.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.messages {
		if msg.ID == id {
			return msg, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListMessages(_ context.Context) ([]*db.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*db.Message, len(f.messages))
	copy(out, f.messages)
	return out, nil
}

func (f *fakeStore) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, id)
	kept := f.messages[:0]
	for _, msg := range f.messages {
		if msg.ID != id {
			kept = append(kept, msg)
		}
	}
	f.messages = kept
	f.mu.Unlock()
	return f.notifier.Publish(ctx)
}

func (f *fakeStore) inserted() []*db.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*db.Message, len(f.messages))
	copy(out, f.messages)
	return out
}

// stubCapture always succeeds and writes its output file on Prepare
type stubCapture struct {
	mu   sync.Mutex
	path string
}

func (s *stubCapture) Configure(_ recorder.Profile, outputPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = outputPath
	return nil
}

func (s *stubCapture) Prepare() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := os.Create(s.path)
	if err != nil {
		return err
	}
	return file.Close()
}

func (s *stubCapture) Start() error { return nil }

func (s *stubCapture) PeakAmplitude() int { return 1000 }

func (s *stubCapture) Stop() error { return nil }

func (s *stubCapture) Release() error { return nil }

// stubPlayback is driven by the test through its event channel
type stubPlayback struct {
	mu       sync.Mutex
	events   chan player.Event
	active   bool
	released bool
}

func newStubPlayback() *stubPlayback {
	return &stubPlayback{events: make(chan player.Event, 4)}
}

func (s *stubPlayback) SetSource(string) error { return nil }

func (s *stubPlayback) PrepareAsync() {}

func (s *stubPlayback) Events() <-chan player.Event { return s.events }

func (s *stubPlayback) Start() { s.mu.Lock(); s.active = true; s.mu.Unlock() }

func (s *stubPlayback) Pause() { s.mu.Lock(); s.active = false; s.mu.Unlock() }

func (s *stubPlayback) SeekTo(time.Duration) {}

func (s *stubPlayback) CurrentPosition() time.Duration { return 0 }

func (s *stubPlayback) TotalDuration() time.Duration { return time.Second }

func (s *stubPlayback) IsActive() bool { s.mu.Lock(); defer s.mu.Unlock(); return s.active }

func (s *stubPlayback) Stop() error { s.mu.Lock(); s.active = false; s.mu.Unlock(); return nil }

func (s *stubPlayback) Release() error { s.mu.Lock(); s.released = true; s.mu.Unlock(); return nil }

type fixture struct {
	coordinator *Coordinator
	store       *fakeStore
	playback    *stubPlayback
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := log.New(io.Discard)
	store := newFakeStore()
	watcher := db.NewWatcher(store, store.notifier, logger)

	rec := recorder.New(
		func() recorder.CaptureDevice { return &stubCapture{} },
		recorder.Config{Dir: t.TempDir(), SampleInterval: 5 * time.Millisecond},
		logger,
	)

	playback := newStubPlayback()
	pl := player.New(
		func() player.PlaybackDevice { return playback },
		player.Config{SampleInterval: 5 * time.Millisecond},
		logger,
	)

	c := New(store, watcher, rec, pl, logger)
	t.Cleanup(c.Close)

	return &fixture{coordinator: c, store: store, playback: playback}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestStopRecordingPersistsVoiceMessage(t *testing.T) {
	f := newFixture(t)

	path, err := f.coordinator.StartRecording()
	require.NoError(t, err)
	require.Contains(t, path, "audio_")

	time.Sleep(30 * time.Millisecond)
	f.coordinator.StopRecording()

	waitFor(t, "voice message insert", func() bool {
		return len(f.store.inserted()) == 1
	})

	msg := f.store.inserted()[0]
	assert.NotEmpty(t, msg.AudioPath)
	assert.Greater(t, msg.DurationMs, int64(0))
	assert.Empty(t, msg.Text)
	assert.True(t, msg.IsVoice())
}

func TestCancelRecordingPersistsNothing(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.StartRecording()
	require.NoError(t, err)
	f.coordinator.CancelRecording()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, f.store.inserted())
}

func TestSendTextMessageTrimsAndClearsDraft(t *testing.T) {
	f := newFixture(t)

	f.coordinator.UpdateTextMessage("  hello  ")
	assert.Equal(t, "  hello  ", f.coordinator.Draft(), "draft is stored verbatim")

	f.coordinator.SendTextMessage()

	// Optimistic clear: the buffer empties before the write lands
	assert.Empty(t, f.coordinator.Draft())

	waitFor(t, "text message insert", func() bool {
		return len(f.store.inserted()) == 1
	})

	msg := f.store.inserted()[0]
	assert.Equal(t, "hello", msg.Text)
	assert.Empty(t, msg.AudioPath)
	assert.Zero(t, msg.DurationMs)
	assert.True(t, msg.IsText())
}

func TestSendTextMessageSkipsBlankBuffer(t *testing.T) {
	f := newFixture(t)

	f.coordinator.UpdateTextMessage("   ")
	f.coordinator.SendTextMessage()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, f.store.inserted())
}

func TestLockTogglesAndCancelForcesUnlock(t *testing.T) {
	f := newFixture(t)

	initial := f.coordinator.IsLockedRecording()

	f.coordinator.ToggleLockRecording()
	f.coordinator.ToggleLockRecording()
	assert.Equal(t, initial, f.coordinator.IsLockedRecording())

	f.coordinator.ToggleLockRecording()
	assert.True(t, f.coordinator.IsLockedRecording())

	f.coordinator.CancelRecording()
	assert.False(t, f.coordinator.IsLockedRecording())
}

func TestDeleteMessageDelegatesToStore(t *testing.T) {
	f := newFixture(t)

	id := uuid.New()
	f.coordinator.DeleteMessage(id)

	waitFor(t, "delete to reach store", func() bool {
		f.store.mu.Lock()
		defer f.store.mu.Unlock()
		return len(f.store.deleted) == 1 && f.store.deleted[0] == id
	})
}

func TestMessagesFollowStoreStream(t *testing.T) {
	f := newFixture(t)

	msg := &db.Message{ID: uuid.New(), Text: "from elsewhere", CreatedAt: time.Now()}
	require.NoError(t, f.store.CreateMessage(context.Background(), msg))

	waitFor(t, "message list to refresh", func() bool {
		messages := f.coordinator.Messages()
		return len(messages) == 1 && messages[0].Text == "from elsewhere"
	})

	snapshot := f.coordinator.Snapshot()
	require.Len(t, snapshot.Messages, 1)
}

func TestPlaybackCompletionMarksMessageListened(t *testing.T) {
	f := newFixture(t)

	msg := &db.Message{
		ID:         uuid.New(),
		AudioPath:  "/data/audio_9.m4a",
		DurationMs: 900,
		CreatedAt:  time.Now(),
	}
	require.NoError(t, f.store.CreateMessage(context.Background(), msg))

	waitFor(t, "message list to refresh", func() bool {
		return len(f.coordinator.Messages()) == 1
	})

	f.coordinator.PlayAudio(msg)
	f.playback.events <- player.Event{Kind: player.EventReady}

	waitFor(t, "playback to start", func() bool {
		return f.coordinator.Snapshot().Playback.Phase == player.PhasePlaying
	})

	f.playback.Pause()
	f.playback.events <- player.Event{Kind: player.EventComplete}

	waitFor(t, "listened stamp", func() bool {
		f.store.mu.Lock()
		defer f.store.mu.Unlock()
		return len(f.store.updated) == 1 && f.store.updated[0].ListenedAt != nil
	})
}

func TestSnapshotCombinesControllerState(t *testing.T) {
	f := newFixture(t)

	_, err := f.coordinator.StartRecording()
	require.NoError(t, err)

	waitFor(t, "recording snapshot", func() bool {
		snap := f.coordinator.Snapshot()
		return snap.Recording.Phase == recorder.PhaseRecording && snap.Amplitude > 0
	})

	f.coordinator.CancelRecording()

	waitFor(t, "idle snapshot", func() bool {
		return f.coordinator.Snapshot().Recording.Phase == recorder.PhaseIdle
	})
}

package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/rx3lixir/memo/internal/db"
	"github.com/rx3lixir/memo/internal/player"
	"github.com/rx3lixir/memo/internal/recorder"
	"github.com/rx3lixir/memo/pkg/watch"
)

const writeTimeout = 5 * time.Second

// Snapshot is the combined state the interface layer renders from
type Snapshot struct {
	Recording       recorder.State `json:"recording"`
	Amplitude       float64        `json:"amplitude"`
	Playback        player.State   `json:"playback"`
	LockedRecording bool           `json:"locked_recording"`
	Draft           string         `json:"draft"`
	Messages        []*db.Message  `json:"messages"`
}

// MessageWatcher is the live ordered read stream of the message store
type MessageWatcher interface {
	Watch(ctx context.Context) <-chan []*db.Message
}

// Coordinator is the single source of truth for the interface layer. It
// bridges the two controllers and the message store, translates user
// intents into controller calls, persists finished recordings and
// republishes combined state. It owns no device resources itself.
type Coordinator struct {
	store    db.MessageStore
	watcher  MessageWatcher
	recorder *recorder.Recorder
	player   *player.Player
	logger   *log.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	locked   *watch.Value[bool]
	draft    *watch.Value[string]
	messages *watch.Value[[]*db.Message]
	combined *watch.Value[Snapshot]
}

// New wires the coordinator and starts its background observers: the
// store subscription runs for the whole coordinator lifetime.
func New(
	store db.MessageStore,
	watcher MessageWatcher,
	rec *recorder.Recorder,
	pl *player.Player,
	logger *log.Logger,
) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())

	c := &Coordinator{
		store:    store,
		watcher:  watcher,
		recorder: rec,
		player:   pl,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		locked:   watch.New(false),
		draft:    watch.New(""),
		messages: watch.New([]*db.Message{}),
		combined: watch.New(Snapshot{
			Recording: rec.State(),
			Playback:  pl.State(),
			Messages:  []*db.Message{},
		}),
	}

	c.wg.Add(2)
	go c.loadMessages()
	go c.observeControllers()

	return c
}

// loadMessages keeps the message list current from the store's live
// ordered stream
func (c *Coordinator) loadMessages() {
	defer c.wg.Done()

	for messages := range c.watcher.Watch(c.ctx) {
		c.messages.Set(messages)
		c.publish()
	}
}

// observeControllers folds controller state changes into the combined
// snapshot and reacts to natural playback completion
func (c *Coordinator) observeControllers() {
	defer c.wg.Done()

	recStates := c.recorder.WatchState(c.ctx)
	amplitudes := c.recorder.WatchAmplitude(c.ctx)
	playStates := c.player.WatchState(c.ctx)

	lastPhase := c.player.State().Phase

	for {
		select {
		case <-c.ctx.Done():
			return
		case _, ok := <-recStates:
			if !ok {
				return
			}
			c.publish()
		case _, ok := <-amplitudes:
			if !ok {
				return
			}
			c.publish()
		case state, ok := <-playStates:
			if !ok {
				return
			}
			if state.Phase == player.PhaseFinished && lastPhase != player.PhaseFinished {
				c.markListened(state.FilePath)
			}
			lastPhase = state.Phase
			c.publish()
		}
	}
}

// publish rebuilds the combined snapshot from the latest pieces
func (c *Coordinator) publish() {
	c.combined.Set(Snapshot{
		Recording:       c.recorder.State(),
		Amplitude:       c.recorder.Amplitude(),
		Playback:        c.player.State(),
		LockedRecording: c.locked.Get(),
		Draft:           c.draft.Get(),
		Messages:        c.messages.Get(),
	})
}

// Snapshot returns the latest combined state
func (c *Coordinator) Snapshot() Snapshot {
	return c.combined.Get()
}

// WatchSnapshot streams combined state updates until ctx is cancelled
func (c *Coordinator) WatchSnapshot(ctx context.Context) <-chan Snapshot {
	return c.combined.Watch(ctx)
}

// Messages returns the latest ordered message list
func (c *Coordinator) Messages() []*db.Message {
	return c.messages.Get()
}

// GetMessage looks a message up by identity
func (c *Coordinator) GetMessage(ctx context.Context, id uuid.UUID) (*db.Message, error) {
	return c.store.GetMessageByID(ctx, id)
}

// StartRecording begins a new capture session and returns the path the
// memo records to
func (c *Coordinator) StartRecording() (string, error) {
	path, err := c.recorder.Start()
	c.publish()
	return path, err
}

// StopRecording finalizes the capture session and persists the memo as
// a new message. The write is fire-and-forget: control returns to the
// caller before persistence completes, there is no rollback path.
func (c *Coordinator) StopRecording() {
	path, duration, err := c.recorder.Stop()
	if err != nil {
		c.logger.Error("Failed to stop recording", "error", err)
	}

	c.locked.Set(false)

	if path != "" && duration > 0 {
		msg := &db.Message{
			ID:         uuid.New(),
			AudioPath:  path,
			DurationMs: duration.Milliseconds(),
			CreatedAt:  time.Now(),
		}

		c.async("insert voice message", func(ctx context.Context) error {
			return c.store.CreateMessage(ctx, msg)
		})
	}

	c.publish()
}

// CancelRecording discards the capture session and drops the lock
func (c *Coordinator) CancelRecording() {
	c.recorder.Cancel()
	c.locked.Set(false)
	c.publish()
}

// ToggleLockRecording flips the hands-free pin on the active recording
func (c *Coordinator) ToggleLockRecording() {
	c.locked.Set(!c.locked.Get())
	c.publish()
}

// IsLockedRecording reports whether the recording is pinned hands-free
func (c *Coordinator) IsLockedRecording() bool {
	return c.locked.Get()
}

// PlayAudio starts playback of a message's recording
func (c *Coordinator) PlayAudio(msg *db.Message) {
	c.player.Play(msg.AudioPath)
}

// PauseAudio pauses the active playback session
func (c *Coordinator) PauseAudio() {
	c.player.Pause()
}

// ResumeAudio resumes the paused playback session
func (c *Coordinator) ResumeAudio() {
	c.player.Resume()
}

// StopAudio tears down the playback session
func (c *Coordinator) StopAudio() {
	c.player.Stop()
}

// SeekAudio repositions the playback session
func (c *Coordinator) SeekAudio(position time.Duration) {
	c.player.Seek(position)
}

// Draft returns the pending text buffer
func (c *Coordinator) Draft() string {
	return c.draft.Get()
}

// UpdateTextMessage replaces the pending text buffer verbatim
func (c *Coordinator) UpdateTextMessage(text string) {
	c.draft.Set(text)
	c.publish()
}

// SendTextMessage persists the trimmed pending buffer as a text message
// and clears the buffer optimistically, without waiting for the write
func (c *Coordinator) SendTextMessage() {
	text := strings.TrimSpace(c.draft.Get())
	if text == "" {
		return
	}

	msg := &db.Message{
		ID:        uuid.New(),
		Text:      text,
		CreatedAt: time.Now(),
	}

	c.async("insert text message", func(ctx context.Context) error {
		return c.store.CreateMessage(ctx, msg)
	})

	c.draft.Set("")
	c.publish()
}

// DeleteMessage removes a message by identity. The audio file on disk
// is left alone.
func (c *Coordinator) DeleteMessage(id uuid.UUID) {
	c.async("delete message", func(ctx context.Context) error {
		return c.store.DeleteMessage(ctx, id)
	})
}

// markListened stamps the message owning the finished recording
func (c *Coordinator) markListened(path string) {
	for _, msg := range c.messages.Get() {
		if msg.AudioPath != path || msg.ListenedAt != nil {
			continue
		}

		updated := *msg
		now := time.Now()
		updated.ListenedAt = &now

		c.async("mark message listened", func(ctx context.Context) error {
			return c.store.UpdateMessage(ctx, &updated)
		})
		return
	}
}

// async runs a fire-and-forget store write. Failures are logged and
// otherwise dropped.
func (c *Coordinator) async(op string, fn func(ctx context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			c.logger.Error("Background store write failed", "op", op, "error", err)
		}
	}()
}

// Close tears the coordinator down: recorder cleanup first, then
// player, then wait for in-flight background writes
func (c *Coordinator) Close() {
	c.cancel()
	c.recorder.Cleanup()
	c.player.Cleanup()
	c.wg.Wait()
}

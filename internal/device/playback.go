package device

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rx3lixir/memo/internal/player"
)

// Matches the capture profile so durations survive the round trip
const playbackBitrateKbps = 128

const prepareDelay = 10 * time.Millisecond

// Playback is a clock-driven stand-in for a hardware audio output. The
// track "plays" in real time: position advances with the wall clock and
// a completion event fires when it reaches the recovered duration.
type Playback struct {
	mu        sync.Mutex
	events    chan player.Event
	path      string
	duration  time.Duration
	offset    time.Duration
	resumedAt time.Time
	active    bool
	released  bool
	doneTimer *time.Timer
}

func NewPlayback() player.PlaybackDevice {
	return &Playback{
		events: make(chan player.Event, 8),
	}
}

func (p *Playback) SetSource(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to open audio source: %w", err)
	}

	p.path = path
	p.duration = time.Duration(float64(info.Size()*8) / float64(playbackBitrateKbps*1000) * float64(time.Second))
	if p.duration <= 0 {
		return fmt.Errorf("audio source is empty: %s", path)
	}

	return nil
}

func (p *Playback) PrepareAsync() {
	go func() {
		time.Sleep(prepareDelay)

		p.mu.Lock()
		defer p.mu.Unlock()

		if p.released {
			return
		}
		if p.path == "" {
			p.emit(player.Event{Kind: player.EventError, Err: fmt.Errorf("no source set")})
			return
		}
		p.emit(player.Event{Kind: player.EventReady})
	}()
}

func (p *Playback) Events() <-chan player.Event {
	return p.events
}

func (p *Playback) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active || p.released {
		return
	}

	p.active = true
	p.resumedAt = time.Now()
	p.armCompletion()
}

func (p *Playback) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return
	}

	p.offset = p.positionLocked()
	p.active = false
	p.disarmCompletion()
}

func (p *Playback) SeekTo(position time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if position < 0 {
		position = 0
	}
	if position > p.duration {
		position = p.duration
	}

	p.offset = position
	if p.active {
		p.resumedAt = time.Now()
		p.armCompletion()
	}
}

func (p *Playback) CurrentPosition() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Playback) TotalDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *Playback) IsActive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Playback) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.active = false
	p.offset = 0
	p.disarmCompletion()

	return nil
}

func (p *Playback) Release() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.active = false
	p.released = true
	p.disarmCompletion()

	return nil
}

// positionLocked must be called with the mutex held
func (p *Playback) positionLocked() time.Duration {
	pos := p.offset
	if p.active {
		pos += time.Since(p.resumedAt)
	}
	if pos > p.duration {
		pos = p.duration
	}
	return pos
}

// armCompletion must be called with the mutex held
func (p *Playback) armCompletion() {
	p.disarmCompletion()

	remaining := p.duration - p.positionLocked()
	p.doneTimer = time.AfterFunc(remaining, p.complete)
}

// disarmCompletion must be called with the mutex held
func (p *Playback) disarmCompletion() {
	if p.doneTimer != nil {
		p.doneTimer.Stop()
		p.doneTimer = nil
	}
}

func (p *Playback) complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active || p.released {
		return
	}

	p.offset = p.duration
	p.active = false
	p.emit(player.Event{Kind: player.EventComplete})
}

// emit must be called with the mutex held; a full channel drops the
// event rather than wedging the device
func (p *Playback) emit(ev player.Event) {
	select {
	case p.events <- ev:
	default:
	}
}

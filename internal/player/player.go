package player

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rx3lixir/memo/pkg/watch"
)

const defaultSampleInterval = 100 * time.Millisecond

// Config holds player settings resolved by the composition root
type Config struct {
	// SampleInterval is how often the position sampler ticks.
	// Zero means the 100ms default.
	SampleInterval time.Duration
}

// Player owns at most one playback session at a time, keyed by file
// path, with resume-in-place semantics. Device callbacks are consumed by
// a single goroutine per session; the session generation is re-checked
// after every lock acquisition so events and ticks from a torn-down
// session can never touch published state.
type Player struct {
	devices  PlaybackDeviceFactory
	interval time.Duration
	logger   *log.Logger

	mu            sync.Mutex
	device        PlaybackDevice
	path          string
	gen           int
	sessionCtx    context.Context
	cancelSession context.CancelFunc
	cancelSampler context.CancelFunc

	state *watch.Value[State]
}

func New(devices PlaybackDeviceFactory, cfg Config, logger *log.Logger) *Player {
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = defaultSampleInterval
	}

	return &Player{
		devices:  devices,
		interval: cfg.SampleInterval,
		logger:   logger,
		state:    watch.New(idle()),
	}
}

// State returns the current playback state
func (p *Player) State() State {
	return p.state.Get()
}

// WatchState streams state updates until ctx is cancelled
func (p *Player) WatchState(ctx context.Context) <-chan State {
	return p.state.Watch(ctx)
}

// IsPlaying queries the device directly, independent of how stale the
// published state is
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.device != nil && p.device.IsActive()
}

// Play starts playback of the given file. Playing the path that is
// currently paused resumes it in place; anything else tears down the
// active session first. Play returns before the session is ready, the
// ready event starts actual playback.
func (p *Player) Play(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.path == path && p.state.Get().Phase == PhasePaused {
		p.resumeLocked()
		return
	}

	p.stopLocked()

	p.gen++
	gen := p.gen

	dev := p.devices()
	p.device = dev
	p.path = path
	p.state.Set(loading(path))

	if err := dev.SetSource(path); err != nil {
		p.logger.Error("Failed to load audio source", "path", path, "error", err)
		if rerr := dev.Release(); rerr != nil {
			p.logger.Debug("Playback device release failed after load error", "error", rerr)
		}
		p.device = nil
		p.path = ""
		p.state.Set(failed(path, "failed to play audio: "+err.Error()))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.sessionCtx = ctx
	p.cancelSession = cancel

	go p.consumeEvents(ctx, gen, dev, path)

	dev.PrepareAsync()
}

// consumeEvents is the single funnel for device callbacks of one session
func (p *Player) consumeEvents(ctx context.Context, gen int, dev PlaybackDevice, path string) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-dev.Events():
			if !ok {
				return
			}

			p.mu.Lock()
			if p.gen != gen {
				p.mu.Unlock()
				return
			}

			switch ev.Kind {
			case EventReady:
				dev.Start()
				p.state.Set(playing(path, 0, dev.TotalDuration().Milliseconds()))
				p.startSamplerLocked(gen, dev, path)

			case EventComplete:
				p.haltSamplerLocked()
				p.state.Set(finished(path))

			case EventError:
				p.haltSamplerLocked()
				message := "playback error"
				if ev.Err != nil {
					message = "playback error: " + ev.Err.Error()
				}
				p.logger.Error("Playback device reported error", "path", path, "error", ev.Err)
				p.state.Set(failed(path, message))
			}
			p.mu.Unlock()
		}
	}
}

// startSamplerLocked must be called with the mutex held and a live session
func (p *Player) startSamplerLocked(gen int, dev PlaybackDevice, path string) {
	p.haltSamplerLocked()

	ctx, cancel := context.WithCancel(p.sessionCtx)
	p.cancelSampler = cancel

	go p.sample(ctx, gen, dev, path)
}

// sample republishes position while the device reports active playback,
// terminating itself otherwise
func (p *Player) sample(ctx context.Context, gen int, dev PlaybackDevice, path string) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			if p.gen != gen {
				p.mu.Unlock()
				return
			}
			if !dev.IsActive() {
				p.mu.Unlock()
				return
			}

			duration := dev.TotalDuration()
			if duration > 0 {
				p.state.Set(playing(path, dev.CurrentPosition().Milliseconds(), duration.Milliseconds()))
			}
			p.mu.Unlock()
		}
	}
}

// Pause halts the session in place. No-op when nothing is loaded.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.path == "" || p.device == nil {
		return
	}

	// Capture position before stopping the device
	position := p.device.CurrentPosition()
	duration := p.device.TotalDuration()

	p.device.Pause()
	p.haltSamplerLocked()

	p.state.Set(paused(p.path, position.Milliseconds(), duration.Milliseconds()))
}

// Resume continues a paused session from its current position.
// No-op when nothing is loaded.
func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resumeLocked()
}

func (p *Player) resumeLocked() {
	if p.path == "" || p.device == nil {
		return
	}

	p.device.Start()
	p.startSamplerLocked(p.gen, p.device, p.path)

	p.state.Set(playing(
		p.path,
		p.device.CurrentPosition().Milliseconds(),
		p.device.TotalDuration().Milliseconds(),
	))
}

// Stop tears down the session and returns to Idle. Safe to call from
// any state, including when already idle.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) stopLocked() {
	p.haltSamplerLocked()

	if p.cancelSession != nil {
		p.cancelSession()
		p.cancelSession = nil
		p.sessionCtx = nil
	}

	p.gen++

	if p.device != nil {
		// Best-effort teardown, the session is over either way
		if p.device.IsActive() {
			if err := p.device.Stop(); err != nil {
				p.logger.Debug("Playback device stop failed", "error", err)
			}
		}
		if err := p.device.Release(); err != nil {
			p.logger.Debug("Playback device release failed", "error", err)
		}
		p.device = nil
	}

	p.path = ""
	p.state.Set(idle())
}

// Seek repositions the session. Republishes Playing or Paused with the
// new position. No-op when nothing is loaded.
func (p *Player) Seek(position time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.path == "" || p.device == nil {
		return
	}

	p.device.SeekTo(position)
	duration := p.device.TotalDuration()

	if p.device.IsActive() {
		p.state.Set(playing(p.path, position.Milliseconds(), duration.Milliseconds()))
	} else {
		p.state.Set(paused(p.path, position.Milliseconds(), duration.Milliseconds()))
	}
}

// Cleanup tears the session down. Called once at teardown.
func (p *Player) Cleanup() {
	p.Stop()
}

// haltSamplerLocked must be called with the mutex held
func (p *Player) haltSamplerLocked() {
	if p.cancelSampler != nil {
		p.cancelSampler()
		p.cancelSampler = nil
	}
}

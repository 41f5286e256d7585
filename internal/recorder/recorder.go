package recorder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rx3lixir/memo/pkg/watch"
)

// ErrBusy is returned by Start when a capture session is already active.
// The in-flight session keeps running untouched.
var ErrBusy = errors.New("recording already in progress")

const defaultSampleInterval = 50 * time.Millisecond

// Config holds recorder settings resolved by the composition root
type Config struct {
	// Dir is the app-private directory recordings are written to
	Dir string

	// SampleInterval is how often the amplitude sampler ticks.
	// Zero means the 50ms default.
	SampleInterval time.Duration

	// Profile is the encoding profile. Zero value means DefaultProfile.
	Profile Profile
}

// Recorder owns at most one capture session at a time and publishes its
// progress. All state transitions happen under one mutex, so they are
// totally ordered; the sampler re-checks the session generation before
// every publish so a stale tick cannot resurrect a dismissed session.
type Recorder struct {
	devices  CaptureDeviceFactory
	dir      string
	interval time.Duration
	profile  Profile
	logger   *log.Logger
	now      func() time.Time

	mu            sync.Mutex
	device        CaptureDevice
	path          string
	startedAt     time.Time
	gen           int
	cancelSampler context.CancelFunc

	state     *watch.Value[State]
	amplitude *watch.Value[float64]
}

func New(devices CaptureDeviceFactory, cfg Config, logger *log.Logger) *Recorder {
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = defaultSampleInterval
	}
	if cfg.Profile == (Profile{}) {
		cfg.Profile = DefaultProfile()
	}

	return &Recorder{
		devices:   devices,
		dir:       cfg.Dir,
		interval:  cfg.SampleInterval,
		profile:   cfg.Profile,
		logger:    logger,
		now:       time.Now,
		state:     watch.New(idle()),
		amplitude: watch.New(0.0),
	}
}

// State returns the current recording state
func (r *Recorder) State() State {
	return r.state.Get()
}

// WatchState streams state updates until ctx is cancelled
func (r *Recorder) WatchState(ctx context.Context) <-chan State {
	return r.state.Watch(ctx)
}

// Amplitude returns the last sampled input level, clamped to [0,100]
func (r *Recorder) Amplitude() float64 {
	return r.amplitude.Get()
}

// WatchAmplitude streams amplitude updates until ctx is cancelled
func (r *Recorder) WatchAmplitude(ctx context.Context) <-chan float64 {
	return r.amplitude.Watch(ctx)
}

// IsRecording reports whether a capture session is currently active
func (r *Recorder) IsRecording() bool {
	return r.state.Get().Phase == PhaseRecording
}

// Elapsed returns how long the active session has been running
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device == nil {
		return 0
	}
	return r.now().Sub(r.startedAt)
}

// Start allocates a fresh output file, configures the capture device for
// the fixed encoding profile and begins recording. It blocks until the
// device is capturing (or has failed) and returns the output path.
// A second Start while a session is active is rejected with ErrBusy.
func (r *Recorder) Start() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device != nil {
		return "", ErrBusy
	}

	r.gen++
	gen := r.gen

	r.state.Set(preparing())

	path := filepath.Join(r.dir, fmt.Sprintf("audio_%d.%s", r.now().UnixMilli(), r.profile.Container))

	dev := r.devices()

	if err := dev.Configure(r.profile, path); err != nil {
		r.state.Set(failed("failed to configure capture device: " + err.Error()))
		return "", fmt.Errorf("failed to configure capture device: %w", err)
	}

	if err := dev.Prepare(); err != nil {
		r.state.Set(failed("failed to start recording: " + err.Error()))
		return "", fmt.Errorf("failed to prepare capture device: %w", err)
	}

	if err := dev.Start(); err != nil {
		r.state.Set(failed("failed to start recording: " + err.Error()))
		return "", fmt.Errorf("failed to start capture device: %w", err)
	}

	r.device = dev
	r.path = path
	r.startedAt = r.now()
	r.state.Set(recording(path, 0))

	ctx, cancel := context.WithCancel(context.Background())
	r.cancelSampler = cancel
	go r.sample(ctx, gen, dev, path)

	r.logger.Info("Recording started", "path", path)

	return path, nil
}

// sample polls the device peak level every tick, publishing amplitude
// and elapsed time while the session it was started for is still alive
func (r *Recorder) sample(ctx context.Context, gen int, dev CaptureDevice, path string) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.gen != gen || r.device == nil {
				// Session was stopped or cancelled under us
				r.mu.Unlock()
				return
			}

			peak := float64(dev.PeakAmplitude())
			amplitudeDb := 20 * math.Log10(math.Max(peak, 1))
			r.amplitude.Set(clamp(amplitudeDb, 0, 100))

			elapsed := r.now().Sub(r.startedAt)
			r.state.Set(recording(path, elapsed.Milliseconds()))
			r.mu.Unlock()
		}
	}
}

// Stop finalizes the active session and returns the output path and
// total duration. Returns ("", 0) with an error state when the device
// refuses to stop or release.
func (r *Recorder) Stop() (string, time.Duration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.haltSampler()

	dev := r.device
	if dev == nil {
		r.state.Set(idle())
		return "", 0, nil
	}

	if err := dev.Stop(); err != nil {
		r.device = nil
		r.path = ""
		r.state.Set(failed("failed to stop recording: " + err.Error()))
		return "", 0, fmt.Errorf("failed to stop capture device: %w", err)
	}

	if err := dev.Release(); err != nil {
		r.device = nil
		r.path = ""
		r.state.Set(failed("failed to stop recording: " + err.Error()))
		return "", 0, fmt.Errorf("failed to release capture device: %w", err)
	}

	r.device = nil

	duration := r.now().Sub(r.startedAt)
	path := r.path
	r.path = ""

	if path != "" && duration > 0 {
		r.state.Set(finished(path, duration.Milliseconds()))
	} else {
		r.state.Set(idle())
	}
	r.amplitude.Set(0)

	r.logger.Info("Recording stopped", "path", path, "duration", duration)

	return path, duration, nil
}

// Cancel discards the active session: the device is stopped and released
// best-effort and the partial output file is deleted. Always ends Idle.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.haltSampler()

	if r.device != nil {
		// The recording is being thrown away, secondary failures
		// only get logged
		if err := r.device.Stop(); err != nil {
			r.logger.Debug("Capture device stop failed during cancel", "error", err)
		}
		if err := r.device.Release(); err != nil {
			r.logger.Debug("Capture device release failed during cancel", "error", err)
		}
		r.device = nil
	}

	if r.path != "" {
		if err := os.Remove(r.path); err != nil {
			r.logger.Debug("Failed to delete partial recording", "path", r.path, "error", err)
		}
		r.path = ""
	}

	r.state.Set(idle())
	r.amplitude.Set(0)

	r.logger.Info("Recording cancelled")
}

// Cleanup releases the device unconditionally. Called once at teardown.
func (r *Recorder) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.haltSampler()

	if r.device != nil {
		if err := r.device.Release(); err != nil {
			r.logger.Debug("Capture device release failed during cleanup", "error", err)
		}
		r.device = nil
	}
	r.path = ""

	r.state.Set(idle())
	r.amplitude.Set(0)
}

// haltSampler must be called with the mutex held
func (r *Recorder) haltSampler() {
	if r.cancelSampler != nil {
		r.cancelSampler()
		r.cancelSampler = nil
	}
	r.gen++
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

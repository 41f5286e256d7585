package player

import "time"

// EventKind discriminates device callbacks
type EventKind int

const (
	// EventReady means PrepareAsync finished and the source can play
	EventReady EventKind = iota
	// EventComplete means the track reached its natural end
	EventComplete
	// EventError carries a device-reported failure
	EventError
)

// Event is a device callback. All callbacks are funneled through the
// single channel returned by Events, so the controller consumes them
// from one place instead of re-entrant listener chains.
type Event struct {
	Kind EventKind
	Err  error
}

// PlaybackDevice abstracts the file-to-speaker decoder. PrepareAsync
// returns immediately; readiness, completion and runtime errors arrive
// on the Events channel.
type PlaybackDevice interface {
	SetSource(path string) error
	PrepareAsync()
	Events() <-chan Event

	Start()
	Pause()
	SeekTo(position time.Duration)

	CurrentPosition() time.Duration
	TotalDuration() time.Duration
	IsActive() bool

	Stop() error
	Release() error
}

// PlaybackDeviceFactory allocates a fresh device per playback session
type PlaybackDeviceFactory func() PlaybackDevice

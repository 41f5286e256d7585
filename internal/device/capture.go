package device

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/rx3lixir/memo/internal/recorder"
)

// Capture is a clock-driven stand-in for a hardware microphone encoder.
// It produces a real file whose size matches what the configured bitrate
// would have produced over the session's wall-clock length, so playback
// can recover the duration from the file alone.
type Capture struct {
	mu        sync.Mutex
	profile   recorder.Profile
	path      string
	file      *os.File
	startedAt time.Time
	started   bool
	lastPeak  int
}

func NewCapture() recorder.CaptureDevice {
	return &Capture{}
}

func (c *Capture) Configure(profile recorder.Profile, outputPath string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.profile = profile
	c.path = outputPath
	return nil
}

func (c *Capture) Prepare() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		return fmt.Errorf("capture device not configured")
	}

	file, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	c.file = file

	return nil
}

func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.file == nil {
		return fmt.Errorf("capture device not prepared")
	}

	c.started = true
	c.startedAt = time.Now()
	c.lastPeak = 8000

	return nil
}

// PeakAmplitude walks randomly through the encoder's 0..32767 scale so
// the amplitude meter has something lively to show
func (c *Capture) PeakAmplitude() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started {
		return 0
	}

	c.lastPeak += rand.Intn(8001) - 4000
	if c.lastPeak < 0 {
		c.lastPeak = 0
	}
	if c.lastPeak > 32767 {
		c.lastPeak = 32767
	}

	return c.lastPeak
}

func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.started || c.file == nil {
		return fmt.Errorf("capture device not recording")
	}
	c.started = false

	// Backfill the file to bitrate * elapsed, the way a real encoder
	// would have streamed it
	elapsed := time.Since(c.startedAt)
	size := int64(float64(c.profile.BitrateKbps*1000/8) * elapsed.Seconds())

	if err := c.file.Truncate(size); err != nil {
		return fmt.Errorf("failed to finalize output file: %w", err)
	}

	return nil
}

func (c *Capture) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.started = false

	if c.file != nil {
		file := c.file
		c.file = nil
		if err := file.Close(); err != nil {
			return fmt.Errorf("failed to close output file: %w", err)
		}
	}

	return nil
}

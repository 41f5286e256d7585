package recorder

// Profile is the fixed encoding profile every recording session uses
type Profile struct {
	Codec        string
	Container    string
	BitrateKbps  int
	SampleRateHz int
}

// DefaultProfile mirrors what phone voice memos ship with
func DefaultProfile() Profile {
	return Profile{
		Codec:        "aac",
		Container:    "m4a",
		BitrateKbps:  128,
		SampleRateHz: 44100,
	}
}

// CaptureDevice abstracts the microphone-to-file encoder. Configure,
// Prepare and Start block until the device is capturing or has failed.
// Stop and Release may fail and are treated as best-effort on
// cancellation paths.
type CaptureDevice interface {
	Configure(profile Profile, outputPath string) error
	Prepare() error
	Start() error

	// PeakAmplitude reports the instantaneous peak input level on a
	// 0..32767 scale, same as the platform encoders do
	PeakAmplitude() int

	Stop() error
	Release() error
}

// CaptureDeviceFactory allocates a fresh device per recording session
type CaptureDeviceFactory func() CaptureDevice

package player

// Phase names one stage of the playback lifecycle
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseLoading  Phase = "loading"
	PhasePlaying  Phase = "playing"
	PhasePaused   Phase = "paused"
	PhaseFinished Phase = "finished"
	PhaseError    Phase = "error"
)

// State is the observable playback state. FilePath may be empty in the
// error phase when the failure happened before a source was assigned.
type State struct {
	Phase      Phase  `json:"phase"`
	FilePath   string `json:"file_path,omitempty"`
	PositionMs int64  `json:"position_ms,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Err        string `json:"error,omitempty"`
}

func idle() State {
	return State{Phase: PhaseIdle}
}

func loading(path string) State {
	return State{Phase: PhaseLoading, FilePath: path}
}

func playing(path string, positionMs, durationMs int64) State {
	return State{Phase: PhasePlaying, FilePath: path, PositionMs: positionMs, DurationMs: durationMs}
}

func paused(path string, positionMs, durationMs int64) State {
	return State{Phase: PhasePaused, FilePath: path, PositionMs: positionMs, DurationMs: durationMs}
}

func finished(path string) State {
	return State{Phase: PhaseFinished, FilePath: path}
}

func failed(path, message string) State {
	return State{Phase: PhaseError, FilePath: path, Err: message}
}

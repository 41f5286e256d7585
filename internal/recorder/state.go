package recorder

// Phase names one stage of the recording lifecycle
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePreparing Phase = "preparing"
	PhaseRecording Phase = "recording"
	PhaseFinished  Phase = "finished"
	PhaseError     Phase = "error"
)

// State is the observable recording state. Only the fields that belong
// to the current phase are populated.
type State struct {
	Phase      Phase  `json:"phase"`
	FilePath   string `json:"file_path,omitempty"`
	ElapsedMs  int64  `json:"elapsed_ms,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Err        string `json:"error,omitempty"`
}

func idle() State {
	return State{Phase: PhaseIdle}
}

func preparing() State {
	return State{Phase: PhasePreparing}
}

func recording(path string, elapsedMs int64) State {
	return State{Phase: PhaseRecording, FilePath: path, ElapsedMs: elapsedMs}
}

func finished(path string, durationMs int64) State {
	return State{Phase: PhaseFinished, FilePath: path, DurationMs: durationMs}
}

func failed(message string) State {
	return State{Phase: PhaseError, Err: message}
}

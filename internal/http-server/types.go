package httpserver

// UpdateDraftRequest carries the verbatim pending text buffer
type UpdateDraftRequest struct {
	Text string `json:"text"`
}

// SeekRequest repositions the active playback session
type SeekRequest struct {
	PositionMs int64 `json:"position_ms"`
}

// StartRecordingResponse reports where the new session records to
type StartRecordingResponse struct {
	FilePath string `json:"file_path"`
}

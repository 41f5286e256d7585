package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rx3lixir/memo/internal/recorder"
)

// HandleState returns the combined snapshot the interface layer renders
func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.coordinator.Snapshot())
}

// HandleEvents streams combined state as server-sent events until the
// client goes away
func (s *Server) HandleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for snapshot := range s.coordinator.WatchSnapshot(r.Context()) {
		data, err := json.Marshal(snapshot)
		if err != nil {
			s.log.Error("Failed to encode snapshot", "error", err)
			continue
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()
	}
}

// HandleListMessages returns the conversation, oldest first
func (s *Server) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.coordinator.Messages())
}

// HandleGetMessage returns a single message by ID
func (s *Server) HandleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid message id")
		return
	}

	msg, err := s.coordinator.GetMessage(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if msg == nil {
		s.handleError(w, NewNotFoundError("Message not found"))
		return
	}

	s.respondJSON(w, http.StatusOK, msg)
}

// HandleDeleteMessage removes a message. The write is fire-and-forget,
// so the response only acknowledges the intent.
func (s *Server) HandleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid message id")
		return
	}

	s.coordinator.DeleteMessage(id)
	s.respondJSON(w, http.StatusAccepted, nil)
}

// HandleSendText persists the pending draft as a text message
func (s *Server) HandleSendText(w http.ResponseWriter, r *http.Request) {
	s.coordinator.SendTextMessage()
	s.respondJSON(w, http.StatusAccepted, s.coordinator.Snapshot())
}

// HandleUpdateDraft replaces the pending text buffer
func (s *Server) HandleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	req := new(UpdateDraftRequest)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	s.coordinator.UpdateTextMessage(req.Text)
	s.respondJSON(w, http.StatusOK, nil)
}

// HandleStartRecording begins a capture session
func (s *Server) HandleStartRecording(w http.ResponseWriter, r *http.Request) {
	path, err := s.coordinator.StartRecording()
	if err != nil {
		if errors.Is(err, recorder.ErrBusy) {
			s.respondError(w, http.StatusConflict, "Recording already in progress")
			return
		}

		s.log.Error("Failed to start recording", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to start recording")
		return
	}

	s.respondJSON(w, http.StatusOK, StartRecordingResponse{FilePath: path})
}

// HandleStopRecording finalizes the capture session; the resulting
// message insert is fire-and-forget
func (s *Server) HandleStopRecording(w http.ResponseWriter, r *http.Request) {
	s.coordinator.StopRecording()
	s.respondJSON(w, http.StatusOK, s.coordinator.Snapshot().Recording)
}

// HandleCancelRecording discards the capture session
func (s *Server) HandleCancelRecording(w http.ResponseWriter, r *http.Request) {
	s.coordinator.CancelRecording()
	s.respondJSON(w, http.StatusOK, s.coordinator.Snapshot().Recording)
}

// HandleToggleLock flips the hands-free recording pin
func (s *Server) HandleToggleLock(w http.ResponseWriter, r *http.Request) {
	s.coordinator.ToggleLockRecording()
	s.respondJSON(w, http.StatusOK, map[string]bool{
		"locked_recording": s.coordinator.IsLockedRecording(),
	})
}

// HandlePlayMessage starts playback of a voice message
func (s *Server) HandlePlayMessage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid message id")
		return
	}

	msg, err := s.coordinator.GetMessage(r.Context(), id)
	if err != nil {
		s.handleError(w, err)
		return
	}
	if msg == nil {
		s.handleError(w, NewNotFoundError("Message not found"))
		return
	}
	if msg.AudioPath == "" {
		s.respondError(w, http.StatusBadRequest, "Message has no audio")
		return
	}

	s.coordinator.PlayAudio(msg)
	s.respondJSON(w, http.StatusAccepted, s.coordinator.Snapshot().Playback)
}

// HandlePausePlayback pauses the active session
func (s *Server) HandlePausePlayback(w http.ResponseWriter, r *http.Request) {
	s.coordinator.PauseAudio()
	s.respondJSON(w, http.StatusOK, s.coordinator.Snapshot().Playback)
}

// HandleResumePlayback resumes the paused session
func (s *Server) HandleResumePlayback(w http.ResponseWriter, r *http.Request) {
	s.coordinator.ResumeAudio()
	s.respondJSON(w, http.StatusOK, s.coordinator.Snapshot().Playback)
}

// HandleStopPlayback tears the session down
func (s *Server) HandleStopPlayback(w http.ResponseWriter, r *http.Request) {
	s.coordinator.StopAudio()
	s.respondJSON(w, http.StatusOK, s.coordinator.Snapshot().Playback)
}

// HandleSeekPlayback repositions the active session
func (s *Server) HandleSeekPlayback(w http.ResponseWriter, r *http.Request) {
	req := new(SeekRequest)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if req.PositionMs < 0 {
		s.respondError(w, http.StatusBadRequest, "Position must not be negative")
		return
	}

	s.coordinator.SeekAudio(time.Duration(req.PositionMs) * time.Millisecond)
	s.respondJSON(w, http.StatusOK, s.coordinator.Snapshot().Playback)
}

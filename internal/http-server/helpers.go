package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// APIError represents the structure of error responses
type APIError struct {
	Error string `json:"error"`
}

// respondJSON sends a JSON response with the given status code
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.log.Error("Failed to encode JSON response", "error", err)
		}
	}
}

// respondError sends an error response with appropriate status code
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, APIError{Error: message})
}

// handleError processes an error and sends the appropriate HTTP response
func (s *Server) handleError(w http.ResponseWriter, err error) {
	var validationErr *ValidationErr
	if errors.As(err, &validationErr) {
		s.respondError(w, http.StatusBadRequest, validationErr.Error())
		return
	}

	var notFoundErr *NotFoundErr
	if errors.As(err, &notFoundErr) {
		s.respondError(w, http.StatusNotFound, notFoundErr.Error())
		return
	}

	if strings.Contains(strings.ToLower(err.Error()), "not found") {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}

	// Default to 500 for unknown errors
	s.log.Error("Internal server error", "error", err)
	s.respondError(w, http.StatusInternalServerError, "An unexpected error occurred")
}

type ValidationErr struct {
	Message string
}

func (e *ValidationErr) Error() string {
	return e.Message
}

func NewValidationError(message string) error {
	return &ValidationErr{
		Message: message,
	}
}

type NotFoundErr struct {
	Message string
}

func (e *NotFoundErr) Error() string {
	return e.Message
}

func NewNotFoundError(message string) error {
	return &NotFoundErr{
		Message: message,
	}
}

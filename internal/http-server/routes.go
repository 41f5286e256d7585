package httpserver

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) setupRoutes() *chi.Mux {
	r := chi.NewRouter()

	// Middleware block
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Compress(5))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Combined state for the interface layer
		r.Get("/state", s.HandleState)
		r.Get("/events", s.HandleEvents)

		r.Route("/messages", func(r chi.Router) {
			r.Get("/", s.HandleListMessages)
			r.Get("/{id}", s.HandleGetMessage)
			r.Delete("/{id}", s.HandleDeleteMessage)
			r.Post("/text", s.HandleSendText)
		})

		r.Put("/draft", s.HandleUpdateDraft)

		r.Route("/recording", func(r chi.Router) {
			r.Post("/start", s.HandleStartRecording)
			r.Post("/stop", s.HandleStopRecording)
			r.Post("/cancel", s.HandleCancelRecording)
			r.Post("/lock", s.HandleToggleLock)
		})

		r.Route("/playback", func(r chi.Router) {
			r.Post("/play/{id}", s.HandlePlayMessage)
			r.Post("/pause", s.HandlePausePlayback)
			r.Post("/resume", s.HandleResumePlayback)
			r.Post("/stop", s.HandleStopPlayback)
			r.Post("/seek", s.HandleSeekPlayback)
		})
	})

	return r
}

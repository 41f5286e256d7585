package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/rx3lixir/memo/internal/chat"
)

type Server struct {
	coordinator *chat.Coordinator
	log         *log.Logger
	httpServer  *http.Server
}

func New(addr string, coordinator *chat.Coordinator, log *log.Logger) *Server {
	s := &Server{
		coordinator: coordinator,
		log:         log,
	}

	s.httpServer = &http.Server{
		Addr:        addr,
		Handler:     s.setupRoutes(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
		// No write timeout: the events endpoint holds its stream open
	}

	return s
}

// Start runs the server until it fails or is shut down
func (s *Server) Start() error {
	s.log.Info("HTTP server started", "address", s.httpServer.Addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

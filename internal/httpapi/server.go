// Package httpapi exposes read-only training and buffer status over
// HTTP, alongside the training loop.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/qforge/qforge/internal/replay"
	"github.com/qforge/qforge/internal/trainer"
)

// BufferStats is the replay-buffer side of the status surface.
type BufferStats interface {
	Stats() replay.Stats
}

// StatusSource is the training-loop side of the status surface.
type StatusSource interface {
	Status() trainer.Status
}

// Server wires HTTP handlers to the running training loop.
type Server struct {
	buffer BufferStats
	status StatusSource
	logger zerolog.Logger
}

// NewServer constructs a Server instance.
func NewServer(buffer BufferStats, status StatusSource, logger zerolog.Logger) *Server {
	return &Server{buffer: buffer, status: status, logger: logger}
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(s.logger))
	r.Use(CorrelationID)
	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Get("/status", s.handleStatus)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.buffer.Stats())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.status.Status())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

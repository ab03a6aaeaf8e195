package api

import (
	"context"
	"net/http"
	"time"

	"github.com/vytor/flashdeck/internal/logger"
)

const readinessTimeout = 2 * time.Second

// handleHealth is the liveness probe; it always succeeds while the process runs.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, r, envelope{"status": "ok"})
}

// handleReady returns 503 until the deck store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.Health == nil {
		writeOK(w, r, envelope{"status": "ready"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := s.Health.Healthy(ctx); err != nil {
		logger.FromContext(r.Context()).Warn("readiness check failed - database: %v", err)
		writeJSON(w, r, http.StatusServiceUnavailable, envelope{
			"success": false,
			"status":  "unavailable",
			"message": "database unavailable",
		})
		return
	}

	writeOK(w, r, envelope{"status": "ready"})
}

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/jobs"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/services"
)

// HealthChecker reports whether a backing dependency can serve traffic.
type HealthChecker interface {
	Healthy(ctx context.Context) error
}

type Server struct {
	Decks      services.DeckProgressService
	Multimedia services.MultimediaService
	Jobs       jobs.JobQueue
	Health     HealthChecker
	IsAdmin    func(username string) bool
}

type sessionRequest struct {
	Username string `json:"username"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("invalid session body: %v", err)
		handleError(w, r, errors.NewBadRequestError("invalid request body"))
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		handleError(w, r, errors.NewBadRequestError("username required"))
		return
	}

	setSessionCookie(w, username)
	log.WithField("user", username).Info("session started")
	writeOK(w, r, envelope{
		"username": username,
		"isAdmin":  s.isAdmin(username),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	logger.FromContext(r.Context()).Info("session cleared")
	writeOK(w, r, nil)
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if user == nil {
		handleError(w, r, errors.NewNotLoggedInError())
		return
	}
	writeOK(w, r, envelope{
		"username": user.Username,
		"isAdmin":  user.IsAdmin,
	})
}

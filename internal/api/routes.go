package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vytor/flashdeck/internal/errors"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(loggingMiddleware)
	r.Use(recoveryMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.sessionMiddleware)

		r.Get("/session", s.handleCurrentSession)
		r.Post("/session", s.handleCreateSession)
		r.Delete("/session", s.handleDeleteSession)

		r.Get("/decks", s.handleListDecks)
		r.Get("/decks/{deck}/flashcards", s.handleDeckFlashcards)
		r.Post("/decks/{deck}/cards/{cardID}/rating", s.handleRateCard)
		r.Post("/decks/{deck}/reset", s.handleResetDeck)
		r.Post("/decks/{deck}/multimedia/prefetch", s.handlePrefetchMultimedia)
		r.Get("/due", s.handleDueCards)
		r.Get("/multimedia/preview", s.handlePreviewMultimedia)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, errors.NewNotFoundError("no route for "+r.Method+" "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handleError(w, r, &errors.AppError{
			Code:    errors.ErrCodeBadRequest,
			Message: "method not allowed",
			Status:  http.StatusMethodNotAllowed,
		})
	})
	return r
}

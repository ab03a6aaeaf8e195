package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/worker"
)

func (s *Server) handlePreviewMultimedia(w http.ResponseWriter, r *http.Request) {
	word := r.URL.Query().Get("word")

	res, err := s.Multimedia.PreviewMultimediaContent(r.Context(), word)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeOK(w, r, envelope{
		"word":     res.Word,
		"audioUrl": res.AudioURL,
		"imageUrl": res.ImageURL,
		"message":  res.Message,
	})
}

// handlePrefetchMultimedia queues one lookup per distinct card front for an
// admin. Queueing stops at the first full queue; the response reports how
// many were accepted.
func (s *Server) handlePrefetchMultimedia(w http.ResponseWriter, r *http.Request) {
	deck := pathParam(r, "deck")
	log := logger.FromContext(r.Context()).WithField("deck", deck)

	user := userFromContext(r.Context())
	if user == nil {
		handleError(w, r, apperrors.NewNotLoggedInError())
		return
	}
	if !user.IsAdmin {
		handleError(w, r, apperrors.NewForbiddenError("multimedia prefetch requires an admin"))
		return
	}

	cards, err := s.Decks.ListCards(r.Context(), deck)
	if err != nil {
		handleError(w, r, err)
		return
	}

	seen := make(map[string]bool, len(cards))
	words := make([]string, 0, len(cards))
	for _, c := range cards {
		word := strings.ToLower(strings.TrimSpace(c.SideA))
		if word == "" || seen[word] {
			continue
		}
		seen[word] = true
		words = append(words, word)
	}

	queued := 0
	for _, word := range words {
		if err := s.Jobs.EnqueuePrefetch(word); err != nil {
			if errors.Is(err, worker.ErrQueueFull) || errors.Is(err, worker.ErrPoolClosed) {
				log.Warn("prefetch stopped after %d of %d words: %v", queued, len(words), err)
				writeJSON(w, r, http.StatusAccepted, envelope{
					"queued":  queued,
					"message": fmt.Sprintf("queued %d of %d words; %v", queued, len(words), err),
				})
				return
			}
			handleError(w, r, err)
			return
		}
		queued++
	}

	log.Info("queued %d multimedia prefetch jobs", queued)
	writeJSON(w, r, http.StatusAccepted, envelope{
		"queued":  queued,
		"message": fmt.Sprintf("queued %d words", queued),
	})
}

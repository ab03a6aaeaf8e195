package api

import (
	"net/http"

	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/logger"
)

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.Decks.ListDecks(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if decks == nil {
		decks = []string{}
	}
	writeOK(w, r, envelope{"decks": decks})
}

func (s *Server) handleDeckFlashcards(w http.ResponseWriter, r *http.Request) {
	deck := pathParam(r, "deck")
	log := logger.FromContext(r.Context()).WithField("deck", deck)
	log.Debug("loading flashcards for deck")

	fc, err := s.Decks.GetFlashcardsForDeck(r.Context(), deck, userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Debug("deck has %d cards, %d due", fc.TotalCards, fc.DueCards)
	writeOK(w, r, envelope{
		"deck":       fc.Deck,
		"cards":      fc.Cards,
		"totalCards": fc.TotalCards,
		"dueCards":   fc.DueCards,
		"skipped":    fc.Skipped,
	})
}

type ratingRequest struct {
	Rating *int `json:"rating"`
}

func (s *Server) handleRateCard(w http.ResponseWriter, r *http.Request) {
	deck := pathParam(r, "deck")
	cardID := pathParam(r, "cardID")
	log := logger.FromContext(r.Context()).WithFields(map[string]any{
		"deck":    deck,
		"card_id": cardID,
	})

	var req ratingRequest
	if err := decodeJSON(r, &req); err != nil {
		log.Warn("invalid rating body: %v", err)
		handleError(w, r, errors.NewBadRequestError("invalid request body"))
		return
	}
	if req.Rating == nil {
		handleError(w, r, errors.NewBadRequestError("rating required"))
		return
	}

	res, err := s.Decks.RecordCardRating(r.Context(), deck, cardID, userFromContext(r.Context()), *req.Rating)
	if err != nil {
		handleError(w, r, err)
		return
	}

	log.Info("card rated %d, next due %s", res.Rating, res.NextDue.Format("2006-01-02"))
	writeOK(w, r, envelope{
		"cardId":     res.CardID,
		"rating":     res.Rating,
		"lastReview": res.LastReview,
		"nextDue":    res.NextDue,
		"interval":   res.Interval,
	})
}

func (s *Server) handleResetDeck(w http.ResponseWriter, r *http.Request) {
	deck := pathParam(r, "deck")

	if err := s.Decks.ResetDeckProgress(r.Context(), deck, userFromContext(r.Context())); err != nil {
		handleError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).WithField("deck", deck).Info("deck progress reset")
	writeOK(w, r, envelope{"message": "progress reset for deck " + deck})
}

func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request) {
	due, err := s.Decks.GetUserDueCards(r.Context(), userFromContext(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeOK(w, r, envelope{
		"dueCardsByDeck": due.DueCardsByDeck,
		"totalDue":       due.TotalDue,
	})
}

package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/vytor/flashdeck/internal/deck"
	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/flashcard"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/progress"
	"github.com/vytor/flashdeck/internal/repository"
)

// DeckProgressService merges decks with per-user scheduling state
type DeckProgressService interface {
	ListDecks(ctx context.Context) ([]string, error)
	ListCards(ctx context.Context, deckName string) ([]models.Card, error)
	GetFlashcardsForDeck(ctx context.Context, deckName string, user *models.User) (*models.DeckFlashcards, error)
	RecordCardRating(ctx context.Context, deckName, cardID string, user *models.User, rating int) (*models.RatingResult, error)
	ResetDeckProgress(ctx context.Context, deckName string, user *models.User) error
	GetUserDueCards(ctx context.Context, user *models.User) (*models.UserDueCards, error)
}

type deckProgressService struct {
	store   repository.TabularStore
	columns *progress.Manager
	now     func() time.Time
}

type DeckProgressOption func(*deckProgressService)

// WithClock replaces time.Now as the source of "today".
func WithClock(now func() time.Time) DeckProgressOption {
	return func(s *deckProgressService) { s.now = now }
}

// WithColumnManager shares a column manager, and its table locks, with
// other components.
func WithColumnManager(m *progress.Manager) DeckProgressOption {
	return func(s *deckProgressService) { s.columns = m }
}

// NewDeckProgressService creates a new DeckProgressService
func NewDeckProgressService(store repository.TabularStore, opts ...DeckProgressOption) DeckProgressService {
	s := &deckProgressService{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.columns == nil {
		s.columns = progress.NewManager(nil)
	}
	return s
}

// Tables whose name starts with this prefix are internal and not decks.
const hiddenPrefix = "_"

func (s *deckProgressService) ListDecks(ctx context.Context) ([]string, error) {
	names, err := s.store.ListTables(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}
	decks := make([]string, 0, len(names))
	for _, n := range names {
		if !strings.HasPrefix(n, hiddenPrefix) {
			decks = append(decks, n)
		}
	}
	return decks, nil
}

func (s *deckProgressService) ListCards(ctx context.Context, deckName string) ([]models.Card, error) {
	contents, err := deck.ReadCards(ctx, s.store, deckName)
	if err != nil {
		return nil, err
	}
	return contents.Cards, nil
}

func (s *deckProgressService) GetFlashcardsForDeck(ctx context.Context, deckName string, user *models.User) (*models.DeckFlashcards, error) {
	username, err := requireUser(user)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).WithFields(map[string]any{"deck": deckName, "user": username})
	log.Debug("loading flashcards")

	contents, err := deck.ReadCards(ctx, s.store, deckName)
	if err != nil {
		return nil, err
	}
	cols, err := s.columns.EnsureUserColumns(ctx, contents.Table, username)
	if err != nil {
		log.Error("failed to ensure progress columns: %v", err)
		return nil, errors.NewInternalError(err)
	}

	rows := make(map[int]repository.Row, len(contents.Rows))
	for _, r := range contents.Rows {
		rows[r.Index] = r
	}

	now := s.now()
	out := &models.DeckFlashcards{
		Deck:    deckName,
		Cards:   make([]models.CardWithProgress, 0, len(contents.Cards)),
		Skipped: contents.Skipped,
	}
	for _, card := range contents.Cards {
		rec := progress.ReadRecord(rows[card.Row], cols)
		due := flashcard.IsDue(now, rec.NextDue)
		if due {
			out.DueCards++
		}
		out.Cards = append(out.Cards, models.CardWithProgress{Card: card, Progress: rec, IsDue: due})
	}
	out.TotalCards = len(out.Cards)

	log.Debug("loaded %d cards, %d due", out.TotalCards, out.DueCards)
	return out, nil
}

func (s *deckProgressService) RecordCardRating(ctx context.Context, deckName, cardID string, user *models.User, rating int) (*models.RatingResult, error) {
	username, err := requireUser(user)
	if err != nil {
		return nil, err
	}
	r := flashcard.Rating(rating)
	if !r.Valid() {
		return nil, errors.NewInvalidRatingError(rating)
	}
	cardID = strings.TrimSpace(cardID)
	log := logger.FromContext(ctx).WithFields(map[string]any{"deck": deckName, "user": username, "card": cardID})
	log.Debug("recording rating %s", r)

	contents, err := deck.ReadCards(ctx, s.store, deckName)
	if err != nil {
		return nil, err
	}
	cols, err := s.columns.EnsureUserColumns(ctx, contents.Table, username)
	if err != nil {
		log.Error("failed to ensure progress columns: %v", err)
		return nil, errors.NewInternalError(err)
	}

	unlock := s.columns.Lock(deckName)
	defer unlock()

	// Re-read under the lock so the row lookup sees concurrent edits.
	contents, err = deck.ReadCards(ctx, s.store, deckName)
	if err != nil {
		return nil, err
	}
	row := -1
	for _, c := range contents.Cards {
		if c.ID == cardID {
			row = c.Row
			break
		}
	}
	if row < 0 {
		return nil, errors.NewCardNotFoundError(deckName, cardID)
	}

	now := s.now()
	nextDue := flashcard.ComputeNextDue(now, r)
	if err := contents.Table.SetCells(ctx, progress.RatingUpdates(row, cols, r, now, nextDue)); err != nil {
		log.Error("failed to write rating: %v", err)
		return nil, errors.NewInternalError(err)
	}

	log.Info("card rated %s, next due %s", r, nextDue.Format("2006-01-02"))
	return &models.RatingResult{
		CardID:     cardID,
		Rating:     int(r),
		LastReview: now,
		NextDue:    nextDue,
		Interval:   flashcard.CalculateInterval(r),
	}, nil
}

func (s *deckProgressService) ResetDeckProgress(ctx context.Context, deckName string, user *models.User) error {
	username, err := requireUser(user)
	if err != nil {
		return err
	}
	log := logger.FromContext(ctx).WithFields(map[string]any{"deck": deckName, "user": username})

	table, err := s.store.GetTable(ctx, deckName)
	if err != nil {
		if stderrors.Is(err, repository.ErrTableNotFound) {
			return errors.NewDeckNotFoundError(deckName)
		}
		return errors.NewInternalError(err)
	}

	unlock := s.columns.Lock(deckName)
	defer unlock()

	cols, _, err := s.columns.LookupUserColumns(ctx, table, username)
	if err != nil {
		return errors.NewInternalError(err)
	}
	if len(cols.Present()) == 0 {
		log.Debug("no progress to reset")
		return nil
	}

	rows, err := table.Rows(ctx)
	if err != nil {
		return errors.NewInternalError(err)
	}
	updates := progress.ClearUpdates(rows, cols)
	if err := table.SetCells(ctx, updates); err != nil {
		log.Error("failed to clear progress: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("progress reset, %d cells cleared", len(updates))
	return nil
}

func (s *deckProgressService) GetUserDueCards(ctx context.Context, user *models.User) (*models.UserDueCards, error) {
	username, err := requireUser(user)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx).WithField("user", username)

	decks, err := s.ListDecks(ctx)
	if err != nil {
		return nil, err
	}

	out := &models.UserDueCards{DueCardsByDeck: make(map[string]models.DeckDueSummary, len(decks))}
	for _, name := range decks {
		fc, err := s.GetFlashcardsForDeck(ctx, name, user)
		if err != nil {
			log.Warn("skipping deck %s in due summary: %v", name, err)
			out.DueCardsByDeck[name] = models.DeckDueSummary{
				DueCards:  []models.CardWithProgress{},
				Error:     messageOf(err),
				ErrorCode: errors.CodeOf(err),
			}
			continue
		}
		due := make([]models.CardWithProgress, 0, fc.DueCards)
		for _, c := range fc.Cards {
			if c.IsDue {
				due = append(due, c)
			}
		}
		out.DueCardsByDeck[name] = models.DeckDueSummary{
			TotalCards: fc.TotalCards,
			DueCount:   len(due),
			DueCards:   due,
		}
		out.TotalDue += len(due)
	}
	log.Debug("%d cards due across %d decks", out.TotalDue, len(decks))
	return out, nil
}

func requireUser(user *models.User) (string, error) {
	if user == nil {
		return "", errors.NewNotLoggedInError()
	}
	username, err := progress.NormalizeUsername(user.Username)
	if err != nil {
		return "", errors.NewNotLoggedInError()
	}
	return username, nil
}

func messageOf(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}

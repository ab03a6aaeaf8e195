package services_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/flashcard"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/progress"
	"github.com/vytor/flashdeck/internal/repository"
	"github.com/vytor/flashdeck/internal/repository/sqlite"
	"github.com/vytor/flashdeck/internal/services"
	"github.com/vytor/flashdeck/internal/testutil"
)

type DeckProgressServiceSuite struct {
	suite.Suite
	db    *sql.DB
	store repository.TabularStore
	now   time.Time
	svc   services.DeckProgressService
	alice *models.User
}

func (s *DeckProgressServiceSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.store = sqlite.NewTabularStore(s.db)
	s.now = time.Date(2024, 3, 4, 15, 30, 0, 0, time.UTC)
	s.svc = services.NewDeckProgressService(s.store, services.WithClock(func() time.Time { return s.now }))
	s.alice = &models.User{Username: "alice"}
	testutil.SeedDeck(s.T(), s.store, "Sample_Deck", testutil.SampleCards(5)...)
}

func (s *DeckProgressServiceSuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *DeckProgressServiceSuite) card(fc *models.DeckFlashcards, id string) models.CardWithProgress {
	for _, c := range fc.Cards {
		if c.ID == id {
			return c
		}
	}
	s.FailNow("card not found", id)
	return models.CardWithProgress{}
}

func (s *DeckProgressServiceSuite) TestGetFlashcards_NewUserEverythingDue() {
	fc, err := s.svc.GetFlashcardsForDeck(context.Background(), "Sample_Deck", s.alice)
	s.Require().NoError(err)

	s.Assert().Equal(5, fc.TotalCards)
	s.Assert().Equal(5, fc.DueCards)
	for _, c := range fc.Cards {
		s.Assert().True(c.IsDue)
		s.Assert().Equal(models.NewProgress(), c.Progress)
	}
}

func (s *DeckProgressServiceSuite) TestGetFlashcards_Errors() {
	ctx := context.Background()

	_, err := s.svc.GetFlashcardsForDeck(ctx, "Sample_Deck", nil)
	s.Assert().Equal(errors.ErrCodeNotLoggedIn, errors.CodeOf(err))

	_, err = s.svc.GetFlashcardsForDeck(ctx, "Sample_Deck", &models.User{Username: "  "})
	s.Assert().Equal(errors.ErrCodeNotLoggedIn, errors.CodeOf(err))

	_, err = s.svc.GetFlashcardsForDeck(ctx, "Missing", s.alice)
	s.Assert().Equal(errors.ErrCodeDeckNotFound, errors.CodeOf(err))

	testutil.SeedTable(s.T(), s.store, "Broken", []string{"id", "sideA"})
	_, err = s.svc.GetFlashcardsForDeck(ctx, "Broken", s.alice)
	s.Assert().Equal(errors.ErrCodeSchema, errors.CodeOf(err))
}

func (s *DeckProgressServiceSuite) TestRatedGoodDueAfterSevenDays() {
	ctx := context.Background()
	day := s.now

	res, err := s.svc.RecordCardRating(ctx, "Sample_Deck", "card001", s.alice, int(flashcard.Good))
	s.Require().NoError(err)
	s.Assert().Equal(7, res.Interval)
	s.Assert().Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), res.NextDue)

	s.now = day.AddDate(0, 0, 6)
	fc, err := s.svc.GetFlashcardsForDeck(ctx, "Sample_Deck", s.alice)
	s.Require().NoError(err)
	c := s.card(fc, "card001")
	s.Assert().False(c.IsDue)
	s.Assert().Equal(2, c.Progress.Rating)
	s.Assert().Equal(7, c.Progress.Interval)
	s.Assert().Equal(4, fc.DueCards)

	s.now = day.AddDate(0, 0, 7)
	fc, err = s.svc.GetFlashcardsForDeck(ctx, "Sample_Deck", s.alice)
	s.Require().NoError(err)
	s.Assert().True(s.card(fc, "card001").IsDue)
}

func (s *DeckProgressServiceSuite) TestRatingIsPerUser() {
	ctx := context.Background()
	_, err := s.svc.RecordCardRating(ctx, "Sample_Deck", "card002", s.alice, int(flashcard.Easy))
	s.Require().NoError(err)

	fc, err := s.svc.GetFlashcardsForDeck(ctx, "Sample_Deck", &models.User{Username: "bob"})
	s.Require().NoError(err)
	s.Assert().True(s.card(fc, "card002").IsDue)
	s.Assert().Equal(5, fc.DueCards)
}

func (s *DeckProgressServiceSuite) TestRecordRating_ValidatesBeforeMutation() {
	ctx := context.Background()

	_, err := s.svc.RecordCardRating(ctx, "Sample_Deck", "card001", s.alice, 4)
	s.Assert().Equal(errors.ErrCodeInvalidRating, errors.CodeOf(err))
	_, err = s.svc.RecordCardRating(ctx, "Sample_Deck", "card001", s.alice, -1)
	s.Assert().Equal(errors.ErrCodeInvalidRating, errors.CodeOf(err))
	_, err = s.svc.RecordCardRating(ctx, "Sample_Deck", "card001", nil, 2)
	s.Assert().Equal(errors.ErrCodeNotLoggedIn, errors.CodeOf(err))

	table, err := s.store.GetTable(ctx, "Sample_Deck")
	s.Require().NoError(err)
	headers, err := table.Headers(ctx)
	s.Require().NoError(err)
	s.Assert().Len(headers, len(models.DeckColumns), "no columns created by rejected calls")
}

func (s *DeckProgressServiceSuite) TestRecordRating_CardNotFound() {
	_, err := s.svc.RecordCardRating(context.Background(), "Sample_Deck", "nope", s.alice, 1)
	s.Assert().Equal(errors.ErrCodeCardNotFound, errors.CodeOf(err))
}

func (s *DeckProgressServiceSuite) TestRecordRating_ConcurrentWritersLeaveOneConsistentRecord() {
	ctx := context.Background()
	var wg sync.WaitGroup
	for r := 0; r <= 3; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			_, err := s.svc.RecordCardRating(ctx, "Sample_Deck", "card003", s.alice, r)
			s.Assert().NoError(err)
		}(r)
	}
	wg.Wait()

	fc, err := s.svc.GetFlashcardsForDeck(ctx, "Sample_Deck", s.alice)
	s.Require().NoError(err)
	p := s.card(fc, "card003").Progress
	s.Require().NotNil(p.NextDue)
	expected := flashcard.ComputeNextDue(s.now, flashcard.Rating(p.Rating))
	s.Assert().True(expected.Equal(*p.NextDue), "nextDue matches the stored rating")

	table, err := s.store.GetTable(ctx, "Sample_Deck")
	s.Require().NoError(err)
	headers, err := table.Headers(ctx)
	s.Require().NoError(err)
	s.Assert().Len(headers, len(models.DeckColumns)+3)
}

func (s *DeckProgressServiceSuite) TestResetDeckProgress_Idempotent() {
	ctx := context.Background()
	for _, id := range []string{"card001", "card004"} {
		_, err := s.svc.RecordCardRating(ctx, "Sample_Deck", id, s.alice, int(flashcard.Easy))
		s.Require().NoError(err)
	}
	_, err := s.svc.RecordCardRating(ctx, "Sample_Deck", "card001", &models.User{Username: "bob"}, int(flashcard.Easy))
	s.Require().NoError(err)

	for i := 0; i < 2; i++ {
		s.Require().NoError(s.svc.ResetDeckProgress(ctx, "Sample_Deck", s.alice))

		fc, err := s.svc.GetFlashcardsForDeck(ctx, "Sample_Deck", s.alice)
		s.Require().NoError(err)
		s.Assert().Equal(5, fc.DueCards)
		for _, c := range fc.Cards {
			s.Assert().True(c.IsDue)
			s.Assert().Equal(models.NewProgress(), c.Progress)
		}
	}

	fc, err := s.svc.GetFlashcardsForDeck(ctx, "Sample_Deck", &models.User{Username: "bob"})
	s.Require().NoError(err)
	s.Assert().False(s.card(fc, "card001").IsDue, "other users keep their progress")
}

func (s *DeckProgressServiceSuite) TestResetDeckProgress_NoColumnsIsNoop() {
	ctx := context.Background()
	s.Require().NoError(s.svc.ResetDeckProgress(ctx, "Sample_Deck", &models.User{Username: "newcomer"}))

	cols, found, err := progress.NewManager(nil).LookupUserColumns(ctx, s.mustTable("Sample_Deck"), "newcomer")
	s.Require().NoError(err)
	s.Assert().False(found)
	s.Assert().Empty(cols.Present())

	err = s.svc.ResetDeckProgress(ctx, "Missing", s.alice)
	s.Assert().Equal(errors.ErrCodeDeckNotFound, errors.CodeOf(err))
}

func (s *DeckProgressServiceSuite) TestGetUserDueCards_AnnotatesBrokenDeck() {
	ctx := context.Background()
	testutil.SeedTable(s.T(), s.store, "A", models.DeckColumns,
		[]string{"a1", "uno", "one"},
		[]string{"a2", "dos", "two"},
	)
	testutil.SeedTable(s.T(), s.store, "B", []string{"id", "sideA"}, []string{"b1", "tres"})
	testutil.SeedTable(s.T(), s.store, "_settings", []string{"key"})
	_, err := s.svc.RecordCardRating(ctx, "A", "a1", s.alice, int(flashcard.Hard))
	s.Require().NoError(err)

	due, err := s.svc.GetUserDueCards(ctx, s.alice)
	s.Require().NoError(err)

	s.Assert().Len(due.DueCardsByDeck, 3)
	s.Assert().NotContains(due.DueCardsByDeck, "_settings")

	a := due.DueCardsByDeck["A"]
	s.Assert().Empty(a.Error)
	s.Assert().Equal(2, a.TotalCards)
	s.Assert().Equal(1, a.DueCount)
	s.Require().Len(a.DueCards, 1)
	s.Assert().Equal("a2", a.DueCards[0].ID)

	b := due.DueCardsByDeck["B"]
	s.Assert().Equal(errors.ErrCodeSchema, b.ErrorCode)
	s.Assert().Contains(b.Error, "sideB")

	s.Assert().Equal(5, due.DueCardsByDeck["Sample_Deck"].DueCount)
	s.Assert().Equal(6, due.TotalDue)
}

func (s *DeckProgressServiceSuite) TestListDecksAndCards() {
	ctx := context.Background()
	testutil.SeedTable(s.T(), s.store, "_meta", []string{"key"})

	decks, err := s.svc.ListDecks(ctx)
	s.Require().NoError(err)
	s.Assert().Equal([]string{"Sample_Deck"}, decks)

	cards, err := s.svc.ListCards(ctx, "Sample_Deck")
	s.Require().NoError(err)
	s.Assert().Len(cards, 5)
}

func (s *DeckProgressServiceSuite) mustTable(name string) repository.Table {
	table, err := s.store.GetTable(context.Background(), name)
	s.Require().NoError(err)
	return table
}

func TestDeckProgressServiceSuite(t *testing.T) {
	suite.Run(t, new(DeckProgressServiceSuite))
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/flashdeck/internal/models"
)

// MockDeckProgressService is a mock implementation of services.DeckProgressService
type MockDeckProgressService struct {
	mock.Mock
}

func (m *MockDeckProgressService) ListDecks(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDeckProgressService) ListCards(ctx context.Context, deckName string) ([]models.Card, error) {
	args := m.Called(ctx, deckName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Card), args.Error(1)
}

func (m *MockDeckProgressService) GetFlashcardsForDeck(ctx context.Context, deckName string, user *models.User) (*models.DeckFlashcards, error) {
	args := m.Called(ctx, deckName, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DeckFlashcards), args.Error(1)
}

func (m *MockDeckProgressService) RecordCardRating(ctx context.Context, deckName, cardID string, user *models.User, rating int) (*models.RatingResult, error) {
	args := m.Called(ctx, deckName, cardID, user, rating)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RatingResult), args.Error(1)
}

func (m *MockDeckProgressService) ResetDeckProgress(ctx context.Context, deckName string, user *models.User) error {
	args := m.Called(ctx, deckName, user)
	return args.Error(0)
}

func (m *MockDeckProgressService) GetUserDueCards(ctx context.Context, user *models.User) (*models.UserDueCards, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserDueCards), args.Error(1)
}

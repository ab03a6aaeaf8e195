package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/flashdeck/internal/models"
)

// MockProvider is a mock implementation of multimedia.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) FetchAudio(ctx context.Context, word string) models.MediaLookup {
	args := m.Called(ctx, word)
	return args.Get(0).(models.MediaLookup)
}

func (m *MockProvider) FetchImage(ctx context.Context, word string) models.MediaLookup {
	args := m.Called(ctx, word)
	return args.Get(0).(models.MediaLookup)
}

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/flashdeck/internal/models"
)

// MockMultimediaService is a mock implementation of services.MultimediaService
type MockMultimediaService struct {
	mock.Mock
}

func (m *MockMultimediaService) PreviewMultimediaContent(ctx context.Context, word string) (*models.MultimediaResult, error) {
	args := m.Called(ctx, word)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MultimediaResult), args.Error(1)
}

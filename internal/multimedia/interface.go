package multimedia

import (
	"context"

	"github.com/vytor/flashdeck/internal/models"
)

// Provider looks up pronunciation audio and an illustrative image for a
// word. Failures are reported in the result, never as errors.
type Provider interface {
	FetchAudio(ctx context.Context, word string) models.MediaLookup
	FetchImage(ctx context.Context, word string) models.MediaLookup
}

var _ Provider = (*Client)(nil)

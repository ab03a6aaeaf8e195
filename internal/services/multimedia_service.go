package services

import (
	"context"
	"strings"
	"time"

	"github.com/vytor/flashdeck/internal/cache"
	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/multimedia"
	"github.com/vytor/flashdeck/internal/repository"
	"golang.org/x/sync/errgroup"
)

// MultimediaService looks up audio and images for a word through a TTL cache
type MultimediaService interface {
	PreviewMultimediaContent(ctx context.Context, word string) (*models.MultimediaResult, error)
}

type multimediaService struct {
	provider multimedia.Provider
	cache    *cache.TTLCache[models.MultimediaResult]
}

// NewMultimediaService creates a new MultimediaService
func NewMultimediaService(provider multimedia.Provider, c *cache.TTLCache[models.MultimediaResult]) MultimediaService {
	return &multimediaService{provider: provider, cache: c}
}

// NewMultimediaCache builds a result cache that skips fully failed lookups.
func NewMultimediaCache(store repository.CacheStore, ttl time.Duration, opts ...cache.Option[models.MultimediaResult]) *cache.TTLCache[models.MultimediaResult] {
	opts = append([]cache.Option[models.MultimediaResult]{cache.WithStorePolicy(CacheMultimedia)}, opts...)
	return cache.New[models.MultimediaResult](store, ttl, opts...)
}

// MultimediaCacheKey is the cache key of a normalized word.
func MultimediaCacheKey(word string) string {
	return "multimedia:" + word
}

// CacheMultimedia is the store policy for multimedia results.
func CacheMultimedia(r models.MultimediaResult) bool {
	return r.HasAny()
}

func (s *multimediaService) PreviewMultimediaContent(ctx context.Context, word string) (*models.MultimediaResult, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return nil, errors.NewBadRequestError("word is required")
	}
	log := logger.FromContext(ctx).WithField("word", word)

	result, err := s.cache.Get(ctx, MultimediaCacheKey(word), func(ctx context.Context) (models.MultimediaResult, error) {
		return s.fetch(ctx, word), nil
	})
	if err != nil {
		log.Error("multimedia lookup failed: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if !result.Success {
		log.Warn("no multimedia available: %s", result.Message)
		return nil, errors.NewServiceUnavailableError(result.Message)
	}
	return &result, nil
}

func (s *multimediaService) fetch(ctx context.Context, word string) models.MultimediaResult {
	var audio, image models.MediaLookup
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		audio = s.provider.FetchAudio(gctx, word)
		return nil
	})
	g.Go(func() error {
		image = s.provider.FetchImage(gctx, word)
		return nil
	})
	_ = g.Wait()

	result := models.MultimediaResult{Word: word}
	if audio.Success {
		result.AudioURL = audio.URL
	}
	if image.Success {
		result.ImageURL = image.URL
	}
	result.Success = result.HasAny()
	result.Message = summarize(audio, image)
	return result
}

func summarize(audio, image models.MediaLookup) string {
	switch {
	case audio.Success && image.Success:
		return "audio and image found"
	case audio.Success:
		return "audio found; image unavailable: " + reason(image)
	case image.Success:
		return "image found; audio unavailable: " + reason(audio)
	default:
		return "audio unavailable: " + reason(audio) + "; image unavailable: " + reason(image)
	}
}

func reason(l models.MediaLookup) string {
	if l.Message == "" {
		return "unknown error"
	}
	return l.Message
}

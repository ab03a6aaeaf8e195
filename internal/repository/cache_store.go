package repository

import (
	"context"
	"time"

	"github.com/vytor/flashdeck/internal/models"
)

// CacheStore persists serialized cache entries. Expiry is decided by the
// caller from the entry timestamp.
type CacheStore interface {
	// Load returns nil, nil when the key is absent.
	Load(ctx context.Context, key string) (*models.CacheEntry, error)
	Save(ctx context.Context, entry models.CacheEntry) error
	Delete(ctx context.Context, key string) error
	// PurgeOlderThan removes entries stored before cutoff and reports how many.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

type cacheStore struct {
	db *sqlx.DB
}

// NewCacheStore creates a CacheStore on the multimedia_cache table.
func NewCacheStore(db *sql.DB) repository.CacheStore {
	return &cacheStore{db: sqlx.NewDb(db, "sqlite3")}
}

func (s *cacheStore) Load(ctx context.Context, key string) (*models.CacheEntry, error) {
	log := logger.FromContext(ctx).WithPrefix("cache_store")

	var entry models.CacheEntry
	err := s.db.GetContext(ctx, &entry, `SELECT cache_key, data, created_at FROM multimedia_cache WHERE cache_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("cache entry not found: key=%s", key)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to load cache entry %s: %v", key, err)
		return nil, err
	}
	return &entry, nil
}

func (s *cacheStore) Save(ctx context.Context, entry models.CacheEntry) error {
	log := logger.FromContext(ctx).WithPrefix("cache_store")

	// Stored in UTC so created_at compares correctly as text.
	entry.Timestamp = entry.Timestamp.UTC()
	_, err := s.db.NamedExecContext(ctx, `
INSERT INTO multimedia_cache (cache_key, data, created_at)
VALUES (:cache_key, :data, :created_at)
ON CONFLICT(cache_key) DO UPDATE SET data = excluded.data, created_at = excluded.created_at
`, entry)
	if err != nil {
		log.Error("failed to save cache entry %s: %v", entry.Key, err)
		return err
	}
	log.Debug("cache entry saved: key=%s, bytes=%d", entry.Key, len(entry.Data))
	return nil
}

func (s *cacheStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM multimedia_cache WHERE cache_key = ?`, key)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("cache_store").Error("failed to delete cache entry %s: %v", key, err)
	}
	return err
}

func (s *cacheStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("cache_store")

	res, err := s.db.ExecContext(ctx, `DELETE FROM multimedia_cache WHERE created_at < ?`, cutoff.UTC())
	if err != nil {
		log.Error("failed to purge cache: %v", err)
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	log.Debug("purged %d cache entries older than %s", n, cutoff.Format(time.RFC3339))
	return n, nil
}

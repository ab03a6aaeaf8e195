package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
)

const keyPrefix = "flashdeck:cache:"

type cacheStore struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewCacheStore connects to Redis at addr. Keys expire on their own after
// ttl, so PurgeOlderThan has little left to do.
func NewCacheStore(addr string, ttl time.Duration) (repository.CacheStore, func() error, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	return &cacheStore{rdb: rdb, ttl: ttl}, rdb.Close, nil
}

func (s *cacheStore) Load(ctx context.Context, key string) (*models.CacheEntry, error) {
	raw, err := s.rdb.Get(ctx, keyPrefix+key).Bytes()
	if stderrors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		logger.FromContext(ctx).WithPrefix("redis_cache").Error("failed to load %s: %v", key, err)
		return nil, err
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		logger.FromContext(ctx).WithPrefix("redis_cache").Debug("dropping undecodable entry %s: %v", key, err)
		_ = s.rdb.Del(ctx, keyPrefix+key).Err()
		return nil, nil
	}
	return &entry, nil
}

func (s *cacheStore) Save(ctx context.Context, entry models.CacheEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, keyPrefix+entry.Key, raw, s.ttl).Err(); err != nil {
		logger.FromContext(ctx).WithPrefix("redis_cache").Error("failed to save %s: %v", entry.Key, err)
		return err
	}
	return nil
}

func (s *cacheStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, keyPrefix+key).Err()
}

// PurgeOlderThan scans the cache keyspace and removes entries stored before
// cutoff.
func (s *cacheStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	iter := s.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		entry, err := s.Load(ctx, strings.TrimPrefix(key, keyPrefix))
		if err != nil {
			return purged, err
		}
		if entry == nil || !entry.Timestamp.Before(cutoff) {
			continue
		}
		n, err := s.rdb.Del(ctx, key).Result()
		if err != nil {
			return purged, err
		}
		purged += n
	}
	if err := iter.Err(); err != nil {
		return purged, err
	}
	logger.FromContext(ctx).WithPrefix("redis_cache").Debug("purged %d entries", purged)
	return purged, nil
}

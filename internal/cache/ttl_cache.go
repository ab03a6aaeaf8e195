package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
	"github.com/vytor/flashdeck/internal/repository"
	"golang.org/x/sync/singleflight"
)

// FetchFunc produces a fresh value on a cache miss.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// TTLCache stores JSON-encoded values in a CacheStore and treats entries
// older than the TTL as absent.
type TTLCache[T any] struct {
	store       repository.CacheStore
	ttl         time.Duration
	now         func() time.Time
	shouldCache func(T) bool
	group       singleflight.Group
}

type Option[T any] func(*TTLCache[T])

// WithClock replaces time.Now.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *TTLCache[T]) { c.now = now }
}

// WithStorePolicy decides which fetched values are written back. By default
// every successful fetch is stored.
func WithStorePolicy[T any](fn func(T) bool) Option[T] {
	return func(c *TTLCache[T]) { c.shouldCache = fn }
}

func New[T any](store repository.CacheStore, ttl time.Duration, opts ...Option[T]) *TTLCache[T] {
	c := &TTLCache[T]{
		store:       store,
		ttl:         ttl,
		now:         time.Now,
		shouldCache: func(T) bool { return true },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached value for key while it is fresh, otherwise calls
// fetch. Concurrent misses on one key share a single fetch, and a caller
// whose ctx ends stops waiting without cancelling it for the others.
func (c *TTLCache[T]) Get(ctx context.Context, key string, fetch FetchFunc[T]) (T, error) {
	log := logger.FromContext(ctx).WithPrefix("cache").WithField("key", key)

	if v, ok := c.lookup(ctx, log, key); ok {
		log.Debug("cache hit")
		return v, nil
	}

	// The shared fetch outlives any single caller: it keeps the first
	// caller's context values but not its cancellation.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		v, err := fetch(fetchCtx)
		if err != nil {
			return v, err
		}
		if c.shouldCache(v) {
			c.put(fetchCtx, log, key, v)
		} else {
			log.Debug("fetched value not cached")
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		var zero T
		log.Debug("caller gave up waiting: %v", ctx.Err())
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			log.Debug("joined in-flight fetch")
		}
		v, _ := res.Val.(T)
		return v, res.Err
	}
}

// Invalidate drops the entry for key.
func (c *TTLCache[T]) Invalidate(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// PurgeExpired deletes every entry older than the TTL.
func (c *TTLCache[T]) PurgeExpired(ctx context.Context) (int64, error) {
	return c.store.PurgeOlderThan(ctx, c.now().Add(-c.ttl))
}

func (c *TTLCache[T]) lookup(ctx context.Context, log *logger.Logger, key string) (T, bool) {
	var zero T

	entry, err := c.store.Load(ctx, key)
	if err != nil {
		log.Warn("cache read failed, fetching: %v", err)
		return zero, false
	}
	if entry == nil {
		return zero, false
	}
	if age := c.now().Sub(entry.Timestamp); age >= c.ttl {
		log.Debug("cache entry expired: age=%v", age)
		return zero, false
	}

	var v T
	if err := json.Unmarshal(entry.Data, &v); err != nil {
		log.Debug("discarding corrupt cache entry: %v", err)
		if err := c.store.Delete(ctx, key); err != nil {
			log.Warn("failed to delete corrupt entry: %v", err)
		}
		return zero, false
	}
	return v, true
}

func (c *TTLCache[T]) put(ctx context.Context, log *logger.Logger, key string, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Warn("failed to encode value: %v", err)
		return
	}
	entry := models.CacheEntry{Key: key, Data: data, Timestamp: c.now()}
	if err := c.store.Save(ctx, entry); err != nil {
		log.Warn("failed to store value: %v", err)
	}
}

package rating

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/readrate/internal/domain"
)

const cacheKeyPrefix = "rating:"

// Cache stores external ratings by ISBN.
type Cache interface {
	Get(ctx context.Context, isbn string) (domain.ExternalRating, bool, error)
	Set(ctx context.Context, isbn string, r domain.ExternalRating, ttl time.Duration) error
}

// RedisCache implements Cache on Redis.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache creates a Redis-backed rating cache.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, isbn string) (domain.ExternalRating, bool, error) {
	data, err := c.client.Get(ctx, cacheKeyPrefix+isbn).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Unavailable, false, nil
		}
		return domain.Unavailable, false, fmt.Errorf("redis get rating: %w", err)
	}

	var r domain.ExternalRating
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.Unavailable, false, fmt.Errorf("unmarshal rating: %w", err)
	}
	return r, true, nil
}

func (c *RedisCache) Set(ctx context.Context, isbn string, r domain.ExternalRating, ttl time.Duration) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal rating: %w", err)
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+isbn, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set rating: %w", err)
	}
	return nil
}

// Cached answers from cache when it can and stores successful lookups for
// ttl. Cache failures are logged and bypassed.
type Cached struct {
	next   Lookup
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps next with cache.
func NewCached(next Lookup, cache Cache, ttl time.Duration, logger *slog.Logger) *Cached {
	return &Cached{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (c *Cached) Lookup(ctx context.Context, isbn string) domain.ExternalRating {
	r, ok, err := c.cache.Get(ctx, isbn)
	if err != nil {
		c.logger.WarnContext(ctx, "rating cache read failed", slog.String("isbn", isbn), slog.String("error", err.Error()))
	}
	if ok {
		return r
	}

	r = c.next.Lookup(ctx, isbn)
	if !r.Available {
		return r
	}
	if err := c.cache.Set(ctx, isbn, r, c.ttl); err != nil {
		c.logger.WarnContext(ctx, "rating cache write failed", slog.String("isbn", isbn), slog.String("error", err.Error()))
	}
	return r
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/learnnav/learning-navigator/internal/config"
	"github.com/redis/go-redis/v9"
)

// NumberFactCache keeps trivia texts in Redis so repeated lookups skip the upstream API.
type NumberFactCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewNumberFactCache creates a new NumberFactCache. Entries expire after ttl.
func NewNumberFactCache(rdb redis.Cmdable, ttl time.Duration) *NumberFactCache {
	return &NumberFactCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached fact and whether it was present.
func (c *NumberFactCache) Get(ctx context.Context, number int) (string, bool, error) {
	fact, err := c.rdb.Get(ctx, config.CacheKey.NumberFactKey(number)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return fact, true, nil
}

// Set stores the fact for number.
func (c *NumberFactCache) Set(ctx context.Context, number int, fact string) error {
	return c.rdb.Set(ctx, config.CacheKey.NumberFactKey(number), fact, c.ttl).Err()
}

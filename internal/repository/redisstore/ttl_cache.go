package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLCache stores values with SET ... EX. Redis expires keys itself, so
// absence on GET is the only expiry signal.
type TTLCache struct {
	rdb redis.UniversalClient
}

func NewTTLCache(rdb redis.UniversalClient) *TTLCache {
	return &TTLCache{rdb: rdb}
}

func (c *TTLCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *TTLCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (c *TTLCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

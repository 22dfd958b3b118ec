package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// TTLCache is an in-process key-value cache with per-item expiry. Expired
// items read as absent immediately; the janitor reclaims them periodically.
type TTLCache struct {
	cache *cache.Cache
}

func NewTTLCache(defaultTTL, cleanupInterval time.Duration) *TTLCache {
	return &TTLCache{
		cache: cache.New(defaultTTL, cleanupInterval),
	}
}

func (c *TTLCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	buf := make([]byte, len(value))
	copy(buf, value)
	c.cache.Set(key, buf, ttl)
	return nil
}

func (c *TTLCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	x, found := c.cache.Get(key)
	if !found {
		return nil, false, nil
	}
	buf, ok := x.([]byte)
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, true, nil
}

func (c *TTLCache) Delete(_ context.Context, key string) error {
	c.cache.Delete(key)
	return nil
}

// Len counts stored items, including expired ones not yet swept.
func (c *TTLCache) Len() int {
	return c.cache.ItemCount()
}

// Sweep removes expired items now instead of waiting for the janitor.
func (c *TTLCache) Sweep() {
	c.cache.DeleteExpired()
}

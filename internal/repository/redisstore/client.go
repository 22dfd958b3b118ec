package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewClient parses a redis:// URL, falling back to treating it as a bare
// host:port address.
func NewClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	opt.ReadTimeout = 5 * time.Second
	opt.WriteTimeout = 5 * time.Second
	opt.PoolSize = 10
	return redis.NewClient(opt)
}

// Ping checks connectivity within a short deadline.
func Ping(ctx context.Context, rdb redis.UniversalClient) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return rdb.Ping(ctx).Err()
}

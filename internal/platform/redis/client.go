// Package redis dials the Redis instance backing the access-attempt limiter.
// Redis is optional in this deployment: an empty URL keeps attempt counting
// in process.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"signet/internal/platform/config"
)

// Dial connects and verifies the connection with a ping. A nil client with a
// nil error means Redis is not configured and the caller should fall back to
// the in-memory limiter.
func Dial(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

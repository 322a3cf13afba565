package redis

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration. Redis is optional: the worker
// only uses it to remember which queue messages already completed.
type Config struct {
	URL      string // redis://... or rediss://... for TLS
	Password string
}

// NewClient builds a Redis client from cfg and verifies connectivity.
// Returns (nil, nil) when no URL is configured so callers can treat the
// dedupe store as absent.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		// Tolerate bare host:port values.
		parsed, perr := url.Parse("redis://" + cfg.URL)
		if perr != nil {
			return nil, fmt.Errorf("redis: invalid URL: %w", err)
		}
		opts = &redis.Options{Addr: parsed.Host}
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}
	return client, nil
}

package cache

import (
	"context"
	"time"
)

// Cache is the key-value surface used by the test-case store and the rate limiter.
type Cache interface {
	BasicOps
	CounterOps

	Ping(ctx context.Context) error
	Close() error
}

// BasicOps covers string get/set.
type BasicOps interface {
	// Get returns "" with a nil error when the key does not exist.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// CounterOps covers fixed-window counters.
type CounterOps interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL returns a negative duration when the key has no expiry or does not exist.
	TTL(ctx context.Context, key string) (time.Duration, error)
}

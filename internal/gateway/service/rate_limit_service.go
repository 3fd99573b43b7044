package service

import (
	"context"
	"fmt"
	"time"

	"codepractice/internal/common/cache"
	pkgerrors "codepractice/pkg/errors"
)

// WindowStore counts hits in fixed windows.
type WindowStore interface {
	// Hit records one hit on key and returns the count in the current window.
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimitService enforces fixed-window limits.
type RateLimitService struct {
	store        WindowStore
	window       time.Duration
	redisTimeout time.Duration
}

func NewRateLimitService(store WindowStore, window time.Duration, redisTimeout time.Duration) *RateLimitService {
	return &RateLimitService{store: store, window: window, redisTimeout: redisTimeout}
}

func (s *RateLimitService) Allow(ctx context.Context, key string, max int, window time.Duration) error {
	if s.store == nil {
		return pkgerrors.New(pkgerrors.ServiceUnavailable).WithMessage("rate limit store is unavailable")
	}
	if max <= 0 {
		return nil
	}
	if window <= 0 {
		window = s.window
	}

	ctxStore := ctx
	if s.redisTimeout > 0 {
		var cancel context.CancelFunc
		ctxStore, cancel = context.WithTimeout(ctx, s.redisTimeout)
		defer cancel()
	}

	count, err := s.store.Hit(ctxStore, key, window)
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.CacheError, "rate limit check failed")
	}
	if int(count) > max {
		return pkgerrors.New(pkgerrors.TooManyRequests).WithMessage(fmt.Sprintf("rate limit exceeded for %s", key))
	}
	return nil
}

// counterCache is the subset of the cache a Redis window needs.
type counterCache interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	cache.CounterOps
}

// RedisWindowStore shares counters across instances through Redis.
type RedisWindowStore struct {
	cache counterCache
}

func NewRedisWindowStore(c counterCache) *RedisWindowStore {
	return &RedisWindowStore{cache: c}
}

func (r *RedisWindowStore) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	acquired, err := r.cache.SetNX(ctx, key, 1, window)
	if err != nil {
		return 0, err
	}
	if acquired {
		return 1, nil
	}
	count, err := r.cache.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	// A key that lost its expiry would otherwise block forever.
	ttl, ttlErr := r.cache.TTL(ctx, key)
	if ttlErr == nil && ttl <= 0 {
		_ = r.cache.Expire(ctx, key, window)
	}
	return count, nil
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheWithClient(client), mr
}

func TestRedisCacheGetMissingKey(t *testing.T) {
	c, _ := newTestCache(t)
	val, err := c.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "" {
		t.Fatalf("expected empty value, got %q", val)
	}
}

func TestRedisCacheCounterWindow(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	n, err := c.Incr(ctx, "counter")
	if err != nil || n != 1 {
		t.Fatalf("first incr: n=%d err=%v", n, err)
	}
	if err := c.Expire(ctx, "counter", time.Minute); err != nil {
		t.Fatalf("expire: %v", err)
	}
	ttl, err := c.TTL(ctx, "counter")
	if err != nil || ttl <= 0 {
		t.Fatalf("ttl: %v err=%v", ttl, err)
	}

	mr.FastForward(time.Minute + time.Second)
	val, err := c.Get(ctx, "counter")
	if err != nil || val != "" {
		t.Fatalf("expected expired counter, got %q err=%v", val, err)
	}
}

type cachedItem struct {
	Name string `json:"name"`
}

func TestGetWithCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0
	fetch := func(context.Context) ([]cachedItem, error) {
		calls++
		return []cachedItem{{Name: "a"}}, nil
	}

	get := func() ([]cachedItem, error) {
		return GetWithCached(ctx, c, "items", time.Minute, time.Second,
			func(v []cachedItem) bool { return len(v) == 0 },
			func(v []cachedItem) (string, error) {
				b, err := json.Marshal(v)
				return string(b), err
			},
			func(s string) ([]cachedItem, error) {
				var v []cachedItem
				err := json.Unmarshal([]byte(s), &v)
				return v, err
			},
			fetch,
		)
	}

	for i := 0; i < 2; i++ {
		items, err := get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 || items[0].Name != "a" {
			t.Fatalf("unexpected items: %+v", items)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one fetch, got %d", calls)
	}
}

func TestGetWithCachedEmptyAndError(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	empty := func(context.Context) (string, error) { return "", nil }
	identity := func(s string) (string, error) { return s, nil }
	isEmpty := func(s string) bool { return s == "" }

	if _, err := GetWithCached(ctx, c, "k", time.Minute, time.Second, isEmpty, identity, identity, empty); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := mr.Get("k")
	if got != NullCacheValue {
		t.Fatalf("expected null marker, got %q", got)
	}

	boom := errors.New("boom")
	failing := func(context.Context) (string, error) { return "", boom }
	if _, err := GetWithCached(ctx, c, "other", time.Minute, time.Second, isEmpty, identity, identity, failing); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
}

func TestJitterTTL(t *testing.T) {
	ttl := 10 * time.Minute
	for i := 0; i < 20; i++ {
		got := JitterTTL(ttl)
		if got > ttl || got < ttl-ttl/10 {
			t.Fatalf("jitter out of range: %v", got)
		}
	}
	if JitterTTL(0) != 0 {
		t.Fatalf("expected zero ttl to stay zero")
	}
}

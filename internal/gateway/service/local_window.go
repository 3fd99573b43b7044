package service

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type windowEntry struct {
	count   int64
	resetAt time.Time
}

// LocalWindowStore keeps counters in process. It is used when Redis is not
// configured, so limits apply per instance.
type LocalWindowStore struct {
	entries *xsync.MapOf[string, windowEntry]
	now     func() time.Time
}

func NewLocalWindowStore() *LocalWindowStore {
	return &LocalWindowStore{
		entries: xsync.NewMapOf[string, windowEntry](),
		now:     time.Now,
	}
}

func (l *LocalWindowStore) Hit(_ context.Context, key string, window time.Duration) (int64, error) {
	now := l.now()
	entry, _ := l.entries.Compute(key, func(old windowEntry, loaded bool) (windowEntry, bool) {
		if !loaded || !now.Before(old.resetAt) {
			return windowEntry{count: 1, resetAt: now.Add(window)}, false
		}
		old.count++
		return old, false
	})
	return entry.count, nil
}

// Sweep drops expired windows. Callers run it periodically.
func (l *LocalWindowStore) Sweep() int {
	now := l.now()
	removed := 0
	l.entries.Range(func(key string, entry windowEntry) bool {
		if !now.Before(entry.resetAt) {
			l.entries.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Len reports how many windows are tracked.
func (l *LocalWindowStore) Len() int {
	return l.entries.Size()
}

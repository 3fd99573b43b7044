package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"codepractice/internal/judge/model"
)

type scriptedFetcher struct {
	statuses []int
	calls    int
	err      error
	errAt    int
}

func (f *scriptedFetcher) Fetch(_ context.Context, token string) (model.ExecutionResult, error) {
	f.calls++
	if f.err != nil && f.calls == f.errAt {
		return model.ExecutionResult{}, f.err
	}
	id := f.statuses[len(f.statuses)-1]
	if f.calls-1 < len(f.statuses) {
		id = f.statuses[f.calls-1]
	}
	return model.ExecutionResult{Status: model.Status{ID: id}, Stdout: token}, nil
}

func TestWaitReturnsFirstTerminal(t *testing.T) {
	t.Parallel()
	f := &scriptedFetcher{statuses: []int{1, 2, 2, 3}}
	clock := &FakeClock{}
	p := New(f, clock, Config{Interval: 250 * time.Millisecond, MaxAttempts: 10})

	res, err := p.Wait(context.Background(), "tok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Status.ID != 3 || f.calls != 4 {
		t.Fatalf("status=%d calls=%d", res.Status.ID, f.calls)
	}
	sleeps := clock.Sleeps()
	if len(sleeps) != 3 {
		t.Fatalf("expected 3 sleeps, got %d", len(sleeps))
	}
	for _, d := range sleeps {
		if d != 250*time.Millisecond {
			t.Fatalf("interval must be fixed, got %v", d)
		}
	}
}

func TestWaitStopsAfterExactlyMaxAttempts(t *testing.T) {
	t.Parallel()
	for _, budget := range []int{1, 3, 10} {
		f := &scriptedFetcher{statuses: []int{2}}
		clock := &FakeClock{}
		p := New(f, clock, Config{MaxAttempts: budget})

		res, err := p.Wait(context.Background(), "slow")
		if err != nil {
			t.Fatalf("budget exhaustion must not be an error: %v", err)
		}
		if f.calls != budget {
			t.Fatalf("budget=%d: expected %d fetches, got %d", budget, budget, f.calls)
		}
		if res.Status.Terminal() || res.Stdout != "slow" {
			t.Fatalf("expected last non-terminal result, got %+v", res)
		}
		if len(clock.Sleeps()) != budget-1 {
			t.Fatalf("budget=%d: expected %d sleeps, got %d", budget, budget-1, len(clock.Sleeps()))
		}
	}
}

func TestWaitTerminalOnFirstFetch(t *testing.T) {
	t.Parallel()
	for _, id := range []int{3, 4, 5, 6, 11, 13} {
		f := &scriptedFetcher{statuses: []int{id}}
		clock := &FakeClock{}
		res, err := New(f, clock, Config{}).Wait(context.Background(), "t")
		if err != nil || res.Status.ID != id {
			t.Fatalf("id %d: res=%+v err=%v", id, res, err)
		}
		if f.calls != 1 || len(clock.Sleeps()) != 0 {
			t.Fatalf("id %d: expected a single fetch without sleeping", id)
		}
	}
}

func TestWaitPropagatesFetchError(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection reset")
	f := &scriptedFetcher{statuses: []int{1}, err: boom, errAt: 2}
	_, err := New(f, &FakeClock{}, Config{}).Wait(context.Background(), "t")
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if f.calls != 2 {
		t.Fatalf("no fetch should follow an error, calls=%d", f.calls)
	}
}

func TestWaitHonoursCancellation(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := &scriptedFetcher{statuses: []int{1}}
	_, err := New(f, &FakeClock{}, Config{}).Wait(ctx, "t")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestDefaults(t *testing.T) {
	t.Parallel()
	p := New(&scriptedFetcher{statuses: []int{3}}, nil, Config{})
	if p.MaxAttempts() != DefaultMaxAttempts || p.interval != DefaultInterval {
		t.Fatalf("unexpected defaults: %d %v", p.MaxAttempts(), p.interval)
	}
	if _, ok := p.clock.(RealClock); !ok {
		t.Fatalf("nil clock should default to RealClock")
	}
}

func TestRealClockSleepCancelled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := (RealClock{}).Sleep(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("cancelled sleep must return promptly")
	}
}

// Package poller waits for a remote run to reach a terminal status.
package poller

import (
	"context"
	"time"

	"codepractice/internal/judge/model"
	"codepractice/pkg/utils/logger"

	"go.uber.org/zap"
)

const (
	DefaultInterval    = 500 * time.Millisecond
	DefaultMaxAttempts = 10
)

// Fetcher reads the current state of a run.
type Fetcher interface {
	Fetch(ctx context.Context, token string) (model.ExecutionResult, error)
}

// Config holds polling settings.
type Config struct {
	Interval    time.Duration `yaml:"interval"`
	MaxAttempts int           `yaml:"maxAttempts"`
}

// Poller fetches at a fixed interval until the run is terminal or the budget runs out.
type Poller struct {
	fetcher     Fetcher
	clock       Clock
	interval    time.Duration
	maxAttempts int
}

// New creates a poller. A nil clock means RealClock.
func New(fetcher Fetcher, clock Clock, cfg Config) *Poller {
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	return &Poller{
		fetcher:     fetcher,
		clock:       clock,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
	}
}

// MaxAttempts is the total fetch budget of one Wait.
func (p *Poller) MaxAttempts() int {
	return p.maxAttempts
}

// Wait fetches token until its status is terminal, making at most MaxAttempts
// fetches with one interval between consecutive fetches. When the budget runs
// out the last non-terminal result is returned without an error; callers treat
// it as inconclusive. Fetch errors and context cancellation end the wait.
func (p *Poller) Wait(ctx context.Context, token string) (model.ExecutionResult, error) {
	var (
		result   model.ExecutionResult
		err      error
		attempts int
	)
	for {
		result, err = p.fetcher.Fetch(ctx, token)
		attempts++
		if err != nil {
			return model.ExecutionResult{}, err
		}
		if result.Status.Terminal() {
			return result, nil
		}
		if attempts >= p.maxAttempts {
			logger.Warn(ctx, "judge poll budget exhausted",
				zap.String("token", token),
				zap.Int("attempts", attempts),
				zap.Int("status_id", result.Status.ID),
			)
			return result, nil
		}
		if err := p.clock.Sleep(ctx, p.interval); err != nil {
			return model.ExecutionResult{}, err
		}
	}
}

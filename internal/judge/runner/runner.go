// Package runner executes prepared programs against test cases through the
// remote judge and turns each run into a verdict.
package runner

import (
	"context"

	"codepractice/internal/judge/language"
	"codepractice/internal/judge/model"
	"codepractice/internal/judge/poller"
	"codepractice/pkg/utils/logger"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Gateway submits runs and reads them back.
type Gateway interface {
	Submit(ctx context.Context, code string, lang language.Language, stdin string) (string, error)
	poller.Fetcher
}

// Waiter blocks until a run is terminal or its poll budget is spent.
type Waiter interface {
	Wait(ctx context.Context, token string) (model.ExecutionResult, error)
}

// Config holds runner settings.
type Config struct {
	// Parallelism bounds concurrent cases in RunAll. Values below 1 mean sequential.
	Parallelism int `yaml:"parallelism"`
}

// Runner drives cases through submit and poll.
type Runner struct {
	gateway     Gateway
	waiter      Waiter
	parallelism int
}

// New creates a runner.
func New(gateway Gateway, waiter Waiter, cfg Config) *Runner {
	if cfg.Parallelism < 1 {
		cfg.Parallelism = 1
	}
	return &Runner{
		gateway:     gateway,
		waiter:      waiter,
		parallelism: cfg.Parallelism,
	}
}

// RunSingle submits one program with raw stdin and waits for it.
func (r *Runner) RunSingle(ctx context.Context, prog language.Prepared, stdin string) (model.ExecutionResult, error) {
	token, err := r.gateway.Submit(ctx, prog.Code, prog.Language, stdin)
	if err != nil {
		return model.ExecutionResult{}, err
	}
	return r.waiter.Wait(ctx, token)
}

func (r *Runner) runCase(ctx context.Context, prog language.Prepared, index int, tc model.TestCase) model.TestCaseVerdict {
	res, err := r.RunSingle(ctx, prog, tc.Input)
	if err != nil {
		logger.Warn(ctx, "test case run failed",
			zap.Int("case", index),
			zap.String("language", string(prog.Language)),
			zap.Error(err),
		)
		return model.NewErrorVerdict(tc, err)
	}
	v := model.NewVerdict(tc, res)
	logger.Debug(ctx, "test case judged",
		zap.Int("case", index),
		zap.Int("status_id", res.Status.ID),
		zap.Bool("passed", v.Passed),
	)
	return v
}

// RunAll judges every case and returns one verdict per case in input order.
// A failing gateway call only affects its own case.
func (r *Runner) RunAll(ctx context.Context, prog language.Prepared, cases []model.TestCase) []model.TestCaseVerdict {
	verdicts := make([]model.TestCaseVerdict, len(cases))
	if len(cases) == 0 {
		return verdicts
	}

	var g errgroup.Group
	g.SetLimit(r.parallelism)
	for i, tc := range cases {
		g.Go(func() error {
			verdicts[i] = r.runCase(ctx, prog, i, tc)
			return nil
		})
	}
	_ = g.Wait()
	return verdicts
}

// RunUntilFailure judges cases one at a time and stops after the first case
// that does not pass. It returns the verdicts produced so far and the index of
// the failing case, or -1 when every case passed.
func (r *Runner) RunUntilFailure(ctx context.Context, prog language.Prepared, cases []model.TestCase) ([]model.TestCaseVerdict, int) {
	verdicts := make([]model.TestCaseVerdict, 0, len(cases))
	for i, tc := range cases {
		v := r.runCase(ctx, prog, i, tc)
		verdicts = append(verdicts, v)
		if !v.Passed {
			return verdicts, i
		}
	}
	return verdicts, -1
}

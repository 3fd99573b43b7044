package service

import (
	"context"

	"codepractice/internal/judge/model"
	appErr "codepractice/pkg/errors"
	"codepractice/pkg/utils/logger"

	"go.uber.org/zap"
)

// ExecuteInput describes a Run-mode request. Explicit test cases win over a
// problem id, which wins over raw stdin.
type ExecuteInput struct {
	Code      string
	Language  string
	Stdin     string
	TestCases []model.TestCase
	ProblemID string
}

// SingleResult is the Run-mode answer for raw stdin.
type SingleResult struct {
	Status        string `json:"status"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	Time          string `json:"time"`
	Memory        int64  `json:"memory"`
}

// ExecuteOutput carries either per-case results or a single raw run.
type ExecuteOutput struct {
	Results []model.TestCaseVerdict
	Single  *SingleResult
}

// Execute runs code without grading or persistence. Every case is judged and
// a failing remote call only marks its own case.
func (s *SubmitService) Execute(ctx context.Context, input ExecuteInput) (ExecuteOutput, error) {
	lang, err := s.validateCode(input.Code, input.Language)
	if err != nil {
		return ExecuteOutput{}, err
	}

	cases := input.TestCases
	if len(cases) == 0 && input.ProblemID != "" {
		cases, err = s.loadTestCases(ctx, input.ProblemID)
		if err != nil {
			return ExecuteOutput{}, err
		}
	}

	prog := s.adapter.Prepare(input.Code, lang)
	logger.Debug(ctx, "execute prepared",
		zap.String("language", string(lang)),
		zap.String("wrap", prog.Decision.String()),
		zap.Int("cases", len(cases)),
	)

	if len(cases) > 0 {
		return ExecuteOutput{Results: s.runner.RunAll(ctx, prog, cases)}, nil
	}

	if s.maxInputBytes > 0 && len(input.Stdin) > s.maxInputBytes {
		return ExecuteOutput{}, appErr.New(appErr.CustomInputTooLarge).WithMessage("input too large")
	}
	res, err := s.runner.RunSingle(ctx, prog, input.Stdin)
	if err != nil {
		return ExecuteOutput{}, err
	}
	return ExecuteOutput{Single: &SingleResult{
		Status:        res.Status.Description,
		Stdout:        res.Stdout,
		Stderr:        res.Stderr,
		CompileOutput: res.CompileOutput,
		Time:          res.Time,
		Memory:        res.Memory,
	}}, nil
}

package service

import (
	"errors"
	"testing"

	"codepractice/internal/judge/model"
)

func passed(time string, memory int64) model.TestCaseVerdict {
	return model.TestCaseVerdict{
		Passed: true,
		Result: model.ExecutionResult{Status: model.Status{ID: model.StatusAccepted, Description: "Accepted"}, Time: time, Memory: memory},
	}
}

func failedWith(id int, desc string, mutate func(*model.ExecutionResult)) model.TestCaseVerdict {
	res := model.ExecutionResult{Status: model.Status{ID: id, Description: desc}, Time: "0.100", Memory: 900}
	if mutate != nil {
		mutate(&res)
	}
	return model.NewVerdict(model.TestCase{ExpectedOutput: "ok"}, res)
}

func TestFoldVerdictAccepted(t *testing.T) {
	verdicts := []model.TestCaseVerdict{passed("0.0104", 300), passed("0.020", 700), passed("", 500)}
	got := FoldVerdict(verdicts, -1)
	if got.Status != model.SubmissionAccepted || got.Error != nil {
		t.Fatalf("unexpected verdict: %+v", got)
	}
	if got.RuntimeMs != 30 || got.MemoryKB != 700 {
		t.Fatalf("runtime=%d memory=%d", got.RuntimeMs, got.MemoryKB)
	}
}

func TestFoldVerdictStatusPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		failing model.TestCaseVerdict
		status  model.SubmissionStatus
		message string
	}{
		{
			name:    "gateway error",
			failing: model.NewErrorVerdict(model.TestCase{}, errors.New("connection refused")),
			status:  model.SubmissionWrongAnswer,
			message: "connection refused",
		},
		{
			name: "compilation error",
			failing: failedWith(model.StatusCompilationError, "Compilation Error", func(r *model.ExecutionResult) {
				r.CompileOutput = "main.cpp:1: error"
			}),
			status:  model.SubmissionCompilationError,
			message: "main.cpp:1: error",
		},
		{
			name:    "time limit",
			failing: failedWith(model.StatusTimeLimitExceeded, "Time Limit Exceeded", nil),
			status:  model.SubmissionTimeLimitExceeded,
			message: "Time Limit Exceeded",
		},
		{
			name:    "poll budget exhausted",
			failing: failedWith(model.StatusProcessing, "Processing", nil),
			status:  model.SubmissionTimeLimitExceeded,
			message: judgeTimedOut,
		},
		{
			name: "runtime error with stderr",
			failing: failedWith(11, "Runtime Error (NZEC)", func(r *model.ExecutionResult) {
				r.Stderr = "Traceback"
			}),
			status:  model.SubmissionRuntimeError,
			message: "Traceback",
		},
		{
			name:    "runtime error without stderr",
			failing: failedWith(7, "Runtime Error (SIGSEGV)", nil),
			status:  model.SubmissionRuntimeError,
			message: "Runtime Error (SIGSEGV)",
		},
		{
			name:    "memory limit",
			failing: failedWith(model.StatusWrongAnswer, "Memory Limit Exceeded", nil),
			status:  model.SubmissionMemoryLimitExceeded,
			message: "Memory Limit Exceeded",
		},
		{
			name:    "internal error",
			failing: failedWith(model.StatusInternalError, "Internal Error", nil),
			status:  model.SubmissionRuntimeError,
			message: "Internal Error",
		},
		{
			name: "accepted with wrong output",
			failing: failedWith(model.StatusAccepted, "Accepted", func(r *model.ExecutionResult) {
				r.Stdout = "nope"
			}),
			status:  model.SubmissionWrongAnswer,
			message: "Wrong Answer on test case 2",
		},
		{
			name:    "wrong answer status",
			failing: failedWith(model.StatusWrongAnswer, "Wrong Answer", nil),
			status:  model.SubmissionWrongAnswer,
			message: "Wrong Answer on test case 2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FoldVerdict([]model.TestCaseVerdict{passed("0.050", 100), tt.failing}, 1)
			if got.Status != tt.status {
				t.Fatalf("status = %q, want %q", got.Status, tt.status)
			}
			if got.Error == nil || *got.Error != tt.message {
				t.Fatalf("error = %v, want %q", got.Error, tt.message)
			}
		})
	}
}

func TestFoldVerdictStatsIncludeFailingCase(t *testing.T) {
	verdicts := []model.TestCaseVerdict{
		passed("0.010", 200),
		failedWith(model.StatusAccepted, "Accepted", func(r *model.ExecutionResult) {
			r.Stdout = "bad"
			r.Time = "0.0256"
			r.Memory = 4096
		}),
	}
	got := FoldVerdict(verdicts, 1)
	if got.RuntimeMs != 36 || got.MemoryKB != 4096 {
		t.Fatalf("runtime=%d memory=%d", got.RuntimeMs, got.MemoryKB)
	}
}

func TestProgressFor(t *testing.T) {
	if ProgressFor(model.SubmissionAccepted) != model.ProgressSolved {
		t.Fatalf("accepted should be solved")
	}
	for _, st := range []model.SubmissionStatus{model.SubmissionWrongAnswer, model.SubmissionRuntimeError, model.SubmissionTimeLimitExceeded} {
		if ProgressFor(st) != model.ProgressAttempted {
			t.Fatalf("%s should be attempted", st)
		}
	}
}

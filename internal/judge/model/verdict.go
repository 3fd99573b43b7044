package model

import "strings"

// TestCase is read-only input owned by the problem store.
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
	IsHidden       bool   `json:"is_hidden"`
}

// StatusError is the verdict status of a case whose gateway call failed.
const StatusError = "Error"

// TestCaseVerdict is the outcome of one case.
type TestCaseVerdict struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	ActualOutput   string `json:"actualOutput"`
	Passed         bool   `json:"passed"`
	Status         string `json:"status"`
	Stderr         string `json:"stderr"`
	CompileOutput  string `json:"compile_output"`
	Time           string `json:"time"`
	Memory         int64  `json:"memory"`

	// Result and Err are kept for the aggregator and never serialized.
	Result ExecutionResult `json:"-"`
	Err    error           `json:"-"`
}

// OutputMatches compares outputs after trimming surrounding whitespace.
func OutputMatches(actual, expected string) bool {
	return strings.TrimSpace(actual) == strings.TrimSpace(expected)
}

// NewVerdict builds the verdict of a finished (or budget-exhausted) run.
// A case passes only when the run was accepted and the outputs match.
func NewVerdict(tc TestCase, res ExecutionResult) TestCaseVerdict {
	return TestCaseVerdict{
		Input:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
		ActualOutput:   res.Stdout,
		Passed:         res.Status.Accepted() && OutputMatches(res.Stdout, tc.ExpectedOutput),
		Status:         res.Status.Description,
		Stderr:         res.Stderr,
		CompileOutput:  res.CompileOutput,
		Time:           res.Time,
		Memory:         res.Memory,
		Result:         res,
	}
}

// NewErrorVerdict records a case whose submit or fetch failed.
func NewErrorVerdict(tc TestCase, err error) TestCaseVerdict {
	return TestCaseVerdict{
		Input:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
		Passed:         false,
		Status:         StatusError,
		Stderr:         err.Error(),
		Err:            err,
	}
}

// SubmissionStatus is the overall outcome of a graded submission.
type SubmissionStatus string

const (
	SubmissionPending             SubmissionStatus = "Pending"
	SubmissionAccepted            SubmissionStatus = "Accepted"
	SubmissionWrongAnswer         SubmissionStatus = "Wrong Answer"
	SubmissionTimeLimitExceeded   SubmissionStatus = "Time Limit Exceeded"
	SubmissionMemoryLimitExceeded SubmissionStatus = "Memory Limit Exceeded"
	SubmissionRuntimeError        SubmissionStatus = "Runtime Error"
	SubmissionCompilationError    SubmissionStatus = "Compilation Error"
)

// SubmissionVerdict is the folded result of a Submit-mode run.
type SubmissionVerdict struct {
	Status    SubmissionStatus `json:"status"`
	RuntimeMs int64            `json:"runtime"`
	MemoryKB  int64            `json:"memory"`
	Error     *string          `json:"error"`
}

// ProgressStatus is the per-user, per-problem progress marker.
type ProgressStatus string

const (
	ProgressAttempted ProgressStatus = "Attempted"
	ProgressSolved    ProgressStatus = "Solved"
)

package service

import (
	"fmt"
	"math"
	"strings"

	"codepractice/internal/judge/model"
)

const judgeTimedOut = "judge timed out"

// FoldVerdict derives the submission verdict from short-circuit run output.
// failed is the index of the first non-passing case or -1. Runtime sums every
// judged case up to and including the failing one; memory is the peak.
func FoldVerdict(verdicts []model.TestCaseVerdict, failed int) model.SubmissionVerdict {
	var (
		seconds float64
		peak    int64
	)
	for _, v := range verdicts {
		seconds += v.Result.Seconds()
		if v.Result.Memory > peak {
			peak = v.Result.Memory
		}
	}
	out := model.SubmissionVerdict{
		Status:    model.SubmissionAccepted,
		RuntimeMs: int64(math.Round(seconds * 1000)),
		MemoryKB:  peak,
	}
	if failed < 0 || failed >= len(verdicts) {
		return out
	}

	status, msg := classify(verdicts[failed], failed)
	out.Status = status
	if msg != "" {
		out.Error = &msg
	}
	return out
}

// classify maps the first failing case to a submission status and message.
// A case the judge could not run counts as a wrong answer carrying the
// gateway error, then the terminal status decides, then the output comparison.
func classify(v model.TestCaseVerdict, index int) (model.SubmissionStatus, string) {
	if v.Err != nil {
		return model.SubmissionWrongAnswer, v.Err.Error()
	}
	st := v.Result.Status
	switch {
	case st.ID == model.StatusCompilationError:
		return model.SubmissionCompilationError, firstNonEmpty(v.Result.CompileOutput, st.Description)
	case !st.Terminal():
		return model.SubmissionTimeLimitExceeded, judgeTimedOut
	case st.ID == model.StatusTimeLimitExceeded:
		return model.SubmissionTimeLimitExceeded, firstNonEmpty(st.Description, "Time Limit Exceeded")
	case st.RuntimeError():
		return model.SubmissionRuntimeError, firstNonEmpty(v.Result.Stderr, st.Description)
	case strings.Contains(st.Description, "Memory"):
		return model.SubmissionMemoryLimitExceeded, st.Description
	case st.ID == model.StatusInternalError || st.ID == model.StatusExecFormatError:
		return model.SubmissionRuntimeError, firstNonEmpty(v.Result.Stderr, st.Description)
	default:
		return model.SubmissionWrongAnswer, fmt.Sprintf("Wrong Answer on test case %d", index+1)
	}
}

// ProgressFor maps a verdict to the user's progress marker.
func ProgressFor(status model.SubmissionStatus) model.ProgressStatus {
	if status == model.SubmissionAccepted {
		return model.ProgressSolved
	}
	return model.ProgressAttempted
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

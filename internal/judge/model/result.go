// Package model holds the judge-facing data types shared by the adapter, gateway, poller and runner.
package model

import (
	"strconv"
	"strings"
)

// Remote status ids. Ids up to StatusProcessing are non-terminal.
const (
	StatusInQueue           = 1
	StatusProcessing        = 2
	StatusAccepted          = 3
	StatusWrongAnswer       = 4
	StatusTimeLimitExceeded = 5
	StatusCompilationError  = 6
	// 7-12 are the runtime error family (SIGSEGV, SIGXFSZ, SIGFPE, SIGABRT, NZEC, other).
	StatusRuntimeErrorFirst = 7
	StatusRuntimeErrorLast  = 12
	StatusInternalError     = 13
	StatusExecFormatError   = 14
)

// Status is the remote run state.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Terminal reports whether the run has finished, successfully or not.
func (s Status) Terminal() bool {
	return s.ID > StatusProcessing
}

// Accepted reports whether the run completed normally.
func (s Status) Accepted() bool {
	return s.ID == StatusAccepted
}

// RuntimeError reports whether the id is in the runtime error family.
func (s Status) RuntimeError() bool {
	return s.ID >= StatusRuntimeErrorFirst && s.ID <= StatusRuntimeErrorLast
}

// ExecutionResult is one fetch of a remote run.
type ExecutionResult struct {
	Status        Status `json:"status"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
	// Time is elapsed seconds as reported by the backend, e.g. "0.021".
	Time string `json:"time"`
	// Memory is peak usage in KB.
	Memory int64 `json:"memory"`
}

// Seconds parses Time. Missing or malformed values count as zero.
func (r ExecutionResult) Seconds() float64 {
	if r.Time == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(r.Time), 64)
	if err != nil {
		return 0
	}
	return v
}

package controller

import (
	"context"
	"strconv"

	"codepractice/internal/gateway/middleware"
	"codepractice/internal/judge/model"
	"codepractice/internal/submit/repository"
	"codepractice/internal/submit/service"
	"codepractice/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// SubmissionService is what the HTTP layer needs from the submit service.
type SubmissionService interface {
	Execute(ctx context.Context, input service.ExecuteInput) (service.ExecuteOutput, error)
	Submit(ctx context.Context, input service.SubmitInput) (service.SubmitOutput, error)
	GetSubmission(ctx context.Context, userID string, id int64) (*repository.Submission, error)
}

// SubmitController handles execute and submission HTTP endpoints.
type SubmitController struct {
	submitService SubmissionService
}

// NewSubmitController creates a new SubmitController.
func NewSubmitController(submitService SubmissionService) *SubmitController {
	return &SubmitController{submitService: submitService}
}

// Execute runs code in Run mode.
func (h *SubmitController) Execute(c *gin.Context) {
	var req ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	cases := make([]model.TestCase, 0, len(req.TestCases))
	for _, tc := range req.TestCases {
		cases = append(cases, model.TestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput})
	}
	out, err := h.submitService.Execute(c.Request.Context(), service.ExecuteInput{
		Code:      req.Code,
		Language:  req.Language,
		Stdin:     req.Input,
		TestCases: cases,
		ProblemID: req.problemID(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if out.Single != nil {
		response.Success(c, out.Single)
		return
	}
	response.Success(c, ExecuteResponse{Results: out.Results})
}

// Create grades a submission in Submit mode.
func (h *SubmitController) Create(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	out, err := h.submitService.Submit(c.Request.Context(), service.SubmitInput{
		UserID:    middleware.CurrentUserID(c),
		ProblemID: req.ProblemID,
		Language:  req.Language,
		Code:      req.Code,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, out)
}

// Get returns one of the caller's submissions.
func (h *SubmitController) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "Invalid submission id")
		return
	}
	submission, err := h.submitService.GetSubmission(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, SubmissionResponse{
		SubmissionID: submission.ID,
		ProblemID:    submission.ProblemID,
		Language:     submission.Language,
		Code:         submission.Code,
		Status:       string(submission.Status),
		Runtime:      submission.RuntimeMs,
		Memory:       submission.MemoryKB,
		Error:        submission.ErrorMessage,
		CreatedAt:    submission.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// TestCaseRequest is a caller-supplied case, shaped like a stored test case row.
type TestCaseRequest struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// ExecuteRequest defines the Run-mode payload.
type ExecuteRequest struct {
	Code      string            `json:"code" binding:"required"`
	Language  string            `json:"language" binding:"required"`
	Input     string            `json:"input"`
	TestCases []TestCaseRequest `json:"testCases"`
	ProblemID string            `json:"problemId"`

	// ProblemIDSnake is the older spelling still sent by the editor's run button.
	ProblemIDSnake string `json:"problem_id"`
}

func (r ExecuteRequest) problemID() string {
	if r.ProblemID != "" {
		return r.ProblemID
	}
	return r.ProblemIDSnake
}

// ExecuteResponse lists per-case results.
type ExecuteResponse struct {
	Results []model.TestCaseVerdict `json:"results"`
}

// SubmitRequest defines the Submit-mode payload.
type SubmitRequest struct {
	ProblemID string `json:"problemId" binding:"required"`
	Code      string `json:"code" binding:"required"`
	Language  string `json:"language" binding:"required"`
}

// SubmissionResponse defines a stored submission.
type SubmissionResponse struct {
	SubmissionID int64   `json:"submissionId"`
	ProblemID    string  `json:"problemId"`
	Language     string  `json:"language"`
	Code         string  `json:"code"`
	Status       string  `json:"status"`
	Runtime      int64   `json:"runtime"`
	Memory       int64   `json:"memory"`
	Error        *string `json:"error"`
	CreatedAt    string  `json:"createdAt"`
}

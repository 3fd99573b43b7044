package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"codepractice/internal/common/mq"
	"codepractice/internal/common/storage"
	"codepractice/internal/judge/language"
	"codepractice/internal/judge/model"
	"codepractice/internal/submit/repository"
	appErr "codepractice/pkg/errors"
	"codepractice/pkg/utils/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultSourcePrefix = "submissions"
	defaultVerdictTopic = "submission.verdict"
)

// CaseRunner executes prepared programs against test cases.
type CaseRunner interface {
	RunSingle(ctx context.Context, prog language.Prepared, stdin string) (model.ExecutionResult, error)
	RunAll(ctx context.Context, prog language.Prepared, cases []model.TestCase) []model.TestCaseVerdict
	RunUntilFailure(ctx context.Context, prog language.Prepared, cases []model.TestCase) ([]model.TestCaseVerdict, int)
}

// TimeoutConfig holds timeout settings for external calls.
type TimeoutConfig struct {
	DB      time.Duration `yaml:"db"`
	MQ      time.Duration `yaml:"mq"`
	Storage time.Duration `yaml:"storage"`
}

// Config holds submit service dependencies and settings.
type Config struct {
	Runner         CaseRunner
	Adapter        *language.Adapter
	SubmissionRepo repository.SubmissionRepository
	ProgressRepo   repository.ProgressRepository
	TestCaseRepo   repository.TestCaseRepository

	// Storage and Producer are optional. Without them sources are not
	// archived and verdict events are not published.
	Storage  storage.ObjectStorage
	Producer mq.Producer

	SourceBucket    string
	SourceKeyPrefix string
	VerdictTopic    string
	MaxCodeBytes    int
	MaxInputBytes   int
	Timeouts        TimeoutConfig
}

// SubmitService runs code in Run mode and grades it in Submit mode.
type SubmitService struct {
	runner         CaseRunner
	adapter        *language.Adapter
	submissionRepo repository.SubmissionRepository
	progressRepo   repository.ProgressRepository
	testCaseRepo   repository.TestCaseRepository
	storage        storage.ObjectStorage
	producer       mq.Producer

	sourceBucket    string
	sourceKeyPrefix string
	verdictTopic    string
	maxCodeBytes    int
	maxInputBytes   int
	timeouts        TimeoutConfig
}

// SubmitInput describes a graded submission.
type SubmitInput struct {
	UserID    string
	ProblemID string
	Language  string
	Code      string
}

// SubmitOutput is the graded result returned to the caller.
type SubmitOutput struct {
	SubmissionID int64                  `json:"submissionId"`
	Status       model.SubmissionStatus `json:"status"`
	Runtime      int64                  `json:"runtime"`
	Memory       int64                  `json:"memory"`
	Error        *string                `json:"error"`
}

// NewSubmitService creates a new submit service.
func NewSubmitService(cfg Config) (*SubmitService, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if cfg.SubmissionRepo == nil {
		return nil, fmt.Errorf("submission repository is required")
	}
	if cfg.ProgressRepo == nil {
		return nil, fmt.Errorf("progress repository is required")
	}
	if cfg.TestCaseRepo == nil {
		return nil, fmt.Errorf("test case repository is required")
	}
	if cfg.Storage != nil && cfg.SourceBucket == "" {
		return nil, fmt.Errorf("source bucket is required when storage is configured")
	}
	if cfg.Adapter == nil {
		cfg.Adapter = language.NewAdapter(language.WrapSniff)
	}
	if cfg.SourceKeyPrefix == "" {
		cfg.SourceKeyPrefix = defaultSourcePrefix
	}
	if cfg.VerdictTopic == "" {
		cfg.VerdictTopic = defaultVerdictTopic
	}
	return &SubmitService{
		runner:          cfg.Runner,
		adapter:         cfg.Adapter,
		submissionRepo:  cfg.SubmissionRepo,
		progressRepo:    cfg.ProgressRepo,
		testCaseRepo:    cfg.TestCaseRepo,
		storage:         cfg.Storage,
		producer:        cfg.Producer,
		sourceBucket:    cfg.SourceBucket,
		sourceKeyPrefix: cfg.SourceKeyPrefix,
		verdictTopic:    cfg.VerdictTopic,
		maxCodeBytes:    cfg.MaxCodeBytes,
		maxInputBytes:   cfg.MaxInputBytes,
		timeouts:        cfg.Timeouts,
	}, nil
}

// Submit grades code against every case of a problem, stopping at the first
// failure, then records the verdict and the user's progress. Once the
// submission row exists, later write failures are logged and the verdict is
// still returned with its id.
func (s *SubmitService) Submit(ctx context.Context, input SubmitInput) (SubmitOutput, error) {
	lang, err := s.validateSubmit(input)
	if err != nil {
		return SubmitOutput{}, err
	}

	cases, err := s.loadTestCases(ctx, input.ProblemID)
	if err != nil {
		return SubmitOutput{}, err
	}
	if len(cases) == 0 {
		return SubmitOutput{}, appErr.New(appErr.TestCaseNotFound).WithMessage("problem has no test cases")
	}

	submission := &repository.Submission{
		UserID:    input.UserID,
		ProblemID: input.ProblemID,
		Language:  string(lang),
		Code:      input.Code,
	}
	id, err := s.createSubmission(ctx, submission)
	if err != nil {
		return SubmitOutput{}, err
	}

	prog := s.adapter.Prepare(input.Code, lang)
	verdicts, failed := s.runner.RunUntilFailure(ctx, prog, cases)
	verdict := FoldVerdict(verdicts, failed)

	logger.Info(ctx, "submission graded",
		zap.Int64("submission_id", id),
		zap.String("problem_id", input.ProblemID),
		zap.String("status", string(verdict.Status)),
		zap.Int("cases_run", len(verdicts)),
		zap.Int("cases_total", len(cases)),
		zap.Int64("runtime_ms", verdict.RuntimeMs),
	)

	// The row and progress are written even if the caller went away while grading.
	ctxRecord := context.WithoutCancel(ctx)
	s.persistVerdict(ctxRecord, id, input, verdict)
	s.archiveSource(ctxRecord, id, input.Code)
	s.publishVerdict(ctxRecord, id, input, lang, verdict)

	return SubmitOutput{
		SubmissionID: id,
		Status:       verdict.Status,
		Runtime:      verdict.RuntimeMs,
		Memory:       verdict.MemoryKB,
		Error:        verdict.Error,
	}, nil
}

// GetSubmission returns a stored submission owned by userID.
func (s *SubmitService) GetSubmission(ctx context.Context, userID string, id int64) (*repository.Submission, error) {
	if id <= 0 {
		return nil, appErr.ValidationError("submissionId", "required")
	}
	ctxDB := withTimeout(ctx, s.timeouts.DB)
	defer ctxDB.cancel()
	submission, err := s.submissionRepo.GetByID(ctxDB.ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSubmissionNotFound) {
			return nil, appErr.New(appErr.SubmissionNotFound).WithMessage("submission not found")
		}
		return nil, appErr.Wrapf(err, appErr.DatabaseError, "get submission failed")
	}
	// Other users' submissions are reported as missing.
	if submission.UserID != userID {
		return nil, appErr.New(appErr.SubmissionNotFound).WithMessage("submission not found")
	}
	return submission, nil
}

func (s *SubmitService) validateSubmit(input SubmitInput) (language.Language, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return "", appErr.New(appErr.Unauthorized).WithMessage("user identity is required")
	}
	if strings.TrimSpace(input.ProblemID) == "" {
		return "", appErr.ValidationError("problemId", "required")
	}
	return s.validateCode(input.Code, input.Language)
}

func (s *SubmitService) validateCode(code, rawLang string) (language.Language, error) {
	if strings.TrimSpace(code) == "" {
		return "", appErr.ValidationError("code", "required")
	}
	if s.maxCodeBytes > 0 && len(code) > s.maxCodeBytes {
		return "", appErr.New(appErr.CodeTooLarge).WithMessage("source code too large")
	}
	return language.Parse(rawLang)
}

func (s *SubmitService) loadTestCases(ctx context.Context, problemID string) ([]model.TestCase, error) {
	ctxDB := withTimeout(ctx, s.timeouts.DB)
	defer ctxDB.cancel()
	cases, err := s.testCaseRepo.ListByProblem(ctxDB.ctx, problemID)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.TestCaseFetchFailed, "load test cases failed").
			WithDetail("problem_id", problemID)
	}
	return cases, nil
}

func (s *SubmitService) createSubmission(ctx context.Context, submission *repository.Submission) (int64, error) {
	ctxDB := withTimeout(ctx, s.timeouts.DB)
	defer ctxDB.cancel()
	id, err := s.submissionRepo.Create(ctxDB.ctx, submission)
	if err != nil {
		return 0, appErr.Wrapf(err, appErr.SubmissionCreateFailed, "create submission failed")
	}
	return id, nil
}

func (s *SubmitService) persistVerdict(ctx context.Context, id int64, input SubmitInput, verdict model.SubmissionVerdict) {
	ctxDB := withTimeout(ctx, s.timeouts.DB)
	defer ctxDB.cancel()
	if err := s.submissionRepo.UpdateResult(ctxDB.ctx, id, verdict); err != nil {
		logger.Error(ctx, "update submission failed",
			zap.Int64("submission_id", id),
			zap.Error(appErr.Wrap(err, appErr.SubmissionUpdateFailed)),
		)
	}
	if err := s.progressRepo.Upsert(ctxDB.ctx, input.UserID, input.ProblemID, ProgressFor(verdict.Status)); err != nil {
		logger.Error(ctx, "update user progress failed",
			zap.String("problem_id", input.ProblemID),
			zap.Error(appErr.Wrap(err, appErr.ProgressUpdateFailed)),
		)
	}
}

func (s *SubmitService) archiveSource(ctx context.Context, id int64, code string) {
	if s.storage == nil {
		return
	}
	objectKey := s.buildSourceKey()
	payload := storage.CompressZstd([]byte(code))
	ctxStorage := withTimeout(ctx, s.timeouts.Storage)
	defer ctxStorage.cancel()
	if err := s.storage.PutObject(ctxStorage.ctx, s.sourceBucket, objectKey, bytes.NewReader(payload), int64(len(payload)), storage.ZstdContentType); err != nil {
		logger.Warn(ctx, "archive source failed", zap.Int64("submission_id", id), zap.Error(err))
		return
	}
	ctxDB := withTimeout(ctx, s.timeouts.DB)
	defer ctxDB.cancel()
	if err := s.submissionRepo.SetSourceKey(ctxDB.ctx, id, objectKey); err != nil {
		logger.Warn(ctx, "record source key failed", zap.Int64("submission_id", id), zap.Error(err))
	}
}

func (s *SubmitService) buildSourceKey() string {
	return fmt.Sprintf("%s/%s/source.zst", s.sourceKeyPrefix, uuid.NewString())
}

type timeoutCtx struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func withTimeout(ctx context.Context, timeout time.Duration) timeoutCtx {
	if timeout <= 0 {
		return timeoutCtx{ctx: ctx, cancel: func() {}}
	}
	ctxTimeout, cancel := context.WithTimeout(ctx, timeout)
	return timeoutCtx{ctx: ctxTimeout, cancel: cancel}
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"codepractice/internal/common/cache"
	"codepractice/internal/common/db"
	"codepractice/internal/judge/model"
)

const (
	defaultSubmissionCacheTTL      = 30 * time.Minute
	defaultSubmissionCacheEmptyTTL = 5 * time.Minute
	submissionCacheKeyPrefix       = "submission:"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
)

// Submission is one graded (or pending) attempt at a problem.
type Submission struct {
	ID           int64                  `json:"id"`
	UserID       string                 `json:"user_id"`
	ProblemID    string                 `json:"problem_id"`
	Language     string                 `json:"language"`
	Code         string                 `json:"code"`
	Status       model.SubmissionStatus `json:"status"`
	RuntimeMs    int64                  `json:"runtime"`
	MemoryKB     int64                  `json:"memory_usage"`
	ErrorMessage *string                `json:"error_message"`
	SourceKey    string                 `json:"source_key,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
}

// SubmissionRepository defines submission persistence interfaces.
type SubmissionRepository interface {
	// Create inserts a Pending row and returns its id.
	Create(ctx context.Context, submission *Submission) (int64, error)
	// UpdateResult records the folded verdict of a graded submission.
	UpdateResult(ctx context.Context, id int64, verdict model.SubmissionVerdict) error
	// SetSourceKey links an archived copy of the source to the row.
	SetSourceKey(ctx context.Context, id int64, sourceKey string) error
	GetByID(ctx context.Context, id int64) (*Submission, error)
}

// MySQLSubmissionRepository implements SubmissionRepository with MySQL and an optional read cache.
type MySQLSubmissionRepository struct {
	db       db.Database
	cache    cache.Cache
	ttl      time.Duration
	emptyTTL time.Duration
}

// NewSubmissionRepository creates a submission repository with defaults.
func NewSubmissionRepository(database db.Database, cacheClient cache.Cache) *MySQLSubmissionRepository {
	return NewSubmissionRepositoryWithTTL(database, cacheClient, defaultSubmissionCacheTTL, defaultSubmissionCacheEmptyTTL)
}

// NewSubmissionRepositoryWithTTL creates a submission repository with custom TTL.
func NewSubmissionRepositoryWithTTL(database db.Database, cacheClient cache.Cache, ttl, emptyTTL time.Duration) *MySQLSubmissionRepository {
	if ttl <= 0 {
		ttl = defaultSubmissionCacheTTL
	}
	if emptyTTL <= 0 {
		emptyTTL = defaultSubmissionCacheEmptyTTL
	}
	return &MySQLSubmissionRepository{
		db:       database,
		cache:    cacheClient,
		ttl:      ttl,
		emptyTTL: emptyTTL,
	}
}

const submissionColumns = "id, user_id, problem_id, language, code, status, runtime, memory_usage, error_message, source_key, created_at"

// Create inserts a submission with status Pending.
func (r *MySQLSubmissionRepository) Create(ctx context.Context, submission *Submission) (int64, error) {
	if submission == nil {
		return 0, errors.New("submission is nil")
	}
	if submission.UserID == "" {
		return 0, errors.New("userID is required")
	}
	if submission.ProblemID == "" {
		return 0, errors.New("problemID is required")
	}
	if submission.Language == "" {
		return 0, errors.New("language is required")
	}

	query := `
		INSERT INTO submissions
		(user_id, problem_id, language, code, status)
		VALUES (?, ?, ?, ?, ?)
	`
	res, err := r.db.Exec(
		ctx,
		query,
		submission.UserID,
		submission.ProblemID,
		submission.Language,
		submission.Code,
		string(model.SubmissionPending),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	submission.ID = id
	submission.Status = model.SubmissionPending
	return id, nil
}

// UpdateResult stores status, runtime, memory and error message.
func (r *MySQLSubmissionRepository) UpdateResult(ctx context.Context, id int64, verdict model.SubmissionVerdict) error {
	if id <= 0 {
		return errors.New("submission id is required")
	}
	query := `
		UPDATE submissions
		SET status = ?, runtime = ?, memory_usage = ?, error_message = ?
		WHERE id = ?
	`
	res, err := r.db.Exec(ctx, query, string(verdict.Status), verdict.RuntimeMs, verdict.MemoryKB, verdict.Error, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSubmissionNotFound
	}
	r.invalidate(ctx, id)
	return nil
}

// SetSourceKey records where the archived source lives.
func (r *MySQLSubmissionRepository) SetSourceKey(ctx context.Context, id int64, sourceKey string) error {
	if id <= 0 {
		return errors.New("submission id is required")
	}
	if _, err := r.db.Exec(ctx, "UPDATE submissions SET source_key = ? WHERE id = ?", sourceKey, id); err != nil {
		return err
	}
	r.invalidate(ctx, id)
	return nil
}

// GetByID retrieves a submission by id.
func (r *MySQLSubmissionRepository) GetByID(ctx context.Context, id int64) (*Submission, error) {
	if id <= 0 {
		return nil, errors.New("submission id is required")
	}
	if r.cache == nil {
		return r.getByIDFromDB(ctx, id)
	}
	submission, err := cache.GetWithCached[*Submission](
		ctx,
		r.cache,
		submissionCacheKey(id),
		cache.JitterTTL(r.ttl),
		cache.JitterTTL(r.emptyTTL),
		func(submission *Submission) bool { return submission == nil },
		marshalSubmission,
		unmarshalSubmission,
		func(ctx context.Context) (*Submission, error) {
			submission, err := r.getByIDFromDB(ctx, id)
			if err != nil {
				if errors.Is(err, ErrSubmissionNotFound) {
					return nil, nil
				}
				return nil, err
			}
			return submission, nil
		},
	)
	if err != nil {
		return nil, err
	}
	if submission == nil {
		return nil, ErrSubmissionNotFound
	}
	return submission, nil
}

func (r *MySQLSubmissionRepository) getByIDFromDB(ctx context.Context, id int64) (*Submission, error) {
	query := "SELECT " + submissionColumns + " FROM submissions WHERE id = ? LIMIT 1"
	row := r.db.QueryRow(ctx, query, id)
	submission := &Submission{}
	var (
		status    string
		sourceKey *string
	)
	if err := row.Scan(
		&submission.ID,
		&submission.UserID,
		&submission.ProblemID,
		&submission.Language,
		&submission.Code,
		&status,
		&submission.RuntimeMs,
		&submission.MemoryKB,
		&submission.ErrorMessage,
		&sourceKey,
		&submission.CreatedAt,
	); err != nil {
		if db.IsNoRows(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	submission.Status = model.SubmissionStatus(status)
	if sourceKey != nil {
		submission.SourceKey = *sourceKey
	}
	return submission, nil
}

func (r *MySQLSubmissionRepository) invalidate(ctx context.Context, id int64) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Del(ctx, submissionCacheKey(id))
}

func submissionCacheKey(id int64) string {
	return submissionCacheKeyPrefix + strconv.FormatInt(id, 10)
}

func marshalSubmission(submission *Submission) (string, error) {
	data, err := json.Marshal(submission)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalSubmission(data string) (*Submission, error) {
	var submission Submission
	if err := json.Unmarshal([]byte(data), &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

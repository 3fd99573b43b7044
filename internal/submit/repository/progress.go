package repository

import (
	"context"
	"errors"

	"codepractice/internal/common/db"
	"codepractice/internal/judge/model"
)

// ProgressRepository tracks per-user, per-problem progress.
type ProgressRepository interface {
	Upsert(ctx context.Context, userID, problemID string, status model.ProgressStatus) error
}

// MySQLProgressRepository implements ProgressRepository with MySQL.
type MySQLProgressRepository struct {
	db db.Database
}

// NewProgressRepository creates a progress repository.
func NewProgressRepository(database db.Database) *MySQLProgressRepository {
	return &MySQLProgressRepository{db: database}
}

// Upsert records one attempt. A problem that was solved once stays Solved.
func (r *MySQLProgressRepository) Upsert(ctx context.Context, userID, problemID string, status model.ProgressStatus) error {
	if userID == "" {
		return errors.New("userID is required")
	}
	if problemID == "" {
		return errors.New("problemID is required")
	}
	query := `
		INSERT INTO user_progress (user_id, problem_id, status, attempts, last_attempt_at)
		VALUES (?, ?, ?, 1, CURRENT_TIMESTAMP)
		ON DUPLICATE KEY UPDATE
			status = IF(status = 'Solved', status, VALUES(status)),
			attempts = attempts + 1,
			last_attempt_at = CURRENT_TIMESTAMP
	`
	_, err := r.db.Exec(ctx, query, userID, problemID, string(status))
	return err
}

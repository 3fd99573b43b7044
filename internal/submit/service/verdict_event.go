package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"codepractice/internal/common/mq"
	"codepractice/internal/judge/language"
	"codepractice/internal/judge/model"
	"codepractice/pkg/utils/logger"

	"go.uber.org/zap"
)

// VerdictEvent is published once a submission has been graded.
type VerdictEvent struct {
	SubmissionID int64                  `json:"submission_id"`
	UserID       string                 `json:"user_id"`
	ProblemID    string                 `json:"problem_id"`
	Language     string                 `json:"language"`
	Status       model.SubmissionStatus `json:"status"`
	Progress     model.ProgressStatus   `json:"progress"`
	Runtime      int64                  `json:"runtime"`
	Memory       int64                  `json:"memory"`
	Error        *string                `json:"error,omitempty"`
	GradedAt     int64                  `json:"graded_at"`
}

func (s *SubmitService) publishVerdict(ctx context.Context, id int64, input SubmitInput, lang language.Language, verdict model.SubmissionVerdict) {
	if s.producer == nil {
		return
	}
	event := VerdictEvent{
		SubmissionID: id,
		UserID:       input.UserID,
		ProblemID:    input.ProblemID,
		Language:     string(lang),
		Status:       verdict.Status,
		Progress:     ProgressFor(verdict.Status),
		Runtime:      verdict.RuntimeMs,
		Memory:       verdict.MemoryKB,
		Error:        verdict.Error,
		GradedAt:     time.Now().Unix(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		logger.Warn(ctx, "encode verdict event failed", zap.Error(err))
		return
	}
	message := mq.NewMessage(strconv.FormatInt(id, 10), body)
	message.SetHeader("status", string(verdict.Status))

	ctxMQ := withTimeout(ctx, s.timeouts.MQ)
	defer ctxMQ.cancel()
	if err := s.producer.Publish(ctxMQ.ctx, s.verdictTopic, message); err != nil {
		logger.Warn(ctx, "publish verdict event failed",
			zap.Int64("submission_id", id),
			zap.String("topic", s.verdictTopic),
			zap.Error(err),
		)
	}
}

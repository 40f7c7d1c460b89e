package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
)

// FinanzOnlineRepository stores the submission audit trail and credentials.
type FinanzOnlineRepository interface {
	CreateSubmission(ctx context.Context, s *entity.FinanzOnlineSubmission) error
	ListSubmissions(ctx context.Context, invoiceID uuid.UUID) ([]entity.FinanzOnlineSubmission, error)
	HasSuccessfulSubmission(ctx context.Context, invoiceID uuid.UUID) (bool, error)
	SubmissionStats(ctx context.Context) (*SubmissionStats, error)

	// GetConfig returns nil when no configuration was saved yet.
	GetConfig(ctx context.Context) (*entity.FinanzOnlineConfig, error)
	SaveConfig(ctx context.Context, cfg *entity.FinanzOnlineConfig) error
}

// SubmissionStats summarises the audit trail.
type SubmissionStats struct {
	Total          int64      `json:"total"`
	Succeeded      int64      `json:"succeeded"`
	Failed         int64      `json:"failed"`
	LastSubmission *time.Time `json:"last_submission,omitempty"`
}

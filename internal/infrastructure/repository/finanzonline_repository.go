package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	domainRepo "github.com/sangkips/kassa-api/internal/domain/repository"
	"gorm.io/gorm"
)

const finanzOnlineConfigID = 1

type finanzOnlineRepository struct {
	db *gorm.DB
}

// NewFinanzOnlineRepository creates a new FinanzOnline repository
func NewFinanzOnlineRepository(db *gorm.DB) domainRepo.FinanzOnlineRepository {
	return &finanzOnlineRepository{db: db}
}

func (r *finanzOnlineRepository) CreateSubmission(ctx context.Context, s *entity.FinanzOnlineSubmission) error {
	return conn(ctx, r.db).Create(s).Error
}

func (r *finanzOnlineRepository) ListSubmissions(ctx context.Context, invoiceID uuid.UUID) ([]entity.FinanzOnlineSubmission, error) {
	var subs []entity.FinanzOnlineSubmission
	err := conn(ctx, r.db).
		Where("invoice_id = ?", invoiceID).
		Order("submitted_at ASC, attempt ASC").
		Find(&subs).Error
	return subs, err
}

func (r *finanzOnlineRepository) HasSuccessfulSubmission(ctx context.Context, invoiceID uuid.UUID) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.FinanzOnlineSubmission{}).
		Where("invoice_id = ? AND success = ?", invoiceID, true).
		Count(&count).Error
	return count > 0, err
}

func (r *finanzOnlineRepository) SubmissionStats(ctx context.Context) (*domainRepo.SubmissionStats, error) {
	var row struct {
		Total     int64
		Succeeded int64
	}
	db := conn(ctx, r.db)
	err := db.Model(&entity.FinanzOnlineSubmission{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0) AS succeeded").
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	stats := &domainRepo.SubmissionStats{
		Total:     row.Total,
		Succeeded: row.Succeeded,
		Failed:    row.Total - row.Succeeded,
	}

	var last entity.FinanzOnlineSubmission
	err = db.Order("submitted_at DESC").First(&last).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return nil, err
	default:
		at := last.SubmittedAt
		stats.LastSubmission = &at
	}
	return stats, nil
}

func (r *finanzOnlineRepository) GetConfig(ctx context.Context) (*entity.FinanzOnlineConfig, error) {
	var cfg entity.FinanzOnlineConfig
	err := conn(ctx, r.db).First(&cfg, "id = ?", finanzOnlineConfigID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &cfg, err
}

func (r *finanzOnlineRepository) SaveConfig(ctx context.Context, cfg *entity.FinanzOnlineConfig) error {
	cfg.ID = finanzOnlineConfigID
	cfg.UpdatedAt = time.Now()
	return conn(ctx, r.db).Save(cfg).Error
}

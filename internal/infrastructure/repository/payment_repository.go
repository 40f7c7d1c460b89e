package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	domainRepo "github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/pkg/pagination"
	"gorm.io/gorm"
)

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *gorm.DB) domainRepo.PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *entity.PaymentDetails) error {
	return conn(ctx, r.db).Create(payment).Error
}

func (r *paymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.PaymentDetails, error) {
	var payment entity.PaymentDetails
	err := conn(ctx, r.db).Scopes(ActiveScope(ctx)).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.PaymentDetails, error) {
	var payment entity.PaymentDetails
	err := conn(ctx, r.db).Scopes(ActiveScope(ctx), forUpdate).First(&payment, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &payment, err
}

func (r *paymentRepository) Update(ctx context.Context, payment *entity.PaymentDetails) error {
	return conn(ctx, r.db).Save(payment).Error
}

func (r *paymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entity.PaymentDetails, error) {
	var payments []entity.PaymentDetails
	err := conn(ctx, r.db).
		Scopes(ActiveScope(ctx)).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at ASC").
		Find(&payments).Error
	return payments, err
}

func (r *paymentRepository) ListReceipts(ctx context.Context, after *pagination.Cursor, limit int, statuses ...enum.PaymentStatus) ([]entity.PaymentDetails, error) {
	var payments []entity.PaymentDetails
	query := conn(ctx, r.db).
		Scopes(ActiveScope(ctx)).
		Where("receipt_number IS NOT NULL AND receipt_number <> ''")

	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	if after != nil {
		query = query.Where("created_at > ? OR (created_at = ? AND id > ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}

	err := query.Order("created_at ASC, id ASC").Limit(limit).Find(&payments).Error
	return payments, err
}

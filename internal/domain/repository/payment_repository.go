package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/pkg/pagination"
)

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.PaymentDetails) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.PaymentDetails, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.PaymentDetails, error)
	Update(ctx context.Context, payment *entity.PaymentDetails) error
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entity.PaymentDetails, error)

	// ListReceipts pages through active payments carrying a receipt number,
	// ordered by (created_at, id). Statuses, when given, restrict the rows.
	ListReceipts(ctx context.Context, after *pagination.Cursor, limit int, statuses ...enum.PaymentStatus) ([]entity.PaymentDetails, error)
}

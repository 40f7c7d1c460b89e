package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/pkg/pagination"
)

// InvoiceRepository defines the interface for invoice ledger operations.
// Reads only see active rows unless the context says otherwise.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	GetWithPayments(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	GetBySourcePaymentForUpdate(ctx context.Context, paymentID uuid.UUID) (*entity.Invoice, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	List(ctx context.Context, params *InvoiceFilterParams) ([]entity.Invoice, int64, error)

	NumberExists(ctx context.Context, number string) (bool, error)
	FindCreditNote(ctx context.Context, originalID uuid.UUID) (*entity.Invoice, error)

	// SourcePaymentIDs returns every payment id already referenced by an
	// invoice, retired rows included.
	SourcePaymentIDs(ctx context.Context) (map[uuid.UUID]struct{}, error)
}

// InvoiceFilterParams contains filtering parameters for invoice queries
type InvoiceFilterParams struct {
	Pagination   *pagination.PaginationParams
	Search       string
	Status       *enum.InvoiceStatus
	DocumentType *enum.DocumentType
	StartDate    *time.Time
	EndDate      *time.Time
}

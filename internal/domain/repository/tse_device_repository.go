package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
)

// TseDeviceRepository defines the interface for fiscal device records
type TseDeviceRepository interface {
	Create(ctx context.Context, device *entity.TseDevice) error
	GetBySerial(ctx context.Context, serial string) (*entity.TseDevice, error)
	GetConnected(ctx context.Context) (*entity.TseDevice, error)
	List(ctx context.Context) ([]entity.TseDevice, error)
	// Update saves the device but leaves the counters and the signature chain,
	// which only change through the dedicated methods below.
	Update(ctx context.Context, device *entity.TseDevice) error

	// DisconnectOthers clears the connected flag of every device but id.
	DisconnectOthers(ctx context.Context, id uuid.UUID) error
	DisconnectAll(ctx context.Context) error

	// NextSignatureCounter atomically increments and returns the counter.
	NextSignatureCounter(ctx context.Context, id uuid.UUID) (int64, error)
	RecordSignature(ctx context.Context, id uuid.UUID, signature string, at time.Time) error
	// AddPendingInvoices adjusts the pending counter, never below zero.
	AddPendingInvoices(ctx context.Context, id uuid.UUID, delta int) error
}

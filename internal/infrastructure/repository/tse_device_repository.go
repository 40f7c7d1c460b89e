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

type tseDeviceRepository struct {
	db *gorm.DB
}

// NewTseDeviceRepository creates a new fiscal device repository
func NewTseDeviceRepository(db *gorm.DB) domainRepo.TseDeviceRepository {
	return &tseDeviceRepository{db: db}
}

func (r *tseDeviceRepository) Create(ctx context.Context, device *entity.TseDevice) error {
	return conn(ctx, r.db).Create(device).Error
}

func (r *tseDeviceRepository) GetBySerial(ctx context.Context, serial string) (*entity.TseDevice, error) {
	var device entity.TseDevice
	err := conn(ctx, r.db).Scopes(ActiveScope(ctx)).First(&device, "serial_number = ?", serial).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &device, err
}

func (r *tseDeviceRepository) GetConnected(ctx context.Context) (*entity.TseDevice, error) {
	var device entity.TseDevice
	err := conn(ctx, r.db).
		Scopes(ActiveScope(ctx)).
		Where("is_connected = ?", true).
		Order("connected_at DESC").
		First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &device, err
}

func (r *tseDeviceRepository) List(ctx context.Context) ([]entity.TseDevice, error) {
	var devices []entity.TseDevice
	err := conn(ctx, r.db).Scopes(ActiveScope(ctx)).Order("serial_number ASC").Find(&devices).Error
	return devices, err
}

func (r *tseDeviceRepository) Update(ctx context.Context, device *entity.TseDevice) error {
	return conn(ctx, r.db).
		Omit("signature_counter", "pending_invoices", "last_signature", "last_signature_at").
		Save(device).Error
}

func (r *tseDeviceRepository) DisconnectOthers(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Model(&entity.TseDevice{}).
		Where("id <> ? AND is_connected = ?", id, true).
		Updates(map[string]interface{}{"is_connected": false, "can_create_invoices": false, "connected_at": nil}).Error
}

func (r *tseDeviceRepository) DisconnectAll(ctx context.Context) error {
	return conn(ctx, r.db).Model(&entity.TseDevice{}).
		Where("is_connected = ?", true).
		Updates(map[string]interface{}{"is_connected": false, "can_create_invoices": false, "connected_at": nil}).Error
}

func (r *tseDeviceRepository) NextSignatureCounter(ctx context.Context, id uuid.UUID) (int64, error) {
	var counter int64
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.TseDevice{}).
			Where("id = ?", id).
			Update("signature_counter", gorm.Expr("signature_counter + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&entity.TseDevice{}).
			Select("signature_counter").
			Where("id = ?", id).
			Scan(&counter).Error
	})
	return counter, err
}

func (r *tseDeviceRepository) RecordSignature(ctx context.Context, id uuid.UUID, signature string, at time.Time) error {
	return conn(ctx, r.db).Model(&entity.TseDevice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_signature": signature, "last_signature_at": at}).Error
}

func (r *tseDeviceRepository) AddPendingInvoices(ctx context.Context, id uuid.UUID, delta int) error {
	expr := gorm.Expr("pending_invoices + ?", delta)
	if delta < 0 {
		expr = gorm.Expr("CASE WHEN pending_invoices + ? < 0 THEN 0 ELSE pending_invoices + ? END", delta, delta)
	}
	return conn(ctx, r.db).Model(&entity.TseDevice{}).
		Where("id = ?", id).
		Update("pending_invoices", expr).Error
}

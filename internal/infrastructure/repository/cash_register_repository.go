package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	domainRepo "github.com/sangkips/kassa-api/internal/domain/repository"
	"gorm.io/gorm"
)

type cashRegisterRepository struct {
	db *gorm.DB
}

// NewCashRegisterRepository creates a new cash register repository
func NewCashRegisterRepository(db *gorm.DB) domainRepo.CashRegisterRepository {
	return &cashRegisterRepository{db: db}
}

func (r *cashRegisterRepository) Create(ctx context.Context, register *entity.CashRegister) error {
	return conn(ctx, r.db).Create(register).Error
}

func (r *cashRegisterRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.CashRegister, error) {
	var register entity.CashRegister
	err := conn(ctx, r.db).Scopes(ActiveScope(ctx)).First(&register, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &register, err
}

func (r *cashRegisterRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.CashRegister, error) {
	var register entity.CashRegister
	err := conn(ctx, r.db).Scopes(ActiveScope(ctx), forUpdate).First(&register, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &register, err
}

func (r *cashRegisterRepository) Update(ctx context.Context, register *entity.CashRegister) error {
	return conn(ctx, r.db).Save(register).Error
}

func (r *cashRegisterRepository) List(ctx context.Context) ([]entity.CashRegister, error) {
	var registers []entity.CashRegister
	err := conn(ctx, r.db).Scopes(ActiveScope(ctx)).Order("register_number ASC").Find(&registers).Error
	return registers, err
}

// NextRegisterNumber counts retired registers too so numbers are never reused.
func (r *cashRegisterRepository) NextRegisterNumber(ctx context.Context) (int, error) {
	var max *int
	err := conn(ctx, r.db).Model(&entity.CashRegister{}).
		Select("MAX(register_number)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *cashRegisterRepository) CreateTransaction(ctx context.Context, tx *entity.CashRegisterTransaction) error {
	return conn(ctx, r.db).Create(tx).Error
}

func (r *cashRegisterRepository) ListTransactions(ctx context.Context, registerID uuid.UUID) ([]entity.CashRegisterTransaction, error) {
	var txs []entity.CashRegisterTransaction
	err := conn(ctx, r.db).
		Where("cash_register_id = ?", registerID).
		Order("created_at ASC").
		Find(&txs).Error
	return txs, err
}

package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
)

// CashRegisterRepository defines the interface for cash register data operations
type CashRegisterRepository interface {
	Create(ctx context.Context, register *entity.CashRegister) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.CashRegister, error)
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.CashRegister, error)
	Update(ctx context.Context, register *entity.CashRegister) error
	List(ctx context.Context) ([]entity.CashRegister, error)
	NextRegisterNumber(ctx context.Context) (int, error)

	CreateTransaction(ctx context.Context, tx *entity.CashRegisterTransaction) error
	ListTransactions(ctx context.Context, registerID uuid.UUID) ([]entity.CashRegisterTransaction, error)
}

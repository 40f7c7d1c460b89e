package repository

import (
	"context"

	"github.com/sangkips/kassa-api/internal/domain/entity"
)

// TableRepository persists restaurant tables.
type TableRepository interface {
	Create(ctx context.Context, table *entity.Table) error
	GetByNumber(ctx context.Context, number int) (*entity.Table, error)
	List(ctx context.Context) ([]entity.Table, error)
	Update(ctx context.Context, table *entity.Table) error
}

package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/pkg/apperror"
)

// TableService keeps track of restaurant tables and which cart occupies them.
type TableService struct {
	tableRepo repository.TableRepository
}

// NewTableService creates a new table service
func NewTableService(tableRepo repository.TableRepository) *TableService {
	return &TableService{tableRepo: tableRepo}
}

func (s *TableService) ListTables(ctx context.Context) ([]entity.Table, error) {
	return s.tableRepo.List(ctx)
}

// CreateTableInput represents the create table input
type CreateTableInput struct {
	Number int
	Name   string
	Seats  int
}

func (s *TableService) CreateTable(ctx context.Context, input *CreateTableInput) (*entity.Table, error) {
	if input.Number < 1 {
		return nil, apperror.NewFieldError("number", "Table number must be positive")
	}
	if input.Seats < 0 {
		return nil, apperror.NewFieldError("seats", "Seats cannot be negative")
	}

	existing, err := s.tableRepo.GetByNumber(ctx, input.Number)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("Table number already exists")
	}

	table := &entity.Table{
		Number: input.Number,
		Name:   input.Name,
		Seats:  input.Seats,
		Status: enum.TableStatusFree,
	}
	if err := s.tableRepo.Create(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

// SetStatus changes a table's status by hand. Freeing a table detaches its cart.
func (s *TableService) SetStatus(ctx context.Context, number int, status enum.TableStatus) (*entity.Table, error) {
	if !status.IsValid() {
		return nil, apperror.NewFieldError("status", "Invalid table status")
	}
	table, err := s.tableRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, apperror.NewNotFoundError("Table")
	}

	table.Status = status
	if status == enum.TableStatusFree {
		table.CurrentCartID = nil
	}
	if err := s.tableRepo.Update(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

// occupy marks a known table as taken by cartID. Unknown table numbers are
// accepted and left alone.
func (s *TableService) occupy(ctx context.Context, number int, cartID uuid.UUID) error {
	table, err := s.tableRepo.GetByNumber(ctx, number)
	if err != nil || table == nil {
		return err
	}
	table.Status = enum.TableStatusOccupied
	table.CurrentCartID = &cartID
	return s.tableRepo.Update(ctx, table)
}

// release frees the table if it is still held by cartID.
func (s *TableService) release(ctx context.Context, number int, cartID uuid.UUID) error {
	table, err := s.tableRepo.GetByNumber(ctx, number)
	if err != nil || table == nil {
		return err
	}
	if table.CurrentCartID != nil && *table.CurrentCartID != cartID {
		return nil
	}
	table.Status = enum.TableStatusFree
	table.CurrentCartID = nil
	return s.tableRepo.Update(ctx, table)
}

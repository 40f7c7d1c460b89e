package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/sangkips/kassa-api/pkg/utils"
	"github.com/shopspring/decimal"
)

// CashRegisterService runs the Closed -> Open -> Closed cycle of a till.
// Only the user who opened a register may close it.
type CashRegisterService struct {
	registers repository.CashRegisterRepository
	tx        repository.Transactor
	numbers   *utils.NumberGenerator
	logger    *slog.Logger
}

// NewCashRegisterService creates a new cash register service
func NewCashRegisterService(
	registers repository.CashRegisterRepository,
	tx repository.Transactor,
	numbers *utils.NumberGenerator,
	logger *slog.Logger,
) *CashRegisterService {
	return &CashRegisterService{
		registers: registers,
		tx:        tx,
		numbers:   numbers,
		logger:    logger,
	}
}

func (s *CashRegisterService) ListRegisters(ctx context.Context) ([]entity.CashRegister, error) {
	return s.registers.List(ctx)
}

func (s *CashRegisterService) GetRegister(ctx context.Context, id uuid.UUID) (*entity.CashRegister, error) {
	register, err := s.registers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if register == nil {
		return nil, apperror.NewNotFoundError("Cash register")
	}
	return register, nil
}

// CreateRegisterInput represents the create cash register input
type CreateRegisterInput struct {
	Name     string
	Location string
}

// CreateRegister adds a Closed register with the next free number.
func (s *CashRegisterService) CreateRegister(ctx context.Context, input *CreateRegisterInput) (*entity.CashRegister, error) {
	var register *entity.CashRegister
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		number, err := s.registers.NextRegisterNumber(ctx)
		if err != nil {
			return err
		}
		name := strings.TrimSpace(input.Name)
		if name == "" {
			name = "Kasse " + strconv.Itoa(number)
		}
		register = &entity.CashRegister{
			RegisterNumber: number,
			Name:           name,
			Location:       input.Location,
			Status:         enum.RegisterStatusClosed,
			CurrentBalance: decimal.Zero,
		}
		return s.registers.Create(ctx, register)
	})
	if err != nil {
		return nil, err
	}
	return register, nil
}

// OpenRegisterInput represents the opening count
type OpenRegisterInput struct {
	OpeningBalance decimal.Decimal
	UserID         uuid.UUID
	Notes          string
}

// OpenRegister assigns the operator and records the opening transaction.
func (s *CashRegisterService) OpenRegister(ctx context.Context, id uuid.UUID, input *OpenRegisterInput) (*entity.CashRegister, error) {
	if input.OpeningBalance.IsNegative() {
		return nil, apperror.NewFieldError("opening_balance", "Opening balance cannot be negative")
	}

	var register *entity.CashRegister
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		register, err = s.lock(ctx, id)
		if err != nil {
			return err
		}
		if register.Status == enum.RegisterStatusOpen {
			return apperror.NewConflictError("Cash register is already open")
		}

		now := time.Now()
		balance := input.OpeningBalance.Round(2)
		register.Status = enum.RegisterStatusOpen
		register.CurrentUserID = &input.UserID
		register.CurrentBalance = balance
		register.OpenedAt = &now
		register.ClosedAt = nil
		if err := s.registers.Update(ctx, register); err != nil {
			return err
		}

		return s.registers.CreateTransaction(ctx, &entity.CashRegisterTransaction{
			CashRegisterID: register.ID,
			Type:           enum.RegisterTransactionTypeOpening,
			Reference:      s.numbers.TransactionReference(),
			Amount:         balance,
			BalanceAfter:   balance,
			Difference:     decimal.Zero,
			UserID:         input.UserID,
			Notes:          input.Notes,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cash register opened", "register", register.RegisterNumber, "user_id", input.UserID)
	return register, nil
}

// CloseRegisterInput represents the closing count
type CloseRegisterInput struct {
	CountedBalance decimal.Decimal
	UserID         uuid.UUID
	Notes          string
}

// CloseRegister records the closing transaction with the counting
// difference and clears the operator.
func (s *CashRegisterService) CloseRegister(ctx context.Context, id uuid.UUID, input *CloseRegisterInput) (*entity.CashRegister, error) {
	if input.CountedBalance.IsNegative() {
		return nil, apperror.NewFieldError("counted_balance", "Counted balance cannot be negative")
	}

	var register *entity.CashRegister
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		register, err = s.lock(ctx, id)
		if err != nil {
			return err
		}
		if register.Status == enum.RegisterStatusClosed {
			return apperror.NewConflictError("Cash register is already closed")
		}
		if register.CurrentUserID == nil || *register.CurrentUserID != input.UserID {
			return apperror.NewForbiddenError("Only the user who opened the register can close it")
		}

		now := time.Now()
		counted := input.CountedBalance.Round(2)
		difference := counted.Sub(register.CurrentBalance)
		register.Status = enum.RegisterStatusClosed
		register.CurrentUserID = nil
		register.CurrentBalance = counted
		register.ClosedAt = &now
		if err := s.registers.Update(ctx, register); err != nil {
			return err
		}

		return s.registers.CreateTransaction(ctx, &entity.CashRegisterTransaction{
			CashRegisterID: register.ID,
			Type:           enum.RegisterTransactionTypeClosing,
			Reference:      s.numbers.TransactionReference(),
			Amount:         counted,
			BalanceAfter:   counted,
			Difference:     difference,
			UserID:         input.UserID,
			Notes:          input.Notes,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Cash register closed", "register", register.RegisterNumber, "user_id", input.UserID)
	return register, nil
}

// ListTransactions returns the journal of a register, oldest first.
func (s *CashRegisterService) ListTransactions(ctx context.Context, id uuid.UUID) ([]entity.CashRegisterTransaction, error) {
	if _, err := s.GetRegister(ctx, id); err != nil {
		return nil, err
	}
	return s.registers.ListTransactions(ctx, id)
}

func (s *CashRegisterService) lock(ctx context.Context, id uuid.UUID) (*entity.CashRegister, error) {
	register, err := s.registers.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if register == nil {
		return nil, apperror.NewNotFoundError("Cash register")
	}
	return register, nil
}

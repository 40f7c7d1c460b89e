package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashRegister is a physical or virtual till.
type CashRegister struct {
	ID             uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	RegisterNumber int                 `gorm:"not null;uniqueIndex" json:"register_number"`
	Name           string              `gorm:"size:255" json:"name"`
	Location       string              `gorm:"size:255" json:"location,omitempty"`
	Status         enum.RegisterStatus `gorm:"not null;default:0" json:"status"`
	CurrentBalance decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"current_balance"`
	CurrentUserID  *uuid.UUID          `gorm:"type:uuid" json:"current_user_id,omitempty"`
	OpenedAt       *time.Time          `json:"opened_at,omitempty"`
	ClosedAt       *time.Time          `json:"closed_at,omitempty"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *CashRegister) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.activate()
	return nil
}

func (CashRegister) TableName() string {
	return "cash_registers"
}

// CashRegisterTransaction is a journal entry of a register.
type CashRegisterTransaction struct {
	ID             uuid.UUID                    `gorm:"type:uuid;primary_key" json:"id"`
	CashRegisterID uuid.UUID                    `gorm:"type:uuid;not null;index" json:"cash_register_id"`
	Type           enum.RegisterTransactionType `gorm:"not null" json:"type"`
	Reference      string                       `gorm:"size:64;uniqueIndex" json:"reference"`
	Amount         decimal.Decimal              `gorm:"type:decimal(12,2);not null" json:"amount"`
	BalanceAfter   decimal.Decimal              `gorm:"type:decimal(12,2);not null" json:"balance_after"`
	Difference     decimal.Decimal              `gorm:"type:decimal(12,2);not null" json:"difference"`
	UserID         uuid.UUID                    `gorm:"type:uuid;not null" json:"user_id"`
	Notes          string                       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt      time.Time                    `json:"created_at"`
}

func (t *CashRegisterTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (CashRegisterTransaction) TableName() string {
	return "cash_register_transactions"
}

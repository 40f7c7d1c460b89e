package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentDetails records one tender against an invoice, or a register receipt
// imported before invoices existed (InvoiceID nil, ReceiptNumber set).
type PaymentDetails struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID     *uuid.UUID         `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	CustomerID    *uuid.UUID         `gorm:"type:uuid" json:"customer_id,omitempty"`
	Amount        decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"amount"`
	TaxAmount     decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	Method        enum.PaymentMethod `gorm:"not null" json:"payment_method"`
	Status        enum.PaymentStatus `gorm:"not null;default:0;index" json:"status"`
	Reference     string             `gorm:"size:255" json:"reference,omitempty"`
	Notes         string             `gorm:"type:text" json:"notes,omitempty"`
	TransactionID string             `gorm:"size:255" json:"transaction_id,omitempty"`
	ReceiptNumber string             `gorm:"size:100;index" json:"receipt_number,omitempty"`

	// KassenID is the register identifier as reported by the POS terminal:
	// either a register id or its register number.
	KassenID       string     `gorm:"size:100" json:"kassen_id,omitempty"`
	CashRegisterID *uuid.UUID `gorm:"type:uuid" json:"cash_register_id,omitempty"`

	TseSignature    string     `gorm:"type:text" json:"tse_signature,omitempty"`
	TseTimestamp    *time.Time `json:"tse_timestamp,omitempty"`
	TseDeviceSerial string     `gorm:"size:100" json:"tse_device_serial,omitempty"`

	PaidAt      time.Time  `gorm:"not null" json:"paid_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *PaymentDetails) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.activate()
	return nil
}

func (PaymentDetails) TableName() string {
	return "payment_details"
}

func (p *PaymentDetails) IsSigned() bool {
	return p.TseSignature != ""
}

package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Invoice is a row of the invoice ledger: either an invoice or a credit note.
type Invoice struct {
	ID            uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceNumber string             `gorm:"size:100;not null;index" json:"invoice_number"`
	Status        enum.InvoiceStatus `gorm:"not null;default:0;index" json:"status"`
	DocumentType  enum.DocumentType  `gorm:"not null;default:0;index" json:"document_type"`
	InvoiceDate   time.Time          `gorm:"not null" json:"invoice_date"`
	DueDate       *time.Time         `json:"due_date,omitempty"`

	CustomerID        *uuid.UUID `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	CustomerName      string     `gorm:"size:255" json:"customer_name"`
	CustomerAddress   string     `gorm:"type:text" json:"customer_address"`
	CustomerTaxNumber string     `gorm:"size:20" json:"customer_tax_number"`
	CompanyName       string     `gorm:"size:255" json:"company_name"`
	CompanyAddress    string     `gorm:"type:text" json:"company_address"`
	CompanyTaxNumber  string     `gorm:"size:20" json:"company_tax_number"`

	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	PaidAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"paid_amount"`
	RemainingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"remaining_amount"`

	LineItems  datatypes.JSONSlice[InvoiceLine] `json:"line_items"`
	TaxDetails datatypes.JSONSlice[TaxLine]     `json:"tax_details"`

	TseSignature        string     `gorm:"type:text" json:"tse_signature"`
	TseTimestamp        *time.Time `json:"tse_timestamp,omitempty"`
	TseDeviceSerial     string     `gorm:"size:100" json:"tse_device_serial"`
	TseSignatureCounter int64      `json:"tse_signature_counter"`

	CashRegisterID *uuid.UUID `gorm:"type:uuid;index" json:"cash_register_id,omitempty"`
	KassenID       string     `gorm:"size:100" json:"kassen_id"`
	CartID         *uuid.UUID `gorm:"type:uuid;index" json:"cart_id,omitempty"`

	OriginalInvoiceID *uuid.UUID `gorm:"type:uuid;index" json:"original_invoice_id,omitempty"`
	CreditReasonCode  string     `gorm:"size:50" json:"credit_reason_code,omitempty"`
	CreditReasonText  string     `gorm:"type:text" json:"credit_reason_text,omitempty"`

	// SourcePaymentID links rows synthesized by the backfill to their payment.
	SourcePaymentID *uuid.UUID `gorm:"type:uuid;uniqueIndex" json:"source_payment_id,omitempty"`

	Notes     string     `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Payments []PaymentDetails `gorm:"foreignKey:InvoiceID" json:"payments,omitempty"`
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	i.activate()
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

func (i *Invoice) IsSigned() bool {
	return i.TseSignature != ""
}

func (i *Invoice) IsCreditNote() bool {
	return i.DocumentType == enum.DocumentTypeCreditNote
}

// ApplyTotals copies priced lines and sums onto the invoice and resets the balance.
func (i *Invoice) ApplyTotals(t Totals) {
	i.LineItems = t.Lines
	i.TaxDetails = t.Taxes
	i.Subtotal = t.Subtotal
	i.TaxAmount = t.Tax
	i.TotalAmount = t.Total
	i.RemainingAmount = t.Total.Sub(i.PaidAmount)
}

// Settle recomputes the remaining balance and, for regular invoices, the
// settlement status from the paid amount.
func (i *Invoice) Settle() {
	i.RemainingAmount = i.TotalAmount.Sub(i.PaidAmount)
	if i.IsCreditNote() {
		return
	}
	switch {
	case i.PaidAmount.IsPositive() && !i.RemainingAmount.IsPositive():
		i.Status = enum.InvoiceStatusPaid
	case i.PaidAmount.IsPositive():
		i.Status = enum.InvoiceStatusPartiallyPaid
	case i.IsSigned():
		i.Status = enum.InvoiceStatusSent
	default:
		i.Status = enum.InvoiceStatusDraft
	}
}

// ApplyPayment books amount against the invoice. A negative amount reverses.
func (i *Invoice) ApplyPayment(amount decimal.Decimal) {
	i.PaidAmount = i.PaidAmount.Add(amount)
	i.Settle()
}

// Duplicate clones customer, company and line data into an unsigned draft.
func (i *Invoice) Duplicate(number string, now time.Time) *Invoice {
	return &Invoice{
		InvoiceNumber:     number,
		Status:            enum.InvoiceStatusDraft,
		DocumentType:      enum.DocumentTypeInvoice,
		InvoiceDate:       now,
		CustomerID:        i.CustomerID,
		CustomerName:      i.CustomerName,
		CustomerAddress:   i.CustomerAddress,
		CustomerTaxNumber: i.CustomerTaxNumber,
		CompanyName:       i.CompanyName,
		CompanyAddress:    i.CompanyAddress,
		CompanyTaxNumber:  i.CompanyTaxNumber,
		Subtotal:          i.Subtotal,
		TaxAmount:         i.TaxAmount,
		TotalAmount:       i.TotalAmount,
		PaidAmount:        decimal.Zero,
		RemainingAmount:   i.TotalAmount,
		LineItems:         append(datatypes.JSONSlice[InvoiceLine]{}, i.LineItems...),
		TaxDetails:        append(datatypes.JSONSlice[TaxLine]{}, i.TaxDetails...),
		CashRegisterID:    i.CashRegisterID,
		KassenID:          i.KassenID,
		Notes:             i.Notes,
	}
}

// CreditNote builds the reversal document of i. Amounts are negated, the
// remaining balance is zero and the signature is left empty for later signing.
func (i *Invoice) CreditNote(number, reasonCode, reasonText string, now time.Time) *Invoice {
	originalID := i.ID
	return &Invoice{
		InvoiceNumber:     number,
		Status:            enum.InvoiceStatusCreditNote,
		DocumentType:      enum.DocumentTypeCreditNote,
		InvoiceDate:       now,
		CustomerID:        i.CustomerID,
		CustomerName:      i.CustomerName,
		CustomerAddress:   i.CustomerAddress,
		CustomerTaxNumber: i.CustomerTaxNumber,
		CompanyName:       i.CompanyName,
		CompanyAddress:    i.CompanyAddress,
		CompanyTaxNumber:  i.CompanyTaxNumber,
		Subtotal:          i.Subtotal.Neg(),
		TaxAmount:         i.TaxAmount.Neg(),
		TotalAmount:       i.TotalAmount.Neg(),
		PaidAmount:        i.PaidAmount.Neg(),
		RemainingAmount:   decimal.Zero,
		LineItems:         negateLines(i.LineItems),
		TaxDetails:        negateTaxes(i.TaxDetails),
		CashRegisterID:    i.CashRegisterID,
		KassenID:          i.KassenID,
		OriginalInvoiceID: &originalID,
		CreditReasonCode:  reasonCode,
		CreditReasonText:  reasonText,
	}
}

package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// CreatePaymentRequest records a payment against an invoice
type CreatePaymentRequest struct {
	InvoiceID     uuid.UUID          `json:"invoice_id" binding:"required"`
	CustomerID    *uuid.UUID         `json:"customer_id"`
	Amount        decimal.Decimal    `json:"amount"`
	PaymentMethod enum.PaymentMethod `json:"payment_method"`
	Reference     string             `json:"reference" binding:"max=255"`
	Notes         string             `json:"notes"`
	TransactionID string             `json:"transaction_id" binding:"max=255"`
}

// PaymentStatusRequest completes or cancels a payment
type PaymentStatusRequest struct {
	Status enum.PaymentStatus `json:"status"`
}

// ImportReceiptsRequest carries historical register receipts
type ImportReceiptsRequest struct {
	Receipts []ImportReceipt `json:"receipts" binding:"required,min=1,dive"`
}

// ImportReceipt is one historical register receipt
type ImportReceipt struct {
	ReceiptNumber string             `json:"receipt_number"`
	KassenID      string             `json:"kassen_id"`
	Amount        decimal.Decimal    `json:"amount"`
	TaxAmount     decimal.Decimal    `json:"tax_amount"`
	PaymentMethod enum.PaymentMethod `json:"payment_method"`
	PaidAt        *time.Time         `json:"paid_at"`
	TseSignature  string             `json:"tse_signature"`
}

// ReceiptPageRequest selects a page of imported receipts
type ReceiptPageRequest struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit"`
}

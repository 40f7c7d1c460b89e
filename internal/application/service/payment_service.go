package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/sangkips/kassa-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// PaymentService books payments against invoices. The payment row and the
// invoice balance always change in the same transaction.
type PaymentService struct {
	payments repository.PaymentRepository
	invoices repository.InvoiceRepository
	fiscal   *FiscalService
	tx       repository.Transactor
	events   EventPublisher
	logger   *slog.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	payments repository.PaymentRepository,
	invoices repository.InvoiceRepository,
	fiscal *FiscalService,
	tx repository.Transactor,
	events EventPublisher,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		invoices: invoices,
		fiscal:   fiscal,
		tx:       tx,
		events:   eventsOrNoop(events),
		logger:   logger,
	}
}

// CreatePaymentInput represents the create payment input
type CreatePaymentInput struct {
	InvoiceID     uuid.UUID
	CustomerID    *uuid.UUID
	Amount        decimal.Decimal
	Method        enum.PaymentMethod
	Reference     string
	Notes         string
	TransactionID string
	CreatedBy     *uuid.UUID
}

func (in *CreatePaymentInput) validate() []apperror.FieldError {
	var errs []apperror.FieldError
	if !in.Amount.IsPositive() {
		errs = append(errs, apperror.FieldError{Field: "amount", Message: "Amount must be greater than zero"})
	}
	if !in.Method.IsValid() {
		errs = append(errs, apperror.FieldError{Field: "payment_method", Message: "Payment method must be Cash, Card or Voucher"})
	}
	return errs
}

// CreatePayment records a Completed payment and adds it to the invoice
// balance. The payment is signed when a device is connected.
func (s *PaymentService) CreatePayment(ctx context.Context, input *CreatePaymentInput) (*entity.PaymentDetails, error) {
	if errs := input.validate(); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs...)
	}

	invoice, err := s.invoices.GetByID(ctx, input.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if invoice.IsCreditNote() {
		return nil, apperror.NewBadRequestError("Payments cannot be booked against a credit note")
	}

	amount := input.Amount.Round(2)
	taxes := shareTaxes(invoice.TaxDetails, invoice.TotalAmount, amount)
	payment := &entity.PaymentDetails{
		InvoiceID:      &invoice.ID,
		CustomerID:     input.CustomerID,
		Amount:         amount,
		TaxAmount:      sumTax(taxes),
		Method:         input.Method,
		Status:         enum.PaymentStatusCompleted,
		Reference:      input.Reference,
		Notes:          input.Notes,
		TransactionID:  input.TransactionID,
		KassenID:       invoice.KassenID,
		CashRegisterID: invoice.CashRegisterID,
		PaidAt:         time.Now(),
		CreatedBy:      input.CreatedBy,
	}

	sig, err := s.fiscal.Sign(ctx, &SignInput{
		RegisterID:    registerID(invoice),
		ReceiptNumber: invoice.InvoiceNumber,
		Total:         amount,
		Taxes:         taxes,
	})
	switch {
	case errors.Is(err, errNoDevice):
		s.logger.Warn("No TSE device connected, storing unsigned payment", "invoice_id", invoice.ID)
	case err != nil:
		return nil, err
	default:
		at := sig.SignedAt
		payment.TseSignature = sig.Value
		payment.TseTimestamp = &at
		payment.TseDeviceSerial = sig.DeviceSerial
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.invoices.GetByIDForUpdate(ctx, invoice.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return apperror.NewNotFoundError("Invoice")
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return err
		}
		locked.ApplyPayment(payment.Amount)
		return s.invoices.Update(ctx, locked)
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(EventPaymentCreated, payment)
	return payment, nil
}

// GetPayment retrieves a payment by ID
func (s *PaymentService) GetPayment(ctx context.Context, id uuid.UUID) (*entity.PaymentDetails, error) {
	payment, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, apperror.NewNotFoundError("Payment")
	}
	return payment, nil
}

func (s *PaymentService) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]entity.PaymentDetails, error) {
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return s.payments.ListByInvoice(ctx, invoiceID)
}

// ListReceipts pages through imported register receipts in import order.
// cursor is the opaque value returned with the previous page.
func (s *PaymentService) ListReceipts(ctx context.Context, cursor string, limit int) (*pagination.Page[entity.PaymentDetails], error) {
	after, err := pagination.DecodeCursor(cursor)
	if err != nil {
		return nil, apperror.NewFieldError("cursor", "Invalid cursor")
	}
	if limit < 1 || limit > pagination.MaxPerPage {
		limit = pagination.DefaultPerPage
	}

	receipts, err := s.payments.ListReceipts(ctx, after, limit+1)
	if err != nil {
		return nil, err
	}
	page := pagination.NewPage(receipts, limit, func(p entity.PaymentDetails) pagination.Cursor {
		return pagination.Cursor{ID: p.ID.String(), CreatedAt: p.CreatedAt}
	})
	return &page, nil
}

// UpdateStatus changes the payment status. Cancelling a Completed payment
// reverses it on the invoice; repeating the current status changes nothing,
// and a Cancelled payment cannot be completed again.
func (s *PaymentService) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.PaymentStatus) (*entity.PaymentDetails, error) {
	if !status.IsValid() {
		return nil, apperror.NewFieldError("status", "Status must be Completed or Cancelled")
	}

	var (
		payment  *entity.PaymentDetails
		reversed bool
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.payments.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if payment == nil {
			return apperror.NewNotFoundError("Payment")
		}
		if payment.Status == status {
			return nil
		}
		if payment.Status == enum.PaymentStatusCancelled {
			return apperror.NewConflictError("A cancelled payment cannot be completed again")
		}

		now := time.Now()
		payment.Status = enum.PaymentStatusCancelled
		payment.CancelledAt = &now
		if err := s.payments.Update(ctx, payment); err != nil {
			return err
		}
		reversed = true

		if payment.InvoiceID == nil {
			// An imported receipt may already have been backfilled.
			invoice, err := s.invoices.GetBySourcePaymentForUpdate(ctx, payment.ID)
			if err != nil || invoice == nil {
				return err
			}
			invoice.ApplyPayment(payment.Amount.Neg())
			return s.invoices.Update(ctx, invoice)
		}
		invoice, err := s.invoices.GetByIDForUpdate(ctx, *payment.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return apperror.NewNotFoundError("Invoice")
		}
		invoice.ApplyPayment(payment.Amount.Neg())
		return s.invoices.Update(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	if reversed {
		s.logger.Info("Payment cancelled", "payment_id", id, "amount", payment.Amount.String())
		s.events.Publish(EventPaymentCancelled, payment)
	}
	return payment, nil
}

// ImportReceiptInput is one historical register receipt.
type ImportReceiptInput struct {
	ReceiptNumber string
	KassenID      string
	Amount        decimal.Decimal
	TaxAmount     decimal.Decimal
	Method        enum.PaymentMethod
	PaidAt        *time.Time
	TseSignature  string
	CreatedBy     *uuid.UUID
}

// ImportReceipts stores register receipts that predate the invoice ledger.
// They carry no invoice link until the backfill creates one. Bad rows are
// reported and skipped.
func (s *PaymentService) ImportReceipts(ctx context.Context, rows []ImportReceiptInput) (*ImportResult, error) {
	result := &ImportResult{TotalRows: len(rows)}

	for i, row := range rows {
		line := i + 1
		fail := func(field, msg string) {
			result.Errors = append(result.Errors, ImportRowError{Row: line, Field: field, Message: msg})
		}

		switch {
		case strings.TrimSpace(row.ReceiptNumber) == "":
			fail("receipt_number", "Receipt number is required")
			continue
		case !row.Amount.IsPositive():
			fail("amount", "Amount must be greater than zero")
			continue
		case row.TaxAmount.IsNegative() || row.TaxAmount.GreaterThan(row.Amount):
			fail("tax_amount", "Tax amount must be between zero and the amount")
			continue
		case !row.Method.IsValid():
			fail("payment_method", "Payment method must be Cash, Card or Voucher")
			continue
		}

		paidAt := time.Now()
		if row.PaidAt != nil {
			paidAt = *row.PaidAt
		}
		payment := &entity.PaymentDetails{
			Amount:        row.Amount.Round(2),
			TaxAmount:     row.TaxAmount.Round(2),
			Method:        row.Method,
			Status:        enum.PaymentStatusCompleted,
			ReceiptNumber: strings.TrimSpace(row.ReceiptNumber),
			KassenID:      strings.TrimSpace(row.KassenID),
			TseSignature:  row.TseSignature,
			PaidAt:        paidAt,
			CreatedBy:     row.CreatedBy,
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return nil, fmt.Errorf("import receipt %s: %w", row.ReceiptNumber, err)
		}
		result.Successful++
	}

	result.Failed = len(result.Errors)
	return result, nil
}

// shareTaxes splits amount over the VAT buckets of an invoice in proportion
// to their gross. The last bucket takes the rounding remainder.
func shareTaxes(taxes []entity.TaxLine, total, amount decimal.Decimal) []entity.TaxLine {
	if len(taxes) == 0 || total.IsZero() {
		return nil
	}
	out := make([]entity.TaxLine, 0, len(taxes))
	remaining := amount
	for i, t := range taxes {
		gross := remaining
		if i < len(taxes)-1 {
			gross = amount.Mul(t.Gross).Div(total).Round(2)
			remaining = remaining.Sub(gross)
		}
		net, tax := entity.SplitGross(gross, t.Rate)
		out = append(out, entity.TaxLine{Rate: t.Rate, Net: net, Tax: tax, Gross: gross})
	}
	return out
}

func sumTax(taxes []entity.TaxLine) decimal.Decimal {
	sum := decimal.Zero
	for _, t := range taxes {
		sum = sum.Add(t.Tax)
	}
	return sum
}

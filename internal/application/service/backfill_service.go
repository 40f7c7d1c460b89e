package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const defaultBackfillBatch = 200

// BackfillResult counts the outcome of one backfill run.
type BackfillResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// BackfillService creates invoices for register receipts that were paid
// before the invoice ledger existed. Runs are idempotent: a payment already
// referenced by an invoice is skipped.
type BackfillService struct {
	invoices  repository.InvoiceRepository
	payments  repository.PaymentRepository
	registers repository.CashRegisterRepository
	company   CompanyProfile
	batchSize int
	logger    *slog.Logger
}

// NewBackfillService creates a new backfill service
func NewBackfillService(
	invoices repository.InvoiceRepository,
	payments repository.PaymentRepository,
	registers repository.CashRegisterRepository,
	company CompanyProfile,
	logger *slog.Logger,
) *BackfillService {
	return &BackfillService{
		invoices:  invoices,
		payments:  payments,
		registers: registers,
		company:   company,
		batchSize: defaultBackfillBatch,
		logger:    logger,
	}
}

// registerIndex resolves the register identifier reported by a terminal.
type registerIndex struct {
	byID     map[string]uuid.UUID
	byNumber map[string]uuid.UUID
}

func (idx registerIndex) resolve(kassenID string) (uuid.UUID, bool) {
	if id, ok := idx.byID[kassenID]; ok {
		return id, true
	}
	id, ok := idx.byNumber[kassenID]
	return id, ok
}

// BackfillFromPayments walks all active, completed receipts in keyset order
// and inserts one Paid invoice per receipt not yet linked. Cancelled receipts
// never reach the ledger. A failing insert is logged and
// counted without stopping the run.
func (s *BackfillService) BackfillFromPayments(ctx context.Context) (*BackfillResult, error) {
	done, err := s.invoices.SourcePaymentIDs(ctx)
	if err != nil {
		return nil, err
	}
	index, err := s.loadRegisters(ctx)
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{}
	var cursor *pagination.Cursor
	for {
		batch, err := s.payments.ListReceipts(ctx, cursor, s.batchSize, enum.PaymentStatusCompleted)
		if err != nil {
			return nil, err
		}

		for i := range batch {
			payment := &batch[i]
			if _, ok := done[payment.ID]; ok {
				result.Skipped++
				continue
			}

			invoice := s.invoiceFor(payment, index)
			err := s.qualifyNumber(ctx, invoice)
			if err == nil {
				err = s.invoices.Create(ctx, invoice)
			}
			if err != nil {
				result.Failed++
				s.logger.Warn("Backfill insert failed",
					"payment_id", payment.ID, "receipt_number", payment.ReceiptNumber, "error", err)
				continue
			}
			done[payment.ID] = struct{}{}
			result.Inserted++
		}

		if len(batch) < s.batchSize {
			break
		}
		last := batch[len(batch)-1]
		cursor = &pagination.Cursor{ID: last.ID.String(), CreatedAt: last.CreatedAt}
	}

	s.logger.Info("Backfill finished",
		"inserted", result.Inserted, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}

// qualifyNumber prefixes the register id when another active invoice
// already carries the plain receipt number. Receipt numbers only count up
// per register, so two registers can both have issued "1001".
func (s *BackfillService) qualifyNumber(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.KassenID == "" {
		return nil
	}
	taken, err := s.invoices.NumberExists(ctx, invoice.InvoiceNumber)
	if err != nil || !taken {
		return err
	}
	invoice.InvoiceNumber = invoice.KassenID + "-" + invoice.InvoiceNumber
	return nil
}

func (s *BackfillService) loadRegisters(ctx context.Context) (registerIndex, error) {
	registers, err := s.registers.List(ctx)
	if err != nil {
		return registerIndex{}, err
	}
	idx := registerIndex{
		byID:     make(map[string]uuid.UUID, len(registers)),
		byNumber: make(map[string]uuid.UUID, len(registers)),
	}
	for _, r := range registers {
		idx.byID[r.ID.String()] = r.ID
		idx.byNumber[strconv.Itoa(r.RegisterNumber)] = r.ID
	}
	return idx, nil
}

func (s *BackfillService) invoiceFor(p *entity.PaymentDetails, index registerIndex) *entity.Invoice {
	paymentID := p.ID
	invoice := &entity.Invoice{
		InvoiceNumber:    p.ReceiptNumber,
		Status:           enum.InvoiceStatusPaid,
		DocumentType:     enum.DocumentTypeInvoice,
		InvoiceDate:      p.PaidAt,
		CustomerID:       p.CustomerID,
		CompanyName:      s.company.Name,
		CompanyAddress:   s.company.Address,
		CompanyTaxNumber: s.company.TaxNumber,
		Subtotal:         p.Amount.Sub(p.TaxAmount),
		TaxAmount:        p.TaxAmount,
		TotalAmount:      p.Amount,
		PaidAmount:       p.Amount,
		RemainingAmount:  decimal.Zero,
		TseSignature:     p.TseSignature,
		TseTimestamp:     p.TseTimestamp,
		TseDeviceSerial:  p.TseDeviceSerial,
		CashRegisterID:   p.CashRegisterID,
		KassenID:         p.KassenID,
		SourcePaymentID:  &paymentID,
		Notes:            "Created from receipt " + p.ReceiptNumber,
		CreatedBy:        p.CreatedBy,
	}

	line := entity.InvoiceLine{
		Description: "Beleg " + p.ReceiptNumber,
		Quantity:    1,
		UnitPrice:   p.Amount,
		NetAmount:   invoice.Subtotal,
		TaxAmount:   p.TaxAmount,
		GrossAmount: p.Amount,
	}
	if rate, ok := impliedRate(invoice.Subtotal, p.TaxAmount); ok {
		line.TaxRate = rate
		invoice.TaxDetails = datatypes.JSONSlice[entity.TaxLine]{
			{Rate: rate, Net: invoice.Subtotal, Tax: p.TaxAmount, Gross: p.Amount},
		}
	}
	invoice.LineItems = datatypes.JSONSlice[entity.InvoiceLine]{line}

	if invoice.CashRegisterID == nil && p.KassenID != "" {
		if id, ok := index.resolve(p.KassenID); ok {
			invoice.CashRegisterID = &id
		} else {
			s.logger.Warn("Unresolved register id on receipt",
				"payment_id", p.ID, "kassen_id", p.KassenID)
		}
	}
	return invoice
}

// impliedRate returns the VAT rate that net and tax imply when it is one of
// the known rates.
func impliedRate(net, tax decimal.Decimal) (decimal.Decimal, bool) {
	if !net.IsPositive() {
		return decimal.Zero, false
	}
	rate := tax.Div(net).Mul(decimal.NewFromInt(100)).Round(0)
	if validTaxRate(rate) {
		return rate, true
	}
	return decimal.Zero, false
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/internal/infrastructure/document"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/sangkips/kassa-api/pkg/pagination"
	"github.com/sangkips/kassa-api/pkg/utils"
	"gorm.io/gorm"
)

// CompanyProfile is the issuer printed on every invoice.
type CompanyProfile struct {
	Name      string
	Address   string
	TaxNumber string
}

// SubmissionScheduler queues finalized invoices for the tax office.
type SubmissionScheduler interface {
	ScheduleAutoSubmit(ctx context.Context, invoiceID uuid.UUID, requestedBy *uuid.UUID)
}

// InvoiceService manages the invoice ledger. Invoices are never removed;
// corrections go through credit notes.
type InvoiceService struct {
	invoices  repository.InvoiceRepository
	devices   repository.TseDeviceRepository
	carts     *CartService
	fiscal    *FiscalService
	scheduler SubmissionScheduler
	tx        repository.Transactor
	numbers   *utils.NumberGenerator
	events    EventPublisher
	company   CompanyProfile
	logger    *slog.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoices repository.InvoiceRepository,
	devices repository.TseDeviceRepository,
	carts *CartService,
	fiscal *FiscalService,
	scheduler SubmissionScheduler,
	tx repository.Transactor,
	numbers *utils.NumberGenerator,
	events EventPublisher,
	company CompanyProfile,
	logger *slog.Logger,
) *InvoiceService {
	return &InvoiceService{
		invoices:  invoices,
		devices:   devices,
		carts:     carts,
		fiscal:    fiscal,
		scheduler: scheduler,
		tx:        tx,
		numbers:   numbers,
		events:    eventsOrNoop(events),
		company:   company,
		logger:    logger,
	}
}

// ValidTaxNumber reports whether n looks like an Austrian VAT id: ATU
// followed by eight characters.
func ValidTaxNumber(n string) bool {
	return strings.HasPrefix(n, "ATU") && len(n) == 11
}

// CreateInvoiceInput represents the create invoice input
type CreateInvoiceInput struct {
	InvoiceNumber     string
	InvoiceDate       *time.Time
	DueDate           *time.Time
	CustomerID        *uuid.UUID
	CustomerName      string
	CustomerAddress   string
	CustomerTaxNumber string
	CompanyName       string
	CompanyAddress    string
	CompanyTaxNumber  string
	Lines             []entity.InvoiceLine
	CashRegisterID    *uuid.UUID
	KassenID          string
	Notes             string
	CreatedBy         *uuid.UUID
}

func (in *CreateInvoiceInput) validate() []apperror.FieldError {
	var errs []apperror.FieldError
	if !ValidTaxNumber(in.CompanyTaxNumber) {
		errs = append(errs, apperror.FieldError{Field: "company_tax_number", Message: "Tax number must start with ATU and have 11 characters"})
	}
	if in.CustomerTaxNumber != "" && !ValidTaxNumber(in.CustomerTaxNumber) {
		errs = append(errs, apperror.FieldError{Field: "customer_tax_number", Message: "Tax number must start with ATU and have 11 characters"})
	}
	if len(in.Lines) == 0 {
		errs = append(errs, apperror.FieldError{Field: "line_items", Message: "At least one line item is required"})
	}
	for _, l := range in.Lines {
		if l.Quantity < 1 {
			errs = append(errs, apperror.FieldError{Field: "line_items.quantity", Message: "Quantity must be positive"})
			break
		}
		if l.UnitPrice.IsNegative() {
			errs = append(errs, apperror.FieldError{Field: "line_items.unit_price", Message: "Unit price cannot be negative"})
			break
		}
		if !validTaxRate(l.TaxRate) {
			errs = append(errs, apperror.FieldError{Field: "line_items.tax_rate", Message: "Tax rate must be 0, 10, 13 or 20"})
			break
		}
	}
	return errs
}

// CreateInvoice stores a Draft invoice. The number must be unique among
// active invoices.
func (s *InvoiceService) CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*entity.Invoice, error) {
	if input.CompanyName == "" {
		input.CompanyName = s.company.Name
		input.CompanyAddress = s.company.Address
	}
	if input.CompanyTaxNumber == "" {
		input.CompanyTaxNumber = s.company.TaxNumber
	}
	input.InvoiceNumber = strings.TrimSpace(input.InvoiceNumber)
	if input.InvoiceNumber == "" {
		input.InvoiceNumber = s.numbers.InvoiceNumber()
	}
	if errs := input.validate(); len(errs) > 0 {
		return nil, apperror.NewValidationError(errs...)
	}

	exists, err := s.invoices.NumberExists(ctx, input.InvoiceNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperror.NewConflictError("Invoice number already exists")
	}

	date := time.Now()
	if input.InvoiceDate != nil {
		date = *input.InvoiceDate
	}
	invoice := &entity.Invoice{
		InvoiceNumber:     input.InvoiceNumber,
		Status:            enum.InvoiceStatusDraft,
		DocumentType:      enum.DocumentTypeInvoice,
		InvoiceDate:       date,
		DueDate:           input.DueDate,
		CustomerID:        input.CustomerID,
		CustomerName:      input.CustomerName,
		CustomerAddress:   input.CustomerAddress,
		CustomerTaxNumber: input.CustomerTaxNumber,
		CompanyName:       input.CompanyName,
		CompanyAddress:    input.CompanyAddress,
		CompanyTaxNumber:  input.CompanyTaxNumber,
		CashRegisterID:    input.CashRegisterID,
		KassenID:          input.KassenID,
		Notes:             input.Notes,
		CreatedBy:         input.CreatedBy,
	}
	invoice.ApplyTotals(entity.PriceLines(input.Lines))

	if err := s.invoices.Create(ctx, invoice); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.NewConflictError("Invoice number already exists")
		}
		return nil, err
	}

	s.events.Publish(EventInvoiceCreated, invoice)
	return invoice, nil
}

// GetInvoice retrieves an invoice with its payments
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoices.GetWithPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return invoice, nil
}

// ListInvoices retrieves invoices with pagination
func (s *InvoiceService) ListInvoices(ctx context.Context, params *repository.InvoiceFilterParams) (*pagination.PaginatedResult[entity.Invoice], error) {
	if params.Pagination == nil {
		params.Pagination = pagination.DefaultPagination()
	}
	params.Pagination.Validate()

	invoices, total, err := s.invoices.List(ctx, params)
	if err != nil {
		return nil, err
	}

	p := pagination.NewPagination(params.Pagination.Page, params.Pagination.PerPage, total)
	return pagination.NewPaginatedResult(invoices, p), nil
}

// DuplicateInvoice copies an invoice into a new unsigned Draft with a fresh
// number. Payments are not copied.
func (s *InvoiceService) DuplicateInvoice(ctx context.Context, id uuid.UUID, createdBy *uuid.UUID) (*entity.Invoice, error) {
	original, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if original.IsCreditNote() {
		return nil, apperror.NewBadRequestError("Credit notes cannot be duplicated")
	}

	dup := original.Duplicate(s.numbers.InvoiceNumber(), time.Now())
	dup.CreatedBy = createdBy
	if err := s.invoices.Create(ctx, dup); err != nil {
		return nil, err
	}

	s.events.Publish(EventInvoiceCreated, dup)
	return dup, nil
}

// CreditNoteInput represents the reason for a reversal
type CreditNoteInput struct {
	ReasonCode string
	ReasonText string
	CreatedBy  *uuid.UUID
}

// CreateCreditNote reverses a Paid or Sent invoice. Each invoice can have
// at most one active credit note.
func (s *InvoiceService) CreateCreditNote(ctx context.Context, originalID uuid.UUID, input *CreditNoteInput) (*entity.Invoice, error) {
	if strings.TrimSpace(input.ReasonCode) == "" {
		return nil, apperror.NewFieldError("reason_code", "Reason code is required")
	}

	var creditNote *entity.Invoice
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		original, err := s.invoices.GetByIDForUpdate(ctx, originalID)
		if err != nil {
			return err
		}
		if original == nil {
			return apperror.NewNotFoundError("Invoice")
		}
		if original.IsCreditNote() {
			return apperror.NewBadRequestError("A credit note cannot be reversed")
		}
		if original.Status != enum.InvoiceStatusPaid && original.Status != enum.InvoiceStatusSent {
			return apperror.NewBadRequestError("Only paid or sent invoices can be credited")
		}

		existing, err := s.invoices.FindCreditNote(ctx, original.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.NewConflictError("A credit note already exists for this invoice")
		}

		creditNote = original.CreditNote(s.numbers.CreditNoteNumber(), strings.TrimSpace(input.ReasonCode), input.ReasonText, time.Now())
		creditNote.CreatedBy = input.CreatedBy
		return s.invoices.Create(ctx, creditNote)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apperror.NewConflictError("A credit note already exists for this invoice")
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Credit note created", "invoice_id", originalID, "credit_note", creditNote.InvoiceNumber)
	s.events.Publish(EventInvoiceCreated, creditNote)
	return creditNote, nil
}

// DeleteInvoice retires the invoice. The row stays in the ledger.
func (s *InvoiceService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if invoice == nil {
		return apperror.NewNotFoundError("Invoice")
	}
	invoice.Retire(time.Now())
	return s.invoices.Update(ctx, invoice)
}

// FinalizeInvoice signs a Draft invoice or an unsigned credit note. The
// device is called before the transaction so no lock is held during I/O.
func (s *InvoiceService) FinalizeInvoice(ctx context.Context, id uuid.UUID, requestedBy *uuid.UUID) (*entity.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	if invoice.IsSigned() {
		return nil, apperror.NewConflictError("Invoice is already signed")
	}
	if !invoice.IsCreditNote() && invoice.Status != enum.InvoiceStatusDraft {
		return nil, apperror.NewBadRequestError("Only draft invoices can be finalized")
	}

	sig, err := s.fiscal.Sign(ctx, &SignInput{
		RegisterID:    registerID(invoice),
		ReceiptNumber: invoice.InvoiceNumber,
		Total:         invoice.TotalAmount,
		Taxes:         invoice.TaxDetails,
	})
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.invoices.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if locked == nil {
			return apperror.NewNotFoundError("Invoice")
		}
		if locked.IsSigned() {
			return apperror.NewConflictError("Invoice is already signed")
		}
		sig.Apply(locked)
		if !locked.IsCreditNote() {
			locked.Settle()
		}
		if err := s.invoices.Update(ctx, locked); err != nil {
			return err
		}
		invoice = locked
		return s.devices.AddPendingInvoices(ctx, sig.DeviceID, 1)
	})
	if err != nil {
		s.logger.Warn("Signed invoice not stored", "invoice_id", id, "counter", sig.Counter, "error", err)
		return nil, err
	}

	s.events.Publish(EventInvoiceFinalized, invoice)
	s.scheduleSubmission(ctx, invoice.ID, requestedBy)
	return invoice, nil
}

// CheckoutInput represents the customer data of a checkout
type CheckoutInput struct {
	CustomerName      string
	CustomerAddress   string
	CustomerTaxNumber string
	CashRegisterID    *uuid.UUID
	KassenID          string
	CreatedBy         *uuid.UUID
}

// Checkout turns an Active cart into a signed invoice and completes the cart.
func (s *InvoiceService) Checkout(ctx context.Context, cartID uuid.UUID, input *CheckoutInput) (*entity.Invoice, error) {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != enum.CartStatusActive {
		return nil, apperror.NewNotFoundError("Cart")
	}
	if len(cart.Items) == 0 {
		return nil, apperror.NewBadRequestError("Cart is empty")
	}

	totals := entity.PriceLines(cart.InvoiceLines())
	invoice := &entity.Invoice{
		InvoiceNumber:     s.numbers.InvoiceNumber(),
		DocumentType:      enum.DocumentTypeInvoice,
		InvoiceDate:       time.Now(),
		CustomerID:        cart.CustomerID,
		CustomerName:      input.CustomerName,
		CustomerAddress:   input.CustomerAddress,
		CustomerTaxNumber: input.CustomerTaxNumber,
		CompanyName:       s.company.Name,
		CompanyAddress:    s.company.Address,
		CompanyTaxNumber:  s.company.TaxNumber,
		CashRegisterID:    input.CashRegisterID,
		KassenID:          input.KassenID,
		CartID:            &cart.ID,
		Notes:             cart.Notes,
		CreatedBy:         input.CreatedBy,
	}
	invoice.ApplyTotals(totals)

	sig, err := s.fiscal.Sign(ctx, &SignInput{
		RegisterID:    registerID(invoice),
		ReceiptNumber: invoice.InvoiceNumber,
		Total:         totals.Total,
		Taxes:         totals.Taxes,
	})
	if err != nil {
		return nil, err
	}
	sig.Apply(invoice)
	invoice.Settle()

	var expired bool
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.carts.lockActive(ctx, cartID)
		if errors.Is(err, errCartExpired) {
			expired = true
			return err
		}
		if apperror.KindOf(err) == apperror.KindNotFound {
			return apperror.NewConflictError("Cart is no longer active")
		}
		if err != nil {
			return err
		}
		if !locked.Total().Equal(cart.Total()) || len(locked.Items) != len(cart.Items) {
			return apperror.NewConflictError("Cart changed during checkout")
		}

		if err := s.invoices.Create(ctx, invoice); err != nil {
			return err
		}
		if err := s.carts.complete(ctx, locked, invoice.ID); err != nil {
			return err
		}
		return s.devices.AddPendingInvoices(ctx, sig.DeviceID, 1)
	})
	if expired {
		s.carts.expire(ctx, cartID)
		return nil, apperror.NewNotFoundError("Cart")
	}
	if err != nil {
		s.logger.Warn("Checkout failed after signing", "cart_id", cartID, "counter", sig.Counter, "error", err)
		return nil, err
	}

	s.logger.Info("Cart checked out", "cart_id", cartID, "invoice_number", invoice.InvoiceNumber)
	s.events.Publish(EventCartUpdated, map[string]any{"id": cartID, "status": enum.CartStatusCompleted})
	s.events.Publish(EventInvoiceFinalized, invoice)
	s.scheduleSubmission(ctx, invoice.ID, input.CreatedBy)
	return invoice, nil
}

// InvoicePDF renders the invoice including the signature block.
func (s *InvoiceService) InvoicePDF(ctx context.Context, id uuid.UUID) ([]byte, *entity.Invoice, error) {
	invoice, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if invoice == nil {
		return nil, nil, apperror.NewNotFoundError("Invoice")
	}
	data, err := document.InvoicePDF(invoice.Receipt())
	if err != nil {
		return nil, nil, apperror.Internal("render invoice pdf", err)
	}
	return data, invoice, nil
}

// ExportInvoices writes every matching active invoice to a spreadsheet.
func (s *InvoiceService) ExportInvoices(ctx context.Context, params *repository.InvoiceFilterParams) ([]byte, error) {
	params.Pagination = &pagination.PaginationParams{Page: 1, PerPage: 100}

	var all []entity.Invoice
	for {
		page, total, err := s.invoices.List(ctx, params)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) == 0 || int64(len(all)) >= total {
			break
		}
		params.Pagination.Page++
	}

	data, err := document.InvoiceJournal(all)
	if err != nil {
		return nil, apperror.Internal("write invoice journal", err)
	}
	return data, nil
}

func (s *InvoiceService) scheduleSubmission(ctx context.Context, id uuid.UUID, requestedBy *uuid.UUID) {
	if s.scheduler != nil {
		s.scheduler.ScheduleAutoSubmit(ctx, id, requestedBy)
	}
}

// registerID is the register named in the signed payload.
func registerID(inv *entity.Invoice) string {
	switch {
	case inv.KassenID != "":
		return inv.KassenID
	case inv.CashRegisterID != nil:
		return inv.CashRegisterID.String()
	default:
		return DefaultRegisterID
	}
}

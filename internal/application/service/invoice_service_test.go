package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceService_CreateInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	inv, err := env.invoices.CreateInvoice(ctx, &CreateInvoiceInput{
		Lines: []entity.InvoiceLine{
			{Description: "Schnitzel", Quantity: 2, UnitPrice: decimal.RequireFromString("14.40"), TaxRate: decimal.NewFromInt(10)},
			{Description: "Bier", Quantity: 3, UnitPrice: decimal.RequireFromString("4.80"), TaxRate: decimal.NewFromInt(20)},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, inv.InvoiceNumber)
	assert.Equal(t, enum.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, testCompany.TaxNumber, inv.CompanyTaxNumber)
	assert.Equal(t, testCompany.Name, inv.CompanyName)
	assertAmount(t, "43.20", inv.TotalAmount)
	assertAmount(t, "43.20", inv.RemainingAmount)
	assert.True(t, inv.Subtotal.Add(inv.TaxAmount).Equal(inv.TotalAmount))
	assert.Len(t, inv.TaxDetails, 2)
	assert.Contains(t, env.events.Names(), EventInvoiceCreated)
}

func TestInvoiceService_CreateInvoiceValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	line := entity.InvoiceLine{Description: "Menü", Quantity: 1, UnitPrice: decimal.NewFromInt(10), TaxRate: decimal.NewFromInt(20)}

	tests := []struct {
		name  string
		input *CreateInvoiceInput
	}{
		{"bad tax number", &CreateInvoiceInput{CompanyTaxNumber: "DE123456789", Lines: []entity.InvoiceLine{line}}},
		{"short tax number", &CreateInvoiceInput{CompanyTaxNumber: "ATU123", Lines: []entity.InvoiceLine{line}}},
		{"no lines", &CreateInvoiceInput{}},
		{"zero quantity", &CreateInvoiceInput{Lines: []entity.InvoiceLine{{Description: "x", UnitPrice: decimal.NewFromInt(1), TaxRate: decimal.NewFromInt(20)}}}},
		{"negative price", &CreateInvoiceInput{Lines: []entity.InvoiceLine{{Description: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(-1), TaxRate: decimal.NewFromInt(20)}}}},
		{"unknown rate", &CreateInvoiceInput{Lines: []entity.InvoiceLine{{Description: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(1), TaxRate: decimal.NewFromInt(7)}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.invoices.CreateInvoice(ctx, tt.input)
			assertKind(t, apperror.KindValidation, err)
		})
	}
}

func TestInvoiceService_DuplicateNumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.createInvoice(t, "INV-100", "10")

	_, err := env.invoices.CreateInvoice(ctx, &CreateInvoiceInput{
		InvoiceNumber: "INV-100",
		Lines:         inv.LineItems,
	})
	assertKind(t, apperror.KindConflict, err)

	// A retired invoice frees its number.
	require.NoError(t, env.invoices.DeleteInvoice(ctx, inv.ID))
	_, err = env.invoices.GetInvoice(ctx, inv.ID)
	assertKind(t, apperror.KindNotFound, err)
	env.createInvoice(t, "INV-100", "10")
}

func TestInvoiceService_ListInvoices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createInvoice(t, "INV-201", "10")
	env.createInvoice(t, "INV-202", "20")
	paid := env.createInvoice(t, "INV-203", "30")
	env.pay(t, paid.ID, "30")

	page, err := env.invoices.ListInvoices(ctx, &repository.InvoiceFilterParams{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, int64(3), page.Pagination.Total)

	status := enum.InvoiceStatusPaid
	page, err = env.invoices.ListInvoices(ctx, &repository.InvoiceFilterParams{Status: &status})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "INV-203", page.Items[0].InvoiceNumber)
}

func TestInvoiceService_DuplicateInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.createInvoice(t, "INV-300", "80")
	env.pay(t, inv.ID, "80")

	dup, err := env.invoices.DuplicateInvoice(ctx, inv.ID, nil)
	require.NoError(t, err)
	assert.NotEqual(t, inv.ID, dup.ID)
	assert.NotEqual(t, inv.InvoiceNumber, dup.InvoiceNumber)
	assert.Equal(t, enum.InvoiceStatusDraft, dup.Status)
	assertAmount(t, "0", dup.PaidAmount)
	assertAmount(t, "80", dup.RemainingAmount)
	assert.Empty(t, dup.TseSignature)

	_, err = env.invoices.DuplicateInvoice(ctx, uuid.New(), nil)
	assertKind(t, apperror.KindNotFound, err)
}

func TestInvoiceService_CreditNote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.createInvoice(t, "INV-400", "100")

	_, err := env.invoices.CreateCreditNote(ctx, inv.ID, &CreditNoteInput{ReasonCode: "RETURN"})
	assertKind(t, apperror.KindBadRequest, err)

	env.pay(t, inv.ID, "100")

	_, err = env.invoices.CreateCreditNote(ctx, inv.ID, &CreditNoteInput{})
	assertKind(t, apperror.KindValidation, err)

	note, err := env.invoices.CreateCreditNote(ctx, inv.ID, &CreditNoteInput{ReasonCode: "RETURN", ReasonText: "Gast reklamiert"})
	require.NoError(t, err)
	assert.True(t, note.IsCreditNote())
	assert.Equal(t, enum.InvoiceStatusCreditNote, note.Status)
	require.NotNil(t, note.OriginalInvoiceID)
	assert.Equal(t, inv.ID, *note.OriginalInvoiceID)
	assertAmount(t, "-100", note.TotalAmount)
	assertAmount(t, "0", note.RemainingAmount)
	assert.Equal(t, "RETURN", note.CreditReasonCode)

	_, err = env.invoices.CreateCreditNote(ctx, inv.ID, &CreditNoteInput{ReasonCode: "RETURN"})
	assertKind(t, apperror.KindConflict, err)

	_, err = env.invoices.CreateCreditNote(ctx, note.ID, &CreditNoteInput{ReasonCode: "RETURN"})
	assertKind(t, apperror.KindBadRequest, err)

	_, err = env.invoices.DuplicateInvoice(ctx, note.ID, nil)
	assertKind(t, apperror.KindBadRequest, err)

	_, err = env.invoices.CreateCreditNote(ctx, uuid.New(), &CreditNoteInput{ReasonCode: "RETURN"})
	assertKind(t, apperror.KindNotFound, err)
}

func TestInvoiceService_FinalizeInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.createInvoice(t, "INV-500", "36")

	_, err := env.invoices.FinalizeInvoice(ctx, inv.ID, nil)
	assertKind(t, apperror.KindBadRequest, err)

	device := env.connectDevice(t)
	signed, err := env.invoices.FinalizeInvoice(ctx, inv.ID, nil)
	require.NoError(t, err)
	assert.True(t, signed.IsSigned())
	assert.Equal(t, enum.InvoiceStatusSent, signed.Status)
	assert.Equal(t, int64(1), signed.TseSignatureCounter)
	assert.Equal(t, testDeviceSerial, signed.TseDeviceSerial)

	devices, err := env.fiscal.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, device.ID, devices[0].ID)
	assert.Equal(t, 1, devices[0].PendingInvoices)

	_, err = env.invoices.FinalizeInvoice(ctx, inv.ID, nil)
	assertKind(t, apperror.KindConflict, err)

	// Not configured for FinanzOnline, so nothing is queued.
	assert.Empty(t, env.published.Messages())
}

func TestInvoiceService_FinalizeSchedulesSubmission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.connectDevice(t)
	env.configureFinanzOnline(t, true)
	inv := env.createInvoice(t, "INV-501", "12")

	_, err := env.invoices.FinalizeInvoice(ctx, inv.ID, nil)
	require.NoError(t, err)

	msgs := env.published.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, inv.ID, msgs[0].InvoiceID)
}

func TestInvoiceService_CheckoutCart(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.connectDevice(t)
	_, err := env.tables.CreateTable(ctx, &CreateTableInput{Number: 4, Seats: 4})
	require.NoError(t, err)

	schnitzel := env.createProduct(t, "Schnitzel", "14.40", 10)
	bier := env.createProduct(t, "Bier", "4.80", 20)
	table := 4
	cart, err := env.carts.CreateCart(ctx, &CreateCartInput{TableNumber: &table, WaiterName: "Anna"})
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: schnitzel.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: bier.ID, Quantity: 3})
	require.NoError(t, err)

	inv, err := env.invoices.Checkout(ctx, cart.ID, &CheckoutInput{CustomerName: "Tisch 4"})
	require.NoError(t, err)
	assert.True(t, inv.IsSigned())
	assert.Equal(t, enum.InvoiceStatusSent, inv.Status)
	assertAmount(t, "43.20", inv.TotalAmount)
	require.NotNil(t, inv.CartID)
	assert.Equal(t, cart.ID, *inv.CartID)
	assert.Len(t, inv.LineItems, 2)

	done, err := env.carts.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.CartStatusCompleted, done.Status)
	require.NotNil(t, done.InvoiceID)
	assert.Equal(t, inv.ID, *done.InvoiceID)

	tables, err := env.tables.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, enum.TableStatusFree, tables[0].Status)

	_, err = env.invoices.Checkout(ctx, cart.ID, &CheckoutInput{})
	assertKind(t, apperror.KindNotFound, err)
}

func TestInvoiceService_CheckoutRequiresItemsAndDevice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cart, err := env.carts.CreateCart(ctx, &CreateCartInput{})
	require.NoError(t, err)

	_, err = env.invoices.Checkout(ctx, cart.ID, &CheckoutInput{})
	assertKind(t, apperror.KindBadRequest, err)

	product := env.createProduct(t, "Kaffee", "3.20", 10)
	_, err = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = env.invoices.Checkout(ctx, cart.ID, &CheckoutInput{})
	assertKind(t, apperror.KindBadRequest, err)

	still, err := env.carts.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.CartStatusActive, still.Status)
}

func TestInvoiceService_Documents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.connectDevice(t)
	inv := env.createInvoice(t, "INV-600", "19.90")
	_, err := env.invoices.FinalizeInvoice(ctx, inv.ID, nil)
	require.NoError(t, err)

	pdf, got, err := env.invoices.InvoicePDF(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.ID)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	xlsx, err := env.invoices.ExportInvoices(ctx, &repository.InvoiceFilterParams{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(xlsx, []byte("PK")))

	_, _, err = env.invoices.InvoicePDF(ctx, uuid.New())
	assertKind(t, apperror.KindNotFound, err)
}

func TestValidTaxNumber(t *testing.T) {
	assert.True(t, ValidTaxNumber("ATU12345678"))
	assert.False(t, ValidTaxNumber("ATU1234567"))
	assert.False(t, ValidTaxNumber("DE123456789"))
	assert.False(t, ValidTaxNumber(""))
}

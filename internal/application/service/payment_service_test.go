package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentService_PartialPaymentsAndCancellation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.createInvoice(t, "INV-001", "100")

	env.pay(t, inv.ID, "60")
	got, err := env.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPartiallyPaid, got.Status)
	assertAmount(t, "60", got.PaidAmount)
	assertAmount(t, "40", got.RemainingAmount)

	second := env.pay(t, inv.ID, "40")
	got, err = env.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPaid, got.Status)
	assertAmount(t, "0", got.RemainingAmount)

	cancelled, err := env.payments.UpdateStatus(ctx, second.ID, enum.PaymentStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, enum.PaymentStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	got, err = env.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.InvoiceStatusPartiallyPaid, got.Status)
	assertAmount(t, "60", got.PaidAmount)
	assertAmount(t, "40", got.RemainingAmount)
	assert.True(t, got.RemainingAmount.Equal(got.TotalAmount.Sub(got.PaidAmount)))

	assert.Contains(t, env.events.Names(), EventPaymentCancelled)
}

func TestPaymentService_RepeatedCancellationChangesNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.createInvoice(t, "INV-002", "50")
	payment := env.pay(t, inv.ID, "20")

	_, err := env.payments.UpdateStatus(ctx, payment.ID, enum.PaymentStatusCancelled)
	require.NoError(t, err)
	_, err = env.payments.UpdateStatus(ctx, payment.ID, enum.PaymentStatusCancelled)
	require.NoError(t, err)

	got, err := env.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assertAmount(t, "0", got.PaidAmount)
	assertAmount(t, "50", got.RemainingAmount)
	assert.Equal(t, enum.InvoiceStatusDraft, got.Status)
}

func TestPaymentService_CancelledCannotBeCompleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.createInvoice(t, "INV-003", "50")
	payment := env.pay(t, inv.ID, "50")

	_, err := env.payments.UpdateStatus(ctx, payment.ID, enum.PaymentStatusCancelled)
	require.NoError(t, err)

	_, err = env.payments.UpdateStatus(ctx, payment.ID, enum.PaymentStatusCompleted)
	assertKind(t, apperror.KindConflict, err)

	_, err = env.payments.UpdateStatus(ctx, payment.ID, enum.PaymentStatus(9))
	assertKind(t, apperror.KindValidation, err)

	_, err = env.payments.UpdateStatus(ctx, uuid.New(), enum.PaymentStatusCancelled)
	assertKind(t, apperror.KindNotFound, err)
}

func TestPaymentService_CreateValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.createInvoice(t, "INV-004", "10")

	tests := []struct {
		name  string
		input *CreatePaymentInput
		kind  apperror.Kind
	}{
		{"zero amount", &CreatePaymentInput{InvoiceID: inv.ID}, apperror.KindValidation},
		{"negative amount", &CreatePaymentInput{InvoiceID: inv.ID, Amount: decimal.NewFromInt(-5)}, apperror.KindValidation},
		{"unknown method", &CreatePaymentInput{InvoiceID: inv.ID, Amount: decimal.NewFromInt(5), Method: enum.PaymentMethod(42)}, apperror.KindValidation},
		{"missing invoice", &CreatePaymentInput{InvoiceID: uuid.New(), Amount: decimal.NewFromInt(5)}, apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.payments.CreatePayment(ctx, tt.input)
			assertKind(t, tt.kind, err)
		})
	}
}

func TestPaymentService_SignsWhenDeviceConnected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.connectDevice(t)
	inv := env.createInvoice(t, "INV-005", "100")

	payment := env.pay(t, inv.ID, "60")
	assert.NotEmpty(t, payment.TseSignature)
	assert.NotNil(t, payment.TseTimestamp)
	assert.Equal(t, testDeviceSerial, payment.TseDeviceSerial)
	assertAmount(t, "10", payment.TaxAmount)

	payments, err := env.payments.ListByInvoice(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, payment.ID, payments[0].ID)
}

func TestPaymentService_UnsignedWithoutDevice(t *testing.T) {
	env := newTestEnv(t)
	inv := env.createInvoice(t, "INV-006", "24")

	payment := env.pay(t, inv.ID, "24")
	assert.Empty(t, payment.TseSignature)
	assert.Nil(t, payment.TseTimestamp)
	assertAmount(t, "4", payment.TaxAmount)
}

func TestPaymentService_RejectsCreditNote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inv := env.createInvoice(t, "INV-007", "30")
	env.pay(t, inv.ID, "30")
	note, err := env.invoices.CreateCreditNote(ctx, inv.ID, &CreditNoteInput{ReasonCode: "RETURN"})
	require.NoError(t, err)

	_, err = env.payments.CreatePayment(ctx, &CreatePaymentInput{InvoiceID: note.ID, Amount: decimal.NewFromInt(1)})
	assertKind(t, apperror.KindBadRequest, err)
}

func TestPaymentService_ImportReceipts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.payments.ImportReceipts(ctx, []ImportReceiptInput{
		{ReceiptNumber: "R-100", KassenID: "1", Amount: decimal.NewFromInt(12), TaxAmount: decimal.NewFromInt(2)},
		{ReceiptNumber: "", Amount: decimal.NewFromInt(5)},
		{ReceiptNumber: "R-101", Amount: decimal.NewFromInt(5), TaxAmount: decimal.NewFromInt(6)},
		{ReceiptNumber: "R-102", Amount: decimal.NewFromInt(7), Method: enum.PaymentMethodCard},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, result.TotalRows)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, "receipt_number", result.Errors[0].Field)
	assert.Equal(t, 3, result.Errors[1].Row)
	assert.Equal(t, "tax_amount", result.Errors[1].Field)
}

func TestPaymentService_ListReceipts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.importReceipts(t,
		receipt("R-1", "10.00", "0"),
		receipt("R-2", "10.00", "0"),
		receipt("R-3", "10.00", "0"),
	)

	first, err := env.payments.ListReceipts(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	require.NotNil(t, first.Next)

	rest, err := env.payments.ListReceipts(ctx, first.Next.Encode(), 2)
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Nil(t, rest.Next)

	seen := map[string]bool{}
	for _, p := range append(first.Items, rest.Items...) {
		seen[p.ReceiptNumber] = true
	}
	assert.Len(t, seen, 3)

	_, err = env.payments.ListReceipts(ctx, "not-a-cursor", 2)
	assertKind(t, apperror.KindValidation, err)
}

func TestShareTaxes(t *testing.T) {
	buckets := []entity.TaxLine{
		{Rate: decimal.NewFromInt(20), Gross: decimal.RequireFromString("22.00")},
		{Rate: decimal.NewFromInt(10), Gross: decimal.RequireFromString("11.00")},
	}
	taxes := shareTaxes(buckets, decimal.RequireFromString("33.00"), decimal.RequireFromString("10.00"))

	require.Len(t, taxes, 2)
	assertAmount(t, "6.67", taxes[0].Gross)
	assertAmount(t, "3.33", taxes[1].Gross)
	assertAmount(t, "10.00", taxes[0].Gross.Add(taxes[1].Gross))
	assert.True(t, taxes[0].Net.Add(taxes[0].Tax).Equal(taxes[0].Gross))

	assert.Nil(t, shareTaxes(nil, decimal.NewFromInt(10), decimal.NewFromInt(5)))
}

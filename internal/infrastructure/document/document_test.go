package document

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleInvoice() *entity.Invoice {
	inv := &entity.Invoice{
		ID:               uuid.New(),
		InvoiceNumber:    "INV-001",
		Status:           enum.InvoiceStatusSent,
		InvoiceDate:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		CompanyName:      "Café Müller",
		CompanyTaxNumber: "ATU12345678",
		TseSignature:     "eyJhbGciOiJFUzI1NiJ9.X1IxLUFUMV8.sig",
		TseDeviceSerial:  "SIM-TSE-0001",
	}
	inv.ApplyTotals(entity.PriceLines([]entity.InvoiceLine{
		{Description: "Wiener Schnitzel", Quantity: 2, UnitPrice: decimal.RequireFromString("14.90"), TaxRate: decimal.NewFromInt(10)},
		{Description: "Grüner Veltliner", Quantity: 1, UnitPrice: decimal.RequireFromString("4.80"), TaxRate: decimal.NewFromInt(20)},
	}))
	return inv
}

func TestInvoicePDF(t *testing.T) {
	out, err := InvoicePDF(sampleInvoice().Receipt())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestInvoiceJournalRoundTrip(t *testing.T) {
	first := sampleInvoice()
	credit := first.CreditNote("CN-1", "STORNO", "", time.Now())
	credit.ID = uuid.New()

	out, err := InvoiceJournal([]entity.Invoice{*first, *credit})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(journalSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "INV-001", rows[1][0])
	assert.Equal(t, "CN-1", rows[2][0])
	assert.Equal(t, "INV-001", rows[2][13])

	records, lines, err := ReadRows(bytes.NewReader(out))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "INV-001", records[0]["nummer"])
	assert.Equal(t, []int{2, 3}, lines)
}

package document

import (
	"fmt"
	"io"
	"strings"

	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/xuri/excelize/v2"
)

const journalSheet = "Rechnungen"

var journalHeader = []interface{}{
	"Nummer", "Typ", "Status", "Datum", "Kunde", "Netto", "USt", "Brutto",
	"Bezahlt", "Offen", "Kasse", "TSE Seriennummer", "Belegzähler", "Original",
}

// InvoiceJournal writes one row per invoice into an xlsx workbook.
func InvoiceJournal(invoices []entity.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", journalSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(journalSheet, "A1", &journalHeader); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	last, _ := excelize.ColumnNumberToName(len(journalHeader))
	if err := f.SetCellStyle(journalSheet, "A1", last+"1", bold); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(journalSheet, "A", last, 16)

	numbers, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}

	byID := make(map[string]string, len(invoices))
	for _, inv := range invoices {
		byID[inv.ID.String()] = inv.InvoiceNumber
	}

	for i, inv := range invoices {
		original := ""
		if inv.OriginalInvoiceID != nil {
			original = byID[inv.OriginalInvoiceID.String()]
			if original == "" {
				original = inv.OriginalInvoiceID.String()
			}
		}
		row := []interface{}{
			inv.InvoiceNumber,
			inv.DocumentType.String(),
			inv.Status.String(),
			inv.InvoiceDate,
			inv.CustomerName,
			inv.Subtotal.InexactFloat64(),
			inv.TaxAmount.InexactFloat64(),
			inv.TotalAmount.InexactFloat64(),
			inv.PaidAmount.InexactFloat64(),
			inv.RemainingAmount.InexactFloat64(),
			inv.KassenID,
			inv.TseDeviceSerial,
			inv.TseSignatureCounter,
			original,
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(journalSheet, cell, &row); err != nil {
			return nil, err
		}
		from, _ := excelize.CoordinatesToCellName(6, i+2)
		to, _ := excelize.CoordinatesToCellName(10, i+2)
		_ = f.SetCellStyle(journalSheet, from, to, numbers)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReadRows returns the data rows of the first sheet keyed by lower-cased
// header name. Empty rows are dropped; the returned line numbers are 1-based
// sheet rows.
func ReadRows(r io.Reader) ([]map[string]string, []int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var out []map[string]string
	var lines []int
	for n, row := range rows[1:] {
		record := make(map[string]string, len(header))
		empty := true
		for i, v := range row {
			if i >= len(header) || header[i] == "" {
				continue
			}
			v = strings.TrimSpace(v)
			if v != "" {
				empty = false
			}
			record[header[i]] = v
		}
		if empty {
			continue
		}
		out = append(out, record)
		lines = append(lines, n+2)
	}
	return out, lines, nil
}

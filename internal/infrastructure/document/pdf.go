// Package document renders invoices as PDF and exchanges data as Excel
// workbooks.
package document

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/sangkips/kassa-api/internal/domain/entity"
)

const (
	pageMargin = 15.0
	lineHeight = 6.0
)

// InvoicePDF renders r on A4 including the RKSV signature block.
func InvoicePDF(r *entity.Receipt) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetTitle(r.DocumentTitle+" "+r.InvoiceNo, true)
	pdf.AddPage()

	// Latin-1 fonts only; translate umlauts and the euro sign.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width, _ := pdf.GetPageSize()
	content := width - 2*pageMargin

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(content, 8, tr(r.Header.StoreName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	if r.Header.Address != "" {
		pdf.CellFormat(content, 5, tr(r.Header.Address), "", 1, "L", false, 0, "")
	}
	if r.Header.TaxID != "" {
		pdf.CellFormat(content, 5, "UID: "+r.Header.TaxID, "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(content, 9, tr(r.DocumentTitle), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	keyValue(pdf, tr, "Nummer", r.InvoiceNo)
	keyValue(pdf, tr, "Datum", r.Date)
	if r.Customer != "" {
		keyValue(pdf, tr, "Kunde", r.Customer)
	}
	if r.CustomerAddress != "" {
		keyValue(pdf, tr, "Adresse", r.CustomerAddress)
	}
	if r.CustomerTaxID != "" {
		keyValue(pdf, tr, "Kunden-UID", r.CustomerTaxID)
	}
	if r.Reference != "" {
		keyValue(pdf, tr, "Grund", r.Reference)
	}
	pdf.Ln(4)

	cols := []struct {
		title string
		width float64
		align string
	}{
		{"Pos", 0.08, "L"},
		{"Bezeichnung", 0.44, "L"},
		{"Menge", 0.1, "R"},
		{"Einzelpreis", 0.14, "R"},
		{"USt", 0.1, "R"},
		{"Betrag", 0.14, "R"},
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for _, c := range cols {
		pdf.CellFormat(content*c.width, 7, c.title, "B", 0, c.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for n, it := range r.Items {
		values := []string{
			fmt.Sprintf("%d", n+1),
			tr(it.Name),
			fmt.Sprintf("%d", it.Quantity),
			it.UnitPrice,
			it.TaxRate,
			it.Total,
		}
		for i, c := range cols {
			pdf.CellFormat(content*c.width, lineHeight, values[i], "", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "", 9)
	for _, t := range r.Taxes {
		amount(pdf, tr, content, fmt.Sprintf("USt %s auf %s", t.Rate, t.Net), t.Tax)
	}
	amount(pdf, tr, content, "Netto", r.Subtotal)
	amount(pdf, tr, content, "Umsatzsteuer", r.TaxTotal)
	pdf.SetFont("Helvetica", "B", 11)
	amount(pdf, tr, content, "Gesamt EUR", r.Total)
	pdf.SetFont("Helvetica", "", 9)
	amount(pdf, tr, content, "Bezahlt", r.Paid)
	amount(pdf, tr, content, "Offen", r.Remaining)

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(content, 6, "Sicherheitseinrichtung (RKSV)", "T", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	if r.Signature == "" {
		pdf.CellFormat(content, 5, tr("Beleg nicht signiert"), "", 1, "L", false, 0, "")
	} else {
		keyValue(pdf, tr, "Seriennummer", r.DeviceSerial)
		keyValue(pdf, tr, "Belegzähler", r.SignatureCounter)
		keyValue(pdf, tr, "Signiert am", r.SignedAt)
		pdf.SetFont("Courier", "", 7)
		pdf.MultiCell(content, 3.5, r.Signature, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", r.InvoiceNo, err)
	}
	return buf.Bytes(), nil
}

func keyValue(pdf *fpdf.Fpdf, tr func(string) string, key, value string) {
	pdf.CellFormat(35, 5, tr(key)+":", "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, tr(value), "", 1, "L", false, 0, "")
}

func amount(pdf *fpdf.Fpdf, tr func(string) string, content float64, label, value string) {
	pdf.CellFormat(content*0.7, lineHeight, tr(label), "", 0, "R", false, 0, "")
	pdf.CellFormat(content*0.3, lineHeight, value, "", 1, "R", false, 0, "")
}

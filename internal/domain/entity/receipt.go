package entity

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ReceiptHeader holds the business header printed at the top of a receipt.
type ReceiptHeader struct {
	StoreName string `json:"store_name"`
	Address   string `json:"address,omitempty"`
	TaxID     string `json:"tax_id,omitempty"`
}

// ReceiptItem represents a single line item on a receipt.
type ReceiptItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	TaxRate   string `json:"tax_rate"`
	Total     string `json:"total"`
}

// ReceiptTax is one VAT bucket printed under the items.
type ReceiptTax struct {
	Rate  string `json:"rate"`
	Net   string `json:"net"`
	Tax   string `json:"tax"`
	Gross string `json:"gross"`
}

// Receipt is a value object representing a printable document. It is
// composed from an invoice at render time and never stored.
type Receipt struct {
	Header           ReceiptHeader `json:"header"`
	DocumentTitle    string        `json:"document_title"`
	InvoiceNo        string        `json:"invoice_no"`
	Date             string        `json:"date"`
	Customer         string        `json:"customer,omitempty"`
	CustomerAddress  string        `json:"customer_address,omitempty"`
	CustomerTaxID    string        `json:"customer_tax_id,omitempty"`
	Reference        string        `json:"reference,omitempty"`
	Items            []ReceiptItem `json:"items"`
	Taxes            []ReceiptTax  `json:"taxes"`
	Subtotal         string        `json:"subtotal"`
	TaxTotal         string        `json:"tax_total"`
	Total            string        `json:"total"`
	Paid             string        `json:"paid"`
	Remaining        string        `json:"remaining"`
	DeviceSerial     string        `json:"device_serial,omitempty"`
	SignatureCounter string        `json:"signature_counter,omitempty"`
	SignedAt         string        `json:"signed_at,omitempty"`
	Signature        string        `json:"signature,omitempty"`
}

// FormatAmount renders an amount the Austrian way: 1234,50.
func FormatAmount(d decimal.Decimal) string {
	return strings.Replace(d.StringFixed(2), ".", ",", 1)
}

// Receipt composes the printable form of the invoice.
func (i *Invoice) Receipt() *Receipt {
	title := "Rechnung"
	reference := ""
	if i.IsCreditNote() {
		title = "Gutschrift / Storno"
		reference = i.CreditReasonCode
		if i.CreditReasonText != "" {
			reference += " " + i.CreditReasonText
		}
	}

	r := &Receipt{
		Header: ReceiptHeader{
			StoreName: i.CompanyName,
			Address:   i.CompanyAddress,
			TaxID:     i.CompanyTaxNumber,
		},
		DocumentTitle:   title,
		InvoiceNo:       i.InvoiceNumber,
		Date:            i.InvoiceDate.Format("02.01.2006 15:04"),
		Customer:        i.CustomerName,
		CustomerAddress: i.CustomerAddress,
		CustomerTaxID:   i.CustomerTaxNumber,
		Reference:       strings.TrimSpace(reference),
		Subtotal:        FormatAmount(i.Subtotal),
		TaxTotal:        FormatAmount(i.TaxAmount),
		Total:           FormatAmount(i.TotalAmount),
		Paid:            FormatAmount(i.PaidAmount),
		Remaining:       FormatAmount(i.RemainingAmount),
	}

	for _, l := range i.LineItems {
		r.Items = append(r.Items, ReceiptItem{
			Name:      l.Description,
			Quantity:  l.Quantity,
			UnitPrice: FormatAmount(l.UnitPrice),
			TaxRate:   l.TaxRate.String() + "%",
			Total:     FormatAmount(l.GrossAmount),
		})
	}
	for _, t := range i.TaxDetails {
		r.Taxes = append(r.Taxes, ReceiptTax{
			Rate:  t.Rate.String() + "%",
			Net:   FormatAmount(t.Net),
			Tax:   FormatAmount(t.Tax),
			Gross: FormatAmount(t.Gross),
		})
	}

	if i.IsSigned() {
		r.DeviceSerial = i.TseDeviceSerial
		r.SignatureCounter = strconv.FormatInt(i.TseSignatureCounter, 10)
		r.Signature = i.TseSignature
		if i.TseTimestamp != nil {
			r.SignedAt = i.TseTimestamp.Format("02.01.2006 15:04:05")
		}
	}
	return r
}

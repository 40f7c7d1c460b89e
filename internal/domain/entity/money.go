package entity

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// InvoiceLine is one position on an invoice. Prices are gross (VAT included).
type InvoiceLine struct {
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	NetAmount   decimal.Decimal `json:"net_amount"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	Notes       string          `json:"notes,omitempty"`
}

// TaxLine aggregates the lines of one VAT rate.
type TaxLine struct {
	Rate  decimal.Decimal `json:"rate"`
	Net   decimal.Decimal `json:"net"`
	Tax   decimal.Decimal `json:"tax"`
	Gross decimal.Decimal `json:"gross"`
}

// SplitGross returns net and tax of a gross amount at rate percent.
func SplitGross(gross, rate decimal.Decimal) (net, tax decimal.Decimal) {
	net = gross.Div(decimal.NewFromInt(1).Add(rate.Div(hundred))).Round(2)
	return net, gross.Sub(net)
}

// Totals is the result of pricing a set of lines.
type Totals struct {
	Lines    []InvoiceLine
	Taxes    []TaxLine
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// PriceLines fills the amount fields of every line and groups them by rate.
func PriceLines(lines []InvoiceLine) Totals {
	out := Totals{Lines: make([]InvoiceLine, 0, len(lines))}
	buckets := make(map[string]*TaxLine)

	for _, l := range lines {
		l.GrossAmount = l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
		l.NetAmount, l.TaxAmount = SplitGross(l.GrossAmount, l.TaxRate)
		out.Lines = append(out.Lines, l)

		key := l.TaxRate.StringFixed(2)
		b, ok := buckets[key]
		if !ok {
			b = &TaxLine{Rate: l.TaxRate}
			buckets[key] = b
		}
		b.Net = b.Net.Add(l.NetAmount)
		b.Tax = b.Tax.Add(l.TaxAmount)
		b.Gross = b.Gross.Add(l.GrossAmount)

		out.Subtotal = out.Subtotal.Add(l.NetAmount)
		out.Tax = out.Tax.Add(l.TaxAmount)
		out.Total = out.Total.Add(l.GrossAmount)
	}

	for _, b := range buckets {
		out.Taxes = append(out.Taxes, *b)
	}
	sort.Slice(out.Taxes, func(i, j int) bool { return out.Taxes[i].Rate.GreaterThan(out.Taxes[j].Rate) })
	return out
}

// GrossForRate returns the gross amount booked at rate, zero if none.
func GrossForRate(taxes []TaxLine, rate decimal.Decimal) decimal.Decimal {
	for _, t := range taxes {
		if t.Rate.Equal(rate) {
			return t.Gross
		}
	}
	return decimal.Zero
}

func negateLines(lines []InvoiceLine) []InvoiceLine {
	out := make([]InvoiceLine, len(lines))
	for i, l := range lines {
		l.Quantity = -l.Quantity
		l.NetAmount = l.NetAmount.Neg()
		l.TaxAmount = l.TaxAmount.Neg()
		l.GrossAmount = l.GrossAmount.Neg()
		out[i] = l
	}
	return out
}

func negateTaxes(taxes []TaxLine) []TaxLine {
	out := make([]TaxLine, len(taxes))
	for i, t := range taxes {
		out[i] = TaxLine{Rate: t.Rate, Net: t.Net.Neg(), Tax: t.Tax.Neg(), Gross: t.Gross.Neg()}
	}
	return out
}

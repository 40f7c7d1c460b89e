// Package finanzonline submits signed receipts to the tax authority.
package finanzonline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrRejected marks an answer that retrying will not change.
var ErrRejected = errors.New("submission rejected")

type Credentials struct {
	ParticipantID string `json:"participant_id"`
	UserID        string `json:"user_id"`
	PIN           string `json:"pin"`
}

type Request struct {
	Credentials   Credentials     `json:"credentials"`
	InvoiceNumber string          `json:"invoice_number"`
	DocumentType  string          `json:"document_type"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	DeviceSerial  string          `json:"device_serial"`
	Signature     string          `json:"signature"`
	SignedAt      *time.Time      `json:"signed_at,omitempty"`
}

type Response struct {
	Accepted  bool   `json:"accepted"`
	Reference string `json:"reference"`
	Message   string `json:"message,omitempty"`
}

// Client performs a single submission attempt.
type Client interface {
	Name() string
	Submit(ctx context.Context, endpoint string, req Request) (*Response, error)
}

// NewClient picks the transport named in configuration.
func NewClient(mode string, timeout, latency time.Duration) (Client, error) {
	switch mode {
	case "", "simulated":
		return &SimulatedClient{Latency: latency}, nil
	case "http":
		return NewHTTPClient(timeout), nil
	default:
		return nil, fmt.Errorf("unknown FinanzOnline mode %q", mode)
	}
}

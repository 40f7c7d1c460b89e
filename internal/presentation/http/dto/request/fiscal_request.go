package request

import (
	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ConnectDeviceRequest selects the device to connect
type ConnectDeviceRequest struct {
	SerialNumber string `json:"serial_number" binding:"required"`
}

// RegisterDeviceRequest adds a device record
type RegisterDeviceRequest struct {
	SerialNumber        string `json:"serial_number" binding:"required,max=100"`
	Description         string `json:"description"`
	FinanzOnlineEnabled bool   `json:"finanzonline_enabled"`
}

// SignatureRequest asks the connected device for a receipt signature
type SignatureRequest struct {
	RegisterID    string           `json:"register_id"`
	ReceiptNumber string           `json:"receipt_number"`
	Total         decimal.Decimal  `json:"total"`
	Taxes         []entity.TaxLine `json:"taxes"`
}

// FinanzOnlineConfigRequest replaces the FinanzOnline configuration. An empty
// PIN keeps the stored one.
type FinanzOnlineConfigRequest struct {
	ParticipantID string `json:"participant_id" binding:"max=50"`
	UserID        string `json:"user_id" binding:"max=50"`
	PIN           string `json:"pin" binding:"max=100"`
	EndpointURL   string `json:"endpoint_url" binding:"omitempty,url"`
	Enabled       bool   `json:"enabled"`
	AutoSubmit    bool   `json:"auto_submit"`
}

// SubmitInvoiceRequest submits one signed invoice
type SubmitInvoiceRequest struct {
	InvoiceID uuid.UUID `json:"invoice_id" binding:"required"`
}

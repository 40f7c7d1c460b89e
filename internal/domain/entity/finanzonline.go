package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FinanzOnlineSubmission is one attempt to report an invoice to the tax
// office. Rows are only ever inserted.
type FinanzOnlineSubmission struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	InvoiceID       *uuid.UUID `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	InvoiceNumber   string     `gorm:"size:100" json:"invoice_number,omitempty"`
	DeviceSerial    string     `gorm:"size:100" json:"device_serial,omitempty"`
	Attempt         int        `gorm:"not null" json:"attempt"`
	RequestPayload  string     `gorm:"type:text" json:"request_payload"`
	ResponsePayload string     `gorm:"type:text" json:"response_payload,omitempty"`
	Success         bool       `gorm:"not null;index" json:"success"`
	ErrorMessage    string     `gorm:"type:text" json:"error_message,omitempty"`
	SubmittedAt     time.Time  `gorm:"not null;index" json:"submitted_at"`
	SubmittedBy     *uuid.UUID `gorm:"type:uuid" json:"submitted_by,omitempty"`
}

func (s *FinanzOnlineSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (FinanzOnlineSubmission) TableName() string {
	return "finanzonline_submissions"
}

// FinanzOnlineConfig holds the tax office credentials. There is one row.
type FinanzOnlineConfig struct {
	ID            uint      `gorm:"primary_key" json:"-"`
	ParticipantID string    `gorm:"size:50" json:"participant_id"`
	UserID        string    `gorm:"size:50" json:"user_id"`
	PIN           string    `gorm:"size:128" json:"-"`
	EndpointURL   string    `gorm:"size:500" json:"endpoint_url"`
	Enabled       bool      `gorm:"not null" json:"enabled"`
	AutoSubmit    bool      `gorm:"not null" json:"auto_submit"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (FinanzOnlineConfig) TableName() string {
	return "finanzonline_configs"
}

// HasCredentials reports whether all login fields are set.
func (c *FinanzOnlineConfig) HasCredentials() bool {
	return c.ParticipantID != "" && c.UserID != "" && c.PIN != ""
}

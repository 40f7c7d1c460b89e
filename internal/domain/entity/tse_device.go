package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TseDevice is the stored state of a fiscal signing device.
type TseDevice struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	SerialNumber        string     `gorm:"size:100;not null;uniqueIndex" json:"serial_number"`
	Description         string     `gorm:"size:255" json:"description,omitempty"`
	IsConnected         bool       `gorm:"not null" json:"is_connected"`
	ConnectedAt         *time.Time `json:"connected_at,omitempty"`
	CanCreateInvoices   bool       `gorm:"not null" json:"can_create_invoices"`
	CertificateStatus   string     `gorm:"size:50" json:"certificate_status"`
	MemoryStatus        string     `gorm:"size:50" json:"memory_status"`
	FinanzOnlineEnabled bool       `gorm:"not null" json:"finanzonline_enabled"`
	PendingInvoices     int        `gorm:"not null;default:0" json:"pending_invoices"`
	PendingReports      int        `gorm:"not null;default:0" json:"pending_reports"`
	SignatureCounter    int64      `gorm:"not null;default:0" json:"signature_counter"`
	LastSignature       string     `gorm:"type:text" json:"-"`
	LastSignatureAt     *time.Time `json:"last_signature_at,omitempty"`
	LastError           string     `gorm:"type:text" json:"last_error,omitempty"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *TseDevice) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.activate()
	return nil
}

func (TseDevice) TableName() string {
	return "tse_devices"
}

// MarkConnected moves the device into the Connected state.
func (d *TseDevice) MarkConnected(now time.Time, certificateStatus, memoryStatus string) {
	d.IsConnected = true
	d.CanCreateInvoices = true
	d.ConnectedAt = &now
	d.CertificateStatus = certificateStatus
	d.MemoryStatus = memoryStatus
	d.LastError = ""
}

// MarkDisconnected moves the device into the Disconnected state.
func (d *TseDevice) MarkDisconnected() {
	d.IsConnected = false
	d.CanCreateInvoices = false
	d.ConnectedAt = nil
}

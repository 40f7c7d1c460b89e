package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Cart holds the open order of a table or session until checkout.
type Cart struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	TableNumber *int            `gorm:"index" json:"table_number,omitempty"`
	WaiterName  string          `gorm:"size:255" json:"waiter_name,omitempty"`
	CustomerID  *uuid.UUID      `gorm:"type:uuid" json:"customer_id,omitempty"`
	Notes       string          `gorm:"type:text" json:"notes,omitempty"`
	Status      enum.CartStatus `gorm:"not null;default:0;index" json:"status"`
	CreatedBy   uuid.UUID       `gorm:"type:uuid;not null" json:"created_by"`
	ExpiresAt   time.Time       `gorm:"not null;index" json:"expires_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	InvoiceID   *uuid.UUID      `gorm:"type:uuid" json:"invoice_id,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (Cart) TableName() string {
	return "carts"
}

// IsExpired reports whether an active cart has outlived its TTL.
func (c *Cart) IsExpired(now time.Time) bool {
	return c.Status == enum.CartStatusActive && !now.Before(c.ExpiresAt)
}

// Total is the gross sum of all items.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// InvoiceLines converts the items into invoice positions.
func (c *Cart) InvoiceLines() []InvoiceLine {
	lines := make([]InvoiceLine, 0, len(c.Items))
	for _, it := range c.Items {
		productID := it.ProductID
		lines = append(lines, InvoiceLine{
			ProductID:   &productID,
			Description: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			Notes:       it.Notes,
		})
	}
	return lines
}

// CartItem is a line of a cart. Price and tax rate are snapshots taken when
// the product was added.
type CartItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	CartID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"cart_id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	ProductName string          `gorm:"size:255" json:"product_name"`
	Quantity    int             `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	Notes       string          `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (ci *CartItem) BeforeCreate(tx *gorm.DB) error {
	if ci.ID == uuid.Nil {
		ci.ID = uuid.New()
	}
	return nil
}

func (CartItem) TableName() string {
	return "cart_items"
}

func (ci *CartItem) LineTotal() decimal.Decimal {
	return ci.UnitPrice.Mul(decimal.NewFromInt(int64(ci.Quantity)))
}

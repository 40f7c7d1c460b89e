package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents an item on the menu or shelf
type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name      string          `gorm:"size:255;not null" json:"name"`
	Code      string          `gorm:"size:100;uniqueIndex" json:"code"`
	Category  string          `gorm:"size:100;index" json:"category"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
	TaxType   enum.TaxType    `gorm:"default:0" json:"tax_type"`
	Notes     *string         `gorm:"type:text" json:"notes,omitempty"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.activate()
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// GrossPrice returns the unit price including VAT.
func (p *Product) GrossPrice() decimal.Decimal {
	if p.TaxType == enum.TaxTypeExclusive {
		return p.Price.Mul(decimal.NewFromInt(1).Add(p.TaxRate.Div(hundred))).Round(2)
	}
	return p.Price
}

package request

import (
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a product creation request
type CreateProductRequest struct {
	Name     string          `json:"name" binding:"required,max=255"`
	Code     string          `json:"code" binding:"omitempty,max=100"`
	Category string          `json:"category" binding:"omitempty,max=100"`
	Price    decimal.Decimal `json:"price"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	TaxType  enum.TaxType    `json:"tax_type"`
	Notes    *string         `json:"notes"`
}

// ProductFilterRequest represents product filter parameters
type ProductFilterRequest struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Page     int    `form:"page"`
	PerPage  int    `form:"per_page"`
}

// CreateTableRequest adds a table to the floor plan
type CreateTableRequest struct {
	Number int    `json:"number" binding:"required,min=1"`
	Name   string `json:"name" binding:"max=100"`
	Seats  int    `json:"seats" binding:"min=0"`
}

// TableStatusRequest sets a table free or occupied
type TableStatusRequest struct {
	Status enum.TableStatus `json:"status"`
}

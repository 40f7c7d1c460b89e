package request

import "github.com/google/uuid"

// CreateCartRequest opens a cart, optionally for a table
type CreateCartRequest struct {
	TableNumber *int       `json:"table_number"`
	WaiterName  string     `json:"waiter_name" binding:"max=255"`
	CustomerID  *uuid.UUID `json:"customer_id"`
	Notes       string     `json:"notes"`
}

// AddCartItemRequest adds a product to a cart
type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity"`
	Notes     string    `json:"notes"`
}

// UpdateCartItemRequest changes quantity or notes of a cart line
type UpdateCartItemRequest struct {
	Quantity int     `json:"quantity"`
	Notes    *string `json:"notes"`
}

// CheckoutRequest turns a cart into a signed invoice
type CheckoutRequest struct {
	CustomerName      string     `json:"customer_name"`
	CustomerAddress   string     `json:"customer_address"`
	CustomerTaxNumber string     `json:"customer_tax_number"`
	CashRegisterID    *uuid.UUID `json:"cash_register_id"`
	KassenID          string     `json:"kassen_id"`
}

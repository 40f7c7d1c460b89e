package request

import "github.com/shopspring/decimal"

// CreateRegisterRequest represents a cash register creation request
type CreateRegisterRequest struct {
	Name     string `json:"name" binding:"max=100"`
	Location string `json:"location" binding:"max=255"`
}

// OpenRegisterRequest starts a shift
type OpenRegisterRequest struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Notes          string          `json:"notes"`
}

// CloseRegisterRequest ends a shift with the counted cash
type CloseRegisterRequest struct {
	CountedBalance decimal.Decimal `json:"counted_balance"`
	Notes          string          `json:"notes"`
}

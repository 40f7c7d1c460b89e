package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
)

// CreateInvoiceRequest represents an invoice creation request
type CreateInvoiceRequest struct {
	InvoiceNumber     string               `json:"invoice_number" binding:"max=100"`
	InvoiceDate       *time.Time           `json:"invoice_date"`
	DueDate           *time.Time           `json:"due_date"`
	CustomerID        *uuid.UUID           `json:"customer_id"`
	CustomerName      string               `json:"customer_name"`
	CustomerAddress   string               `json:"customer_address"`
	CustomerTaxNumber string               `json:"customer_tax_number"`
	CompanyName       string               `json:"company_name"`
	CompanyAddress    string               `json:"company_address"`
	CompanyTaxNumber  string               `json:"company_tax_number"`
	LineItems         []entity.InvoiceLine `json:"line_items"`
	CashRegisterID    *uuid.UUID           `json:"cash_register_id"`
	KassenID          string               `json:"kassen_id"`
	Notes             string               `json:"notes"`
}

// InvoiceFilterRequest represents invoice filter parameters
type InvoiceFilterRequest struct {
	Search       string `form:"search"`
	Status       string `form:"status"`
	DocumentType string `form:"document_type"`
	StartDate    string `form:"start_date"`
	EndDate      string `form:"end_date"`
	Page         int    `form:"page"`
	PerPage      int    `form:"per_page"`
}

// CreditNoteRequest reverses a settled invoice
type CreditNoteRequest struct {
	ReasonCode string `json:"reason_code"`
	ReasonText string `json:"reason_text"`
}

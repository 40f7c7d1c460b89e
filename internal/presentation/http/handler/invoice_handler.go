package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/kassa-api/internal/application/service"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/kassa-api/internal/presentation/http/dto/response"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/sangkips/kassa-api/pkg/pagination"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InvoiceHandler handles invoice-related HTTP requests
type InvoiceHandler struct {
	invoiceService  *service.InvoiceService
	paymentService  *service.PaymentService
	backfillService *service.BackfillService
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(
	invoiceService *service.InvoiceService,
	paymentService *service.PaymentService,
	backfillService *service.BackfillService,
) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:  invoiceService,
		paymentService:  paymentService,
		backfillService: backfillService,
	}
}

// List handles listing invoices with filters
func (h *InvoiceHandler) List(c *gin.Context) {
	params, err := invoiceFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithPagination(c, 200, "Invoices retrieved successfully", result)
}

// Get returns an invoice with its payments
func (h *InvoiceHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	invoice, err := h.invoiceService.GetInvoice(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	payments, err := h.paymentService.ListByInvoice(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice retrieved successfully", gin.H{
		"invoice":  invoice,
		"payments": payments,
	})
}

// Create handles invoice creation
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req request.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), &service.CreateInvoiceInput{
		InvoiceNumber:     req.InvoiceNumber,
		InvoiceDate:       req.InvoiceDate,
		DueDate:           req.DueDate,
		CustomerID:        req.CustomerID,
		CustomerName:      req.CustomerName,
		CustomerAddress:   req.CustomerAddress,
		CustomerTaxNumber: req.CustomerTaxNumber,
		CompanyName:       req.CompanyName,
		CompanyAddress:    req.CompanyAddress,
		CompanyTaxNumber:  req.CompanyTaxNumber,
		Lines:             req.LineItems,
		CashRegisterID:    req.CashRegisterID,
		KassenID:          req.KassenID,
		Notes:             req.Notes,
		CreatedBy:         GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Invoice created successfully", invoice)
}

// Delete soft-deletes an unsigned invoice
func (h *InvoiceHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

func (h *InvoiceHandler) Duplicate(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.DuplicateInvoice(c.Request.Context(), id, GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Invoice duplicated successfully", invoice)
}

// CreditNote issues the credit note of a settled invoice. A second credit
// note for the same invoice is a conflict.
func (h *InvoiceHandler) CreditNote(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req request.CreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	note, err := h.invoiceService.CreateCreditNote(c.Request.Context(), id, &service.CreditNoteInput{
		ReasonCode: req.ReasonCode,
		ReasonText: req.ReasonText,
		CreatedBy:  GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Credit note created successfully", note)
}

// Finalize signs a draft invoice on the connected device
func (h *InvoiceHandler) Finalize(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.FinalizeInvoice(c.Request.Context(), id, GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Invoice signed successfully", invoice)
}

// PDF streams the invoice document
func (h *InvoiceHandler) PDF(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	data, invoice, err := h.invoiceService.InvoicePDF(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, invoice.InvoiceNumber))
	c.Data(http.StatusOK, "application/pdf", data)
}

// Export streams the invoice journal as a spreadsheet
func (h *InvoiceHandler) Export(c *gin.Context) {
	params, err := invoiceFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.invoiceService.ExportInvoices(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := "rechnungsjournal-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// Backfill creates the missing invoices of imported register receipts
func (h *InvoiceHandler) Backfill(c *gin.Context) {
	result, err := h.backfillService.BackfillFromPayments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Backfill completed", result)
}

func invoiceFilter(c *gin.Context) (*repository.InvoiceFilterParams, error) {
	var filter request.InvoiceFilterRequest
	if err := c.ShouldBindQuery(&filter); err != nil {
		return nil, apperror.NewBadRequestError("Invalid query parameters")
	}

	params := &repository.InvoiceFilterParams{
		Pagination: &pagination.PaginationParams{
			Page:    filter.Page,
			PerPage: filter.PerPage,
		},
		Search: filter.Search,
	}
	if filter.Status != "" {
		status := enum.ParseInvoiceStatus(filter.Status)
		if !status.IsValid() {
			return nil, apperror.NewFieldError("status", "Unknown invoice status")
		}
		params.Status = &status
	}
	if filter.DocumentType != "" {
		docType := enum.ParseDocumentType(filter.DocumentType)
		if !docType.IsValid() {
			return nil, apperror.NewFieldError("document_type", "Unknown document type")
		}
		params.DocumentType = &docType
	}
	if filter.StartDate != "" {
		start, err := time.Parse(time.DateOnly, filter.StartDate)
		if err != nil {
			return nil, apperror.NewFieldError("start_date", "Use YYYY-MM-DD")
		}
		params.StartDate = &start
	}
	if filter.EndDate != "" {
		end, err := time.Parse(time.DateOnly, filter.EndDate)
		if err != nil {
			return nil, apperror.NewFieldError("end_date", "Use YYYY-MM-DD")
		}
		end = end.Add(24*time.Hour - time.Nanosecond)
		params.EndDate = &end
	}
	return params, nil
}

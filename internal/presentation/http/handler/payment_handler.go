package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/kassa-api/internal/application/service"
	"github.com/sangkips/kassa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/kassa-api/internal/presentation/http/dto/response"
)

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Create records a payment and updates the invoice balance
// @Summary Create payment
// @Tags payments
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Replays the first response for 24h"
// @Param request body request.CreatePaymentRequest true "Payment"
// @Success 201 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse
// @Router /payment [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req request.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), &service.CreatePaymentInput{
		InvoiceID:     req.InvoiceID,
		CustomerID:    req.CustomerID,
		Amount:        req.Amount,
		Method:        req.PaymentMethod,
		Reference:     req.Reference,
		Notes:         req.Notes,
		TransactionID: req.TransactionID,
		CreatedBy:     GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Payment created successfully", payment)
}

func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment retrieved successfully", payment)
}

func (h *PaymentHandler) ListByInvoice(c *gin.Context) {
	id, ok := pathUUID(c, "invoiceId")
	if !ok {
		return
	}

	payments, err := h.paymentService.ListByInvoice(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payments retrieved successfully", payments)
}

// Receipts lists imported register receipts, oldest first
func (h *PaymentHandler) Receipts(c *gin.Context) {
	var req request.ReceiptPageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	page, err := h.paymentService.ListReceipts(c.Request.Context(), req.Cursor, req.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	next := ""
	if page.Next != nil {
		next = page.Next.Encode()
	}
	response.OK(c, "Receipts retrieved successfully", gin.H{
		"items":       page.Items,
		"next_cursor": next,
	})
}

// UpdateStatus completes or cancels a payment. Cancelling reverses the
// amount on the invoice.
func (h *PaymentHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req request.PaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	payment, err := h.paymentService.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Payment status updated", payment)
}

// Import stores historical register receipts for the backfill
func (h *PaymentHandler) Import(c *gin.Context) {
	var req request.ImportReceiptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	createdBy := GetUserID(c)
	rows := make([]service.ImportReceiptInput, len(req.Receipts))
	for i, r := range req.Receipts {
		rows[i] = service.ImportReceiptInput{
			ReceiptNumber: r.ReceiptNumber,
			KassenID:      r.KassenID,
			Amount:        r.Amount,
			TaxAmount:     r.TaxAmount,
			Method:        r.PaymentMethod,
			PaidAt:        r.PaidAt,
			TseSignature:  r.TseSignature,
			CreatedBy:     createdBy,
		}
	}

	result, err := h.paymentService.ImportReceipts(c.Request.Context(), rows)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Receipts imported", result)
}

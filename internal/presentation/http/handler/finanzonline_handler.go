package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/kassa-api/internal/application/service"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/kassa-api/internal/presentation/http/dto/response"
)

// FinanzOnlineHandler handles submissions to the tax authority
type FinanzOnlineHandler struct {
	finanzService *service.FinanzOnlineService
}

func NewFinanzOnlineHandler(finanzService *service.FinanzOnlineService) *FinanzOnlineHandler {
	return &FinanzOnlineHandler{finanzService: finanzService}
}

// configView never carries the PIN, only whether one is stored.
func configView(cfg *entity.FinanzOnlineConfig) gin.H {
	return gin.H{
		"participant_id": cfg.ParticipantID,
		"user_id":        cfg.UserID,
		"pin_set":        cfg.PIN != "",
		"endpoint_url":   cfg.EndpointURL,
		"enabled":        cfg.Enabled,
		"auto_submit":    cfg.AutoSubmit,
		"updated_at":     cfg.UpdatedAt,
	}
}

func (h *FinanzOnlineHandler) GetConfig(c *gin.Context) {
	cfg, err := h.finanzService.GetConfig(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "FinanzOnline configuration retrieved", configView(cfg))
}

func (h *FinanzOnlineHandler) UpdateConfig(c *gin.Context) {
	var req request.FinanzOnlineConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cfg, err := h.finanzService.UpdateConfig(c.Request.Context(), &service.UpdateConfigInput{
		ParticipantID: req.ParticipantID,
		UserID:        req.UserID,
		PIN:           req.PIN,
		EndpointURL:   req.EndpointURL,
		Enabled:       req.Enabled,
		AutoSubmit:    req.AutoSubmit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "FinanzOnline configuration updated", configView(cfg))
}

func (h *FinanzOnlineHandler) Status(c *gin.Context) {
	status, err := h.finanzService.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "FinanzOnline status retrieved", status)
}

// SubmitInvoice submits synchronously. The audit trail holds every attempt
// whatever the outcome.
func (h *FinanzOnlineHandler) SubmitInvoice(c *gin.Context) {
	var req request.SubmitInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	submission, err := h.finanzService.SubmitInvoice(c.Request.Context(), &service.SubmitInput{
		InvoiceID:   req.InvoiceID,
		RequestedBy: GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Invoice submitted to FinanzOnline", submission)
}

func (h *FinanzOnlineHandler) History(c *gin.Context) {
	id, ok := pathUUID(c, "invoiceId")
	if !ok {
		return
	}

	history, err := h.finanzService.History(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Submission history retrieved", history)
}

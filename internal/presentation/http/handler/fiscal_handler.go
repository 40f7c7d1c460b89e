package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/kassa-api/internal/application/service"
	"github.com/sangkips/kassa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/kassa-api/internal/presentation/http/dto/response"
)

// FiscalHandler exposes the signature device (TSE)
type FiscalHandler struct {
	fiscalService *service.FiscalService
}

func NewFiscalHandler(fiscalService *service.FiscalService) *FiscalHandler {
	return &FiscalHandler{fiscalService: fiscalService}
}

func (h *FiscalHandler) Status(c *gin.Context) {
	status, err := h.fiscalService.Status(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "TSE status retrieved", status)
}

func (h *FiscalHandler) Connect(c *gin.Context) {
	var req request.ConnectDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	device, err := h.fiscalService.Connect(c.Request.Context(), req.SerialNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "TSE connected", device)
}

// Disconnect is idempotent; without a connected device the data is null.
func (h *FiscalHandler) Disconnect(c *gin.Context) {
	device, err := h.fiscalService.Disconnect(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "TSE disconnected", device)
}

func (h *FiscalHandler) Sign(c *gin.Context) {
	var req request.SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sig, err := h.fiscalService.Sign(c.Request.Context(), &service.SignInput{
		RegisterID:    req.RegisterID,
		ReceiptNumber: req.ReceiptNumber,
		Total:         req.Total,
		Taxes:         req.Taxes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt signed", sig)
}

func (h *FiscalHandler) ListDevices(c *gin.Context) {
	devices, err := h.fiscalService.ListDevices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "TSE devices retrieved", devices)
}

func (h *FiscalHandler) RegisterDevice(c *gin.Context) {
	var req request.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	device, err := h.fiscalService.RegisterDevice(c.Request.Context(), &service.RegisterDeviceInput{
		SerialNumber:        req.SerialNumber,
		Description:         req.Description,
		FinanzOnlineEnabled: req.FinanzOnlineEnabled,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "TSE device registered", device)
}

package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/kassa-api/internal/application/service"
	"github.com/sangkips/kassa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/kassa-api/internal/presentation/http/dto/response"
)

// CashRegisterHandler handles register shifts
type CashRegisterHandler struct {
	registerService *service.CashRegisterService
}

// NewCashRegisterHandler creates a new cash register handler
func NewCashRegisterHandler(registerService *service.CashRegisterService) *CashRegisterHandler {
	return &CashRegisterHandler{registerService: registerService}
}

func (h *CashRegisterHandler) List(c *gin.Context) {
	registers, err := h.registerService.ListRegisters(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cash registers retrieved successfully", registers)
}

func (h *CashRegisterHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	register, err := h.registerService.GetRegister(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cash register retrieved successfully", register)
}

func (h *CashRegisterHandler) Create(c *gin.Context) {
	var req request.CreateRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	register, err := h.registerService.CreateRegister(c.Request.Context(), &service.CreateRegisterInput{
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Cash register created successfully", register)
}

// Open starts a shift for the calling user
func (h *CashRegisterHandler) Open(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req request.OpenRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	register, err := h.registerService.OpenRegister(c.Request.Context(), id, &service.OpenRegisterInput{
		OpeningBalance: req.OpeningBalance,
		UserID:         userID,
		Notes:          req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cash register opened", register)
}

// Close ends the shift. Only the user who opened it may close it.
func (h *CashRegisterHandler) Close(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req request.CloseRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	register, err := h.registerService.CloseRegister(c.Request.Context(), id, &service.CloseRegisterInput{
		CountedBalance: req.CountedBalance,
		UserID:         userID,
		Notes:          req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cash register closed", register)
}

func (h *CashRegisterHandler) Transactions(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	txs, err := h.registerService.ListTransactions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Register transactions retrieved successfully", txs)
}

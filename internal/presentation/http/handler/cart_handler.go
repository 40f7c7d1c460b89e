package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/kassa-api/internal/application/service"
	"github.com/sangkips/kassa-api/internal/presentation/http/dto/request"
	"github.com/sangkips/kassa-api/internal/presentation/http/dto/response"
)

// CartHandler handles table-side order carts
type CartHandler struct {
	cartService    *service.CartService
	invoiceService *service.InvoiceService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *service.CartService, invoiceService *service.InvoiceService) *CartHandler {
	return &CartHandler{cartService: cartService, invoiceService: invoiceService}
}

// Create opens a cart and answers with its id
func (h *CartHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.CreateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cart, err := h.cartService.CreateCart(c.Request.Context(), &service.CreateCartInput{
		TableNumber: req.TableNumber,
		WaiterName:  req.WaiterName,
		CustomerID:  req.CustomerID,
		Notes:       req.Notes,
		CreatedBy:   userID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Cart created successfully", gin.H{
		"cart_id":    cart.ID,
		"expires_at": cart.ExpiresAt,
	})
}

func (h *CartHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "cartId")
	if !ok {
		return
	}

	cart, err := h.cartService.GetCart(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cart retrieved successfully", cart)
}

func (h *CartHandler) AddItem(c *gin.Context) {
	id, ok := pathUUID(c, "cartId")
	if !ok {
		return
	}

	var req request.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cart, err := h.cartService.AddItem(c.Request.Context(), id, &service.AddItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Item added to cart", cart)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	id, ok := pathUUID(c, "cartId")
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "itemId")
	if !ok {
		return
	}

	var req request.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cart, err := h.cartService.UpdateItem(c.Request.Context(), id, itemID, &service.UpdateItemInput{
		Quantity: req.Quantity,
		Notes:    req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cart item updated", cart)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	id, ok := pathUUID(c, "cartId")
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "itemId")
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveItem(c.Request.Context(), id, itemID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Cart item removed", cart)
}

// Clear cancels the cart and frees its table
func (h *CartHandler) Clear(c *gin.Context) {
	id, ok := pathUUID(c, "cartId")
	if !ok {
		return
	}

	if err := h.cartService.ClearCart(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Checkout converts the cart into a signed invoice
func (h *CartHandler) Checkout(c *gin.Context) {
	id, ok := pathUUID(c, "cartId")
	if !ok {
		return
	}

	var req request.CheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	invoice, err := h.invoiceService.Checkout(c.Request.Context(), id, &service.CheckoutInput{
		CustomerName:      req.CustomerName,
		CustomerAddress:   req.CustomerAddress,
		CustomerTaxNumber: req.CustomerTaxNumber,
		CashRegisterID:    req.CashRegisterID,
		KassenID:          req.KassenID,
		CreatedBy:         GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, "Cart checked out", invoice)
}

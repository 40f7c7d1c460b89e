package routes

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/kassa-api/internal/config"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	domainRepo "github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/internal/presentation/http/handler"
	"github.com/sangkips/kassa-api/internal/presentation/http/middleware"
	"github.com/sangkips/kassa-api/internal/presentation/ws"
	"github.com/sangkips/kassa-api/pkg/utils"
)

// Handlers holds all the HTTP handlers used for route registration.
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Table        *handler.TableHandler
	Cart         *handler.CartHandler
	Invoice      *handler.InvoiceHandler
	Payment      *handler.PaymentHandler
	Fiscal       *handler.FiscalHandler
	FinanzOnline *handler.FinanzOnlineHandler
	CashRegister *handler.CashRegisterHandler
	Printer      *handler.PrinterHandler
}

// Deps holds shared dependencies needed by the routes.
type Deps struct {
	JWTManager      *utils.JWTManager
	Cfg             *config.Config
	IdempotencyRepo domainRepo.IdempotencyRepository
	Hub             *ws.Hub
	Logger          *slog.Logger
}

// Setup creates the Gin router and registers all routes.
func Setup(h *Handlers, deps *Deps) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.CORSMiddleware(&deps.Cfg.CORS))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": deps.Cfg.App.Name,
		})
	})

	rateLimiter := middleware.NewClientRateLimiter(
		middleware.RateLimiterConfigFor(deps.Cfg.RateLimit.Requests, deps.Cfg.RateLimit.Duration),
	)
	auth := middleware.AuthMiddleware(deps.JWTManager)

	if deps.Hub != nil {
		router.GET("/ws/events", auth, deps.Hub.Handle)
	}

	api := router.Group("/api")
	{
		// Public routes (no authentication required)
		api.POST("/auth/login", rateLimiter.Middleware(), h.Auth.Login)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(auth, rateLimiter.Middleware())

		registerProtectedRoutes(protected, h, deps)
	}

	return router
}

func registerProtectedRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	protected.GET("/auth/me", h.Auth.Me)
	protected.POST("/auth/users",
		middleware.RequireRole(entity.RoleAdministrator, entity.RoleAdmin), h.Auth.Register)

	registerProductRoutes(protected, h)
	registerTableRoutes(protected, h)
	registerCartRoutes(protected, h)
	registerInvoiceRoutes(protected, h)
	registerPaymentRoutes(protected, h, deps)
	registerFiscalRoutes(protected, h)
	registerFinanzOnlineRoutes(protected, h)
	registerCashRegisterRoutes(protected, h)
	registerPrinterRoutes(protected, h)
}

func registerProductRoutes(protected *gin.RouterGroup, h *Handlers) {
	manage := middleware.RequireRole(entity.RoleAdministrator, entity.RoleManager)
	products := protected.Group("/products")
	{
		products.GET("", h.Product.List)
		products.GET("/:id", h.Product.Get)
		products.POST("", manage, h.Product.Create)
		products.POST("/import", manage, h.Product.Import)
	}
}

func registerTableRoutes(protected *gin.RouterGroup, h *Handlers) {
	tables := protected.Group("/tables")
	{
		tables.GET("", h.Table.List)
		tables.POST("", middleware.RequireRole(entity.RoleAdministrator, entity.RoleManager), h.Table.Create)
		tables.PUT("/:number/status", h.Table.SetStatus)
	}
}

func registerCartRoutes(protected *gin.RouterGroup, h *Handlers) {
	cart := protected.Group("/cart")
	{
		cart.POST("", h.Cart.Create)
		cart.GET("/:cartId", h.Cart.Get)
		cart.DELETE("/:cartId", h.Cart.Clear)
		cart.POST("/:cartId/items", h.Cart.AddItem)
		cart.PUT("/:cartId/items/:itemId", h.Cart.UpdateItem)
		cart.DELETE("/:cartId/items/:itemId", h.Cart.RemoveItem)
		cart.POST("/:cartId/checkout", h.Cart.Checkout)
	}
}

func registerInvoiceRoutes(protected *gin.RouterGroup, h *Handlers) {
	invoices := protected.Group("/invoice")
	{
		invoices.GET("", h.Invoice.List)
		invoices.POST("", h.Invoice.Create)
		invoices.GET("/export", h.Invoice.Export)
		invoices.POST("/backfill-from-payments", middleware.RequireRole(entity.RoleAdmin), h.Invoice.Backfill)
		invoices.GET("/:id", h.Invoice.Get)
		invoices.DELETE("/:id", h.Invoice.Delete)
		invoices.POST("/:id/duplicate", h.Invoice.Duplicate)
		invoices.POST("/:id/credit-note", h.Invoice.CreditNote)
		invoices.POST("/:id/finalize", h.Invoice.Finalize)
		invoices.GET("/:id/pdf", h.Invoice.PDF)
		invoices.POST("/:id/print", h.Printer.PrintInvoice)
	}
}

func registerPaymentRoutes(protected *gin.RouterGroup, h *Handlers, deps *Deps) {
	payments := protected.Group("/payment")
	{
		payments.POST("", middleware.Idempotency(middleware.IdempotencyConfig{
			Repo:   deps.IdempotencyRepo,
			Logger: deps.Logger,
		}), h.Payment.Create)
		payments.POST("/import", middleware.RequireRole(entity.RoleAdmin), h.Payment.Import)
		payments.GET("/receipts", middleware.RequireRole(entity.RoleAdmin), h.Payment.Receipts)
		payments.GET("/invoice/:invoiceId", h.Payment.ListByInvoice)
		payments.GET("/:id", h.Payment.Get)
		payments.PUT("/:id/status",
			middleware.RequireRole(entity.RoleAdministrator, entity.RoleManager), h.Payment.UpdateStatus)
	}
}

func registerFiscalRoutes(protected *gin.RouterGroup, h *Handlers) {
	tse := protected.Group("/tse")
	{
		tse.GET("/status", h.Fiscal.Status)
		tse.POST("/connect", h.Fiscal.Connect)
		tse.POST("/disconnect", h.Fiscal.Disconnect)
		tse.POST("/signature", h.Fiscal.Sign)
		tse.GET("/devices", h.Fiscal.ListDevices)
		tse.POST("/devices", middleware.RequireRole(entity.RoleAdministrator, entity.RoleManager), h.Fiscal.RegisterDevice)
	}
}

func registerFinanzOnlineRoutes(protected *gin.RouterGroup, h *Handlers) {
	fon := protected.Group("/finanzonline")
	{
		fon.GET("/config", h.FinanzOnline.GetConfig)
		fon.PUT("/config", middleware.RequireRole(entity.RoleAdministrator, entity.RoleManager), h.FinanzOnline.UpdateConfig)
		fon.GET("/status", h.FinanzOnline.Status)
		fon.POST("/submit-invoice", h.FinanzOnline.SubmitInvoice)
		fon.GET("/history/:invoiceId", h.FinanzOnline.History)
	}
}

func registerCashRegisterRoutes(protected *gin.RouterGroup, h *Handlers) {
	registers := protected.Group("/cash-register")
	{
		registers.GET("", h.CashRegister.List)
		registers.POST("", middleware.RequireRole(entity.RoleAdministrator, entity.RoleManager), h.CashRegister.Create)
		registers.GET("/:id", h.CashRegister.Get)
		registers.POST("/:id/open", h.CashRegister.Open)
		registers.POST("/:id/close", h.CashRegister.Close)
		registers.GET("/:id/transactions", h.CashRegister.Transactions)
	}
}

func registerPrinterRoutes(protected *gin.RouterGroup, h *Handlers) {
	printer := protected.Group("/printer")
	{
		printer.GET("/status", h.Printer.GetStatus)
		printer.POST("/test", h.Printer.TestPrint)
	}
}

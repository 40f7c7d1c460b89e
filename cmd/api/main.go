package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/kassa-api/internal/application/service"
	"github.com/sangkips/kassa-api/internal/application/worker"
	"github.com/sangkips/kassa-api/internal/config"
	"github.com/sangkips/kassa-api/internal/infrastructure/cache"
	"github.com/sangkips/kassa-api/internal/infrastructure/database"
	"github.com/sangkips/kassa-api/internal/infrastructure/finanzonline"
	"github.com/sangkips/kassa-api/internal/infrastructure/fiscal"
	"github.com/sangkips/kassa-api/internal/infrastructure/queue"
	"github.com/sangkips/kassa-api/internal/infrastructure/repository"
	"github.com/sangkips/kassa-api/internal/presentation/http/handler"
	"github.com/sangkips/kassa-api/internal/presentation/http/routes"
	"github.com/sangkips/kassa-api/internal/presentation/ws"
	"github.com/sangkips/kassa-api/pkg/logger"
	"github.com/sangkips/kassa-api/pkg/printer"
	"github.com/sangkips/kassa-api/pkg/retry"
	"github.com/sangkips/kassa-api/pkg/utils"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(os.Stdout, cfg.App.Name, cfg.App.Debug)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Open(&cfg.Database, cfg.App.Debug)
	if err != nil {
		fatal(log, "Failed to connect to database", err)
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		fatal(log, "Failed to run migrations", err)
	}

	// Seed default data
	if err := database.SeedDefaultData(db, cfg); err != nil {
		log.Warn("Failed to seed default data", "error", err)
	}

	jwtManager := utils.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours, cfg.JWT.Issuer, cfg.JWT.Audience)
	numbers, err := utils.NewNumberGenerator(cfg.App.NodeID)
	if err != nil {
		fatal(log, "Failed to create number generator", err)
	}

	// Status cache: Redis when configured, otherwise every read hits the database
	var statusCache cache.StatusCache = cache.NoopStatusCache{}
	if cfg.Redis.Addr != "" {
		redisCache := cache.NewRedisStatusCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn("Redis unavailable, status cache disabled", "addr", cfg.Redis.Addr, "error", err)
		} else {
			statusCache = redisCache
			defer redisCache.Close()
		}
	}

	// Submission queue: RabbitMQ when configured, in-process otherwise
	var submissions queue.Queue
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := queue.NewRabbitQueue(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, log)
		if err != nil {
			fatal(log, "Failed to connect to RabbitMQ", err)
		}
		submissions = rabbit
	} else {
		submissions = queue.NewChannelQueue(256)
	}
	defer submissions.Close()

	driver, err := fiscal.NewDriver(cfg.TSE.Driver, cfg.TSE.SysfsRoot, cfg.TSE.VendorID, cfg.TSE.ProductID,
		cfg.TSE.KeyFile, cfg.TSE.SimulatedLatency)
	if err != nil {
		fatal(log, "Failed to create TSE driver", err)
	}
	fonClient, err := finanzonline.NewClient(cfg.FinanzOnline.Mode, cfg.FinanzOnline.Timeout, cfg.TSE.SimulatedLatency)
	if err != nil {
		fatal(log, "Failed to create FinanzOnline client", err)
	}

	// Initialize thermal printer
	thermalPrinter, err := printer.NewPrinterFromConfig(cfg.Printer.Type, cfg.Printer.USBPath, cfg.Printer.Address)
	if err != nil {
		log.Warn("Failed to initialize printer", "error", err)
		thermalPrinter = printer.NewBufferPrinter()
	}

	hub := ws.NewHub(cfg.CORS.AllowedOrigins, log)
	defer hub.Close()

	// Initialize repositories
	tx := repository.NewTransactor(db)
	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	tableRepo := repository.NewTableRepository(db)
	cartRepo := repository.NewCartRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	deviceRepo := repository.NewTseDeviceRepository(db)
	registerRepo := repository.NewCashRegisterRepository(db)
	finanzRepo := repository.NewFinanzOnlineRepository(db)
	idempotencyRepo := repository.NewIdempotencyRepository(db)

	company := service.CompanyProfile{
		Name:      cfg.Company.Name,
		Address:   cfg.Company.Address,
		TaxNumber: cfg.Company.TaxNumber,
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtManager)
	fiscalService := service.NewFiscalService(deviceRepo, driver, statusCache, service.FiscalOptions{
		HandshakeTimeout: cfg.TSE.HandshakeTimeout,
		SignTimeout:      cfg.TSE.SignTimeout,
		StatusTTL:        cfg.Redis.StatusTTL,
	}, log)
	finanzService := service.NewFinanzOnlineService(finanzRepo, invoiceRepo, deviceRepo, fonClient, submissions,
		statusCache, service.FinanzOnlineOptions{
			Endpoint: cfg.FinanzOnline.Endpoint,
			Retry: retry.Policy{
				MaxAttempts: cfg.FinanzOnline.MaxAttempts,
				BaseDelay:   cfg.FinanzOnline.RetryBaseDelay,
				MaxDelay:    30 * time.Second,
			},
			StatusTTL: cfg.Redis.StatusTTL,
		}, log)
	tableService := service.NewTableService(tableRepo)
	productService := service.NewProductService(productRepo, numbers)
	cartService := service.NewCartService(cartRepo, productRepo, tableService, tx, hub, service.CartOptions{
		TTL:         cfg.Cart.TTL,
		MaxQuantity: cfg.Cart.MaxQuantity,
	}, log)
	invoiceService := service.NewInvoiceService(invoiceRepo, deviceRepo, cartService, fiscalService, finanzService,
		tx, numbers, hub, company, log)
	paymentService := service.NewPaymentService(paymentRepo, invoiceRepo, fiscalService, tx, hub, log)
	backfillService := service.NewBackfillService(invoiceRepo, paymentRepo, registerRepo, company, log)
	registerService := service.NewCashRegisterService(registerRepo, tx, numbers, log)
	printerService := service.NewPrinterService(thermalPrinter, invoiceRepo, cfg.Printer.Type, cfg.Printer.Width, log)

	// Device handles do not survive a restart
	if err := fiscalService.Reset(ctx); err != nil {
		log.Warn("Failed to reset TSE connection state", "error", err)
	}

	// Initialize handlers
	handlers := &routes.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Product:      handler.NewProductHandler(productService),
		Table:        handler.NewTableHandler(tableService),
		Cart:         handler.NewCartHandler(cartService, invoiceService),
		Invoice:      handler.NewInvoiceHandler(invoiceService, paymentService, backfillService),
		Payment:      handler.NewPaymentHandler(paymentService),
		Fiscal:       handler.NewFiscalHandler(fiscalService),
		FinanzOnline: handler.NewFinanzOnlineHandler(finanzService),
		CashRegister: handler.NewCashRegisterHandler(registerService),
		Printer:      handler.NewPrinterHandler(printerService),
	}

	// Setup routes
	router := routes.Setup(handlers, &routes.Deps{
		JWTManager:      jwtManager,
		Cfg:             cfg,
		IdempotencyRepo: idempotencyRepo,
		Hub:             hub,
		Logger:          log,
	})

	// Background workers
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w := worker.NewSubmissionWorker(submissions, finanzService.HandleMessage, cfg.FinanzOnline.Workers, log)
		if err := w.Run(ctx); err != nil {
			log.Error("Submission worker stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		worker.NewCartSweeper(cartService, cfg.Cart.SweepInterval, log).
			PurgeKeys(idempotencyRepo).
			Run(ctx)
	}()

	// Get port from environment or use default
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting server", "port", port, "env", cfg.App.Env, "tse_driver", driver.Name(),
			"finanzonline", fonClient.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", "error", err)
	}
	wg.Wait()
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

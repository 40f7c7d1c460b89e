package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/infrastructure/database/dbtest"
	"github.com/sangkips/kassa-api/internal/infrastructure/finanzonline"
	"github.com/sangkips/kassa-api/internal/infrastructure/fiscal"
	"github.com/sangkips/kassa-api/internal/infrastructure/queue"
	"github.com/sangkips/kassa-api/internal/infrastructure/repository"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/sangkips/kassa-api/pkg/logger"
	"github.com/sangkips/kassa-api/pkg/printer"
	"github.com/sangkips/kassa-api/pkg/retry"
	"github.com/sangkips/kassa-api/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testDeviceSerial = "TSE-TEST-1"

var testCompany = CompanyProfile{Name: "Gasthaus Test", Address: "Hauptplatz 1, 1010 Wien", TaxNumber: "ATU12345678"}

type recordingEvents struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEvents) Publish(event string, _ any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingEvents) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []queue.SubmissionMessage
}

func (p *recordingPublisher) Publish(_ context.Context, msg queue.SubmissionMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) Messages() []queue.SubmissionMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]queue.SubmissionMessage(nil), p.msgs...)
}

// testEnv wires every service against a fresh in-memory database.
type testEnv struct {
	db        *gorm.DB
	driver    *fiscal.SimulatedDriver
	events    *recordingEvents
	published *recordingPublisher
	printer   *printer.BufferPrinter
	numbers   *utils.NumberGenerator

	fiscal    *FiscalService
	tables    *TableService
	products  *ProductService
	carts     *CartService
	invoices  *InvoiceService
	payments  *PaymentService
	backfill  *BackfillService
	registers *CashRegisterService
	finanz    *FinanzOnlineService
	printing  *PrinterService
	auth      *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithClient(t, &finanzonline.SimulatedClient{})
}

func newTestEnvWithClient(t *testing.T, client finanzonline.Client) *testEnv {
	t.Helper()
	db := dbtest.New(t)
	log := logger.Discard()

	numbers, err := utils.NewNumberGenerator(1)
	require.NoError(t, err)

	env := &testEnv{
		db:        db,
		driver:    fiscal.NewSimulatedDriver(0, fiscal.SimulatedVendorID, fiscal.SimulatedProductID),
		events:    &recordingEvents{},
		published: &recordingPublisher{},
		printer:   printer.NewBufferPrinter(),
		numbers:   numbers,
	}

	tx := repository.NewTransactor(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	deviceRepo := repository.NewTseDeviceRepository(db)
	registerRepo := repository.NewCashRegisterRepository(db)
	productRepo := repository.NewProductRepository(db)

	env.fiscal = NewFiscalService(deviceRepo, env.driver, nil, FiscalOptions{
		HandshakeTimeout: time.Second,
		SignTimeout:      time.Second,
	}, log)
	env.finanz = NewFinanzOnlineService(
		repository.NewFinanzOnlineRepository(db), invoiceRepo, deviceRepo, client, env.published, nil,
		FinanzOnlineOptions{
			Endpoint: "https://finanzonline.test/rksv",
			Retry:    retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
		}, log)
	env.tables = NewTableService(repository.NewTableRepository(db))
	env.products = NewProductService(productRepo, numbers)
	env.carts = NewCartService(repository.NewCartRepository(db), productRepo, env.tables, tx, env.events,
		CartOptions{TTL: time.Hour, MaxQuantity: DefaultMaxQuantity}, log)
	env.invoices = NewInvoiceService(invoiceRepo, deviceRepo, env.carts, env.fiscal, env.finanz, tx, numbers,
		env.events, testCompany, log)
	env.payments = NewPaymentService(paymentRepo, invoiceRepo, env.fiscal, tx, env.events, log)
	env.backfill = NewBackfillService(invoiceRepo, paymentRepo, registerRepo, testCompany, log)
	env.registers = NewCashRegisterService(registerRepo, tx, numbers, log)
	env.printing = NewPrinterService(env.printer, invoiceRepo, "none", 42, log)
	env.auth = NewAuthService(repository.NewUserRepository(db),
		utils.NewJWTManager("test-secret", time.Hour, "kassa-api", "kassa-clients"))
	return env
}

// connectDevice registers and connects the FinanzOnline-enabled test device.
func (e *testEnv) connectDevice(t *testing.T) *entity.TseDevice {
	t.Helper()
	ctx := context.Background()
	_, err := e.fiscal.RegisterDevice(ctx, &RegisterDeviceInput{SerialNumber: testDeviceSerial, FinanzOnlineEnabled: true})
	require.NoError(t, err)
	device, err := e.fiscal.Connect(ctx, testDeviceSerial)
	require.NoError(t, err)
	return device
}

func (e *testEnv) createProduct(t *testing.T, name, price string, rate int64) *entity.Product {
	t.Helper()
	p, err := e.products.CreateProduct(context.Background(), &CreateProductInput{
		Name:    name,
		Price:   decimal.RequireFromString(price),
		TaxRate: decimal.NewFromInt(rate),
	})
	require.NoError(t, err)
	return p
}

// createInvoice stores a Draft invoice with a single 20% line worth total.
func (e *testEnv) createInvoice(t *testing.T, number, total string) *entity.Invoice {
	t.Helper()
	inv, err := e.invoices.CreateInvoice(context.Background(), &CreateInvoiceInput{
		InvoiceNumber: number,
		CustomerName:  "Max Mustermann",
		Lines: []entity.InvoiceLine{{
			Description: "Menü",
			Quantity:    1,
			UnitPrice:   decimal.RequireFromString(total),
			TaxRate:     decimal.NewFromInt(20),
		}},
	})
	require.NoError(t, err)
	return inv
}

func (e *testEnv) pay(t *testing.T, invoiceID uuid.UUID, amount string) *entity.PaymentDetails {
	t.Helper()
	p, err := e.payments.CreatePayment(context.Background(), &CreatePaymentInput{
		InvoiceID: invoiceID,
		Amount:    decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) configureFinanzOnline(t *testing.T, autoSubmit bool) {
	t.Helper()
	_, err := e.finanz.UpdateConfig(context.Background(), &UpdateConfigInput{
		ParticipantID: "TID123",
		UserID:        "USER1",
		PIN:           "secret",
		Enabled:       true,
		AutoSubmit:    autoSubmit,
	})
	require.NoError(t, err)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func assertKind(t *testing.T, want apperror.Kind, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, apperror.KindOf(err), "unexpected error: %v", err)
}

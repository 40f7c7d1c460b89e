package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	domainRepo "github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/internal/infrastructure/database/dbtest"
	"github.com/sangkips/kassa-api/internal/infrastructure/repository"
	"github.com/sangkips/kassa-api/pkg/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newInvoice(number string) *entity.Invoice {
	return &entity.Invoice{
		InvoiceNumber: number,
		InvoiceDate:   time.Now(),
		TotalAmount:   decimal.NewFromInt(100),
	}
}

func TestActiveScopeHidesRetiredInvoices(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInvoiceRepository(dbtest.New(t))

	inv := newInvoice("INV-001")
	require.NoError(t, repo.Create(ctx, inv))
	assert.True(t, inv.IsActive)

	inv.Retire(time.Now())
	require.NoError(t, repo.Update(ctx, inv))

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.GetByID(repository.WithInactive(ctx), inv.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.IsActive)

	_, total, err := repo.List(ctx, &domainRepo.InvoiceFilterParams{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestInvoiceNumberUniqueAmongActiveRows(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInvoiceRepository(dbtest.New(t))

	first := newInvoice("INV-7")
	require.NoError(t, repo.Create(ctx, first))
	assert.Error(t, repo.Create(ctx, newInvoice("INV-7")))

	exists, err := repo.NumberExists(ctx, "INV-7")
	require.NoError(t, err)
	assert.True(t, exists)

	first.Retire(time.Now())
	require.NoError(t, repo.Update(ctx, first))

	exists, err = repo.NumberExists(ctx, "INV-7")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, repo.Create(ctx, newInvoice("INV-7")))
}

func TestOneActiveCreditNotePerOriginal(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInvoiceRepository(dbtest.New(t))

	original := newInvoice("INV-20")
	require.NoError(t, repo.Create(ctx, original))
	creditNote := func(number string) *entity.Invoice {
		inv := newInvoice(number)
		inv.DocumentType = enum.DocumentTypeCreditNote
		inv.OriginalInvoiceID = &original.ID
		return inv
	}

	first := creditNote("CN-1")
	require.NoError(t, repo.Create(ctx, first))
	assert.ErrorIs(t, repo.Create(ctx, creditNote("CN-2")), gorm.ErrDuplicatedKey)

	first.Retire(time.Now())
	require.NoError(t, repo.Update(ctx, first))
	assert.NoError(t, repo.Create(ctx, creditNote("CN-3")))
}

func TestSourcePaymentIDsIncludeRetiredRows(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInvoiceRepository(dbtest.New(t))

	paymentID := uuid.New()
	inv := newInvoice("R-1")
	inv.SourcePaymentID = &paymentID
	require.NoError(t, repo.Create(ctx, inv))
	require.NoError(t, repo.Create(ctx, newInvoice("R-2")))

	inv.Retire(time.Now())
	require.NoError(t, repo.Update(ctx, inv))

	ids, err := repo.SourcePaymentIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	assert.Contains(t, ids, paymentID)

	dup := newInvoice("R-3")
	dup.SourcePaymentID = &paymentID
	assert.Error(t, repo.Create(ctx, dup))
}

func TestFindCreditNote(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewInvoiceRepository(dbtest.New(t))

	orig := newInvoice("INV-1")
	require.NoError(t, repo.Create(ctx, orig))

	none, err := repo.FindCreditNote(ctx, orig.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	cn := orig.CreditNote("CN-1", "R", "", time.Now())
	require.NoError(t, repo.Create(ctx, cn))

	found, err := repo.FindCreditNote(ctx, orig.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, cn.ID, found.ID)
	assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(-100)))
}

func TestListReceiptsPagesByKeyset(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewPaymentRepository(dbtest.New(t))

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		p := &entity.PaymentDetails{
			Amount:        decimal.NewFromInt(int64(10 + i)),
			ReceiptNumber: "R-" + string(rune('A'+i)),
			PaidAt:        base,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, p))
	}
	require.NoError(t, repo.Create(ctx, &entity.PaymentDetails{Amount: decimal.NewFromInt(1), PaidAt: base}))

	first, err := repo.ListReceipts(ctx, nil, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "R-A", first[0].ReceiptNumber)

	last := first[len(first)-1]
	rest, err := repo.ListReceipts(ctx, &pagination.Cursor{ID: last.ID.String(), CreatedAt: last.CreatedAt}, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Equal(t, "R-D", rest[0].ReceiptNumber)
	assert.Equal(t, "R-E", rest[1].ReceiptNumber)
}

func TestSignatureCounterAndPendingInvoices(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTseDeviceRepository(dbtest.New(t))

	dev := &entity.TseDevice{SerialNumber: "TSE-1"}
	require.NoError(t, repo.Create(ctx, dev))

	for want := int64(1); want <= 3; want++ {
		got, err := repo.NextSignatureCounter(ctx, dev.ID)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := repo.NextSignatureCounter(ctx, uuid.New())
	assert.Error(t, err)

	require.NoError(t, repo.AddPendingInvoices(ctx, dev.ID, 2))
	require.NoError(t, repo.AddPendingInvoices(ctx, dev.ID, -5))
	stored, err := repo.GetBySerial(ctx, "TSE-1")
	require.NoError(t, err)
	assert.Equal(t, 0, stored.PendingInvoices)
	assert.EqualValues(t, 3, stored.SignatureCounter)
}

func TestDisconnectOthers(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewTseDeviceRepository(dbtest.New(t))

	a := &entity.TseDevice{SerialNumber: "A", IsConnected: true, CanCreateInvoices: true}
	b := &entity.TseDevice{SerialNumber: "B", IsConnected: true, CanCreateInvoices: true}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	require.NoError(t, repo.DisconnectOthers(ctx, b.ID))

	connected, err := repo.GetConnected(ctx)
	require.NoError(t, err)
	require.NotNil(t, connected)
	assert.Equal(t, "B", connected.SerialNumber)

	require.NoError(t, repo.DisconnectAll(ctx))
	connected, err = repo.GetConnected(ctx)
	require.NoError(t, err)
	assert.Nil(t, connected)
}

func TestCartDeleteRemovesItems(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	repo := repository.NewCartRepository(db)

	cart := &entity.Cart{CreatedBy: uuid.New(), ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, cart))
	require.NoError(t, repo.AddItem(ctx, &entity.CartItem{CartID: cart.ID, ProductID: uuid.New(), Quantity: 1, UnitPrice: decimal.NewFromInt(3)}))

	loaded, err := repo.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Items, 1)

	require.NoError(t, repo.Delete(ctx, cart.ID))
	loaded, err = repo.GetByID(ctx, cart.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	var items int64
	require.NoError(t, db.Model(&entity.CartItem{}).Count(&items).Error)
	assert.Zero(t, items)
}

func TestExpireStale(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewCartRepository(dbtest.New(t))
	now := time.Now()

	stale := &entity.Cart{CreatedBy: uuid.New(), ExpiresAt: now.Add(-time.Minute)}
	fresh := &entity.Cart{CreatedBy: uuid.New(), ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))

	n, err := repo.ExpireStale(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := repo.GetByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.CartStatusExpired, got.Status)
}

func TestTransactorRollsBack(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)
	tx := repository.NewTransactor(db)
	repo := repository.NewCashRegisterRepository(db)

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, &entity.CashRegister{RegisterNumber: 1}))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	registers, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, registers)

	next, err := repo.NextRegisterNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
}

func TestFinanzOnlineStats(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewFinanzOnlineRepository(dbtest.New(t))

	stats, err := repo.SubmissionStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Nil(t, stats.LastSubmission)

	invoiceID := uuid.New()
	now := time.Now()
	require.NoError(t, repo.CreateSubmission(ctx, &entity.FinanzOnlineSubmission{InvoiceID: &invoiceID, Attempt: 1, SubmittedAt: now}))
	reported, err := repo.HasSuccessfulSubmission(ctx, invoiceID)
	require.NoError(t, err)
	assert.False(t, reported)
	require.NoError(t, repo.CreateSubmission(ctx, &entity.FinanzOnlineSubmission{InvoiceID: &invoiceID, Attempt: 2, Success: true, SubmittedAt: now.Add(time.Second)}))
	reported, err = repo.HasSuccessfulSubmission(ctx, invoiceID)
	require.NoError(t, err)
	assert.True(t, reported)

	stats, err = repo.SubmissionStats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Total)
	assert.EqualValues(t, 1, stats.Succeeded)
	assert.EqualValues(t, 1, stats.Failed)
	assert.NotNil(t, stats.LastSubmission)

	cfg, err := repo.GetConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)
	require.NoError(t, repo.SaveConfig(ctx, &entity.FinanzOnlineConfig{ParticipantID: "P1", Enabled: true}))
	require.NoError(t, repo.SaveConfig(ctx, &entity.FinanzOnlineConfig{ParticipantID: "P2", Enabled: true}))
	cfg, err = repo.GetConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "P2", cfg.ParticipantID)
}

func TestIdempotencyKeysAreUserScoped(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewIdempotencyRepository(dbtest.New(t))
	cashier, other := uuid.New(), uuid.New()
	entry := func(user uuid.UUID, key, body string, ttl time.Duration) *entity.IdempotencyKey {
		return &entity.IdempotencyKey{
			Key:          key,
			UserID:       user,
			Endpoint:     "POST /api/payment",
			ResponseCode: 201,
			ResponseBody: body,
			ExpiresAt:    time.Now().Add(ttl),
		}
	}

	require.NoError(t, repo.Save(ctx, entry(cashier, "k-1", "stale", -time.Minute)))
	got, err := repo.Find(ctx, cashier, "k-1")
	require.NoError(t, err)
	assert.Nil(t, got, "expired entries read as absent")

	// Reusing an expired key replaces it without waiting for the sweeper.
	require.NoError(t, repo.Save(ctx, entry(cashier, "k-1", "first", time.Hour)))
	require.NoError(t, repo.Save(ctx, entry(cashier, "k-1", "second", time.Hour)))
	got, err = repo.Find(ctx, cashier, "k-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "first", got.ResponseBody)

	got, err = repo.Find(ctx, other, "k-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, repo.Save(ctx, entry(other, "k-1", "other", time.Hour)))
	require.NoError(t, repo.Save(ctx, entry(other, "k-2", "old", -time.Minute)))

	purged, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)
	got, err = repo.Find(ctx, other, "k-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "other", got.ResponseBody)
}

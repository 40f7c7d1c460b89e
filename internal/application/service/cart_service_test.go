package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) backdateCart(t *testing.T, id uuid.UUID) {
	t.Helper()
	err := e.db.Model(&entity.Cart{}).Where("id = ?", id).
		Update("expires_at", time.Now().Add(-time.Minute)).Error
	require.NoError(t, err)
}

func (e *testEnv) table(t *testing.T, number int) entity.Table {
	t.Helper()
	tables, err := e.tables.ListTables(context.Background())
	require.NoError(t, err)
	for _, tb := range tables {
		if tb.Number == number {
			return tb
		}
	}
	t.Fatalf("table %d not found", number)
	return entity.Table{}
}

func TestCartService_CreateCartOccupiesTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.tables.CreateTable(ctx, &CreateTableInput{Number: 7, Seats: 2})
	require.NoError(t, err)

	number := 7
	cart, err := env.carts.CreateCart(ctx, &CreateCartInput{TableNumber: &number, WaiterName: "Lena"})
	require.NoError(t, err)
	assert.Equal(t, enum.CartStatusActive, cart.Status)
	assert.True(t, cart.ExpiresAt.After(time.Now()))

	tb := env.table(t, 7)
	assert.Equal(t, enum.TableStatusOccupied, tb.Status)
	require.NotNil(t, tb.CurrentCartID)
	assert.Equal(t, cart.ID, *tb.CurrentCartID)

	// Unknown tables are accepted.
	other := 99
	_, err = env.carts.CreateCart(ctx, &CreateCartInput{TableNumber: &other})
	require.NoError(t, err)

	bad := 0
	_, err = env.carts.CreateCart(ctx, &CreateCartInput{TableNumber: &bad})
	assertKind(t, apperror.KindValidation, err)
}

func TestCartService_AddItemMergesLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "Melange", "3.90", 10)
	cart, err := env.carts.CreateCart(ctx, &CreateCartInput{})
	require.NoError(t, err)

	_, err = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	got, err := env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 3, got.Items[0].Quantity)
	assert.Equal(t, "Melange", got.Items[0].ProductName)
	assertAmount(t, "3.90", got.Items[0].UnitPrice)
	assertAmount(t, "11.70", got.Total())

	got, err = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: 1, Notes: "ohne Zucker"})
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestCartService_QuantityBounds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "Wasser", "2.50", 20)
	cart, err := env.carts.CreateCart(ctx, &CreateCartInput{})
	require.NoError(t, err)

	for _, q := range []int{0, -1, DefaultMaxQuantity + 1} {
		_, err := env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: q})
		assertKind(t, apperror.KindValidation, err)
	}

	got, err := env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: DefaultMaxQuantity})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	_, err = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: 1})
	assertKind(t, apperror.KindValidation, err)

	_, err = env.carts.UpdateItem(ctx, cart.ID, got.Items[0].ID, &UpdateItemInput{Quantity: 0})
	assertKind(t, apperror.KindValidation, err)
}

func TestCartService_MissingCartOrProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "Wasser", "2.50", 20)
	cart, err := env.carts.CreateCart(ctx, &CreateCartInput{})
	require.NoError(t, err)

	_, err = env.carts.AddItem(ctx, uuid.New(), &AddItemInput{ProductID: product.ID, Quantity: 1})
	assertKind(t, apperror.KindNotFound, err)

	_, err = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: uuid.New(), Quantity: 1})
	assertKind(t, apperror.KindNotFound, err)

	_, err = env.carts.RemoveItem(ctx, cart.ID, uuid.New())
	assertKind(t, apperror.KindNotFound, err)

	_, err = env.carts.GetCart(ctx, uuid.New())
	assertKind(t, apperror.KindNotFound, err)
}

func TestCartService_UpdateAndRemoveItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.createProduct(t, "Apfelstrudel", "5.40", 10)
	cart, err := env.carts.CreateCart(ctx, &CreateCartInput{})
	require.NoError(t, err)
	got, err := env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	itemID := got.Items[0].ID

	notes := "mit Schlag"
	got, err = env.carts.UpdateItem(ctx, cart.ID, itemID, &UpdateItemInput{Quantity: 4, Notes: &notes})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 4, got.Items[0].Quantity)
	assert.Equal(t, notes, got.Items[0].Notes)

	got, err = env.carts.RemoveItem(ctx, cart.ID, itemID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestCartService_LazyExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.tables.CreateTable(ctx, &CreateTableInput{Number: 3})
	require.NoError(t, err)
	product := env.createProduct(t, "Gulasch", "11.90", 10)

	number := 3
	cart, err := env.carts.CreateCart(ctx, &CreateCartInput{TableNumber: &number})
	require.NoError(t, err)
	env.backdateCart(t, cart.ID)

	_, err = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: 1})
	assertKind(t, apperror.KindNotFound, err)

	// The expiry is recorded even though the mutation failed.
	stored, err := env.carts.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.CartStatusExpired, stored.Status)
	assert.Empty(t, stored.Items)
	assert.Equal(t, enum.TableStatusFree, env.table(t, 3).Status)

	_, err = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: 1})
	assertKind(t, apperror.KindNotFound, err)
}

func TestCartService_GetCartExpiresOnRead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cart, err := env.carts.CreateCart(ctx, &CreateCartInput{})
	require.NoError(t, err)
	env.backdateCart(t, cart.ID)

	_, err = env.carts.GetCart(ctx, cart.ID)
	assertKind(t, apperror.KindNotFound, err)

	stored, err := env.carts.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.CartStatusExpired, stored.Status)
}

func TestCartService_ExpireStale(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	stale, err := env.carts.CreateCart(ctx, &CreateCartInput{})
	require.NoError(t, err)
	fresh, err := env.carts.CreateCart(ctx, &CreateCartInput{})
	require.NoError(t, err)
	env.backdateCart(t, stale.ID)

	n, err := env.carts.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := env.carts.GetCart(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, enum.CartStatusActive, got.Status)
}

func TestCartService_ClearCartFreesTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.tables.CreateTable(ctx, &CreateTableInput{Number: 5})
	require.NoError(t, err)
	product := env.createProduct(t, "Bier", "4.80", 20)

	number := 5
	cart, err := env.carts.CreateCart(ctx, &CreateCartInput{TableNumber: &number})
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, env.carts.ClearCart(ctx, cart.ID))

	_, err = env.carts.GetCart(ctx, cart.ID)
	assertKind(t, apperror.KindNotFound, err)
	tb := env.table(t, 5)
	assert.Equal(t, enum.TableStatusFree, tb.Status)
	assert.Nil(t, tb.CurrentCartID)

	err = env.carts.ClearCart(ctx, cart.ID)
	assertKind(t, apperror.KindNotFound, err)
}

func TestCartService_ConcurrentAddItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.createProduct(t, "Cola", "3.50", 20)
	second := env.createProduct(t, "Frittaten", "4.90", 10)
	cart, err := env.carts.CreateCart(ctx, &CreateCartInput{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, p := range []*entity.Product{first, second} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			_, errs[i] = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: id, Quantity: 1})
		}(i, p.ID)
	}
	wg.Wait()
	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	got, err := env.carts.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assertAmount(t, "8.40", got.Total())
}

func TestCartService_CompletedCartIsReadOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.connectDevice(t)
	product := env.createProduct(t, "Espresso", "2.80", 10)
	cart, err := env.carts.CreateCart(ctx, &CreateCartInput{})
	require.NoError(t, err)
	_, err = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = env.invoices.Checkout(ctx, cart.ID, &CheckoutInput{})
	require.NoError(t, err)

	_, err = env.carts.AddItem(ctx, cart.ID, &AddItemInput{ProductID: product.ID, Quantity: 1})
	assertKind(t, apperror.KindNotFound, err)
}

func TestTableService_SetStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.tables.CreateTable(ctx, &CreateTableInput{Number: 1, Name: "Fenster", Seats: 4})
	require.NoError(t, err)

	_, err = env.tables.CreateTable(ctx, &CreateTableInput{Number: 1})
	assertKind(t, apperror.KindConflict, err)
	_, err = env.tables.CreateTable(ctx, &CreateTableInput{Number: 0})
	assertKind(t, apperror.KindValidation, err)

	number := 1
	_, err = env.carts.CreateCart(ctx, &CreateCartInput{TableNumber: &number})
	require.NoError(t, err)

	tb, err := env.tables.SetStatus(ctx, 1, enum.TableStatusFree)
	require.NoError(t, err)
	assert.Equal(t, enum.TableStatusFree, tb.Status)
	assert.Nil(t, tb.CurrentCartID)

	_, err = env.tables.SetStatus(ctx, 2, enum.TableStatusFree)
	assertKind(t, apperror.KindNotFound, err)
	_, err = env.tables.SetStatus(ctx, 1, enum.TableStatus(8))
	assertKind(t, apperror.KindValidation, err)
}

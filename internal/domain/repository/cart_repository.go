package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
)

// CartRepository defines the interface for cart data operations
type CartRepository interface {
	Create(ctx context.Context, cart *entity.Cart) error
	// GetByID returns the cart with its items, or nil if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Cart, error)
	// GetByIDForUpdate is GetByID holding a row lock until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Cart, error)
	// Update saves the cart columns. Items are written through the item methods.
	Update(ctx context.Context, cart *entity.Cart) error
	// Delete removes the cart and all of its items.
	Delete(ctx context.Context, id uuid.UUID) error

	AddItem(ctx context.Context, item *entity.CartItem) error
	UpdateItem(ctx context.Context, item *entity.CartItem) error
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error

	// ExpireStale marks active carts past their expiry as expired.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

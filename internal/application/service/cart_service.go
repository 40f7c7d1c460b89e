package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/pkg/apperror"
)

// DefaultMaxQuantity caps a single cart line when no limit is configured.
const DefaultMaxQuantity = 999

var errCartExpired = errors.New("cart expired")

// CartService holds open orders until checkout. Only Active carts can be
// changed; any other cart answers NotFound.
type CartService struct {
	carts       repository.CartRepository
	products    repository.ProductRepository
	tables      *TableService
	tx          repository.Transactor
	events      EventPublisher
	ttl         time.Duration
	maxQuantity int
	logger      *slog.Logger
}

// CartOptions configures cart expiry and line limits.
type CartOptions struct {
	TTL         time.Duration
	MaxQuantity int
}

// NewCartService creates a new cart service
func NewCartService(
	carts repository.CartRepository,
	products repository.ProductRepository,
	tables *TableService,
	tx repository.Transactor,
	events EventPublisher,
	opts CartOptions,
	logger *slog.Logger,
) *CartService {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.MaxQuantity <= 0 {
		opts.MaxQuantity = DefaultMaxQuantity
	}
	return &CartService{
		carts:       carts,
		products:    products,
		tables:      tables,
		tx:          tx,
		events:      eventsOrNoop(events),
		ttl:         opts.TTL,
		maxQuantity: opts.MaxQuantity,
		logger:      logger,
	}
}

// CreateCartInput represents the create cart input
type CreateCartInput struct {
	TableNumber *int
	WaiterName  string
	CustomerID  *uuid.UUID
	Notes       string
	CreatedBy   uuid.UUID
}

// CreateCart opens an Active cart. A known table is marked occupied.
func (s *CartService) CreateCart(ctx context.Context, input *CreateCartInput) (*entity.Cart, error) {
	if input.TableNumber != nil && *input.TableNumber < 1 {
		return nil, apperror.NewFieldError("table_number", "Table number must be positive")
	}

	cart := &entity.Cart{
		TableNumber: input.TableNumber,
		WaiterName:  input.WaiterName,
		CustomerID:  input.CustomerID,
		Notes:       input.Notes,
		Status:      enum.CartStatusActive,
		CreatedBy:   input.CreatedBy,
		ExpiresAt:   time.Now().Add(s.ttl),
	}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.carts.Create(ctx, cart); err != nil {
			return err
		}
		if cart.TableNumber != nil {
			return s.tables.occupy(ctx, *cart.TableNumber, cart.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cart.Items = []entity.CartItem{}
	s.events.Publish(EventCartUpdated, cart)
	return cart, nil
}

// GetCart returns a cart in any state. An Active cart past its expiry is
// expired on the spot and reported as missing.
func (s *CartService) GetCart(ctx context.Context, id uuid.UUID) (*entity.Cart, error) {
	cart, err := s.carts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, apperror.NewNotFoundError("Cart")
	}
	if cart.IsExpired(time.Now()) {
		s.expire(ctx, id)
		return nil, apperror.NewNotFoundError("Cart")
	}
	return cart, nil
}

// AddItemInput represents a new cart line
type AddItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Notes     string
}

// AddItem appends a product to the cart. A line with the same product and
// notes is merged by adding the quantities.
func (s *CartService) AddItem(ctx context.Context, cartID uuid.UUID, input *AddItemInput) (*entity.Cart, error) {
	if err := s.validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, cartID, func(ctx context.Context, cart *entity.Cart) error {
		product, err := s.products.GetByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return apperror.NewNotFoundError("Product")
		}

		for i := range cart.Items {
			item := &cart.Items[i]
			if item.ProductID != product.ID || item.Notes != input.Notes {
				continue
			}
			if err := s.validateQuantity(item.Quantity + input.Quantity); err != nil {
				return err
			}
			item.Quantity += input.Quantity
			return s.carts.UpdateItem(ctx, item)
		}

		return s.carts.AddItem(ctx, &entity.CartItem{
			CartID:      cart.ID,
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    input.Quantity,
			UnitPrice:   product.GrossPrice(),
			TaxRate:     product.TaxRate,
			Notes:       input.Notes,
		})
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, cartID)
}

// UpdateItemInput represents a cart line change. Nil notes are left as is.
type UpdateItemInput struct {
	Quantity int
	Notes    *string
}

func (s *CartService) UpdateItem(ctx context.Context, cartID, itemID uuid.UUID, input *UpdateItemInput) (*entity.Cart, error) {
	if err := s.validateQuantity(input.Quantity); err != nil {
		return nil, err
	}

	err := s.mutate(ctx, cartID, func(ctx context.Context, cart *entity.Cart) error {
		item := findItem(cart, itemID)
		if item == nil {
			return apperror.NewNotFoundError("Cart item")
		}
		item.Quantity = input.Quantity
		if input.Notes != nil {
			item.Notes = *input.Notes
		}
		return s.carts.UpdateItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, cartID)
}

func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (*entity.Cart, error) {
	err := s.mutate(ctx, cartID, func(ctx context.Context, cart *entity.Cart) error {
		if findItem(cart, itemID) == nil {
			return apperror.NewNotFoundError("Cart item")
		}
		return s.carts.DeleteItem(ctx, cartID, itemID)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, cartID)
}

// ClearCart deletes the cart with all of its items and frees its table.
func (s *CartService) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	err := s.mutate(ctx, cartID, func(ctx context.Context, cart *entity.Cart) error {
		if err := s.carts.Delete(ctx, cart.ID); err != nil {
			return err
		}
		if cart.TableNumber != nil {
			return s.tables.release(ctx, *cart.TableNumber, cart.ID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.events.Publish(EventCartUpdated, map[string]any{"id": cartID, "deleted": true})
	return nil
}

// ExpireStale marks every Active cart past its expiry as Expired.
func (s *CartService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.carts.ExpireStale(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("expire stale carts: %w", err)
	}
	if n > 0 {
		s.logger.Info("Expired stale carts", "count", n)
	}
	return n, nil
}

// lockActive loads and locks an Active cart inside a transaction. Expired
// carts yield errCartExpired so the caller can record the expiry after the
// transaction is rolled back.
func (s *CartService) lockActive(ctx context.Context, id uuid.UUID) (*entity.Cart, error) {
	cart, err := s.carts.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if cart == nil || cart.Status != enum.CartStatusActive {
		return nil, apperror.NewNotFoundError("Cart")
	}
	if cart.IsExpired(time.Now()) {
		return nil, errCartExpired
	}
	return cart, nil
}

// complete closes a locked cart after checkout.
func (s *CartService) complete(ctx context.Context, cart *entity.Cart, invoiceID uuid.UUID) error {
	now := time.Now()
	cart.Status = enum.CartStatusCompleted
	cart.CompletedAt = &now
	cart.InvoiceID = &invoiceID
	if err := s.carts.Update(ctx, cart); err != nil {
		return err
	}
	if cart.TableNumber != nil {
		return s.tables.release(ctx, *cart.TableNumber, cart.ID)
	}
	return nil
}

func (s *CartService) mutate(ctx context.Context, id uuid.UUID, fn func(ctx context.Context, cart *entity.Cart) error) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.lockActive(ctx, id)
		if err != nil {
			return err
		}
		return fn(ctx, cart)
	})
	if errors.Is(err, errCartExpired) {
		s.expire(ctx, id)
		return apperror.NewNotFoundError("Cart")
	}
	return err
}

// expire records the expiry of a single cart and frees its table.
func (s *CartService) expire(ctx context.Context, id uuid.UUID) {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		cart, err := s.carts.GetByIDForUpdate(ctx, id)
		if err != nil || cart == nil || !cart.IsExpired(time.Now()) {
			return err
		}
		cart.Status = enum.CartStatusExpired
		if err := s.carts.Update(ctx, cart); err != nil {
			return err
		}
		if cart.TableNumber != nil {
			return s.tables.release(ctx, *cart.TableNumber, cart.ID)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to expire cart", "cart_id", id, "error", err)
		return
	}
	s.logger.Info("Cart expired", "cart_id", id)
}

func (s *CartService) reload(ctx context.Context, id uuid.UUID) (*entity.Cart, error) {
	cart, err := s.carts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, apperror.NewNotFoundError("Cart")
	}
	s.events.Publish(EventCartUpdated, cart)
	return cart, nil
}

func (s *CartService) validateQuantity(q int) error {
	if q < 1 || q > s.maxQuantity {
		return apperror.NewFieldError("quantity", fmt.Sprintf("Quantity must be between 1 and %d", s.maxQuantity))
	}
	return nil
}

func findItem(cart *entity.Cart, itemID uuid.UUID) *entity.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i]
		}
	}
	return nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	domainRepo "github.com/sangkips/kassa-api/internal/domain/repository"
	"gorm.io/gorm"
)

type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *gorm.DB) domainRepo.CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) Create(ctx context.Context, cart *entity.Cart) error {
	return conn(ctx, r.db).Omit("Items").Create(cart).Error
}

func (r *cartRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Cart, error) {
	return r.get(ctx, conn(ctx, r.db), id)
}

func (r *cartRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Cart, error) {
	return r.get(ctx, conn(ctx, r.db).Scopes(forUpdate), id)
}

func (r *cartRepository) get(ctx context.Context, db *gorm.DB, id uuid.UUID) (*entity.Cart, error) {
	var cart entity.Cart
	err := db.First(&cart, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// Items are loaded separately so the lock above only covers the cart row.
	err = conn(ctx, r.db).Where("cart_id = ?", id).Order("created_at ASC").Find(&cart.Items).Error
	return &cart, err
}

func (r *cartRepository) Update(ctx context.Context, cart *entity.Cart) error {
	return conn(ctx, r.db).Omit("Items").Save(cart).Error
}

func (r *cartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := conn(ctx, r.db)
	if err := db.Where("cart_id = ?", id).Delete(&entity.CartItem{}).Error; err != nil {
		return err
	}
	return db.Delete(&entity.Cart{}, "id = ?", id).Error
}

func (r *cartRepository) AddItem(ctx context.Context, item *entity.CartItem) error {
	return conn(ctx, r.db).Create(item).Error
}

func (r *cartRepository) UpdateItem(ctx context.Context, item *entity.CartItem) error {
	return conn(ctx, r.db).Save(item).Error
}

func (r *cartRepository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	return conn(ctx, r.db).Where("cart_id = ? AND id = ?", cartID, itemID).Delete(&entity.CartItem{}).Error
}

func (r *cartRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	res := conn(ctx, r.db).Model(&entity.Cart{}).
		Where("status = ? AND expires_at <= ?", enum.CartStatusActive, now).
		Updates(map[string]interface{}{"status": enum.CartStatusExpired, "updated_at": now})
	return res.RowsAffected, res.Error
}

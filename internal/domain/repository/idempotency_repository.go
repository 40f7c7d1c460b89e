package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
)

// IdempotencyRepository keeps the first successful response to a keyed POST
// so a register that retries after a timeout gets the same payment back.
// Keys are private to the cashier who sent them.
type IdempotencyRepository interface {
	// Find returns the user's live entry for key. Expired entries read as nil.
	Find(ctx context.Context, userID uuid.UUID, key string) (*entity.IdempotencyKey, error)
	// Save records a response. It replaces an expired entry under the same
	// key and leaves a live one untouched.
	Save(ctx context.Context, ikey *entity.IdempotencyKey) error
	// DeleteExpired drops entries past their expiry.
	DeleteExpired(ctx context.Context) (int64, error)
}

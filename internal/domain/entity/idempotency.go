package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IdempotencyKey is a stored POST response, replayed when the same cashier
// retries with the same Idempotency-Key header.
type IdempotencyKey struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key          string    `gorm:"uniqueIndex:idx_idempotency_user_key;size:255;not null"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_idempotency_user_key"`
	Endpoint     string    `gorm:"size:255;not null"` // "POST /api/payment"
	RequestHash  string    `gorm:"size:64"`           // hex SHA-256 of the body
	ResponseCode int       `gorm:"not null"`
	ResponseBody string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	ExpiresAt    time.Time `gorm:"not null;index"`
}

func (i *IdempotencyKey) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

// Mismatches reports whether the key is being reused for a different request.
// Entries stored without a hash match anything.
func (i *IdempotencyKey) Mismatches(endpoint, requestHash string) bool {
	if i.Endpoint != "" && i.Endpoint != endpoint {
		return true
	}
	return i.RequestHash != "" && i.RequestHash != requestHash
}

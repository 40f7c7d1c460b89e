package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/enum"
	"gorm.io/gorm"
)

// Table is a restaurant table carts can be opened for.
type Table struct {
	ID            uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	Number        int              `gorm:"not null;uniqueIndex" json:"number"`
	Name          string           `gorm:"size:100" json:"name"`
	Seats         int              `gorm:"not null;default:0" json:"seats"`
	Status        enum.TableStatus `gorm:"not null;default:0" json:"status"`
	CurrentCartID *uuid.UUID       `gorm:"type:uuid" json:"current_cart_id,omitempty"`
	Lifecycle
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Table) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.activate()
	return nil
}

func (Table) TableName() string {
	return "dining_tables"
}

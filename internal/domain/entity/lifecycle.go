package entity

import "time"

// Lifecycle replaces per-entity IsActive flags. Retired rows are never
// physically removed; the repository layer hides them through ActiveScope.
type Lifecycle struct {
	IsActive      bool       `gorm:"not null;index" json:"is_active"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// activate marks new rows active unless they were created already retired.
func (l *Lifecycle) activate() {
	if l.DeactivatedAt == nil {
		l.IsActive = true
	}
}

// Retire soft-deletes the row.
func (l *Lifecycle) Retire(at time.Time) {
	l.IsActive = false
	l.DeactivatedAt = &at
}

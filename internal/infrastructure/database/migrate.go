package database

import (
	"fmt"
	"log/slog"

	"github.com/sangkips/kassa-api/internal/domain/entity"
	"gorm.io/gorm"
)

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB) error {
	slog.Info("running database migrations")

	err := db.AutoMigrate(
		// Users
		&entity.User{},
		&entity.Role{},

		// Catalogue and service
		&entity.Product{},
		&entity.Table{},
		&entity.Cart{},
		&entity.CartItem{},

		// Ledger
		&entity.Invoice{},
		&entity.PaymentDetails{},
		&entity.CashRegister{},
		&entity.CashRegisterTransaction{},

		// Fiscal
		&entity.TseDevice{},
		&entity.FinanzOnlineSubmission{},
		&entity.FinanzOnlineConfig{},

		// System
		&entity.IdempotencyKey{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Invoice numbers are unique among active rows only; retired numbers may be reissued.
	// Both PostgreSQL and SQLite support partial indexes with this syntax.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_active_number
		ON invoices (invoice_number) WHERE is_active`).Error; err != nil {
		return fmt.Errorf("failed to create invoice number index: %w", err)
	}

	// At most one active credit note per original invoice.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoices_active_credit_note
		ON invoices (original_invoice_id) WHERE is_active AND document_type = 1`).Error; err != nil {
		return fmt.Errorf("failed to create credit note index: %w", err)
	}

	slog.Info("database migrations completed")
	return nil
}

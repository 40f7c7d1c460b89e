package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ctxKey string

const (
	// includeInactiveKey is the context key for reading retired rows too
	includeInactiveKey ctxKey = "include_inactive"
	// txKey carries the *gorm.DB of an open transaction
	txKey ctxKey = "gorm_tx"
)

// ActiveScope returns a GORM scope that hides retired rows.
// It should be applied to every read of an entity embedding entity.Lifecycle.
// If WithInactive was set on the context, all rows are returned.
func ActiveScope(ctx context.Context) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if include, ok := ctx.Value(includeInactiveKey).(bool); ok && include {
			return db
		}
		return db.Where(clause.Eq{Column: clause.Column{Table: clause.CurrentTable, Name: "is_active"}, Value: true})
	}
}

// WithInactive makes ActiveScope return retired rows as well.
func WithInactive(ctx context.Context) context.Context {
	return context.WithValue(ctx, includeInactiveKey, true)
}

// forUpdate locks the selected rows until the surrounding transaction ends.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// conn returns the transaction bound to ctx, or db outside of one.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

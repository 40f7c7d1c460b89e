package repository

import "context"

// Transactor runs fn in a database transaction. Repository calls made with
// the ctx passed to fn join that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

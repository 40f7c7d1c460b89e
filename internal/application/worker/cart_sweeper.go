package worker

import (
	"context"
	"log/slog"
	"time"
)

// CartExpirer marks abandoned carts as expired.
type CartExpirer interface {
	ExpireStale(ctx context.Context) (int64, error)
}

// KeyPurger drops expired idempotency keys.
type KeyPurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// CartSweeper expires stale carts on a fixed interval so abandoned carts do
// not wait for the next read.
type CartSweeper struct {
	carts    CartExpirer
	keys     KeyPurger
	interval time.Duration
	logger   *slog.Logger
}

func NewCartSweeper(carts CartExpirer, interval time.Duration, logger *slog.Logger) *CartSweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &CartSweeper{carts: carts, interval: interval, logger: logger}
}

// PurgeKeys makes every sweep also delete expired idempotency keys.
func (s *CartSweeper) PurgeKeys(keys KeyPurger) *CartSweeper {
	s.keys = keys
	return s
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *CartSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.sweep(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *CartSweeper) sweep(ctx context.Context) {
	if _, err := s.carts.ExpireStale(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn("Cart sweep failed", "error", err)
	}
	if s.keys == nil {
		return
	}
	purged, err := s.keys.DeleteExpired(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("Idempotency key purge failed", "error", err)
		}
		return
	}
	if purged > 0 {
		s.logger.Debug("Purged idempotency keys", "count", purged)
	}
}

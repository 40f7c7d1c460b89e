package cache

import (
	"context"
	"time"
)

// StatusCache stores short-lived JSON snapshots, such as device and
// submission status, keyed by string.
type StatusCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type NoopStatusCache struct{}

func (NoopStatusCache) Get(_ context.Context, _ string, _ any) (bool, error) {
	return false, nil
}

func (NoopStatusCache) Set(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}

func (NoopStatusCache) Delete(_ context.Context, _ ...string) error {
	return nil
}

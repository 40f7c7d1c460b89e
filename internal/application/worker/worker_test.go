package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/infrastructure/queue"
	"github.com/sangkips/kassa-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionWorker_HandlesMessages(t *testing.T) {
	q := queue.NewChannelQueue(10)
	defer q.Close()

	var (
		mu   sync.Mutex
		seen []uuid.UUID
	)
	done := make(chan struct{}, 3)
	handler := func(_ context.Context, msg queue.SubmissionMessage) error {
		mu.Lock()
		seen = append(seen, msg.InvoiceID)
		n := len(seen)
		mu.Unlock()
		done <- struct{}{}
		if n == 2 {
			return errors.New("transport down")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := NewSubmissionWorker(q, handler, 1, logger.Discard())
	result := make(chan error, 1)
	go func() { result <- w.Run(ctx) }()

	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	for _, id := range ids {
		require.NoError(t, q.Publish(context.Background(), queue.SubmissionMessage{InvoiceID: id}))
	}
	for range ids {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("message not handled")
		}
	}

	cancel()
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, ids, seen)
}

type countingExpirer struct {
	calls atomic.Int32
}

func (c *countingExpirer) ExpireStale(context.Context) (int64, error) {
	c.calls.Add(1)
	return 0, nil
}

func TestCartSweeper_RunsUntilCancelled(t *testing.T) {
	expirer := &countingExpirer{}
	sweeper := NewCartSweeper(expirer, 10*time.Millisecond, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return expirer.calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}

type countingPurger struct {
	calls atomic.Int32
}

func (p *countingPurger) DeleteExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 0, errors.New("db gone")
}

func TestCartSweeper_PurgesKeys(t *testing.T) {
	expirer := &countingExpirer{}
	purger := &countingPurger{}
	sweeper := NewCartSweeper(expirer, time.Hour, logger.Discard()).PurgeKeys(purger)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(stopped)
	}()

	assert.Eventually(t, func() bool { return purger.calls.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-stopped
	assert.Equal(t, int32(1), expirer.calls.Load())
}

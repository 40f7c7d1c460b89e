// Package queue carries FinanzOnline submission jobs from the request path to
// the background workers.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrClosed = errors.New("queue closed")

// SubmissionMessage asks a worker to report one invoice.
type SubmissionMessage struct {
	InvoiceID   uuid.UUID  `json:"invoice_id"`
	RequestedBy *uuid.UUID `json:"requested_by,omitempty"`
	EnqueuedAt  time.Time  `json:"enqueued_at"`
}

type Handler func(ctx context.Context, msg SubmissionMessage) error

type Publisher interface {
	Publish(ctx context.Context, msg SubmissionMessage) error
}

// Queue delivers published messages to Consume. Consume blocks until ctx is
// done and runs handler on up to workers goroutines.
type Queue interface {
	Publisher
	Consume(ctx context.Context, workers int, handler Handler) error
	Close() error
}

// ChannelQueue is the in-process queue used when no broker is configured.
// Messages are lost on restart.
type ChannelQueue struct {
	ch     chan SubmissionMessage
	once   sync.Once
	closed chan struct{}
}

func NewChannelQueue(size int) *ChannelQueue {
	return &ChannelQueue{
		ch:     make(chan SubmissionMessage, size),
		closed: make(chan struct{}),
	}
}

func (q *ChannelQueue) Publish(ctx context.Context, msg SubmissionMessage) error {
	select {
	case <-q.closed:
		return ErrClosed
	default:
	}
	select {
	case q.ch <- msg:
		return nil
	case <-q.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ChannelQueue) Consume(ctx context.Context, workers int, handler Handler) error {
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-q.closed:
					return
				case msg := <-q.ch:
					_ = handler(ctx, msg)
				}
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}

func (q *ChannelQueue) Close() error {
	q.once.Do(func() { close(q.closed) })
	return nil
}

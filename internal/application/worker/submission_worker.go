// Package worker runs the background jobs of the API process.
package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sangkips/kassa-api/internal/infrastructure/queue"
)

// SubmissionWorker consumes queued FinanzOnline submissions.
type SubmissionWorker struct {
	queue   queue.Queue
	handler queue.Handler
	workers int
	logger  *slog.Logger
}

func NewSubmissionWorker(q queue.Queue, handler queue.Handler, workers int, logger *slog.Logger) *SubmissionWorker {
	if workers < 1 {
		workers = 1
	}
	return &SubmissionWorker{queue: q, handler: handler, workers: workers, logger: logger}
}

// Run blocks until ctx is done.
func (w *SubmissionWorker) Run(ctx context.Context) error {
	w.logger.Info("Submission worker started", "workers", w.workers)
	err := w.queue.Consume(ctx, w.workers, func(ctx context.Context, msg queue.SubmissionMessage) error {
		if err := w.handler(ctx, msg); err != nil {
			w.logger.Error("Submission job failed", "invoice_id", msg.InvoiceID, "error", err)
			return err
		}
		return nil
	})
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	w.logger.Info("Submission worker stopped")
	return err
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
)

// spawnWorkerPool spawns N goroutines that each run processing passes.
// Passes running in parallel only coordinate through the store's claim.
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop runs one processing pass per trigger and acknowledges it
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Debug("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Debug("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Debug("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case req := <-w.triggerChan:
			w.handleTrigger(ctx, workerName, req)
		}
	}
}

func (w *Worker) handleTrigger(ctx context.Context, workerName string, req *triggerRequest) {
	result, err := w.processor.ProcessQueue(ctx, req.maxJobs)
	if err != nil {
		requeue := shouldRequeue(err)
		w.logger.Error("Processing pass failed",
			slog.String("worker_name", workerName),
			slog.Int("processed", result.Processed),
			slog.Bool("requeue", requeue),
			slog.String("error", err.Error()),
		)
		if nackErr := req.delivery.Nack(false, requeue); nackErr != nil {
			w.logger.Error("Failed to NACK trigger",
				slog.String("worker_name", workerName),
				slog.String("error", nackErr.Error()),
			)
		}
		return
	}

	if ackErr := req.delivery.Ack(false); ackErr != nil {
		w.logger.Error("Failed to ACK trigger",
			slog.String("worker_name", workerName),
			slog.String("error", ackErr.Error()),
		)
		return
	}

	w.logger.Info("Processing pass acknowledged",
		slog.String("worker_name", workerName),
		slog.Int("processed", result.Processed),
		slog.Int("successful", result.Successful),
		slog.Int("failed", result.Failed),
	)
}

// shouldRequeue decides whether a failed pass should be retried by redelivering its trigger
func shouldRequeue(err error) bool {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return false
}

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// triggerRequest is one parsed trigger waiting for a pool goroutine
type triggerRequest struct {
	maxJobs  int
	delivery amqp.Delivery
}

// setupConsumer sets QoS and starts consuming the trigger queue
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	if err := w.triggers.Qos(w.prefetchCount); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	w.logger.Info("RabbitMQ QoS configured",
		slog.Int("prefetch_count", w.prefetchCount),
	)

	deliveries, err := w.triggers.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
		slog.String("queue", w.queueName),
	)

	return deliveries, nil
}

// startMessageDispatcher parses trigger deliveries and hands them to the pool
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Message dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case <-w.stopChan:
			w.logger.Info("Message dispatcher stopped - stopChan closed")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			maxJobs, err := parseTrigger(delivery.Body, w.defaultBatchSize, w.maxBatchSize)
			if err != nil {
				w.logger.Error("Discarding malformed trigger",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				// Malformed triggers are dead-lettered rather than requeued
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed trigger",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			select {
			case w.triggerChan <- &triggerRequest{maxJobs: maxJobs, delivery: delivery}:
				w.logger.Debug("Trigger dispatched to worker pool",
					slog.Int("max_jobs", maxJobs),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching trigger")
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK trigger on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}

// parseTrigger extracts the batch size from a trigger body.
// An empty body or missing max_jobs uses defaultBatch; values above maxBatch are clamped.
func parseTrigger(body []byte, defaultBatch, maxBatch int) (int, error) {
	var msg domain.TriggerMessage
	if len(body) > 0 {
		if err := json.Unmarshal(body, &msg); err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrInvalidTrigger, err)
		}
	}

	switch {
	case msg.MaxJobs < 0:
		return 0, fmt.Errorf("%w: max_jobs must not be negative, got %d", domain.ErrInvalidTrigger, msg.MaxJobs)
	case msg.MaxJobs == 0:
		msg.MaxJobs = defaultBatch
	}

	if maxBatch > 0 && msg.MaxJobs > maxBatch {
		msg.MaxJobs = maxBatch
	}

	return msg.MaxJobs, nil
}

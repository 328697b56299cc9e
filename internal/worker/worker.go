package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

// TriggerSource delivers processing trigger messages
type TriggerSource interface {
	Qos(prefetchCount int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// QueueProcessor runs one processing pass
type QueueProcessor interface {
	ProcessQueue(ctx context.Context, maxJobs int) (domain.ProcessResult, error)
}

// Config holds worker configuration
type Config struct {
	Logger           *slog.Logger
	Processor        QueueProcessor
	Triggers         TriggerSource
	WorkerID         string
	QueueName        string
	Concurrency      int
	PrefetchCount    int
	DefaultBatchSize int
	MaxBatchSize     int
}

// Worker consumes processing triggers from the broker and runs one
// processing pass per trigger. It owns no timer; triggers come from outside.
type Worker struct {
	logger           *slog.Logger
	processor        QueueProcessor
	triggers         TriggerSource
	workerID         string
	queueName        string
	concurrency      int
	prefetchCount    int
	defaultBatchSize int
	maxBatchSize     int
	triggerChan      chan *triggerRequest
	wg               sync.WaitGroup
	stopChan         chan struct{}
	stopOnce         sync.Once
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	w := &Worker{
		logger:           cfg.Logger,
		processor:        cfg.Processor,
		triggers:         cfg.Triggers,
		workerID:         cfg.WorkerID,
		queueName:        cfg.QueueName,
		concurrency:      cfg.Concurrency,
		prefetchCount:    cfg.PrefetchCount,
		defaultBatchSize: cfg.DefaultBatchSize,
		maxBatchSize:     cfg.MaxBatchSize,
		stopChan:         make(chan struct{}),
	}
	if w.concurrency <= 0 {
		w.concurrency = 1
	}
	if w.prefetchCount <= 0 {
		w.prefetchCount = w.concurrency
	}
	if w.defaultBatchSize <= 0 {
		w.defaultBatchSize = domain.DefaultBatchSize
	}
	w.triggerChan = make(chan *triggerRequest, w.concurrency)
	return w
}

// Start subscribes to the trigger queue and blocks until ctx is canceled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Int("default_batch_size", w.defaultBatchSize),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to setup consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.startMessageDispatcher(ctx, deliveries)
	}()

	<-ctx.Done()
	w.logger.Info("Worker context canceled, stopping...")

	return nil
}

// Stop signals all goroutines to finish and waits for them
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}

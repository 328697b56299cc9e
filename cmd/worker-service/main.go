package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/config"
	"github.com/cuongbtq/inspection-jobs/internal/metrics"
	"github.com/cuongbtq/inspection-jobs/internal/storage"
	"github.com/cuongbtq/inspection-jobs/internal/worker"
	"github.com/cuongbtq/inspection-jobs/internal/worker/handlers"
	"github.com/cuongbtq/inspection-jobs/shared/logger"
	"github.com/cuongbtq/inspection-jobs/shared/postgresql"
	"github.com/cuongbtq/inspection-jobs/shared/rabbitmq"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("WORKER_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/worker-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateWorkerConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.New(cfg.Logging.LoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	workerID := cfg.Worker.ID
	if workerID == "" {
		workerID = "worker-" + uuid.NewString()[:8]
	}

	appLogger.Info("Starting worker service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("worker_id", workerID),
	)

	metrics.MustRegister()
	metrics.SetBuildInfo(cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	dbClient, err := postgresql.NewClient(cfg.Database.ClientConfig(), appLogger.Component("postgresql"))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	if cfg.Database.AutoMigrate {
		if err := storage.Migrate(dbClient.GetDB().DB); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		appLogger.Info("Database migrations applied")
	}

	appLogger.Info("Database connection established")

	rabbitClient, err := rabbitmq.NewClient(cfg.RabbitMQ.ClientConfig(), appLogger.Component("rabbitmq"))
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	appLogger.Info("RabbitMQ connection established")

	dispatcher := worker.NewDispatcher(appLogger.Component("dispatcher"))
	handlers.RegisterAll(dispatcher, handlers.Deps{
		Logger:                 appLogger.Component("handlers"),
		Publisher:              rabbitClient,
		NotificationRoutingKey: cfg.Notifications.RoutingKey,
		Export:                 handlers.ExportTarget{Endpoint: cfg.Export.Endpoint, Token: cfg.Export.Token},
		ExportTimeout:          cfg.Export.Timeout,
		MaxRetries:             cfg.Queue.DefaultMaxRetries,
	})

	store := storage.NewStorage(dbClient.GetDB(), appLogger.Component("storage"))
	processor := worker.NewProcessor(store, dispatcher, appLogger.Component("processor"))

	workerInstance := worker.NewWorker(&worker.Config{
		Logger:           appLogger.Component("worker"),
		Processor:        processor,
		Triggers:         rabbitClient,
		WorkerID:         workerID,
		QueueName:        cfg.RabbitMQ.Queue.Name,
		Concurrency:      cfg.Worker.Concurrency,
		PrefetchCount:    cfg.RabbitMQ.Consumer.PrefetchCount,
		DefaultBatchSize: cfg.Queue.DefaultBatchSize,
		MaxBatchSize:     cfg.Queue.MaxBatchSize,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return workerInstance.Start(gctx)
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case amqpErr, ok := <-rabbitClient.NotifyClose():
			if !ok || amqpErr == nil {
				return errors.New("rabbitmq connection closed")
			}
			return fmt.Errorf("rabbitmq connection lost: %w", amqpErr)
		}
	})

	if cfg.Server.Port > 0 {
		srv := newMetricsServer(cfg.Server.Port, dbClient)
		g.Go(func() error {
			appLogger.Info("Serving worker metrics", slog.String("address", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	appLogger.Info("Worker service started successfully",
		slog.Any("job_types", dispatcher.JobTypes()),
	)

	runErr := g.Wait()
	if runErr != nil {
		appLogger.Error("Worker error", slog.Any("error", runErr))
	}

	done := make(chan struct{})
	go func() {
		workerInstance.Stop()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Worker stopped gracefully")
	case <-time.After(cfg.Worker.ShutdownTimeout):
		appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
	}

	appLogger.Info("Worker service shutdown complete")
	return runErr
}

// newMetricsServer exposes /metrics and /health for the worker process
func newMetricsServer(port int, db *postgresql.Client) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		metrics.SetDBPoolStats(db.Stats())
		if err := db.HealthCheck(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/api/handler"
	"github.com/cuongbtq/inspection-jobs/internal/api/router"
	"github.com/cuongbtq/inspection-jobs/internal/config"
	"github.com/cuongbtq/inspection-jobs/internal/metrics"
	"github.com/cuongbtq/inspection-jobs/internal/storage"
	"github.com/cuongbtq/inspection-jobs/internal/worker"
	"github.com/cuongbtq/inspection-jobs/internal/worker/handlers"
	"github.com/cuongbtq/inspection-jobs/shared/logger"
	"github.com/cuongbtq/inspection-jobs/shared/postgresql"
	"github.com/cuongbtq/inspection-jobs/shared/rabbitmq"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// jobStore is everything the API service needs from a job record store
type jobStore interface {
	worker.Store
	worker.StatusStore
	handler.JobStore
}

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

	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.New(cfg.Logging.LoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
		slog.String("store", cfg.Database.Driver),
	)

	metrics.MustRegister()
	metrics.SetBuildInfo(cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	store, dbClient, err := initStore(&cfg.Database, appLogger)
	if err != nil {
		return err
	}
	if dbClient != nil {
		defer dbClient.Close()
	}

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

	deps := &handler.Dependencies{
		Logger:    appLogger.Component("api"),
		Store:     store,
		Processor: worker.NewProcessor(store, dispatcher, appLogger.Component("processor")),
		Reporter: worker.NewReporter(store, worker.ReporterConfig{
			StuckThreshold: cfg.Queue.StuckThreshold,
			RecentWindow:   cfg.Queue.RecentWindow,
			RecentLimit:    cfg.Queue.RecentLimit,
		}, appLogger.Component("reporter")),
		Registry: dispatcher,
		Triggers: rabbitClient,
		Limits: handler.QueueLimits{
			DefaultBatchSize: cfg.Queue.DefaultBatchSize,
			MaxBatchSize:     cfg.Queue.MaxBatchSize,
		},
	}

	opts := router.Options{ServiceName: cfg.App.Name}
	if dbClient != nil {
		opts.Health = dbClient
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := router.SetupRouter(deps, opts)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting HTTP server",
			slog.String("address", addr),
			slog.Any("job_types", dispatcher.JobTypes()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initStore builds the configured job store. The postgres client is returned
// so the caller can close it and use it for health checks.
func initStore(cfg *config.DatabaseConfig, appLogger *logger.Logger) (jobStore, *postgresql.Client, error) {
	if cfg.Driver == config.DriverMemory {
		appLogger.Warn("Using in-memory job store; jobs are lost on restart")
		return storage.NewMemoryStore(), nil, nil
	}

	dbClient, err := postgresql.NewClient(cfg.ClientConfig(), appLogger.Component("postgresql"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.AutoMigrate {
		start := time.Now()
		if err := storage.Migrate(dbClient.GetDB().DB); err != nil {
			dbClient.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		appLogger.Info("Database migrations applied", slog.Duration("took", time.Since(start)))
	}

	appLogger.Info("Database connection established")
	return storage.NewStorage(dbClient.GetDB(), appLogger.Component("storage")), dbClient, nil
}

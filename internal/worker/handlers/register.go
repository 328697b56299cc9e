package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/worker"
)

// Deps are the collaborators shared by the built-in job handlers
type Deps struct {
	Logger                 *slog.Logger
	Publisher              Publisher
	NotificationRoutingKey string
	Export                 ExportTarget
	ExportTimeout          time.Duration
	MaxRetries             int
}

// RegisterAll registers every built-in job type on d
func RegisterAll(d *worker.Dispatcher, deps Deps) {
	var opts []worker.RegisterOption
	if deps.MaxRetries > 0 {
		opts = append(opts, worker.WithMaxRetries(deps.MaxRetries))
	}

	if deps.Publisher != nil {
		d.Register(JobTypeSendNotification,
			NewNotificationHandler(deps.Publisher, deps.NotificationRoutingKey, deps.Logger),
			opts...)
	}

	if deps.Export.Endpoint != "" {
		client := &http.Client{Timeout: deps.ExportTimeout}
		d.Register(JobTypeSharePointExport,
			NewExportHandler(client, deps.Export, deps.Logger),
			opts...)
	}
}

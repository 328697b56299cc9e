package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/cuongbtq/inspection-jobs/internal/worker"
)

// JobTypeSharePointExport uploads a generated inspection document
const JobTypeSharePointExport = "sharepoint_export"

// ExportRequest is the sharepoint_export payload. Other fields are passed through untouched.
type ExportRequest struct {
	FileName string `json:"file_name" validate:"required"`
	Site     string `json:"site"`
	Folder   string `json:"folder"`
}

// ExportTarget is where export payloads are POSTed
type ExportTarget struct {
	Endpoint string
	Token    string
}

// NewExportHandler POSTs the job payload to the export endpoint. Any non-2xx
// response fails the attempt.
func NewExportHandler(client *http.Client, target ExportTarget, logger *slog.Logger) worker.HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) error {
		var req ExportRequest
		if err := decodePayload(payload, &req); err != nil {
			return err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target.Endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to build export request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if target.Token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+target.Token)
		}

		resp, err := client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("export request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("export rejected with status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
		}

		logger.Info("Document exported",
			slog.String("file_name", req.FileName),
			slog.String("site", req.Site),
			slog.Int("status", resp.StatusCode),
		)
		return nil
	}
}

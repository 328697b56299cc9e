package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
	"github.com/cuongbtq/inspection-jobs/internal/worker"
)

// JobTypeSendNotification delivers a user notification through the broker
const JobTypeSendNotification = "send_notification"

// Publisher sends a message to a routing key on the shared exchange
type Publisher interface {
	PublishTo(ctx context.Context, routingKey string, body []byte, contentType string) error
}

// Notification is the send_notification payload
type Notification struct {
	Recipient    string `json:"recipient" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Body         string `json:"body"`
	InspectionID string `json:"inspection_id,omitempty"`
}

// NewNotificationHandler publishes the notification to routingKey. The payload is
// forwarded whole, extra keys included, with sent_at added.
func NewNotificationHandler(pub Publisher, routingKey string, logger *slog.Logger) worker.HandlerFunc {
	return func(ctx context.Context, payload json.RawMessage) error {
		var n Notification
		if err := decodePayload(payload, &n); err != nil {
			return err
		}

		var msg map[string]json.RawMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
		}
		sentAt, err := json.Marshal(time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to encode notification: %w", err)
		}
		msg["sent_at"] = sentAt

		body, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to encode notification: %w", err)
		}

		if err := pub.PublishTo(ctx, routingKey, body, "application/json"); err != nil {
			return fmt.Errorf("failed to publish notification: %w", err)
		}

		logger.Info("Notification published",
			slog.String("recipient", n.Recipient),
			slog.String("routing_key", routingKey),
		)
		return nil
	}
}

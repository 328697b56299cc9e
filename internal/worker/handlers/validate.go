package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// decodePayload unmarshals and validates a job payload into dest
func decodePayload(payload json.RawMessage, dest any) error {
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	if err := validate.Struct(dest); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return nil
}

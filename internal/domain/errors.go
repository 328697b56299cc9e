package domain

import "errors"

var (
	// ErrJobNotFound is returned when a job cannot be found in the store
	ErrJobNotFound = errors.New("job not found")

	// ErrJobNotProcessing is returned when an outcome is recorded for a job that is no longer processing
	ErrJobNotProcessing = errors.New("job is not in processing status")

	// ErrUnknownJobType is returned by the dispatcher when no handler is registered
	ErrUnknownJobType = errors.New("unknown job type")

	// ErrStoreUnavailable marks failures of the job store itself
	ErrStoreUnavailable = errors.New("job store unavailable")

	// ErrInvalidPayload is returned when a job payload cannot be decoded or misses required fields
	ErrInvalidPayload = errors.New("invalid job payload")

	// ErrInvalidTrigger is returned when a processing trigger message is malformed
	ErrInvalidTrigger = errors.New("invalid processing trigger")
)

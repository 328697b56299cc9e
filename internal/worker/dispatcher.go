package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sort"
	"sync"

	"github.com/cuongbtq/inspection-jobs/internal/domain"
)

// HandlerFunc executes one job of a registered type. A returned error marks the attempt failed.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

type registration struct {
	handler    HandlerFunc
	maxRetries int
}

// RegisterOption customises a job type registration
type RegisterOption func(*registration)

// WithMaxRetries sets the default max_retries for jobs of this type
func WithMaxRetries(n int) RegisterOption {
	return func(r *registration) {
		r.maxRetries = n
	}
}

// Dispatcher maps job types to handlers. It is built at startup and injected
// into the processor; it is safe for concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]registration
	logger   *slog.Logger
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[string]registration),
		logger:   logger,
	}
}

// Register binds handler to jobType, replacing any previous registration
func (d *Dispatcher) Register(jobType string, handler HandlerFunc, opts ...RegisterOption) {
	reg := registration{
		handler:    handler,
		maxRetries: domain.DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(&reg)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[jobType] = reg

	d.logger.Debug("Job handler registered",
		slog.String("job_type", jobType),
		slog.Int("max_retries", reg.maxRetries),
	)
}

// Dispatch runs the handler registered for jobType. Panics inside the handler
// are recovered and returned as errors.
func (d *Dispatcher) Dispatch(ctx context.Context, jobType string, payload json.RawMessage) (err error) {
	d.mu.RLock()
	reg, ok := d.handlers[jobType]
	d.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownJobType, jobType)
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Job handler panicked",
				slog.String("job_type", jobType),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("panic in %s handler: %v", jobType, r)
		}
	}()

	return reg.handler(ctx, payload)
}

// MaxRetries returns the registered default retry ceiling for jobType
func (d *Dispatcher) MaxRetries(jobType string) (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	reg, ok := d.handlers[jobType]
	if !ok {
		return 0, false
	}
	return reg.maxRetries, true
}

// JobTypes lists registered job types in sorted order
func (d *Dispatcher) JobTypes() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	types := make([]string, 0, len(d.handlers))
	for jobType := range d.handlers {
		types = append(types, jobType)
	}
	sort.Strings(types)
	return types
}

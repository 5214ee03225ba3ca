package resilience

import (
	"context"
	"fmt"
	"time"
)

// DefaultTimeout matches the socket connect/read timeout of the probed
// dependencies.
const DefaultTimeout = 5 * time.Second

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation.
	// Default: 5 seconds
	Timeout time.Duration
}

// Timeout wraps operations with a timeout.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Timeout{config: config}
}

// Execute runs the operation with a timeout.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := Call(ctx, t, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// Call runs op under t and returns its value. When t's own deadline passes
// it returns an error wrapping ErrTimeout without waiting for op to return.
// When the parent ctx ends first it returns the parent's cause instead.
func Call[T any](parent context.Context, t *Timeout, op func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(parent, t.config.Timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		var out outcome
		defer func() {
			if r := recover(); r != nil {
				out = outcome{err: &PanicError{Value: r}}
			}
			done <- out
		}()
		out.value, out.err = op(ctx)
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		if parent.Err() != nil {
			return zero, context.Cause(parent)
		}
		return zero, fmt.Errorf("%w after %s", ErrTimeout, t.config.Timeout)
	}
}

// PanicError reports a panic recovered from an operation.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrPanicked, e.Value)
}

// Unwrap makes errors.Is(err, ErrPanicked) hold.
func (e *PanicError) Unwrap() error {
	return ErrPanicked
}

// ExecuteWithTimeout is a convenience function to run an operation with timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	t := NewTimeout(TimeoutConfig{Timeout: timeout})
	return t.Execute(ctx, op)
}

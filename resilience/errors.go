package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("resilience: operation timed out")

	// ErrPanicked is returned when an operation panics.
	ErrPanicked = errors.New("resilience: operation panicked")
)

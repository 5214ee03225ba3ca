package taskqueue

import "errors"

var (
	// ErrUnknownTask indicates no handler is registered for a task name.
	ErrUnknownTask = errors.New("taskqueue: unknown task")

	// ErrInvalidTaskName indicates an empty task name.
	ErrInvalidTaskName = errors.New("taskqueue: task name is required")

	// ErrInvalidArgs indicates task arguments could not be decoded.
	ErrInvalidArgs = errors.New("taskqueue: invalid task arguments")

	// ErrControlClosed indicates the control subscription ended unexpectedly.
	ErrControlClosed = errors.New("taskqueue: control subscription closed")
)

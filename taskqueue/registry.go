package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"
)

// Handler executes one task. The returned value is stored as the JSON
// result.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Registry maps task names to handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds or replaces the handler for name.
func (r *Registry) Register(name string, h Handler) error {
	if name == "" {
		return ErrInvalidTaskName
	}
	if h == nil {
		return fmt.Errorf("taskqueue: nil handler for %q", name)
	}
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
	return nil
}

// Lookup returns the handler for name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	h, ok := r.handlers[name]
	r.mu.RUnlock()
	return h, ok
}

// Names returns the registered task names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Built-in task names.
const (
	TaskHealthCheck = "health.check"
	TaskExample     = "example"
)

// DefaultRegistry returns a registry holding the built-in tasks.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(TaskHealthCheck, HealthCheckTask)
	_ = r.Register(TaskExample, ExampleTask)
	return r
}

// HealthCheckResult is the output of the health.check task.
type HealthCheckResult struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

// HealthCheckTask proves a worker can pick up and finish a task. The
// timestamp is in Unix seconds.
func HealthCheckTask(ctx context.Context, _ json.RawMessage) (any, error) {
	now := time.Now()
	return HealthCheckResult{
		Status:    StatusSuccess,
		Timestamp: float64(now.UnixNano()) / float64(time.Second),
	}, nil
}

// ExampleArgs are the arguments of the example task.
type ExampleArgs struct {
	// Duration is the sleep in seconds. Default: 1
	Duration *float64 `json:"duration,omitempty"`
}

// maxExampleSeconds is the longest sleep a time.Duration can hold.
const maxExampleSeconds = float64(math.MaxInt64 / int64(time.Second))

// ExampleTask sleeps for the requested duration and reports it.
func ExampleTask(ctx context.Context, raw json.RawMessage) (any, error) {
	seconds := 1.0
	if len(raw) > 0 {
		var args ExampleArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidArgs, err)
		}
		if args.Duration != nil {
			seconds = *args.Duration
		}
	}
	if seconds < 0 {
		return nil, fmt.Errorf("%w: duration must not be negative", ErrInvalidArgs)
	}
	if seconds > maxExampleSeconds {
		return nil, fmt.Errorf("%w: duration must not exceed %d seconds", ErrInvalidArgs, int64(maxExampleSeconds))
	}

	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return fmt.Sprintf("Task completed after %v seconds", seconds), nil
}

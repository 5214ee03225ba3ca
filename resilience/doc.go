// Package resilience bounds how long a single operation may take.
//
// Dependency probes and worker tasks both run through Timeout: the caller
// stops waiting when the deadline passes, while the operation itself only
// sees a cancelled context and may finish in the background. Its result is
// then discarded.
//
//	t := resilience.NewTimeout(resilience.TimeoutConfig{Timeout: 5 * time.Second})
//	err := t.Execute(ctx, func(ctx context.Context) error {
//	    return pool.Ping(ctx)
//	})
//	if errors.Is(err, resilience.ErrTimeout) {
//	    // the dependency stalled
//	}
//
// Call is the value-returning form. Panics inside the operation are
// recovered and reported as ErrPanicked so one misbehaving dependency
// client cannot take the process down.
package resilience

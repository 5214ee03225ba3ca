package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/depprobe/observe"
	"github.com/jonwraymond/depprobe/resilience"
)

// AggregatorConfig configures the readiness aggregator.
type AggregatorConfig struct {
	// CheckTimeout bounds each individual check.
	// Default: 5 seconds
	CheckTimeout time.Duration

	// Sequential runs the checks one after another instead of concurrently.
	// Default: false
	Sequential bool

	// Logger receives one entry per check. Default: discard.
	Logger observe.Logger

	// Tracer records a span per run and per check. Default: no-op.
	Tracer observe.Tracer
}

// ReadinessAggregator runs the database, cache and worker pool checks and
// reduces them into a ReadinessReport. It holds no state between runs and is
// safe for concurrent use.
type ReadinessAggregator struct {
	config   AggregatorConfig
	checkers []Checker
	timeout  *resilience.Timeout
}

// NewReadinessAggregator creates an aggregator over the three dependency
// checks. Each checker must report the name of its slot.
func NewReadinessAggregator(database, cache, workers Checker, config ...AggregatorConfig) (*ReadinessAggregator, error) {
	var cfg AggregatorConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = resilience.DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observe.NoopTracer()
	}

	checkers := []Checker{database, cache, workers}
	for i, name := range CheckNames() {
		if checkers[i] == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingChecker, name)
		}
		if got := checkers[i].Name(); got != name {
			return nil, fmt.Errorf("%w: %s passed as %s", ErrCheckerMismatch, got, name)
		}
	}

	return &ReadinessAggregator{
		config:   cfg,
		checkers: checkers,
		timeout:  resilience.NewTimeout(resilience.TimeoutConfig{Timeout: cfg.CheckTimeout}),
	}, nil
}

// Run evaluates every check and returns the report with its HTTP status
// code. It always waits for all checks; one failure never hides another.
func (a *ReadinessAggregator) Run(ctx context.Context) (ReadinessReport, int) {
	ctx, span := a.config.Tracer.StartSpan(ctx, "health.readiness")

	results := make([]CheckResult, len(a.checkers))
	if a.config.Sequential {
		for i, checker := range a.checkers {
			results[i] = a.runCheck(ctx, checker)
		}
	} else {
		var wg sync.WaitGroup
		for i, checker := range a.checkers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i] = a.runCheck(ctx, checker)
			}()
		}
		wg.Wait()
	}

	report := Reduce(results)

	var spanErr error
	if !report.Healthy {
		spanErr = errors.New(strings.Join(report.Errors, "; "))
	}
	span.SetAttributes(attribute.Bool("readiness.healthy", report.Healthy))
	a.config.Tracer.EndSpan(span, spanErr)

	return report, report.StatusCode()
}

func (a *ReadinessAggregator) runCheck(ctx context.Context, checker Checker) CheckResult {
	name := checker.Name()
	ctx, span := a.config.Tracer.StartSpan(ctx, "health.check."+name.String(),
		attribute.String("check.name", name.String()),
		attribute.String("check.dependency", name.Label()),
	)

	start := time.Now()
	result, err := resilience.Call(ctx, a.timeout, func(ctx context.Context) (CheckResult, error) {
		return checker.Check(ctx), nil
	})

	var panicErr *resilience.PanicError
	switch {
	case errors.Is(err, resilience.ErrTimeout):
		result = Fail(name, fmt.Errorf("%w after %s", ErrCheckTimeout, a.config.CheckTimeout))
	case errors.As(err, &panicErr):
		result = Fail(name, fmt.Errorf("%w: %v", ErrCheckPanicked, panicErr.Value))
	case err != nil:
		result = Fail(name, err)
	}
	result = result.WithDuration(time.Since(start))

	span.SetAttributes(
		attribute.Bool("check.healthy", result.Healthy()),
		attribute.String("check.failure_kind", result.Kind().String()),
	)
	a.config.Tracer.EndSpan(span, result.Cause())
	a.log(ctx, result)

	return result
}

func (a *ReadinessAggregator) log(ctx context.Context, result CheckResult) {
	fields := []observe.Field{
		{Key: "check", Value: result.Name().String()},
		{Key: "dependency", Value: result.Name().Label()},
		{Key: "duration_ms", Value: float64(result.Duration().Microseconds()) / 1000},
	}

	switch result.Kind() {
	case FailureNone:
		a.config.Logger.Debug(ctx, "readiness check passed", fields...)
	case FailureVerification:
		fields = append(fields,
			observe.Field{Key: "kind", Value: result.Kind().String()},
			observe.Field{Key: "error", Value: result.Reason()},
		)
		a.config.Logger.Error(ctx, "dependency verification failed", fields...)
	default:
		fields = append(fields,
			observe.Field{Key: "kind", Value: result.Kind().String()},
			observe.Field{Key: "error", Value: result.Reason()},
		)
		a.config.Logger.Error(ctx, "dependency unreachable", fields...)
	}
}

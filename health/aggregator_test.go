package health

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonwraymond/depprobe/observe"
)

func passing(name CheckName) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) error { return nil })
}

func failing(name CheckName, err error) Checker {
	return NewCheckerFunc(name, func(ctx context.Context) error { return err })
}

type panicChecker struct{ name CheckName }

func (p panicChecker) Name() CheckName { return p.name }
func (p panicChecker) Check(ctx context.Context) CheckResult {
	panic("nil client")
}

type countingChecker struct {
	name  CheckName
	calls atomic.Int32
}

func (c *countingChecker) Name() CheckName { return c.name }
func (c *countingChecker) Check(ctx context.Context) CheckResult {
	c.calls.Add(1)
	return Pass(c.name)
}

func mustAggregator(t *testing.T, db, cache, workers Checker, cfg ...AggregatorConfig) *ReadinessAggregator {
	t.Helper()
	agg, err := NewReadinessAggregator(db, cache, workers, cfg...)
	if err != nil {
		t.Fatalf("NewReadinessAggregator() error = %v", err)
	}
	return agg
}

func TestNewReadinessAggregator_Defaults(t *testing.T) {
	agg := mustAggregator(t, passing(CheckDatabase), passing(CheckCache), passing(CheckWorkerPool))

	if agg.config.CheckTimeout != 5*time.Second {
		t.Errorf("CheckTimeout = %v, want 5s", agg.config.CheckTimeout)
	}
	if agg.config.Sequential {
		t.Error("checks should run concurrently by default")
	}
	if agg.config.Logger == nil || agg.config.Tracer == nil {
		t.Error("logger and tracer should default to no-ops")
	}
}

func TestNewReadinessAggregator_NilChecker(t *testing.T) {
	_, err := NewReadinessAggregator(passing(CheckDatabase), nil, passing(CheckWorkerPool))
	if !errors.Is(err, ErrMissingChecker) {
		t.Fatalf("error = %v, want ErrMissingChecker", err)
	}
	if !strings.Contains(err.Error(), "cache") {
		t.Errorf("error %q should name the missing slot", err)
	}
}

func TestNewReadinessAggregator_WrongSlot(t *testing.T) {
	_, err := NewReadinessAggregator(passing(CheckCache), passing(CheckDatabase), passing(CheckWorkerPool))
	if !errors.Is(err, ErrCheckerMismatch) {
		t.Fatalf("error = %v, want ErrCheckerMismatch", err)
	}
}

func TestReadinessAggregator_AllHealthy(t *testing.T) {
	agg := mustAggregator(t, passing(CheckDatabase), passing(CheckCache), passing(CheckWorkerPool))

	report, status := agg.Run(context.Background())

	if status != http.StatusOK {
		t.Errorf("status = %d, want 200", status)
	}
	if !report.Healthy {
		t.Error("report should be healthy")
	}
	if len(report.Errors) != 0 {
		t.Errorf("Errors = %v, want none", report.Errors)
	}
	for i, name := range CheckNames() {
		if report.Results[i].Name() != name {
			t.Errorf("Results[%d] = %v, want %v", i, report.Results[i].Name(), name)
		}
	}
}

func TestReadinessAggregator_DatabaseDown(t *testing.T) {
	agg := mustAggregator(t,
		failing(CheckDatabase, errors.New("connection refused")),
		passing(CheckCache),
		passing(CheckWorkerPool),
	)

	report, status := agg.Run(context.Background())

	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", status)
	}
	checks := report.Checks()
	if checks[CheckDatabase] || !checks[CheckCache] || !checks[CheckWorkerPool] {
		t.Errorf("Checks() = %v", checks)
	}
	if !reflect.DeepEqual(report.Errors, []string{"postgres: connection refused"}) {
		t.Errorf("Errors = %v", report.Errors)
	}
}

func TestReadinessAggregator_FailuresDoNotShortCircuit(t *testing.T) {
	for _, sequential := range []bool{false, true} {
		db := &countingChecker{name: CheckDatabase}
		workers := &countingChecker{name: CheckWorkerPool}
		agg := mustAggregator(t, db, failing(CheckCache, errors.New("down")), workers,
			AggregatorConfig{Sequential: sequential})

		report, _ := agg.Run(context.Background())

		if db.calls.Load() != 1 || workers.calls.Load() != 1 {
			t.Errorf("sequential=%v: every check must run once (db=%d workers=%d)",
				sequential, db.calls.Load(), workers.calls.Load())
		}
		if !reflect.DeepEqual(report.Errors, []string{"redis: down"}) {
			t.Errorf("sequential=%v: Errors = %v", sequential, report.Errors)
		}
	}
}

func TestReadinessAggregator_ErrorsKeepEvaluationOrder(t *testing.T) {
	// The database check finishes last, but its error still comes first.
	slowDB := NewCheckerFunc(CheckDatabase, func(ctx context.Context) error {
		time.Sleep(30 * time.Millisecond)
		return errors.New("slow failure")
	})
	agg := mustAggregator(t, slowDB,
		failing(CheckCache, errors.New("cache failure")),
		failing(CheckWorkerPool, errors.New("worker failure")),
	)

	report, _ := agg.Run(context.Background())

	want := []string{
		"postgres: slow failure",
		"redis: cache failure",
		"celery_workers: worker failure",
	}
	if !reflect.DeepEqual(report.Errors, want) {
		t.Errorf("Errors = %v, want %v", report.Errors, want)
	}
}

func TestReadinessAggregator_Timeout(t *testing.T) {
	stalled := NewCheckerFunc(CheckWorkerPool, func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})
	agg := mustAggregator(t, passing(CheckDatabase), passing(CheckCache), stalled,
		AggregatorConfig{CheckTimeout: 20 * time.Millisecond})

	start := time.Now()
	report, status := agg.Run(context.Background())
	elapsed := time.Since(start)

	if elapsed > 500*time.Millisecond {
		t.Errorf("Run() took %v; a stalled check must not hold the probe", elapsed)
	}
	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", status)
	}

	r := report.Results[2]
	if !errors.Is(r.Cause(), ErrCheckTimeout) {
		t.Errorf("Cause() = %v, want ErrCheckTimeout", r.Cause())
	}
	if r.Kind() != FailureTransport {
		t.Errorf("Kind() = %v, want transport", r.Kind())
	}
	if report.Errors[0] != "celery_workers: check timed out after 20ms" {
		t.Errorf("Errors[0] = %q", report.Errors[0])
	}
}

func TestReadinessAggregator_PanicIsContained(t *testing.T) {
	agg := mustAggregator(t, passing(CheckDatabase), panicChecker{name: CheckCache}, passing(CheckWorkerPool))

	report, status := agg.Run(context.Background())

	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", status)
	}
	if !report.Results[0].Healthy() || !report.Results[2].Healthy() {
		t.Error("a panicking check must not affect the others")
	}
	if !reflect.DeepEqual(report.Errors, []string{"redis: check panicked: nil client"}) {
		t.Errorf("Errors = %v", report.Errors)
	}
}

func TestReadinessAggregator_Idempotent(t *testing.T) {
	agg := mustAggregator(t,
		passing(CheckDatabase),
		failing(CheckCache, Verification("cache verification failed")),
		passing(CheckWorkerPool),
	)

	first, firstStatus := agg.Run(context.Background())
	second, secondStatus := agg.Run(context.Background())

	if firstStatus != secondStatus {
		t.Errorf("status changed between runs: %d then %d", firstStatus, secondStatus)
	}
	if !reflect.DeepEqual(NewReadinessResponse(first), NewReadinessResponse(second)) {
		t.Errorf("reports differ:\n%+v\n%+v", first, second)
	}
	if !reflect.DeepEqual(first.Checks(), second.Checks()) {
		t.Error("check outcomes differ between runs")
	}
}

func TestReadinessAggregator_RecordsDuration(t *testing.T) {
	slow := NewCheckerFunc(CheckDatabase, func(ctx context.Context) error {
		time.Sleep(10 * time.Millisecond)
		return nil
	})
	agg := mustAggregator(t, slow, passing(CheckCache), passing(CheckWorkerPool))

	report, _ := agg.Run(context.Background())
	if report.Results[0].Duration() < 10*time.Millisecond {
		t.Errorf("Duration() = %v, want >= 10ms", report.Results[0].Duration())
	}
}

func TestReadinessAggregator_LogsFailureKinds(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	agg := mustAggregator(t,
		failing(CheckDatabase, errors.New("connection refused")),
		passing(CheckCache),
		failing(CheckWorkerPool, Verification("no active workers found")),
		AggregatorConfig{Logger: observe.NewZapLogger(zap.New(core)), Sequential: true},
	)

	agg.Run(context.Background())

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(entries))
	}

	if entries[0].Message != "dependency unreachable" || entries[0].ContextMap()["kind"] != "transport" {
		t.Errorf("database entry = %q %v", entries[0].Message, entries[0].ContextMap())
	}
	if entries[1].Level != zapcore.DebugLevel {
		t.Errorf("passing check should log at debug, got %v", entries[1].Level)
	}
	if entries[2].Message != "dependency verification failed" || entries[2].ContextMap()["kind"] != "verification" {
		t.Errorf("worker entry = %q %v", entries[2].Message, entries[2].ContextMap())
	}
	if entries[2].ContextMap()["dependency"] != "celery_workers" {
		t.Errorf("dependency = %v", entries[2].ContextMap()["dependency"])
	}
}

func TestReadinessAggregator_ParentContextCancelled(t *testing.T) {
	blocking := NewCheckerFunc(CheckDatabase, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	agg := mustAggregator(t, blocking, passing(CheckCache), passing(CheckWorkerPool))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, status := agg.Run(ctx)
	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", status)
	}
	if report.Results[0].Healthy() {
		t.Error("database check should fail on a cancelled request")
	}
}

func TestReadinessAggregator_ParentDeadlineShorterThanCheckTimeout(t *testing.T) {
	stuck := NewCheckerFunc(CheckDatabase, func(ctx context.Context) error {
		time.Sleep(time.Second)
		return nil
	})
	agg := mustAggregator(t, stuck, passing(CheckCache), passing(CheckWorkerPool),
		AggregatorConfig{CheckTimeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report, status := agg.Run(ctx)

	if status != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", status)
	}
	if !reflect.DeepEqual(report.Errors, []string{"postgres: context deadline exceeded"}) {
		t.Errorf("Errors = %v", report.Errors)
	}
	if errors.Is(report.Results[0].Cause(), ErrCheckTimeout) {
		t.Error("a request deadline is not the check's own timeout")
	}
}

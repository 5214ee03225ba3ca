package health

import (
	"context"
	"time"
)

// CheckName identifies one of the fixed readiness checks.
type CheckName int

const (
	// CheckDatabase probes the relational store.
	CheckDatabase CheckName = iota
	// CheckCache probes the cache.
	CheckCache
	// CheckWorkerPool probes the background worker pool.
	CheckWorkerPool
)

// CheckNames returns every check in evaluation order.
func CheckNames() []CheckName {
	return []CheckName{CheckDatabase, CheckCache, CheckWorkerPool}
}

// String returns the internal name of the check.
func (n CheckName) String() string {
	switch n {
	case CheckDatabase:
		return "database"
	case CheckCache:
		return "cache"
	case CheckWorkerPool:
		return "worker_pool"
	default:
		return "unknown"
	}
}

// Label returns the dependency name used in readiness bodies and error
// prefixes.
func (n CheckName) Label() string {
	switch n {
	case CheckDatabase:
		return "postgres"
	case CheckCache:
		return "redis"
	case CheckWorkerPool:
		return "celery_workers"
	default:
		return "unknown"
	}
}

// FailureKind classifies why a check failed.
type FailureKind int

const (
	// FailureNone means the check passed.
	FailureNone FailureKind = iota
	// FailureTransport means the dependency could not be reached.
	FailureTransport
	// FailureVerification means the dependency answered, but wrongly.
	FailureVerification
)

// String returns the string representation of the kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureTransport:
		return "transport"
	case FailureVerification:
		return "verification"
	default:
		return "unknown"
	}
}

// CheckResult is the outcome of one check. It is either a pass or a failure
// carrying its cause; the zero value is not meaningful.
type CheckResult struct {
	name     CheckName
	err      error
	duration time.Duration
}

// Pass creates a healthy result.
func Pass(name CheckName) CheckResult {
	return CheckResult{name: name}
}

// Fail creates an unhealthy result. A nil err is replaced by ErrCheckFailed.
func Fail(name CheckName, err error) CheckResult {
	if err == nil {
		err = ErrCheckFailed
	}
	return CheckResult{name: name, err: err}
}

// WithDuration returns a copy of r with the duration set.
func (r CheckResult) WithDuration(d time.Duration) CheckResult {
	r.duration = d
	return r
}

// Name returns the check this result belongs to.
func (r CheckResult) Name() CheckName { return r.name }

// Healthy reports whether the check passed.
func (r CheckResult) Healthy() bool { return r.err == nil }

// Cause returns the failure cause, or nil for a pass.
func (r CheckResult) Cause() error { return r.err }

// Duration returns how long the check took, if recorded.
func (r CheckResult) Duration() time.Duration { return r.duration }

// Reason returns the failure description, or "" for a pass.
func (r CheckResult) Reason() string {
	if r.err == nil {
		return ""
	}
	return r.err.Error()
}

// Kind classifies the failure.
func (r CheckResult) Kind() FailureKind {
	switch {
	case r.err == nil:
		return FailureNone
	case IsVerification(r.err):
		return FailureVerification
	default:
		return FailureTransport
	}
}

// Checker is the interface for dependency checks.
//
// Contract:
// - Check must not panic and must not return a result for another name.
// - Check should honor ctx cancellation; the aggregator stops waiting when
//   its deadline passes either way.
type Checker interface {
	// Name returns which check this is.
	Name() CheckName

	// Check probes the dependency once.
	Check(ctx context.Context) CheckResult
}

// CheckerFunc adapts an error-returning function to a Checker.
type CheckerFunc struct {
	name CheckName
	fn   func(context.Context) error
}

// NewCheckerFunc creates a new CheckerFunc. A nil error from fn is a pass.
func NewCheckerFunc(name CheckName, fn func(context.Context) error) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() CheckName {
	return f.name
}

// Check runs the function.
func (f *CheckerFunc) Check(ctx context.Context) CheckResult {
	if err := f.fn(ctx); err != nil {
		return Fail(f.name, err)
	}
	return Pass(f.name)
}

package checks

import (
	"context"

	"github.com/jonwraymond/depprobe/health"
	"github.com/jonwraymond/depprobe/observe"
)

// WorkerLister reports the ids of live task workers.
// *taskqueue.Inspector satisfies it.
type WorkerLister interface {
	ListActiveWorkers(ctx context.Context) ([]string, error)
}

// Workers verifies that at least one task worker is alive.
//
// An unreachable control plane and an empty worker set both fail the
// check. They are logged under different messages so operators can tell
// them apart.
type Workers struct {
	lister WorkerLister
	logger observe.Logger
}

// NewWorkers creates the worker pool check. logger may be nil.
func NewWorkers(lister WorkerLister, logger observe.Logger) *Workers {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Workers{lister: lister, logger: logger}
}

// Name returns health.CheckWorkerPool.
func (w *Workers) Name() health.CheckName { return health.CheckWorkerPool }

// Check requires one or more worker ids.
func (w *Workers) Check(ctx context.Context) health.CheckResult {
	ids, err := w.lister.ListActiveWorkers(ctx)
	if err != nil {
		w.logger.Warn(ctx, "control plane query failed", observe.Field{Key: "error", Value: err})
		return health.Fail(health.CheckWorkerPool, err)
	}
	if len(ids) == 0 {
		w.logger.Warn(ctx, "no active workers")
		return health.Fail(health.CheckWorkerPool, health.Verification("no active workers found"))
	}
	w.logger.Debug(ctx, "workers online", observe.Field{Key: "workers", Value: ids})
	return health.Pass(health.CheckWorkerPool)
}

var _ health.Checker = (*Workers)(nil)

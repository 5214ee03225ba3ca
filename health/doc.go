// Package health answers the two questions an orchestrator asks of the
// service: is the process alive, and are its dependencies usable.
//
// # Liveness
//
// LivenessProbe returns a constant report. It never touches a dependency, so
// a database or broker outage can never make the process look dead.
//
// # Readiness
//
// ReadinessAggregator runs exactly three checks, one per dependency:
//
//	database     PostgreSQL round trip    reported as "postgres"
//	cache        Redis write/read-back    reported as "redis"
//	worker_pool  active task workers      reported as "celery_workers"
//
// Each check is total: it converts every failure into a CheckResult instead
// of returning an error, and the aggregator additionally bounds each check
// with a timeout and recovers panics. The checks run concurrently by
// default and the aggregator always waits for all three before reducing
// them into a ReadinessReport.
//
//	agg, err := health.NewReadinessAggregator(dbCheck, cacheCheck, workerCheck)
//	if err != nil {
//	    return err
//	}
//	report, status := agg.Run(ctx)
//	// status is 200 when report.Healthy, 503 otherwise
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, health.NewLivenessProbe("cgm-api"), agg)
//
// registers /health/live and /health/ready plus the /healthz and /readyz
// aliases.
package health

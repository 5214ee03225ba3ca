// depprobe serves liveness and readiness probes for a service built on
// PostgreSQL, Redis and a pool of background task workers, and runs those
// workers.
//
// Usage:
//
//	# Serve /health/live and /health/ready
//	depprobe serve
//
//	# Start a task worker
//	depprobe worker --concurrency 8
//
//	# One-shot readiness check (exit status 1 when not ready)
//	depprobe check
//
//	# Enqueue a task
//	depprobe enqueue example --duration 3 --wait
package main

func main() {
	Execute()
}

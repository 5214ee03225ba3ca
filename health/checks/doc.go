// Package checks implements the three readiness checks: the PostgreSQL
// round trip, the cache write/read round trip, and the worker pool
// presence query. Each check takes its client at construction and never
// returns an error or panics; every outcome is a health.CheckResult.
package checks

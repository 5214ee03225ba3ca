// Package observe provides the logging and tracing primitives used by the
// probe server and the task worker.
//
// Logging is structured (zap, JSON) with optional file rotation. Tracing is
// OpenTelemetry with stdout or OTLP export. Both degrade to no-ops when
// disabled, so callers never need to nil-check.
package observe

// Package cache provides the key/value store used by the readiness cache
// check.
//
// It provides a Store interface with an in-memory implementation for tests
// and local runs, a Redis implementation built on go-redis, and Open, which
// selects one from a URL.
package cache

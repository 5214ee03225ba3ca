// Package database opens the PostgreSQL pool probed by the readiness
// database check.
//
// Open never fails on a bad descriptor. The returned Conn carries the error
// and reports it from every query, so a misconfigured DATABASE_URL shows up
// as an unhealthy check instead of a crash at startup.
package database

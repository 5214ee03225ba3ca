package database

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultConnectTimeout matches the socket timeout used for the other
// dependencies.
const DefaultConnectTimeout = 5 * time.Second

var (
	ErrEmptyDSN   = errors.New("database: dsn is empty")
	ErrInvalidDSN = errors.New("database: invalid dsn")
)

// Options tune the pool built by Open.
type Options struct {
	// ConnectTimeout bounds establishing a single connection.
	// Default: 5 seconds
	ConnectTimeout time.Duration

	// MaxConns caps the pool size. Default: 4
	MaxConns int32
}

// Conn is a lazily connected pool, or the error that prevented building one.
type Conn struct {
	pool *pgxpool.Pool
	err  error
}

// Open parses dsn and builds a pool. No connection is made until the first
// query.
func Open(ctx context.Context, dsn string, opts ...Options) *Conn {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = DefaultConnectTimeout
	}
	if o.MaxConns <= 0 {
		o.MaxConns = 4
	}

	if dsn == "" {
		return &Conn{err: ErrEmptyDSN}
	}
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return &Conn{err: fmt.Errorf("%w: %v", ErrInvalidDSN, err)}
	}
	config.MaxConns = o.MaxConns
	config.MinConns = 0
	config.MaxConnLifetime = time.Hour
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.ConnectTimeout = o.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return &Conn{err: fmt.Errorf("open pgx pool: %w", err)}
	}
	return &Conn{pool: pool}
}

// QueryRow runs sql on the pool. When Open failed, the returned row yields
// the deferred error from Scan.
func (c *Conn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if c.err != nil {
		return errRow{err: c.err}
	}
	return c.pool.QueryRow(ctx, sql, args...)
}

// Ping checks connectivity.
func (c *Conn) Ping(ctx context.Context) error {
	if c.err != nil {
		return c.err
	}
	return c.pool.Ping(ctx)
}

// Err returns the error recorded by Open, if any.
func (c *Conn) Err() error { return c.err }

// Close closes the pool.
func (c *Conn) Close() {
	if c.pool != nil {
		c.pool.Close()
	}
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }

// DSN assembles a postgres:// URL from discrete settings.
func DSN(host, port, user, password, name string) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + name,
	}
	if password != "" {
		u.User = url.UserPassword(user, password)
	} else if user != "" {
		u.User = url.User(user)
	}
	return u.String()
}

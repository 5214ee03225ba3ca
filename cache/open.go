package cache

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultSocketTimeout bounds Redis dial, read and write operations.
const DefaultSocketTimeout = 5 * time.Second

// Options tune the client built by Open.
type Options struct {
	// SocketTimeout bounds dial, read and write.
	// Default: 5 seconds
	SocketTimeout time.Duration
}

// Open returns a Store for rawURL. Supported schemes are redis://,
// rediss:// and memory://. Open never fails: a malformed URL yields a store
// whose every operation returns the parse error, so a bad descriptor
// surfaces when the store is first used.
func Open(rawURL string, opts ...Options) Store {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.SocketTimeout <= 0 {
		o.SocketTimeout = DefaultSocketTimeout
	}

	if u, err := url.Parse(rawURL); err == nil && u.Scheme == "memory" {
		return NewMemoryStore()
	}
	client, err := NewRedisClient(rawURL, o.SocketTimeout)
	if err != nil {
		return &failedStore{err: err}
	}
	return NewRedisStore(client)
}

// NewRedisClient parses a redis:// or rediss:// URL into a client with the
// given socket timeout. The client connects lazily.
func NewRedisClient(rawURL string, timeout time.Duration) (*redis.Client, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidURL)
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, u.Scheme)
	}

	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	opt.DialTimeout = timeout
	opt.ReadTimeout = timeout
	opt.WriteTimeout = timeout
	return redis.NewClient(opt), nil
}

// failedStore carries a deferred configuration error.
type failedStore struct {
	err error
}

func (f *failedStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, f.err }
func (f *failedStore) Set(context.Context, string, []byte, time.Duration) error {
	return f.err
}
func (f *failedStore) Delete(context.Context, string) error { return f.err }
func (f *failedStore) Close() error                         { return nil }

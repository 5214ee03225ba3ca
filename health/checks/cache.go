package checks

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/depprobe/cache"
	"github.com/jonwraymond/depprobe/health"
)

// Cache probe entry.
const (
	ProbeKey   = "health_check"
	ProbeValue = "ok"
	ProbeTTL   = 10 * time.Second
)

// Cache verifies the cache by writing ProbeKey and reading it back.
// Concurrent probes share the key; they all write the same value.
type Cache struct {
	store cache.Store
}

// NewCache creates the cache check.
func NewCache(store cache.Store) *Cache {
	return &Cache{store: store}
}

// Name returns health.CheckCache.
func (c *Cache) Name() health.CheckName { return health.CheckCache }

// Check writes the probe value and requires an identical read-back.
func (c *Cache) Check(ctx context.Context) health.CheckResult {
	if c.store == nil {
		return health.Fail(health.CheckCache, cache.ErrNilStore)
	}
	want := []byte(ProbeValue)

	if err := c.store.Set(ctx, ProbeKey, want, ProbeTTL); err != nil {
		return health.Fail(health.CheckCache, fmt.Errorf("cache set: %w", err))
	}

	got, ok, err := c.store.Get(ctx, ProbeKey)
	if err != nil {
		return health.Fail(health.CheckCache, fmt.Errorf("cache get: %w", err))
	}
	if !ok {
		return health.Fail(health.CheckCache,
			health.Verification("cache verification failed: %q missing after write", ProbeKey))
	}
	if !bytes.Equal(got, want) {
		return health.Fail(health.CheckCache,
			health.Verification("cache verification failed: wrote %q, read %q", want, got))
	}
	return health.Pass(health.CheckCache)
}

var _ health.Checker = (*Cache)(nil)

package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) (*Broker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	b := NewBroker(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

// startWorker runs w until the test ends and waits for it to listen on the
// control channel.
func startWorker(t *testing.T, b *Broker, cfg WorkerConfig) *Worker {
	t.Helper()
	if cfg.Hostname == "" {
		cfg.Hostname = "testhost"
	}
	w, err := NewWorker(b, cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("worker exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not subscribe to the control channel")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("worker did not stop")
		}
	})
	return w
}

func waitResult(t *testing.T, b *Broker, id string) TaskResult {
	t.Helper()
	var res TaskResult
	require.Eventually(t, func() bool {
		r, ok, err := b.Result(context.Background(), id)
		if err != nil || !ok {
			return false
		}
		res = r
		return true
	}, 10*time.Second, 20*time.Millisecond, "no result for task %s", id)
	return res
}

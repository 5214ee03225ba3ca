package checks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonwraymond/depprobe/health"
	"github.com/jonwraymond/depprobe/observe"
	"github.com/jonwraymond/depprobe/taskqueue"
)

type fakeLister struct {
	ids []string
	err error
}

func (f fakeLister) ListActiveWorkers(context.Context) ([]string, error) { return f.ids, f.err }

func TestWorkers(t *testing.T) {
	tests := []struct {
		name    string
		lister  fakeLister
		healthy bool
		kind    health.FailureKind
		reason  string
		logMsg  string
	}{
		{name: "one worker", lister: fakeLister{ids: []string{"celery@a"}}, healthy: true},
		{name: "many workers", lister: fakeLister{ids: []string{"celery@a", "celery@b", "celery@c"}}, healthy: true},
		{
			name:   "empty",
			lister: fakeLister{ids: []string{}},
			kind:   health.FailureVerification,
			reason: "no active workers found",
			logMsg: "no active workers",
		},
		{
			name:   "nil",
			lister: fakeLister{},
			kind:   health.FailureVerification,
			reason: "no active workers found",
			logMsg: "no active workers",
		},
		{
			name:   "broker down",
			lister: fakeLister{err: errors.New("dial tcp 10.0.0.7:6379: connect: connection refused")},
			kind:   health.FailureTransport,
			reason: "dial tcp 10.0.0.7:6379: connect: connection refused",
			logMsg: "control plane query failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			r := NewWorkers(tt.lister, observe.NewZapLogger(zap.New(core))).Check(context.Background())

			assert.Equal(t, health.CheckWorkerPool, r.Name())
			assert.Equal(t, tt.healthy, r.Healthy())
			if tt.healthy {
				assert.Zero(t, logs.Len())
				return
			}
			assert.Equal(t, tt.kind, r.Kind())
			assert.Equal(t, tt.reason, r.Reason())
			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.logMsg, logs.All()[0].Message)
		})
	}
}

func TestWorkers_NilLogger(t *testing.T) {
	r := NewWorkers(fakeLister{}, nil).Check(context.Background())
	assert.False(t, r.Healthy())
}

func TestWorkers_TaskQueueInspector(t *testing.T) {
	mr := miniredis.RunT(t)
	broker := taskqueue.NewBroker(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	t.Cleanup(func() { _ = broker.Close() })
	check := NewWorkers(taskqueue.NewInspector(broker, time.Second), nil)

	r := check.Check(context.Background())
	assert.False(t, r.Healthy(), "no worker is running yet")
	assert.Equal(t, "no active workers found", r.Reason())

	w, err := taskqueue.NewWorker(broker, taskqueue.WorkerConfig{Name: "celery", Hostname: "pod"})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	<-w.Ready()

	r = check.Check(context.Background())
	assert.True(t, r.Healthy(), r.Reason())
}

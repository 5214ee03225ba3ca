package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/depprobe/observe"
	"github.com/jonwraymond/depprobe/resilience"
)

// WorkerConfig configures a Worker.
type WorkerConfig struct {
	// Name is the worker name. The id is <Name>@<Hostname>. Default: "worker"
	Name string

	// Hostname overrides os.Hostname.
	Hostname string

	// Queue to consume. Default: "default"
	Queue string

	// Concurrency caps tasks running at once. Default: 4
	Concurrency int

	// TaskTimeout bounds one task. Default: 5 minutes
	TaskTimeout time.Duration

	// ResultTTL is how long results are kept. Default: 24 hours
	ResultTTL time.Duration

	// PollInterval is the BLPOP timeout and the back-off after a broker
	// error. Default: 1 second
	PollInterval time.Duration

	// Registry holds the task handlers. Default: DefaultRegistry()
	Registry *Registry

	// Logger for task and broker events. Default: discard.
	Logger observe.Logger
}

// Worker consumes one queue and answers control broadcasts.
type Worker struct {
	broker  *Broker
	id      string
	config  WorkerConfig
	timeout *resilience.Timeout
	logger  observe.Logger

	ready chan struct{}

	mu     sync.Mutex
	active map[string]TaskInfo
}

// NewWorker creates a worker. It fails if the broker could not be built.
func NewWorker(broker *Broker, config WorkerConfig) (*Worker, error) {
	if err := broker.Err(); err != nil {
		return nil, err
	}

	if config.Name == "" {
		config.Name = "worker"
	}
	if config.Hostname == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "localhost"
		}
		config.Hostname = host
	}
	if config.Queue == "" {
		config.Queue = "default"
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.TaskTimeout <= 0 {
		config.TaskTimeout = 5 * time.Minute
	}
	if config.ResultTTL <= 0 {
		config.ResultTTL = 24 * time.Hour
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.Registry == nil {
		config.Registry = DefaultRegistry()
	}
	if config.Logger == nil {
		config.Logger = observe.NopLogger()
	}

	id := config.Name + "@" + config.Hostname
	return &Worker{
		broker:  broker,
		id:      id,
		config:  config,
		timeout: resilience.NewTimeout(resilience.TimeoutConfig{Timeout: config.TaskTimeout}),
		logger:  config.Logger.With(observe.Field{Key: "worker", Value: id}),
		ready:   make(chan struct{}),
		active:  make(map[string]TaskInfo),
	}, nil
}

// ID returns <name>@<hostname>.
func (w *Worker) ID() string { return w.id }

// Ready is closed once the worker listens on the control channel.
func (w *Worker) Ready() <-chan struct{} { return w.ready }

// Active returns a snapshot of running tasks ordered by start time.
func (w *Worker) Active() []TaskInfo {
	w.mu.Lock()
	out := make([]TaskInfo, 0, len(w.active))
	for _, t := range w.active {
		out = append(out, t)
	}
	w.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Run consumes tasks until ctx is cancelled. Tasks already started are
// allowed to finish within their timeout. A cancelled ctx returns nil.
// Run must be called at most once.
func (w *Worker) Run(ctx context.Context) error {
	client := w.broker.client

	sub := client.Subscribe(ctx, w.broker.controlChannel())
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("taskqueue: subscribe control: %w", err)
	}
	close(w.ready)

	w.logger.Info(ctx, "worker started",
		observe.Field{Key: "queue", Value: w.config.Queue},
		observe.Field{Key: "concurrency", Value: w.config.Concurrency},
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.serveControl(gctx, sub.Channel()) })
	g.Go(func() error { return w.consume(gctx) })
	err := g.Wait()

	w.logger.Info(context.WithoutCancel(ctx), "worker stopped")
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (w *Worker) serveControl(ctx context.Context, msgs <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return ErrControlClosed
			}
			var req controlRequest
			if err := json.Unmarshal([]byte(msg.Payload), &req); err != nil || req.ReplyTo == "" {
				w.logger.Warn(ctx, "ignoring malformed control message")
				continue
			}

			reply := controlReply{Worker: w.id}
			switch req.Command {
			case CommandActive:
				reply.Active = w.Active()
			case CommandPing:
				reply.Pong = "pong"
			default:
				w.logger.Warn(ctx, "unknown control command", observe.Field{Key: "command", Value: req.Command})
				continue
			}

			payload, err := json.Marshal(reply)
			if err != nil {
				continue
			}
			if err := w.broker.client.Publish(ctx, req.ReplyTo, payload).Err(); err != nil {
				w.logger.Warn(ctx, "control reply failed", observe.Field{Key: "error", Value: err})
			}
		}
	}
}

func (w *Worker) consume(ctx context.Context) error {
	var tasks errgroup.Group
	tasks.SetLimit(w.config.Concurrency)
	defer tasks.Wait()

	// In-flight tasks outlive shutdown; each is still bounded by TaskTimeout.
	taskCtx := context.WithoutCancel(ctx)
	queueKey := w.broker.queueKey(w.config.Queue)

	for ctx.Err() == nil {
		res, err := w.broker.client.BLPop(ctx, w.config.PollInterval, queueKey).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			w.logger.Warn(ctx, "broker unavailable", observe.Field{Key: "error", Value: err})
			select {
			case <-ctx.Done():
			case <-time.After(w.config.PollInterval):
			}
			continue
		}

		var msg TaskMessage
		if err := json.Unmarshal([]byte(res[1]), &msg); err != nil || msg.ID == "" {
			w.logger.Error(ctx, "dropping malformed task message", observe.Field{Key: "error", Value: err})
			continue
		}

		tasks.Go(func() error {
			w.execute(taskCtx, msg)
			return nil
		})
	}
	return ctx.Err()
}

func (w *Worker) execute(ctx context.Context, msg TaskMessage) {
	started := time.Now().UTC()
	w.track(TaskInfo{ID: msg.ID, Task: msg.Task, Queue: msg.Queue, StartedAt: started})
	defer w.untrack(msg.ID)

	fields := []observe.Field{
		{Key: "task", Value: msg.Task},
		{Key: "task_id", Value: msg.ID},
	}

	var out any
	handler, ok := w.config.Registry.Lookup(msg.Task)
	err := fmt.Errorf("%w: %s", ErrUnknownTask, msg.Task)
	if ok {
		out, err = resilience.Call(ctx, w.timeout, func(ctx context.Context) (any, error) {
			return handler(ctx, msg.Args)
		})
	}

	result := TaskResult{
		ID:         msg.ID,
		Task:       msg.Task,
		Status:     StatusSuccess,
		Worker:     w.id,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}
	if err == nil {
		raw, merr := json.Marshal(out)
		if merr != nil {
			err = fmt.Errorf("encode result: %w", merr)
		} else {
			result.Result = raw
		}
	}
	if err != nil {
		result.Status = StatusFailure
		result.Error = err.Error()
	}

	fields = append(fields, observe.Field{Key: "duration_ms", Value: result.FinishedAt.Sub(started).Milliseconds()})
	if err != nil {
		w.logger.Error(ctx, "task failed", append(fields, observe.Field{Key: "error", Value: err})...)
	} else {
		w.logger.Info(ctx, "task succeeded", fields...)
	}

	payload, merr := json.Marshal(result)
	if merr != nil {
		return
	}
	if serr := w.broker.client.Set(ctx, w.broker.resultKey(msg.ID), payload, w.config.ResultTTL).Err(); serr != nil {
		w.logger.Warn(ctx, "storing task result failed", append(fields, observe.Field{Key: "error", Value: serr})...)
	}
}

func (w *Worker) track(t TaskInfo) {
	w.mu.Lock()
	w.active[t.ID] = t
	w.mu.Unlock()
}

func (w *Worker) untrack(id string) {
	w.mu.Lock()
	delete(w.active, id)
	w.mu.Unlock()
}

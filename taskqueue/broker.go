package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/depprobe/cache"
)

// DefaultNamespace prefixes every key the queue touches.
const DefaultNamespace = "taskqueue"

// BrokerOptions configure OpenBroker.
type BrokerOptions struct {
	// Namespace prefixes keys and channels. Default: "taskqueue"
	Namespace string

	// SocketTimeout bounds dial, read and write. Default: 5 seconds
	SocketTimeout time.Duration
}

// Broker publishes tasks and reads their results.
type Broker struct {
	client    redis.UniversalClient
	namespace string
	err       error
}

// OpenBroker builds a broker from a redis:// URL. A malformed URL is not
// returned here; it is reported by every broker operation instead.
func OpenBroker(rawURL string, opts ...BrokerOptions) *Broker {
	var o BrokerOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.SocketTimeout <= 0 {
		o.SocketTimeout = cache.DefaultSocketTimeout
	}

	client, err := cache.NewRedisClient(rawURL, o.SocketTimeout)
	if err != nil {
		return &Broker{namespace: namespaceOrDefault(o.Namespace), err: fmt.Errorf("taskqueue: broker: %w", err)}
	}
	return NewBroker(client, o.Namespace)
}

// NewBroker wraps an existing client. The broker owns the client.
func NewBroker(client redis.UniversalClient, namespace string) *Broker {
	return &Broker{client: client, namespace: namespaceOrDefault(namespace)}
}

func namespaceOrDefault(ns string) string {
	if ns == "" {
		return DefaultNamespace
	}
	return ns
}

// Err returns the configuration error recorded by OpenBroker, if any.
func (b *Broker) Err() error { return b.err }

// Namespace returns the key prefix.
func (b *Broker) Namespace() string { return b.namespace }

func (b *Broker) queueKey(queue string) string { return b.namespace + ":queue:" + queue }
func (b *Broker) resultKey(id string) string   { return b.namespace + ":result:" + id }
func (b *Broker) controlChannel() string       { return b.namespace + ":control" }
func (b *Broker) replyChannel() string         { return b.namespace + ":reply:" + uuid.NewString() }

// Enqueue appends a task to queue and returns its id. args is encoded as
// JSON; nil means no arguments.
func (b *Broker) Enqueue(ctx context.Context, queue, task string, args any) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	if task == "" {
		return "", ErrInvalidTaskName
	}

	msg := TaskMessage{
		ID:         uuid.NewString(),
		Task:       task,
		Queue:      queue,
		EnqueuedAt: time.Now().UTC(),
	}
	if args != nil {
		raw, err := json.Marshal(args)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidArgs, err)
		}
		msg.Args = raw
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}
	if err := b.client.RPush(ctx, b.queueKey(queue), payload).Err(); err != nil {
		return "", fmt.Errorf("taskqueue: enqueue %s: %w", task, err)
	}
	return msg.ID, nil
}

// Result returns the stored result for id. The bool is false while the
// task is pending or after the result expired.
func (b *Broker) Result(ctx context.Context, id string) (TaskResult, bool, error) {
	if b.err != nil {
		return TaskResult{}, false, b.err
	}

	raw, err := b.client.Get(ctx, b.resultKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return TaskResult{}, false, nil
	}
	if err != nil {
		return TaskResult{}, false, fmt.Errorf("taskqueue: result %s: %w", id, err)
	}

	var res TaskResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return TaskResult{}, false, fmt.Errorf("taskqueue: decode result %s: %w", id, err)
	}
	return res, true, nil
}

// Pending returns the number of queued messages on queue.
func (b *Broker) Pending(ctx context.Context, queue string) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	return b.client.LLen(ctx, b.queueKey(queue)).Result()
}

// Close closes the underlying client.
func (b *Broker) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultInspectTimeout is how long a broadcast waits for replies.
const DefaultInspectTimeout = time.Second

// Inspector queries live workers over the control channel.
type Inspector struct {
	broker  *Broker
	timeout time.Duration
	group   singleflight.Group // concurrent identical broadcasts share one round trip
}

// NewInspector creates an inspector. timeout <= 0 uses
// DefaultInspectTimeout.
func NewInspector(broker *Broker, timeout time.Duration) *Inspector {
	if timeout <= 0 {
		timeout = DefaultInspectTimeout
	}
	return &Inspector{broker: broker, timeout: timeout}
}

// Active returns the tasks executing on each worker that replied, keyed by
// worker id. Idle workers appear with an empty slice.
func (i *Inspector) Active(ctx context.Context) (map[string][]TaskInfo, error) {
	replies, err := i.shared(ctx, CommandActive)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]TaskInfo, len(replies))
	for _, r := range replies {
		tasks := r.Active
		if tasks == nil {
			tasks = []TaskInfo{}
		}
		out[r.Worker] = tasks
	}
	return out, nil
}

// Ping returns the pong of each worker that replied, keyed by worker id.
func (i *Inspector) Ping(ctx context.Context) (map[string]string, error) {
	replies, err := i.shared(ctx, CommandPing)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(replies))
	for _, r := range replies {
		out[r.Worker] = r.Pong
	}
	return out, nil
}

// ListActiveWorkers returns the sorted ids of workers answering the active
// broadcast.
func (i *Inspector) ListActiveWorkers(ctx context.Context) ([]string, error) {
	active, err := i.Active(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(active))
	for id := range active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// shared runs one broadcast per command for all concurrent callers. The
// round trip is detached from any single caller and bounded by the inspect
// timeout; each caller stops waiting when its own ctx is done.
func (i *Inspector) shared(ctx context.Context, command string) ([]controlReply, error) {
	ch := i.group.DoChan(command, func() (any, error) {
		bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*i.timeout)
		defer cancel()
		return i.broadcast(bctx, command)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]controlReply), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// broadcast publishes command and gathers replies until every subscriber
// has answered or the inspect timeout passes.
func (i *Inspector) broadcast(ctx context.Context, command string) ([]controlReply, error) {
	b := i.broker
	if b.err != nil {
		return nil, b.err
	}

	replyTo := b.replyChannel()
	sub := b.client.Subscribe(ctx, replyTo)
	defer sub.Close()

	// Wait for the subscription so no reply is published before we listen.
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("taskqueue: subscribe: %w", err)
	}
	replies := sub.Channel()

	payload, err := json.Marshal(controlRequest{Command: command, ReplyTo: replyTo})
	if err != nil {
		return nil, err
	}
	receivers, err := b.client.Publish(ctx, b.controlChannel(), payload).Result()
	if err != nil {
		return nil, fmt.Errorf("taskqueue: publish %s: %w", command, err)
	}
	if receivers == 0 {
		return nil, nil
	}

	timer := time.NewTimer(i.timeout)
	defer timer.Stop()

	seen := make(map[string]struct{}, receivers)
	var out []controlReply
	for int64(len(seen)) < receivers {
		select {
		case msg, ok := <-replies:
			if !ok {
				return out, nil
			}
			var r controlReply
			if err := json.Unmarshal([]byte(msg.Payload), &r); err != nil || r.Worker == "" {
				continue
			}
			if _, dup := seen[r.Worker]; dup {
				continue
			}
			seen[r.Worker] = struct{}{}
			out = append(out, r)
		case <-timer.C:
			return out, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, nil
}

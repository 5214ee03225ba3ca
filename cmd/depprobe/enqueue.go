package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/depprobe/taskqueue"
)

var enqueueFlags struct {
	queue    string
	duration float64
	wait     time.Duration
}

var enqueueCmd = &cobra.Command{
	Use:   "enqueue <task>",
	Short: "Enqueue a task",
	Long: `Enqueue a task and print its id.

Examples:
  # Verify a worker picks up work
  depprobe enqueue health.check --wait 10s

  # Sleep for three seconds on a worker
  depprobe enqueue example --duration 3`,
	Args: cobra.ExactArgs(1),
	RunE: runEnqueue,
}

func init() {
	rootCmd.AddCommand(enqueueCmd)

	enqueueCmd.Flags().StringVarP(&enqueueFlags.queue, "queue", "Q", "", "target queue (default from config)")
	enqueueCmd.Flags().Float64Var(&enqueueFlags.duration, "duration", 1, "seconds to sleep (example task only)")
	enqueueCmd.Flags().DurationVar(&enqueueFlags.wait, "wait", 0, "wait up to this long for the result and print it")
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

	queue := a.cfg.Broker.Queue
	if enqueueFlags.queue != "" {
		queue = enqueueFlags.queue
	}

	task := args[0]
	var taskArgs any
	if task == taskqueue.TaskExample {
		d := enqueueFlags.duration
		taskArgs = taskqueue.ExampleArgs{Duration: &d}
	}

	id, err := a.broker.Enqueue(ctx, queue, task, taskArgs)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)

	if enqueueFlags.wait <= 0 {
		return nil
	}
	return awaitResult(ctx, cmd.OutOrStdout(), a.broker, id, enqueueFlags.wait)
}

// awaitResult polls for the result of id and prints it.
func awaitResult(ctx context.Context, out io.Writer, b *taskqueue.Broker, id string, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		res, ok, err := b.Result(ctx, id)
		if err != nil {
			return err
		}
		if ok {
			if err := json.NewEncoder(out).Encode(res); err != nil {
				return err
			}
			if res.Status != taskqueue.StatusSuccess {
				return fmt.Errorf("task %s failed: %s", id, res.Error)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("no result for task %s after %s", id, wait)
		case <-ticker.C:
		}
	}
}

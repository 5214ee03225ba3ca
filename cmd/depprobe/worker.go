package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/depprobe/observe"
	"github.com/jonwraymond/depprobe/taskqueue"
)

var workerFlags struct {
	name        string
	queue       string
	concurrency int
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a task worker",
	Long: `Run a task worker that consumes the configured queue and answers the
control broadcasts used by the readiness worker check.

Built-in tasks: health.check, example.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().StringVarP(&workerFlags.name, "name", "n", "", "worker name (default from config, then \"worker\")")
	workerCmd.Flags().StringVarP(&workerFlags.queue, "queue", "Q", "", "queue to consume (default from config)")
	workerCmd.Flags().IntVar(&workerFlags.concurrency, "concurrency", 0, "max concurrent tasks (default from config)")
}

func runWorker(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

	cfg := taskqueue.WorkerConfig{
		Name:        a.cfg.Worker.Name,
		Queue:       a.cfg.Broker.Queue,
		Concurrency: a.cfg.Worker.Concurrency,
		TaskTimeout: a.cfg.Worker.TaskTimeout,
		ResultTTL:   a.cfg.Worker.ResultTTL,
		Logger:      a.logger,
	}
	if workerFlags.name != "" {
		cfg.Name = workerFlags.name
	}
	if workerFlags.queue != "" {
		cfg.Queue = workerFlags.queue
	}
	if workerFlags.concurrency > 0 {
		cfg.Concurrency = workerFlags.concurrency
	}

	w, err := taskqueue.NewWorker(a.broker, cfg)
	if err != nil {
		return err
	}
	a.logger.Info(ctx, "starting worker", observe.Field{Key: "id", Value: w.ID()})
	return w.Run(ctx)
}

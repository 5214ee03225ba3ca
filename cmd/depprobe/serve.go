package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/depprobe/health"
	"github.com/jonwraymond/depprobe/observe"
)

var serveFlags struct {
	listenAddress   string
	shutdownTimeout time.Duration
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve liveness and readiness probes",
	Long: `Serve the probe endpoints:

  GET /health/live   (alias /healthz)   200 while the process runs
  GET /health/ready  (alias /readyz)    200 when every dependency is healthy, 503 otherwise

The server stops gracefully on SIGINT or SIGTERM.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().DurationVar(&serveFlags.shutdownTimeout, "shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), serveFlags.shutdownTimeout)
		defer cancel()
		_ = a.Close(closeCtx)
	}()

	if serveFlags.listenAddress != "" {
		a.cfg.Service.ListenAddress = serveFlags.listenAddress
	}

	srv, err := newServer(a)
	if err != nil {
		return err
	}
	return serve(ctx, srv, a.logger, serveFlags.shutdownTimeout)
}

func newServer(a *app) (*http.Server, error) {
	agg, err := a.readiness()
	if err != nil {
		return nil, fmt.Errorf("build readiness aggregator: %w", err)
	}

	mux := http.NewServeMux()
	health.RegisterHandlers(mux, health.NewLivenessProbe(a.cfg.Service.Name), agg)

	return &http.Server{
		Addr:              a.cfg.Service.ListenAddress,
		Handler:           observe.MiddlewareFromObserver(a.obs).Wrap(mux),
		ReadHeaderTimeout: 5 * time.Second,
		// A readiness run is bounded by the check timeout.
		WriteTimeout: a.cfg.Probe.CheckTimeout + 5*time.Second,
	}, nil
}

// serve runs srv until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, srv *http.Server, logger observe.Logger, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "probe server listening", observe.Field{Key: "address", Value: srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("probe server: %w", err)
	case <-ctx.Done():
	}

	logger.Info(context.WithoutCancel(ctx), "shutting down probe server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

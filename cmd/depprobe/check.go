package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/depprobe/health"
	"github.com/jonwraymond/depprobe/resilience"
)

var checkFlags struct {
	live bool
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the readiness checks once",
	Long: `Run the readiness checks once and print the response body the probe
endpoint would return. Exits with status 1 when not ready, so it can back
an exec probe.

With --live, print the liveness body instead; that always succeeds.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkFlags.live, "live", false, "print liveness instead of readiness")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.WithoutCancel(ctx)) }()

	if checkFlags.live {
		return writeBody(cmd.OutOrStdout(), health.NewLivenessProbe(a.cfg.Service.Name).Check())
	}

	agg, err := a.readiness()
	if err != nil {
		return err
	}
	return checkReadiness(ctx, cmd.OutOrStdout(), agg, a.cfg.Probe.CheckTimeout)
}

// checkReadiness evaluates once and prints the wire body. Checks are each
// bounded by checkTimeout; the extra second covers reduction and output.
func checkReadiness(ctx context.Context, out io.Writer, eval health.Evaluator, checkTimeout time.Duration) error {
	var (
		report health.ReadinessReport
		status int
	)
	err := resilience.ExecuteWithTimeout(ctx, checkTimeout+time.Second, func(ctx context.Context) error {
		report, status = eval.Run(ctx)
		return nil
	})
	if err != nil {
		return fmt.Errorf("readiness check: %w", err)
	}

	if err := writeBody(out, health.NewReadinessResponse(report)); err != nil {
		return err
	}
	if status != http.StatusOK {
		return errNotReady
	}
	return nil
}

func writeBody(out io.Writer, body any) error {
	return json.NewEncoder(out).Encode(body)
}

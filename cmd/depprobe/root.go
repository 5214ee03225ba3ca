package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Global flags
var cfgFile string

// errNotReady makes the process exit 1 without printing a usage error.
var errNotReady = errors.New("not ready")

var rootCmd = &cobra.Command{
	Use:   "depprobe",
	Short: "Dependency health probes and task workers",
	Long: `depprobe answers Kubernetes liveness and readiness probes for a service
composed of PostgreSQL, Redis and a pool of background task workers.

Readiness runs three checks on every request:
  - postgres: SELECT 1 round trip
  - redis: write and read back a probe key
  - celery_workers: at least one task worker answers a broadcast`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errNotReady) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file path (optional)")
}

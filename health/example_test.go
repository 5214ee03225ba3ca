package health_test

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/depprobe/health"
)

func ExampleReadinessAggregator_Run() {
	db := health.NewCheckerFunc(health.CheckDatabase, func(ctx context.Context) error {
		return errors.New("connection refused")
	})
	cache := health.NewCheckerFunc(health.CheckCache, func(ctx context.Context) error { return nil })
	workers := health.NewCheckerFunc(health.CheckWorkerPool, func(ctx context.Context) error { return nil })

	agg, err := health.NewReadinessAggregator(db, cache, workers)
	if err != nil {
		panic(err)
	}

	report, status := agg.Run(context.Background())
	fmt.Println(status, report.Status())
	for _, e := range report.Errors {
		fmt.Println(e)
	}
	// Output:
	// 503 not_ready
	// postgres: connection refused
}

func ExampleLivenessProbe_Check() {
	probe := health.NewLivenessProbe("cgm-api")
	report := probe.Check()
	fmt.Println(report.Status, report.Service)
	// Output: alive cgm-api
}

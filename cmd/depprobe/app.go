package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/depprobe/cache"
	"github.com/jonwraymond/depprobe/config"
	"github.com/jonwraymond/depprobe/database"
	"github.com/jonwraymond/depprobe/health"
	"github.com/jonwraymond/depprobe/health/checks"
	"github.com/jonwraymond/depprobe/observe"
	"github.com/jonwraymond/depprobe/taskqueue"
)

// app holds the clients shared by the commands. Clients connect lazily, so
// building an app never touches the network.
type app struct {
	cfg    *config.Config
	obs    observe.Observer
	logger observe.Logger

	db     *database.Conn
	store  cache.Store
	broker *taskqueue.Broker
}

func databaseOptions(cfg *config.Config) database.Options {
	return database.Options{ConnectTimeout: cfg.Database.ConnectTimeout}
}

func newApp(ctx context.Context, path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe())
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}
	logger := obs.Logger()

	for field, rerr := range cfg.Unresolved() {
		logger.Warn(ctx, "configuration value could not be resolved",
			observe.Field{Key: "field", Value: field},
			observe.Field{Key: "error", Value: rerr},
		)
	}

	return &app{
		cfg:    cfg,
		obs:    obs,
		logger: logger,
		db:     database.Open(ctx, cfg.Database.DSN(), databaseOptions(cfg)),
		store:  cache.Open(cfg.Cache.URL, cache.Options{SocketTimeout: cfg.Cache.SocketTimeout}),
		broker: taskqueue.OpenBroker(cfg.Broker.URL, taskqueue.BrokerOptions{
			Namespace:     cfg.Broker.Namespace,
			SocketTimeout: cfg.Cache.SocketTimeout,
		}),
	}, nil
}

// readiness builds the aggregator over the live clients.
func (a *app) readiness() (*health.ReadinessAggregator, error) {
	inspector := taskqueue.NewInspector(a.broker, a.cfg.Probe.InspectTimeout)

	return health.NewReadinessAggregator(
		checks.NewDatabase(a.db),
		checks.NewCache(a.store),
		checks.NewWorkers(inspector, a.logger),
		health.AggregatorConfig{
			CheckTimeout: a.cfg.Probe.CheckTimeout,
			Sequential:   a.cfg.Probe.Sequential,
			Logger:       a.logger,
			Tracer:       a.obs.Tracer(),
		},
	)
}

func (a *app) Close(ctx context.Context) error {
	a.db.Close()
	errs := []error{a.store.Close(), a.broker.Close()}
	if err := a.obs.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

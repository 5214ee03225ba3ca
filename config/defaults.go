package config

import "time"

// Default values. The database and cache hosts match the in-cluster service
// names of the deployment.
const (
	DefaultServiceName    = "cgm-api"
	DefaultListenAddress  = ":8000"
	DefaultPostgresHost   = "postgres.web.svc.cluster.local"
	DefaultPostgresPort   = "5432"
	DefaultPostgresUser   = "postgres"
	DefaultPostgresPass   = "postgres"
	DefaultPostgresDB     = "cgm"
	DefaultRedisURL       = "redis://redis.web.svc.cluster.local:6379/0"
	DefaultNamespace      = "taskqueue"
	DefaultQueue          = "default"
	DefaultCheckTimeout   = 5 * time.Second
	DefaultInspectTimeout = 1 * time.Second
	DefaultSocketTimeout  = 5 * time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultConcurrency    = 4
	DefaultTaskTimeout    = 5 * time.Minute
	DefaultResultTTL      = 24 * time.Hour
)

// Defaults returns a Config with every field at its default.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:          DefaultServiceName,
			ListenAddress: DefaultListenAddress,
		},
		Database: DatabaseConfig{
			Host:     DefaultPostgresHost,
			Port:     DefaultPostgresPort,
			User:     DefaultPostgresUser,
			Password: DefaultPostgresPass,
			Name:     DefaultPostgresDB,

			ConnectTimeout: DefaultConnectTimeout,
		},
		Cache: CacheConfig{
			URL:           DefaultRedisURL,
			SocketTimeout: DefaultSocketTimeout,
		},
		Broker: BrokerConfig{
			Namespace: DefaultNamespace,
			Queue:     DefaultQueue,
		},
		Probe: ProbeConfig{
			CheckTimeout:   DefaultCheckTimeout,
			InspectTimeout: DefaultInspectTimeout,
		},
		Worker: WorkerConfig{
			Concurrency: DefaultConcurrency,
			TaskTimeout: DefaultTaskTimeout,
			ResultTTL:   DefaultResultTTL,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Tracing: TracingConfig{
			Exporter:  "none",
			SamplePct: 1.0,
		},
	}
}

package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/jonwraymond/depprobe/database"
	"github.com/jonwraymond/depprobe/observe"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config is the full depprobe configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Broker   BrokerConfig   `yaml:"broker"`
	Probe    ProbeConfig    `yaml:"probe"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
	Tracing  TracingConfig  `yaml:"tracing"`

	unresolved map[string]error
}

// ServiceConfig identifies the process and its HTTP listener.
type ServiceConfig struct {
	Name          string `yaml:"name"`
	Version       string `yaml:"version"`
	ListenAddress string `yaml:"listen_address"`
}

// DatabaseConfig describes the PostgreSQL connection. URL wins over the
// discrete fields when set.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// DSN returns the connection string for database.Open.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	if d.Host == "" {
		return ""
	}
	return database.DSN(d.Host, d.Port, d.User, d.Password, d.Name)
}

// CacheConfig describes the cache used by the readiness cache check.
type CacheConfig struct {
	URL           string        `yaml:"url"`
	SocketTimeout time.Duration `yaml:"socket_timeout"`
}

// BrokerConfig describes the task-queue broker. An empty URL falls back to
// the cache URL.
type BrokerConfig struct {
	URL       string `yaml:"url"`
	Namespace string `yaml:"namespace"`
	Queue     string `yaml:"queue"`
}

// ProbeConfig tunes readiness evaluation.
type ProbeConfig struct {
	CheckTimeout   time.Duration `yaml:"check_timeout"`
	InspectTimeout time.Duration `yaml:"inspect_timeout"`
	Sequential     bool          `yaml:"sequential"`
}

// WorkerConfig tunes the task worker.
type WorkerConfig struct {
	Name        string        `yaml:"name"`
	Concurrency int           `yaml:"concurrency"`
	TaskTimeout time.Duration `yaml:"task_timeout"`
	ResultTTL   time.Duration `yaml:"result_ttl"`
}

// LoggingConfig mirrors observe.LoggingConfig for YAML.
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Level      string `yaml:"level"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// TracingConfig mirrors observe.TracingConfig for YAML.
type TracingConfig struct {
	Exporter  string  `yaml:"exporter"`
	SamplePct float64 `yaml:"sample_pct"`
}

// Observe converts the logging and tracing sections for observe.NewObserver.
func (c *Config) Observe() observe.Config {
	exporter := c.Tracing.Exporter
	return observe.Config{
		ServiceName: c.Service.Name,
		Version:     c.Service.Version,
		Tracing: observe.TracingConfig{
			Enabled:   exporter != "" && exporter != "none",
			Exporter:  exporter,
			SamplePct: c.Tracing.SamplePct,
		},
		Logging: observe.LoggingConfig{
			Enabled:    c.Logging.Enabled,
			Level:      c.Logging.Level,
			Path:       c.Logging.Path,
			MaxSizeMB:  c.Logging.MaxSizeMB,
			MaxBackups: c.Logging.MaxBackups,
			MaxAgeDays: c.Logging.MaxAgeDays,
			Compress:   c.Logging.Compress,
		},
	}
}

// Unresolved reports descriptor fields whose ${VAR} or secretref could not
// be resolved. Those fields are left empty so the matching check fails.
func (c *Config) Unresolved() map[string]error {
	return c.unresolved
}

// Validate checks operational parameters. Connection descriptors are not
// validated here; a bad descriptor fails its readiness check instead.
func (c *Config) Validate() error {
	var errs []error

	if c.Service.Name == "" {
		errs = append(errs, errors.New("service.name is required"))
	}
	if c.Service.ListenAddress == "" {
		errs = append(errs, errors.New("service.listen_address is required"))
	}
	if c.Probe.CheckTimeout <= 0 {
		errs = append(errs, fmt.Errorf("probe.check_timeout must be positive, got %s", c.Probe.CheckTimeout))
	}
	if c.Probe.InspectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("probe.inspect_timeout must be positive, got %s", c.Probe.InspectTimeout))
	} else if c.Probe.CheckTimeout > 0 && c.Probe.InspectTimeout >= c.Probe.CheckTimeout {
		errs = append(errs, fmt.Errorf("probe.inspect_timeout (%s) must be shorter than probe.check_timeout (%s)",
			c.Probe.InspectTimeout, c.Probe.CheckTimeout))
	}
	if c.Database.ConnectTimeout <= 0 {
		errs = append(errs, fmt.Errorf("database.connect_timeout must be positive, got %s", c.Database.ConnectTimeout))
	}
	if c.Cache.SocketTimeout <= 0 {
		errs = append(errs, fmt.Errorf("cache.socket_timeout must be positive, got %s", c.Cache.SocketTimeout))
	}
	if c.Broker.Namespace == "" {
		errs = append(errs, errors.New("broker.namespace is required"))
	}
	if c.Broker.Queue == "" {
		errs = append(errs, errors.New("broker.queue is required"))
	}
	if c.Worker.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("worker.concurrency must be at least 1, got %d", c.Worker.Concurrency))
	}
	if c.Worker.TaskTimeout <= 0 {
		errs = append(errs, fmt.Errorf("worker.task_timeout must be positive, got %s", c.Worker.TaskTimeout))
	}
	if c.Worker.ResultTTL <= 0 {
		errs = append(errs, fmt.Errorf("worker.result_ttl must be positive, got %s", c.Worker.ResultTTL))
	}
	if !slices.Contains(observe.ValidLogLevels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	if !slices.Contains(observe.ValidTracingExporters, c.Tracing.Exporter) {
		errs = append(errs, fmt.Errorf("tracing.exporter %q is not one of otlp, stdout, none", c.Tracing.Exporter))
	}
	if c.Tracing.SamplePct < 0 || c.Tracing.SamplePct > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_pct must be between 0 and 1, got %v", c.Tracing.SamplePct))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration.
//
// The loading sequence is:
// 1. Load .env from the working directory if it exists
// 2. Start from Defaults
// 3. Overlay the YAML file at path, when path is not empty
// 4. Apply environment variable overrides
// 5. Resolve ${VAR} and secretref values in connection descriptors
// 6. Validate operational parameters
func Load(path string) (*Config, error) {
	// A missing .env is normal in the cluster.
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Broker.URL == "" {
		cfg.Broker.URL = cfg.Cache.URL
	}

	cfg.resolveDescriptors(context.Background(), NewResolver(FileProvider{}))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides. Unparseable
// numeric or duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("SERVICE_NAME"); val != "" {
		cfg.Service.Name = val
	}
	if val := os.Getenv("SERVICE_VERSION"); val != "" {
		cfg.Service.Version = val
	}
	if val := os.Getenv("LISTEN_ADDRESS"); val != "" {
		cfg.Service.ListenAddress = val
	}

	// Database
	if val := os.Getenv("DATABASE_URL"); val != "" {
		cfg.Database.URL = val
	}
	if val := os.Getenv("POSTGRES_DB"); val != "" {
		cfg.Database.Name = val
	}
	if val := os.Getenv("POSTGRES_USER"); val != "" {
		cfg.Database.User = val
	}
	if val := os.Getenv("POSTGRES_PASSWORD"); val != "" {
		cfg.Database.Password = val
	}
	if val := os.Getenv("POSTGRES_HOST"); val != "" {
		cfg.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		cfg.Database.Port = val
	}
	if val := os.Getenv("DB_CONNECT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Database.ConnectTimeout = d
		}
	}

	// Cache and broker
	if val := os.Getenv("REDIS_URL"); val != "" {
		cfg.Cache.URL = val
	}
	if val := os.Getenv("CELERY_BROKER_URL"); val != "" {
		cfg.Broker.URL = val
	}
	if val := os.Getenv("BROKER_URL"); val != "" {
		cfg.Broker.URL = val
	}
	if val := os.Getenv("BROKER_NAMESPACE"); val != "" {
		cfg.Broker.Namespace = val
	}

	// Probe
	if val := os.Getenv("PROBE_CHECK_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Probe.CheckTimeout = d
		}
	}
	if val := os.Getenv("PROBE_INSPECT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Probe.InspectTimeout = d
		}
	}
	if val := os.Getenv("PROBE_PARALLEL"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Probe.Sequential = !b
		}
	}

	// Worker
	if val := os.Getenv("WORKER_NAME"); val != "" {
		cfg.Worker.Name = val
	}
	if val := os.Getenv("WORKER_CONCURRENCY"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Worker.Concurrency = i
		}
	}

	// Observability
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("LOG_PATH"); val != "" {
		cfg.Logging.Path = val
	}
	if val := os.Getenv("TRACING_EXPORTER"); val != "" {
		cfg.Tracing.Exporter = val
	}
}

// resolveDescriptors expands the fields that may carry credentials. A field
// that cannot be resolved is cleared and recorded in unresolved.
func (c *Config) resolveDescriptors(ctx context.Context, r *Resolver) {
	fields := []struct {
		name string
		ptr  *string
	}{
		{"database.url", &c.Database.URL},
		{"database.password", &c.Database.Password},
		{"cache.url", &c.Cache.URL},
		{"broker.url", &c.Broker.URL},
	}

	for _, f := range fields {
		if *f.ptr == "" {
			continue
		}
		resolved, err := r.ResolveValue(ctx, *f.ptr)
		if err != nil {
			if c.unresolved == nil {
				c.unresolved = make(map[string]error)
			}
			c.unresolved[f.name] = err
			*f.ptr = ""
			if f.ptr == &c.Database.URL || f.ptr == &c.Database.Password {
				// Keep DSN from falling back to the default host.
				c.Database.URL, c.Database.Host = "", ""
			}
			continue
		}
		*f.ptr = resolved
	}
}

// Package config loads the process configuration once at startup.
//
// Values are read from FIELDSYNC_* environment variables and are immutable
// afterwards; main passes the pieces each component needs into its constructor.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full process configuration.
type Config struct {
	Server   Server   `envPrefix:"FIELDSYNC_"`
	Log      Log      `envPrefix:"FIELDSYNC_LOG_"`
	Store    Store    `envPrefix:"FIELDSYNC_DB_"`
	Redis    Redis    `envPrefix:"FIELDSYNC_REDIS_"`
	Kafka    Kafka    `envPrefix:"FIELDSYNC_KAFKA_"`
	Tracing  Tracing  `envPrefix:"FIELDSYNC_OTEL_"`
	Canvass  Canvass  `envPrefix:"FIELDSYNC_"`
	Rollup   Rollup   `envPrefix:"FIELDSYNC_ROLLUP_"`
	Ingest   Ingest   `envPrefix:"FIELDSYNC_IMPORT_"`
	Metadata Metadata `envPrefix:"FIELDSYNC_"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"ADDR" envDefault:":3001"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Log selects the slog handler.
type Log struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Store selects the member/event storage engine.
type Store struct {
	Driver string `env:"DRIVER" envDefault:"sqlite"`
	DSN    string `env:"DSN" envDefault:"fieldsync.db"`
}

// Redis configures the household member cache. An empty URL disables caching.
type Redis struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
	HouseholdTTL time.Duration `env:"HOUSEHOLD_TTL" envDefault:"30s"`
}

// Kafka configures the visit stream. No brokers disables publishing.
type Kafka struct {
	Brokers  []string `env:"BROKERS" envSeparator:","`
	Topic    string   `env:"TOPIC" envDefault:"fieldsync.visits"`
	ClientID string   `env:"CLIENT_ID" envDefault:"fieldsync"`
	// AsyncBuffer > 0 publishes from a background goroutine through a
	// buffer of this size; 0 publishes inline with the request.
	AsyncBuffer int `env:"ASYNC_BUFFER" envDefault:"1024"`
	Partitions  int `env:"PARTITIONS" envDefault:"3"`
}

// Tracing configures the OTLP exporter. An empty endpoint disables tracing.
type Tracing struct {
	Enabled     bool   `env:"ENABLED" envDefault:"true"`
	Endpoint    string `env:"ENDPOINT"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"fieldsync"`
}

// Canvass holds visit reconciliation policy.
type Canvass struct {
	SuspectDistanceMeters float64 `env:"SUSPECT_DISTANCE_METERS" envDefault:"75"`
}

// Rollup bounds household page sizes.
type Rollup struct {
	DefaultLimit int `env:"DEFAULT_LIMIT" envDefault:"200"`
	MaxLimit     int `env:"MAX_LIMIT" envDefault:"500"`
}

// Ingest bounds bulk imports.
type Ingest struct {
	MaxRowErrors int   `env:"MAX_ROW_ERRORS" envDefault:"100"`
	MaxBytes     int64 `env:"MAX_BYTES" envDefault:"52428800"`
}

// Metadata carries descriptive settings surfaced by the API.
type Metadata struct {
	Version          string `env:"VERSION" envDefault:"dev"`
	SurveyConfigPath string `env:"SURVEY_CONFIG_PATH"`
}

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Load parses the environment into a validated Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects combinations the components cannot run with.
func (c Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	if c.Store.Driver != DriverMemory && c.Store.DSN == "" {
		return fmt.Errorf("store driver %q requires FIELDSYNC_DB_DSN", c.Store.Driver)
	}
	if c.Canvass.SuspectDistanceMeters <= 0 {
		return fmt.Errorf("suspect distance must be positive, got %v", c.Canvass.SuspectDistanceMeters)
	}
	if c.Rollup.DefaultLimit <= 0 || c.Rollup.MaxLimit < c.Rollup.DefaultLimit {
		return fmt.Errorf("invalid rollup limits: default=%d max=%d", c.Rollup.DefaultLimit, c.Rollup.MaxLimit)
	}
	if c.Ingest.MaxRowErrors < 0 {
		return fmt.Errorf("max row errors must not be negative")
	}
	return nil
}

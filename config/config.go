// Package config provides unified configuration loading for bundleflow:
// defaults, then a YAML file, then environment variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("BUNDLEFLOW").
//	    Load()
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the complete bundleflow configuration.
type Config struct {
	// Server is the admin HTTP server configuration.
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Registry is the package metadata database.
	Registry RegistryConfig `yaml:"registry" env:"REGISTRY"`

	// Cache configures the local tiers.
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Fetch configures remote bundle downloads.
	Fetch FetchConfig `yaml:"fetch" env:"FETCH"`

	// Runtime configures bundle materialization.
	Runtime RuntimeConfig `yaml:"runtime" env:"RUNTIME"`

	// Preload lists package keys warmed at startup.
	Preload PreloadConfig `yaml:"preload" env:"PRELOAD"`

	// Log is the zap logger configuration.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry is the OpenTelemetry configuration.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" env:"ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// RegistryConfig configures the metadata registry database.
type RegistryConfig struct {
	// Driver is one of "postgres", "mysql", "sqlite".
	Driver string `yaml:"driver" env:"DRIVER"`
	// DSN is the driver-specific connection string.
	DSN string `yaml:"dsn" env:"DSN"`

	// Connection pool tuning. Zero values keep the driver defaults.
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// CacheConfig configures the local cache tiers.
type CacheConfig struct {
	// Dir is the disk tier root. Safe to delete entirely.
	Dir string `yaml:"dir" env:"DIR"`
}

// FetchConfig configures remote bundle downloads.
type FetchConfig struct {
	Timeout        time.Duration `yaml:"timeout" env:"TIMEOUT"`
	MaxBundleBytes int64         `yaml:"max_bundle_bytes" env:"MAX_BUNDLE_BYTES"`
	RatePerSecond  float64       `yaml:"rate_per_second" env:"RATE_PER_SECOND"`
	RateBurst      int           `yaml:"rate_burst" env:"RATE_BURST"`

	// Redis, when set, serves redis:// bundle locations.
	Redis RedisConfig `yaml:"redis" env:"REDIS"`
}

// RedisConfig configures the optional redis-backed bundle store.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled" env:"ENABLED"`
	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`
}

// RuntimeConfig configures bundle materialization.
type RuntimeConfig struct {
	// Format is "manifest" or "plugin".
	Format string `yaml:"format" env:"FORMAT"`
	// LibDir is where the plugin materializer writes transient artifacts.
	LibDir string `yaml:"lib_dir" env:"LIB_DIR"`
}

// PreloadConfig lists packages warmed at startup.
type PreloadConfig struct {
	Keys        []string `yaml:"keys" env:"KEYS"`
	Concurrency int      `yaml:"concurrency" env:"CONCURRENCY"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LEVEL"`
	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`
	// OutputPaths are zap output sinks.
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// TelemetryConfig configures the OpenTelemetry SDK.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	// Environment tags exported telemetry with the deployment environment,
	// e.g. "development", "staging", "production".
	Environment string  `yaml:"environment" env:"ENVIRONMENT"`
	SampleRate  float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RateLimitRPS:    100,
			RateLimitBurst:  200,
		},
		Registry: RegistryConfig{
			Driver:          "sqlite",
			DSN:             "bundleflow.db",
			MaxIdleConns:    10,
			MaxOpenConns:    50,
			ConnMaxLifetime: time.Hour,
		},
		Cache: CacheConfig{
			Dir: "/var/cache/bundleflow",
		},
		Fetch: FetchConfig{
			Timeout:        30 * time.Second,
			MaxBundleBytes: 64 << 20,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Runtime: RuntimeConfig{
			Format: "manifest",
			LibDir: "/var/lib/bundleflow",
		},
		Preload: PreloadConfig{
			Concurrency: 4,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stdout"},
		},
		Telemetry: TelemetryConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			ServiceName:  "bundleflow",
			Environment:  "development",
			SampleRate:   1.0,
		},
	}
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Addr == "" {
		errs = append(errs, "server addr must not be empty")
	}
	switch c.Registry.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("unsupported registry driver %q", c.Registry.Driver))
	}
	if c.Cache.Dir == "" {
		errs = append(errs, "cache dir must not be empty")
	}
	switch c.Runtime.Format {
	case "manifest", "plugin":
	default:
		errs = append(errs, fmt.Sprintf("unsupported runtime format %q", c.Runtime.Format))
	}
	if c.Runtime.Format == "plugin" && c.Runtime.LibDir == "" {
		errs = append(errs, "runtime lib_dir required for plugin format")
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, "fetch timeout must be positive")
	}
	if c.Preload.Concurrency < 1 {
		errs = append(errs, "preload concurrency must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return nil
}

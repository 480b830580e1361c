// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/00aj99/Hauk/internal/kv"
	"github.com/00aj99/Hauk/internal/sharing/service"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// GRPCAddr is the address the device API listens on (e.g. :8080).
	GRPCAddr string `mapstructure:"GRPC_ADDR"`
	// HTTPAddr is the address of the viewer API, /healthz and /metrics (e.g. :8081).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`

	// StorageBackend is one of memory, memcached, redis, postgres.
	StorageBackend string `mapstructure:"STORAGE_BACKEND"`
	MemcachedHost  string `mapstructure:"MEMCACHED_HOST"`
	MemcachedPort  int    `mapstructure:"MEMCACHED_PORT"`
	RedisHost      string `mapstructure:"REDIS_HOST"`
	RedisPort      int    `mapstructure:"REDIS_PORT"`
	RedisAuth      string `mapstructure:"REDIS_AUTH"`
	RedisDB        int    `mapstructure:"REDIS_DB"`
	// KeyPrefix namespaces every key written to the store.
	KeyPrefix string `mapstructure:"KEY_PREFIX"`
	// DatabaseURL is the Postgres DSN; required when StorageBackend is postgres.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// StoreTimeout bounds the store reachability check and each request's store work (e.g. "10s").
	StoreTimeout string `mapstructure:"STORE_TIMEOUT"`

	// MaxDuration is the longest share a client may request, in seconds.
	MaxDuration int `mapstructure:"MAX_DURATION"`
	// MinInterval is the shortest push interval a client may request, in seconds.
	MinInterval int `mapstructure:"MIN_INTERVAL"`
	// MaxCachedPoints caps each session's point history.
	MaxCachedPoints int `mapstructure:"MAX_CACHED_PTS"`
	// PublicURL is the base of view links; a link is PublicURL + "?" + share ID.
	PublicURL string `mapstructure:"PUBLIC_URL"`
	// IDMaxAttempts bounds identifier collision probing.
	IDMaxAttempts int `mapstructure:"ID_MAX_ATTEMPTS"`

	// Env is the application environment (e.g. "development", "production").
	// The memory backend is refused in production.
	Env string `mapstructure:"APP_ENV"`

	// OTLPEndpoint is the OTLP gRPC collector (e.g. localhost:4317). Empty keeps telemetry in-process.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure disables TLS to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`

	// Telemetry (optional). When Kafka brokers are set, the server publishes lifecycle events to Kafka.
	// TelemetryKafkaBrokers is a comma-separated list of Kafka broker addresses (e.g. "localhost:9092").
	TelemetryKafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// TelemetryKafkaTopic is the Kafka topic for lifecycle events (default hauk-telemetry).
	TelemetryKafkaTopic string `mapstructure:"TELEMETRY_KAFKA_TOPIC"`

	// Worker-only: Loki URL for the telemetry worker to push logs (e.g. http://localhost:3100).
	LokiURL string `mapstructure:"LOKI_URL"`
	// KafkaGroupID is the consumer group ID for the telemetry worker.
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("HTTP_ADDR", ":8081")
	v.SetDefault("STORAGE_BACKEND", kv.BackendMemcached)
	v.SetDefault("MEMCACHED_HOST", "localhost")
	v.SetDefault("MEMCACHED_PORT", 11211)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_AUTH", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("KEY_PREFIX", "hauk")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("STORE_TIMEOUT", "10s")
	v.SetDefault("MAX_DURATION", 86400)
	v.SetDefault("MIN_INTERVAL", 1)
	v.SetDefault("MAX_CACHED_PTS", 3)
	v.SetDefault("PUBLIC_URL", "http://localhost:8081/")
	v.SetDefault("ID_MAX_ATTEMPTS", 16)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("TELEMETRY_KAFKA_TOPIC", "hauk-telemetry")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("LOKI_URL", "")
	v.SetDefault("KAFKA_GROUP_ID", "hauk-telemetry-worker")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GRPCAddr == "" {
		return errors.New("config: GRPC_ADDR must be set")
	}
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	switch c.StorageBackend {
	case kv.BackendMemory:
		if c.Env == "production" {
			return errors.New("config: STORAGE_BACKEND=memory must not be used when APP_ENV=production")
		}
	case kv.BackendMemcached, kv.BackendRedis:
	case kv.BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set when STORAGE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}
	if c.MaxCachedPoints < 1 {
		return errors.New("config: MAX_CACHED_PTS must be at least 1")
	}
	if c.MinInterval < 1 {
		return errors.New("config: MIN_INTERVAL must be at least 1")
	}
	if c.MaxDuration < c.MinInterval {
		return errors.New("config: MAX_DURATION must not be less than MIN_INTERVAL")
	}
	if c.IDMaxAttempts < 1 {
		return errors.New("config: ID_MAX_ATTEMPTS must be at least 1")
	}
	if d, err := time.ParseDuration(c.StoreTimeout); err != nil || d <= 0 {
		return fmt.Errorf("config: STORE_TIMEOUT %q is not a positive duration", c.StoreTimeout)
	}
	return nil
}

// Limits returns the client-facing bounds passed to the sharing service.
func (c *Config) Limits() service.Limits {
	return service.Limits{
		MaxDuration: time.Duration(c.MaxDuration) * time.Second,
		MinInterval: time.Duration(c.MinInterval) * time.Second,
		MaxPoints:   c.MaxCachedPoints,
		PublicURL:   c.PublicURL,
	}
}

// RequestTimeout parses StoreTimeout as a time.Duration. Returns 10s if unset or invalid.
func (c *Config) RequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.StoreTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// StoreOptions returns the options for kv.Open.
func (c *Config) StoreOptions() kv.Options {
	return kv.Options{
		Backend:       c.StorageBackend,
		MemcachedAddr: net.JoinHostPort(c.MemcachedHost, strconv.Itoa(c.MemcachedPort)),
		RedisAddr:     net.JoinHostPort(c.RedisHost, strconv.Itoa(c.RedisPort)),
		RedisPassword: c.RedisAuth,
		RedisDB:       c.RedisDB,
		DatabaseURL:   c.DatabaseURL,
		Timeout:       c.RequestTimeout(),
	}
}

// TelemetryKafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if telemetry is enabled (non-empty list) and to create the producer.
func (c *Config) TelemetryKafkaBrokersList() []string {
	if c == nil || c.TelemetryKafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.TelemetryKafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

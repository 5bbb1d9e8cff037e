package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Prefix is the environment variable prefix, e.g. CARE_SERVICE_HTTP_PORT.
const Prefix = "CARE_SERVICE"

// Config holds the configuration for the care service and the recommendation worker.
type Config struct {
	// Build target selects high-level environment: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"cloud-dev"`

	// auto, postgres, sqlite or memory; auto derives from BuildTarget
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:""`

	// Weather upstream: openweathermap or none
	WeatherProvider        string `envconfig:"WEATHER_PROVIDER" default:"none"`
	WeatherAPIKey          string `envconfig:"WEATHER_API_KEY" default:""`
	WeatherBaseURL         string `envconfig:"WEATHER_BASE_URL" default:"https://api.openweathermap.org"`
	WeatherDefaultLocation string `envconfig:"WEATHER_DEFAULT_LOCATION" default:""`
	WeatherTimeoutSeconds  int    `envconfig:"WEATHER_TIMEOUT_SECONDS" default:"5"`
	WeatherCacheTTLSeconds int    `envconfig:"WEATHER_CACHE_TTL_SECONDS" default:"600"`

	// Redis caches weather snapshots when set
	RedisAddr string `envconfig:"REDIS_ADDR" default:""`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`

	// Default hemisphere for users without one: north or south
	Hemisphere string `envconfig:"HEMISPHERE" default:"north"`

	GenerateConcurrency     int `envconfig:"GENERATE_CONCURRENCY" default:"4"`
	GenerateIntervalMinutes int `envconfig:"GENERATE_INTERVAL_MINUTES" default:"60"`
	SweepIntervalMinutes    int `envconfig:"SWEEP_INTERVAL_MINUTES" default:"15"`
	FeedDefaultLimit        int `envconfig:"FEED_DEFAULT_LIMIT" default:"20"`

	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"30"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`
}

// ResolveDefaults validates BuildTarget and derives DBDriver and SQLitePath when left on auto.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "cloud-dev", "cloud":
		defaultDB = "postgres"
	case "local":
		defaultDB = "sqlite"
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}
	allowedDB := map[string]bool{"postgres": true, "sqlite": true, "memory": true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "sqlite" && c.SQLitePath == "" {
		c.SQLitePath = "./data/care.db"
	}

	c.WeatherProvider = strings.ToLower(c.WeatherProvider)
	switch c.WeatherProvider {
	case "", "none":
		c.WeatherProvider = "none"
	case "openweathermap":
		if c.WeatherAPIKey == "" {
			return fmt.Errorf("WEATHER_API_KEY is required for WEATHER_PROVIDER=openweathermap")
		}
	default:
		return fmt.Errorf("unsupported WEATHER_PROVIDER: %s", c.WeatherProvider)
	}

	c.Hemisphere = strings.ToLower(c.Hemisphere)
	if c.Hemisphere != "north" && c.Hemisphere != "south" {
		return fmt.Errorf("unsupported HEMISPHERE: %s", c.Hemisphere)
	}
	if c.GenerateConcurrency < 1 {
		c.GenerateConcurrency = 1
	}
	if c.FeedDefaultLimit < 1 {
		c.FeedDefaultLimit = 20
	}
	return nil
}

// New creates a new Config by parsing environment variables prefixed with CARE_SERVICE_.
// Example: CARE_SERVICE_HTTP_PORT, CARE_SERVICE_POSTGRES_DSN
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Str("sqlite_path", cfg.SQLitePath).
		Str("weather_provider", cfg.WeatherProvider).
		Bool("weather_cache", cfg.RedisAddr != "").
		Str("hemisphere", cfg.Hemisphere).
		Int("generate_concurrency", cfg.GenerateConcurrency).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config specifically for testing
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "local",
		DBDriver:                  "memory",
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8080,
		WeatherProvider:           "none",
		WeatherTimeoutSeconds:     1,
		WeatherCacheTTLSeconds:    60,
		Hemisphere:                "north",
		GenerateConcurrency:       2,
		GenerateIntervalMinutes:   60,
		SweepIntervalMinutes:      15,
		FeedDefaultLimit:          20,
		HealthIntervalSeconds:     1,
		HealthProbeTimeoutSeconds: 1,
		BootstrapTimeoutSeconds:   1,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

func (c *Config) WeatherTimeout() time.Duration     { return seconds(c.WeatherTimeoutSeconds, 5) }
func (c *Config) WeatherCacheTTL() time.Duration    { return seconds(c.WeatherCacheTTLSeconds, 600) }
func (c *Config) HealthInterval() time.Duration     { return seconds(c.HealthIntervalSeconds, 30) }
func (c *Config) HealthProbeTimeout() time.Duration { return seconds(c.HealthProbeTimeoutSeconds, 2) }
func (c *Config) BootstrapTimeout() time.Duration   { return seconds(c.BootstrapTimeoutSeconds, 5) }
func (c *Config) GenerateInterval() time.Duration {
	return seconds(c.GenerateIntervalMinutes, 60) * 60
}
func (c *Config) SweepInterval() time.Duration {
	return seconds(c.SweepIntervalMinutes, 15) * 60
}

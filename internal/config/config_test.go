package config

import (
	"testing"
	"time"
)

func TestConfigLoad_Defaults(t *testing.T) {
	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "postgres" || cfg.HTTPPort != 8080 || cfg.WeatherProvider != "none" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.GenerateConcurrency != 4 || cfg.FeedDefaultLimit != 20 || cfg.Hemisphere != "north" {
		t.Fatalf("unexpected engine defaults: %+v", cfg)
	}
	if cfg.WeatherTimeout() != 5*time.Second || cfg.WeatherCacheTTL() != 10*time.Minute {
		t.Fatalf("unexpected weather durations: %v %v", cfg.WeatherTimeout(), cfg.WeatherCacheTTL())
	}
	if cfg.GenerateInterval() != time.Hour || cfg.SweepInterval() != 15*time.Minute {
		t.Fatalf("unexpected worker intervals: %v %v", cfg.GenerateInterval(), cfg.SweepInterval())
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	t.Setenv("CARE_SERVICE_BUILD_TARGET", "local")
	t.Setenv("CARE_SERVICE_HTTP_PORT", "9191")
	t.Setenv("CARE_SERVICE_HEMISPHERE", "SOUTH")
	t.Setenv("CARE_SERVICE_GENERATE_CONCURRENCY", "0")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.SQLitePath == "" {
		t.Fatalf("local target must default to sqlite with a path, got %s %q", cfg.DBDriver, cfg.SQLitePath)
	}
	if cfg.GetHTTPAddr() != ":9191" {
		t.Fatalf("port override failed: %s", cfg.GetHTTPAddr())
	}
	if cfg.Hemisphere != "south" {
		t.Fatalf("hemisphere not normalised: %s", cfg.Hemisphere)
	}
	if cfg.GenerateConcurrency != 1 {
		t.Fatalf("concurrency must be clamped to 1, got %d", cfg.GenerateConcurrency)
	}
}

func TestResolveDefaults_Rejects(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*Config)
	}{
		{"build target", func(c *Config) { c.BuildTarget = "mainframe" }},
		{"db driver", func(c *Config) { c.DBDriver = "spanner" }},
		{"weather provider", func(c *Config) { c.WeatherProvider = "darksky" }},
		{"weather key", func(c *Config) { c.WeatherProvider = "openweathermap" }},
		{"hemisphere", func(c *Config) { c.Hemisphere = "east" }},
	}
	for _, tc := range cases {
		cfg := NewForTesting()
		tc.mut(cfg)
		if err := cfg.ResolveDefaults(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	if !cfg.IsTesting() || cfg.IsProduction() {
		t.Fatalf("expected testing environment")
	}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("testing config must resolve: %v", err)
	}
	if cfg.DBDriver != "memory" {
		t.Fatalf("testing config must keep memory driver, got %s", cfg.DBDriver)
	}
}

package config

import (
	"os"
	"testing"
)

func TestLoad_RequiresUpstreamBaseURL(t *testing.T) {
	os.Unsetenv("UPSTREAM_BASE_URL")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when UPSTREAM_BASE_URL is missing")
	}
}

func TestLoad_WithUpstreamBaseURL(t *testing.T) {
	os.Setenv("UPSTREAM_BASE_URL", "http://127.0.0.1:8000")
	defer os.Unsetenv("UPSTREAM_BASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.UpstreamBaseURL != "http://127.0.0.1:8000" {
		t.Errorf("expected UPSTREAM_BASE_URL to be set, got %s", cfg.UpstreamBaseURL)
	}

	if cfg.Port != "8090" {
		t.Errorf("expected default port 8090, got %s", cfg.Port)
	}

	if cfg.BatchWindowMs != 200 {
		t.Errorf("expected default batch window 200ms, got %d", cfg.BatchWindowMs)
	}

	if cfg.DashboardRangeDays != 30 {
		t.Errorf("expected default dashboard range 30 days, got %d", cfg.DashboardRangeDays)
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	os.Setenv("UPSTREAM_BASE_URL", "http://gateway:8000")
	os.Setenv("BATCH_WINDOW_MS", "0")
	defer os.Unsetenv("UPSTREAM_BASE_URL")
	defer os.Unsetenv("BATCH_WINDOW_MS")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for BATCH_WINDOW_MS=0")
	}

	os.Setenv("BATCH_WINDOW_MS", "200")
	os.Setenv("HTTP_TIMEOUT_SECONDS", "0")
	defer os.Unsetenv("HTTP_TIMEOUT_SECONDS")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for HTTP_TIMEOUT_SECONDS=0")
	}
}

func TestLoad_OverridesFromEnv(t *testing.T) {
	os.Setenv("UPSTREAM_BASE_URL", "http://gateway:8000")
	os.Setenv("BATCH_WINDOW_MS", "500")
	defer os.Unsetenv("UPSTREAM_BASE_URL")
	defer os.Unsetenv("BATCH_WINDOW_MS")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.BatchWindowMs != 500 {
		t.Errorf("expected batch window 500ms, got %d", cfg.BatchWindowMs)
	}
}

func TestConfig_IsDev(t *testing.T) {
	c := &Config{Env: "development"}
	if !c.IsDev() {
		t.Error("expected IsDev() to return true for development")
	}

	c.Env = "production"
	if c.IsDev() {
		t.Error("expected IsDev() to return false for production")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := &Config{
		UpstreamBaseURL:    "http://127.0.0.1:8000",
		BatchWindowMs:      200,
		DashboardRangeDays: 30,
		HTTPTimeoutSec:     30,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing upstream", func(c *Config) { c.UpstreamBaseURL = "" }},
		{"zero batch window", func(c *Config) { c.BatchWindowMs = 0 }},
		{"negative batch window", func(c *Config) { c.BatchWindowMs = -1 }},
		{"zero range days", func(c *Config) { c.DashboardRangeDays = 0 }},
		{"zero http timeout", func(c *Config) { c.HTTPTimeoutSec = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := *valid
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	c := &Config{BatchWindowMs: 200, AggregateIntervalSec: 60, HTTPTimeoutSec: 30}

	if c.BatchWindow().Milliseconds() != 200 {
		t.Errorf("expected 200ms batch window, got %v", c.BatchWindow())
	}
	if c.AggregateInterval().Seconds() != 60 {
		t.Errorf("expected 60s aggregate interval, got %v", c.AggregateInterval())
	}
	if c.HTTPTimeout().Seconds() != 30 {
		t.Errorf("expected 30s http timeout, got %v", c.HTTPTimeout())
	}
}

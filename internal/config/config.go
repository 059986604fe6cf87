package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string   `mapstructure:"PORT"`
	Env                  string   `mapstructure:"ENV"`
	UpstreamBaseURL      string   `mapstructure:"UPSTREAM_BASE_URL"`
	FeedURL              string   `mapstructure:"FEED_URL"`
	BatchWindowMs        int      `mapstructure:"BATCH_WINDOW_MS"`
	DashboardRangeDays   int      `mapstructure:"DASHBOARD_RANGE_DAYS"`
	AggregateIntervalSec int      `mapstructure:"AGGREGATE_INTERVAL_SECONDS"`
	HTTPTimeoutSec       int      `mapstructure:"HTTP_TIMEOUT_SECONDS"`
	CORSOrigins          []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8090")
	v.SetDefault("ENV", "development")
	v.SetDefault("BATCH_WINDOW_MS", 200)
	v.SetDefault("DASHBOARD_RANGE_DAYS", 30)
	v.SetDefault("AGGREGATE_INTERVAL_SECONDS", 60)
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ORIGINS", "http://localhost:4200")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("UPSTREAM_BASE_URL")
	v.BindEnv("FEED_URL")
	v.BindEnv("BATCH_WINDOW_MS")
	v.BindEnv("DASHBOARD_RANGE_DAYS")
	v.BindEnv("AGGREGATE_INTERVAL_SECONDS")
	v.BindEnv("HTTP_TIMEOUT_SECONDS")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// BatchWindow returns the real-time batching window as a duration.
func (c *Config) BatchWindow() time.Duration {
	return time.Duration(c.BatchWindowMs) * time.Millisecond
}

// AggregateInterval returns the periodic re-aggregation interval.
func (c *Config) AggregateInterval() time.Duration {
	return time.Duration(c.AggregateIntervalSec) * time.Second
}

// HTTPTimeout returns the upstream HTTP client timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSec) * time.Second
}

// Validate checks that the configuration is safe to run. The batching window
// must be positive, and the dashboard range must cover at least one day so
// the default chart load has something to aggregate.
func (c *Config) Validate() error {
	if c.UpstreamBaseURL == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if c.BatchWindowMs <= 0 {
		return fmt.Errorf("BATCH_WINDOW_MS must be positive, got %d", c.BatchWindowMs)
	}
	if c.DashboardRangeDays < 1 {
		return fmt.Errorf("DASHBOARD_RANGE_DAYS must be at least 1, got %d", c.DashboardRangeDays)
	}
	if c.HTTPTimeoutSec <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTPTimeoutSec)
	}
	return nil
}

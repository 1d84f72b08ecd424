// Package config handles configuration loading from file and environment.
package config

import (
	"fmt"
	"time"

	"postpilot/internal/schedule"

	"github.com/spf13/viper"
)

// Config holds all configuration values for the application.
type Config struct {
	// DataDir is where the record and history files live.
	DataDir string

	// PollInterval is the delay between daemon execution passes.
	PollInterval time.Duration

	// DryRun makes the daemon simulate publishing without calling the API.
	DryRun bool

	// SummaryLimit is how many upcoming posts the status report previews.
	SummaryLimit int

	// X API credentials. An empty bearer token means no publisher is
	// configured; due posts then finish as no_publisher.
	XBearerToken       string
	XBaseURL           string
	XRequestsPerMinute int

	// MetricsPort is where the daemon serves Prometheus metrics.
	MetricsPort int

	// OTELEndpoint is the OTLP collector address for traces.
	OTELEndpoint string

	// Slots overrides the built-in peak-time slot table.
	Slots schedule.Table
}

// Load reads configuration from an optional YAML file and environment
// variables prefixed POSTPILOT_. Environment values override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", "data")
	v.SetDefault("poll_interval", "1m")
	v.SetDefault("dry_run", false)
	v.SetDefault("summary_limit", 3)
	v.SetDefault("x_base_url", "https://api.x.com")
	v.SetDefault("x_requests_per_minute", 10)
	v.SetDefault("metrics_port", 6171)
	v.SetDefault("otel_endpoint", "localhost:4317")

	v.SetEnvPrefix("POSTPILOT")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("postpilot")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		// Config file in the working directory is optional.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	pollInterval, err := time.ParseDuration(v.GetString("poll_interval"))
	if err != nil {
		return nil, fmt.Errorf("invalid poll_interval: %w", err)
	}
	if pollInterval <= 0 {
		return nil, fmt.Errorf("poll_interval must be positive")
	}

	slots := schedule.DefaultTable()
	if v.IsSet("slots") {
		var custom schedule.Table
		if err := v.UnmarshalKey("slots", &custom); err != nil {
			return nil, fmt.Errorf("invalid slots: %w", err)
		}
		if err := custom.Validate(); err != nil {
			return nil, fmt.Errorf("invalid slots: %w", err)
		}
		slots = custom
	}

	return &Config{
		DataDir:            v.GetString("data_dir"),
		PollInterval:       pollInterval,
		DryRun:             v.GetBool("dry_run"),
		SummaryLimit:       v.GetInt("summary_limit"),
		XBearerToken:       v.GetString("x_bearer_token"),
		XBaseURL:           v.GetString("x_base_url"),
		XRequestsPerMinute: v.GetInt("x_requests_per_minute"),
		MetricsPort:        v.GetInt("metrics_port"),
		OTELEndpoint:       v.GetString("otel_endpoint"),
		Slots:              slots,
	}, nil
}

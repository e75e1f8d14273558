// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// For required credentials (YouTube Data API), use ValidateMonitorReady.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	// YouTube
	ChannelID      string
	APIKey         string
	TokenFile      string
	YTClientID     string
	YTClientSecret string

	// Monitoring cadence
	SearchInterval time.Duration

	// Chat recorder sidecar
	ChatRecorderBin string
	ChatStopGrace   time.Duration

	// Post-processing
	MinDuration  time.Duration
	ScheduleURL  string
	SiteBuildBin string

	// Artifact optimizers (best-effort; empty disables)
	SVGOptimizerBin string
	PNGOptimizerBin string

	// Storage
	DataDir string
}

// Load reads environment variables and applies defaults. It doesn't fail if YouTube creds are
// missing; use ValidateMonitorReady() when you require the live poller. Missing optional
// variables disable features (e.g., site rebuild, artifact optimization).
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ChannelID = os.Getenv("YT_CHANNEL_ID")
	cfg.APIKey = os.Getenv("YT_API_KEY")
	cfg.TokenFile = os.Getenv("YT_TOKEN_FILE")
	cfg.YTClientID = os.Getenv("YT_CLIENT_ID")
	cfg.YTClientSecret = os.Getenv("YT_CLIENT_SECRET")

	cfg.SearchInterval = 60 * time.Second
	if v := os.Getenv("SEARCH_POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SEARCH_POLL_INTERVAL: %q", v)
		}
		cfg.SearchInterval = d
	}

	cfg.ChatRecorderBin = os.Getenv("CHAT_RECORDER_BIN")
	if cfg.ChatRecorderBin == "" {
		cfg.ChatRecorderBin = "record-live-chat"
	}
	cfg.ChatStopGrace = 5 * time.Second
	if v := os.Getenv("CHAT_STOP_GRACE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid CHAT_STOP_GRACE: %q", v)
		}
		cfg.ChatStopGrace = d
	}

	cfg.MinDuration = 15 * time.Minute
	if v := os.Getenv("MIN_STREAM_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid MIN_STREAM_DURATION: %q", v)
		}
		cfg.MinDuration = d
	}

	cfg.ScheduleURL = os.Getenv("SCHEDULE_URL")
	if cfg.ScheduleURL == "" {
		cfg.ScheduleURL = "https://snh48live.org/api/schedule.json"
	}
	cfg.SiteBuildBin = os.Getenv("SITE_BUILD_BIN")

	cfg.SVGOptimizerBin = os.Getenv("SVG_OPTIMIZER_BIN")
	if cfg.SVGOptimizerBin == "" {
		cfg.SVGOptimizerBin = "svgo"
	}
	cfg.PNGOptimizerBin = os.Getenv("PNG_OPTIMIZER_BIN")
	if cfg.PNGOptimizerBin == "" {
		cfg.PNGOptimizerBin = "zopflipng"
	}

	cfg.DataDir = os.Getenv("DATA_DIR")
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	return cfg, nil
}

// ValidateMonitorReady checks required fields for the live poller.
func (c *Config) ValidateMonitorReady() error {
	if c.ChannelID == "" {
		return fmt.Errorf("missing env: require YT_CHANNEL_ID")
	}
	if c.APIKey == "" && c.TokenFile == "" {
		return fmt.Errorf("missing credentials: require YT_API_KEY or YT_TOKEN_FILE")
	}
	return nil
}

// Derived artifact locations under DataDir.

func (c *Config) SeriesDir() string   { return filepath.Join(c.DataDir, "logs") }
func (c *Config) PlotDir() string     { return filepath.Join(c.DataDir, "plots") }
func (c *Config) MetadataDir() string { return filepath.Join(c.DataDir, "streams") }
func (c *Config) IndexPath() string   { return filepath.Join(c.DataDir, "index.txt") }

package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"YT_CHANNEL_ID", "YT_API_KEY", "YT_TOKEN_FILE", "SEARCH_POLL_INTERVAL", "CHAT_STOP_GRACE", "MIN_STREAM_DURATION", "SCHEDULE_URL", "DATA_DIR", "CHAT_RECORDER_BIN"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SearchInterval != 60*time.Second {
		t.Errorf("SearchInterval = %v, want 60s", cfg.SearchInterval)
	}
	if cfg.ChatStopGrace != 5*time.Second {
		t.Errorf("ChatStopGrace = %v, want 5s", cfg.ChatStopGrace)
	}
	if cfg.MinDuration != 15*time.Minute {
		t.Errorf("MinDuration = %v, want 15m", cfg.MinDuration)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", cfg.DataDir)
	}
	if cfg.ChatRecorderBin != "record-live-chat" {
		t.Errorf("ChatRecorderBin = %q", cfg.ChatRecorderBin)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SEARCH_POLL_INTERVAL", "90s")
	t.Setenv("MIN_STREAM_DURATION", "10m")
	t.Setenv("DATA_DIR", "/var/lib/livestreams")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SearchInterval != 90*time.Second {
		t.Errorf("SearchInterval = %v, want 90s", cfg.SearchInterval)
	}
	if cfg.MinDuration != 10*time.Minute {
		t.Errorf("MinDuration = %v, want 10m", cfg.MinDuration)
	}
	if got, want := cfg.SeriesDir(), filepath.Join("/var/lib/livestreams", "logs"); got != want {
		t.Errorf("SeriesDir = %q, want %q", got, want)
	}
	if got, want := cfg.IndexPath(), filepath.Join("/var/lib/livestreams", "index.txt"); got != want {
		t.Errorf("IndexPath = %q, want %q", got, want)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("SEARCH_POLL_INTERVAL", "soon")
	if _, err := Load(); err == nil {
		t.Error("expected error for invalid SEARCH_POLL_INTERVAL")
	}
}

func TestValidateMonitorReady(t *testing.T) {
	cfg := &Config{}
	if err := cfg.ValidateMonitorReady(); err == nil {
		t.Error("expected error with no channel")
	}
	cfg.ChannelID = "UCChannel"
	if err := cfg.ValidateMonitorReady(); err == nil {
		t.Error("expected error with no credentials")
	}
	cfg.APIKey = "key"
	if err := cfg.ValidateMonitorReady(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

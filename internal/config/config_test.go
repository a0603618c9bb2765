package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if got := cfg.Schedule.ParseCollectInterval(); got != 6*time.Hour {
		t.Errorf("collect interval = %s, want 6h", got)
	}
	if got := cfg.Schedule.ParseRescoreInterval(); got != 12*time.Hour {
		t.Errorf("rescore interval = %s, want 12h", got)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
database:
  path: /tmp/custom.db
schedule:
  collect_interval: 1h
server:
  port: 9090
sources:
  mock:
    enabled: true
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/tmp/custom.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Schedule.ParseCollectInterval() != time.Hour {
		t.Errorf("collect interval = %s, want 1h", cfg.Schedule.ParseCollectInterval())
	}
	if !cfg.Sources.Mock.Enabled {
		t.Error("mock source not enabled")
	}
	// Unset fields keep defaults.
	if !cfg.Sources.CPSC.Enabled {
		t.Error("cpsc default lost on partial file")
	}
	if cfg.Schedule.ParseRescoreInterval() != 12*time.Hour {
		t.Errorf("rescore interval = %s, want default 12h", cfg.Schedule.ParseRescoreInterval())
	}
}

func TestLoadRejectsInvalidEngineParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
engine:
  cluster_threshold: 1.5
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for out-of-range similarity threshold")
	}
	if !strings.Contains(err.Error(), "engine config") {
		t.Errorf("error = %v, want engine config context", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RELFEED_DB_PATH", "/tmp/env.db")
	t.Setenv("REDDIT_CLIENT_ID", "abc123")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.com/services/T/B/X")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if !cfg.Sources.Reddit.Enabled || cfg.Sources.Reddit.ClientID != "abc123" {
		t.Errorf("reddit = %+v, want enabled with env client id", cfg.Sources.Reddit)
	}
	if !cfg.Alerts.Slack.Enabled {
		t.Error("slack alerts not enabled by env webhook")
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

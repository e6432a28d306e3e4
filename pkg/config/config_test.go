package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
environment: test
scanner:
  feed_url: https://feed.example.com/flow
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RateLimit.MaxRequests != 100 || cfg.RateLimit.Window != time.Minute {
		t.Fatalf("rate limit defaults: %+v", cfg.RateLimit)
	}
	if cfg.Scanner.Interval != 5*time.Minute || cfg.Scanner.Retention != 24*time.Hour {
		t.Fatalf("scanner defaults: %+v", cfg.Scanner)
	}
	if cfg.Stream.MaxAttempts != 5 {
		t.Fatalf("stream defaults: %+v", cfg.Stream)
	}
	if cfg.Backend.Type != "memory" {
		t.Fatalf("backend default: %s", cfg.Backend.Type)
	}
	if cfg.Dashboard.TopN != 10 {
		t.Fatalf("dashboard default: %d", cfg.Dashboard.TopN)
	}
}

func TestLoadRejectsInvalidBackend(t *testing.T) {
	bad := minimalConfig + "backend:\n  type: cassandra\n"
	if _, err := Load(writeConfig(t, bad)); err == nil {
		t.Fatalf("invalid backend must fail validation")
	}
}

func TestLoadRejectsMissingFeedURL(t *testing.T) {
	if _, err := Load(writeConfig(t, "environment: test\n")); err == nil {
		t.Fatalf("missing feed url must fail validation")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("BACKEND", "memory")
	t.Setenv("FLOW_FEED_URL", "https://override.example.com/flow")
	t.Setenv("PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := LoadWithEnv(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scanner.FeedURL != "https://override.example.com/flow" {
		t.Fatalf("feed url override: %s", cfg.Scanner.FeedURL)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("port override: %d", cfg.Server.Port)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[0] != "k1:9092" {
		t.Fatalf("broker override: %v", cfg.Kafka.Brokers)
	}
}

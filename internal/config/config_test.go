package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "http://api.open-notify.org" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Fatalf("HTTPTimeout = %v", cfg.HTTPTimeout)
	}
	if cfg.PollInterval != time.Minute {
		t.Fatalf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.StorageTTL != 7*24*time.Hour {
		t.Fatalf("StorageTTL = %v", cfg.StorageTTL)
	}
	if cfg.LenientCounts {
		t.Fatalf("LenientCounts should default to false")
	}
	if cfg.MetricsAddr != "" {
		t.Fatalf("metrics should be disabled by default, got %q", cfg.MetricsAddr)
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("POLL_INTERVAL", "15")
	t.Setenv("API_BASE_URL", " http://localhost:9000 ")
	t.Setenv("LENIENT_COUNTS", "true")
	t.Setenv("METRICS_ADDR", ":9102")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PollInterval != 15*time.Second {
		t.Fatalf("PollInterval = %v", cfg.PollInterval)
	}
	if cfg.APIBaseURL != "http://localhost:9000" {
		t.Fatalf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if !cfg.LenientCounts {
		t.Fatalf("expected LenientCounts from env")
	}
	if cfg.MetricsAddr != ":9102" {
		t.Fatalf("MetricsAddr = %q", cfg.MetricsAddr)
	}
}

func TestLoadRejectsNonPositiveTimeout(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HTTP_TIMEOUT_SECONDS", "0")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero timeout")
	}
}

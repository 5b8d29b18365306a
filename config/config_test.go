package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Mode != "batch" {
		t.Errorf("Mode = %q, want batch", cfg.Mode)
	}
	if len(cfg.Targets) == 0 {
		t.Error("default target list should not be empty")
	}
	if cfg.Analyzer.NavigationTimeout != 30*time.Second {
		t.Errorf("NavigationTimeout = %v, want 30s", cfg.Analyzer.NavigationTimeout)
	}
	if cfg.Analyzer.UserAgent == "" {
		t.Error("UserAgent should have a default")
	}
	if cfg.Analyzer.ScreenshotDir != "screenshots" {
		t.Errorf("ScreenshotDir = %q, want screenshots", cfg.Analyzer.ScreenshotDir)
	}
	if cfg.Analyzer.ResultsDir != "results" {
		t.Errorf("ResultsDir = %q, want results", cfg.Analyzer.ResultsDir)
	}
	if cfg.Probe.Timeout != 10*time.Second {
		t.Errorf("Probe.Timeout = %v, want 10s", cfg.Probe.Timeout)
	}
	if cfg.Probe.UserAgent != cfg.Analyzer.UserAgent {
		t.Error("probe and analyzer user agents should match by default")
	}
	if !cfg.Browser.Headless {
		t.Error("Headless should default to true")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TRACKSCAN_MODE", "serve")
	t.Setenv("TRACKSCAN_TARGETS", "https://a.example, https://b.example ,")
	t.Setenv("TRACKSCAN_NAV_TIMEOUT", "45s")
	t.Setenv("TRACKSCAN_STEALTH", "true")
	t.Setenv("TRACKSCAN_PORT", "9090")
	t.Setenv("TRACKSCAN_RATE_RPS", "2.5")

	cfg := Load()

	if cfg.Mode != "serve" {
		t.Errorf("Mode = %q, want serve", cfg.Mode)
	}
	if len(cfg.Targets) != 2 || cfg.Targets[0] != "https://a.example" || cfg.Targets[1] != "https://b.example" {
		t.Errorf("Targets = %v, want trimmed two-entry list", cfg.Targets)
	}
	if cfg.Analyzer.NavigationTimeout != 45*time.Second {
		t.Errorf("NavigationTimeout = %v, want 45s", cfg.Analyzer.NavigationTimeout)
	}
	if !cfg.Analyzer.Stealth {
		t.Error("Stealth should be true")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.RateLimit.RequestsPerSecond != 2.5 {
		t.Errorf("RequestsPerSecond = %v, want 2.5", cfg.RateLimit.RequestsPerSecond)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("TRACKSCAN_NAV_TIMEOUT", "not-a-duration")
	t.Setenv("TRACKSCAN_PORT", "not-a-number")
	t.Setenv("TRACKSCAN_HEADLESS", "not-a-bool")

	cfg := Load()

	if cfg.Analyzer.NavigationTimeout != 30*time.Second {
		t.Errorf("invalid duration should fall back to 30s, got %v", cfg.Analyzer.NavigationTimeout)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("invalid port should fall back to 8080, got %d", cfg.Server.Port)
	}
	if !cfg.Browser.Headless {
		t.Error("invalid bool should fall back to true")
	}
}

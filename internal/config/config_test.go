package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFromFileWithDefaults(t *testing.T) {
	path := writeConfig(t, `
trade_api:
  base_url: http://trades.internal/api
  timeout: 3s
session:
  signing_key: secret
database:
  driver: sqlite
  url: file:activity.db
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TradeAPI.BaseURL != "http://trades.internal/api" {
		t.Fatalf("unexpected base url %q", cfg.TradeAPI.BaseURL)
	}
	if cfg.TradeAPI.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.TradeAPI.Timeout)
	}
	if cfg.Server.Address != defaultAddress {
		t.Fatalf("expected default address, got %q", cfg.Server.Address)
	}
	if cfg.Session.CookieName != defaultCookieName {
		t.Fatalf("expected default cookie, got %q", cfg.Session.CookieName)
	}
	if cfg.Cache.TTL != defaultCacheTTL {
		t.Fatalf("expected default cache ttl, got %s", cfg.Cache.TTL)
	}
	if cfg.UploadsEnabled() {
		t.Fatal("uploads should be disabled without a bucket")
	}
}

func TestLoadConfigEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, `
trade_api:
  base_url: http://file.example
session:
  signing_key: from-file
`)
	t.Setenv("TRADE_API_URL", "https://env.example/api")
	t.Setenv("CORS_ORIGINS", "http://a.example,http://b.example")
	t.Setenv("REFRESH_INTERVAL", "30s")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.TradeAPI.BaseURL != "https://env.example/api" {
		t.Fatalf("env override ignored: %q", cfg.TradeAPI.BaseURL)
	}
	if cfg.Session.SigningKey != "from-file" {
		t.Fatalf("file value lost: %q", cfg.Session.SigningKey)
	}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[1] != "http://b.example" {
		t.Fatalf("unexpected cors origins %v", cfg.Server.CORSOrigins)
	}
	if cfg.Refresh.Interval != 30*time.Second {
		t.Fatalf("unexpected refresh interval %s", cfg.Refresh.Interval)
	}
}

func TestLoadConfigMissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("TRADE_API_URL", "http://localhost:3000")
	t.Setenv("SESSION_SIGNING_KEY", "secret")

	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing base url", "session:\n  signing_key: k\n"},
		{"relative base url", "trade_api:\n  base_url: /api\nsession:\n  signing_key: k\n"},
		{"missing signing key", "trade_api:\n  base_url: http://x.example\n"},
		{"unknown driver", "trade_api:\n  base_url: http://x.example\nsession:\n  signing_key: k\ndatabase:\n  driver: oracle\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

// File: internal/config/config_test.go
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
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
bot:
  token: test-token
attio:
  api_key: test-key
redis:
  url: localhost:6379
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig), false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Bot.Workers != 8 {
		t.Errorf("workers = %d, want 8", cfg.Bot.Workers)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("log defaults: %+v", cfg.Log)
	}
	if cfg.Admin.Port != 8080 {
		t.Errorf("admin port = %d", cfg.Admin.Port)
	}
	if cfg.Attio.BaseURL != "https://api.attio.com/v2" || cfg.Attio.CompaniesObject != "companies" {
		t.Errorf("attio defaults: %+v", cfg.Attio)
	}
	if cfg.Redis.SessionTTL != 5*time.Minute {
		t.Errorf("session ttl = %s", cfg.Redis.SessionTTL)
	}
	if cfg.Redis.RecentTTL != 30*24*time.Hour {
		t.Errorf("recent ttl = %s", cfg.Redis.RecentTTL)
	}
	if cfg.Relay.MaxSearchResults != 5 {
		t.Errorf("max search results = %d", cfg.Relay.MaxSearchResults)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("ATTIO_API_KEY", "env-key")
	t.Setenv("REDIS_URL", "redis-host:6380")

	cfg, err := LoadConfig(writeConfig(t, minimalConfig), false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Bot.Token != "env-token" || cfg.Attio.APIKey != "env-key" || cfg.Redis.URL != "redis-host:6380" {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadConfigRejectsMissingSecrets(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("ATTIO_API_KEY", "")
	t.Setenv("REDIS_URL", "")
	if _, err := LoadConfig(writeConfig(t, "bot:\n  workers: 2\n"), false); err == nil {
		t.Fatal("expected validation error for missing token/api_key/redis url")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), false); err == nil {
		t.Fatal("expected error for missing file")
	}
}

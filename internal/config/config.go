// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token    string  `yaml:"token" validate:"required"`
	Workers  int     `yaml:"workers"` // polling workers
	AdminIDs []int64 `yaml:"admin_ids"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port int `yaml:"port"`
}

type AttioConfig struct {
	APIKey          string        `yaml:"api_key" validate:"required"`
	BaseURL         string        `yaml:"base_url"`
	CompaniesObject string        `yaml:"companies_object"`
	Timeout         time.Duration `yaml:"timeout"`
}

type RedisConfig struct {
	URL        string        `yaml:"url" validate:"required"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	SessionTTL time.Duration `yaml:"session_ttl"`
	RecentTTL  time.Duration `yaml:"recent_ttl"`
	MaxRecent  int           `yaml:"max_recent"`
}

type DatabaseConfig struct {
	// URL is optional; when empty the note audit trail is disabled.
	URL string `yaml:"url"`
}

type RelayConfig struct {
	MaxSearchResults int `yaml:"max_search_results"` // displayed, not fetched
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Attio    AttioConfig    `yaml:"attio"`
	Redis    RedisConfig    `yaml:"redis"`
	Database DatabaseConfig `yaml:"database"`
	Relay    RelayConfig    `yaml:"relay"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file, applies env overrides for secrets,
// fills defaults and validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Runtime.Dev = dev

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("ATTIO_API_KEY"); v != "" {
		cfg.Attio.APIKey = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Admin.Port <= 0 {
		cfg.Admin.Port = 8080
	}
	if cfg.Attio.BaseURL == "" {
		cfg.Attio.BaseURL = "https://api.attio.com/v2"
	}
	if cfg.Attio.CompaniesObject == "" {
		cfg.Attio.CompaniesObject = "companies"
	}
	if cfg.Attio.Timeout <= 0 {
		cfg.Attio.Timeout = 15 * time.Second
	}
	if cfg.Redis.SessionTTL <= 0 {
		cfg.Redis.SessionTTL = 5 * time.Minute
	}
	if cfg.Redis.RecentTTL <= 0 {
		cfg.Redis.RecentTTL = 30 * 24 * time.Hour
	}
	if cfg.Redis.MaxRecent <= 0 {
		cfg.Redis.MaxRecent = 10
	}
	if cfg.Relay.MaxSearchResults <= 0 {
		cfg.Relay.MaxSearchResults = 5
	}
}

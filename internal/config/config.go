package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v2"
)

const (
	defaultAddress      = ":4001"
	defaultCookieName   = "session"
	defaultAPITimeout   = 10 * time.Second
	defaultCacheTTL     = time.Minute
	defaultCacheMaxCost = 1 << 24
	defaultUploadFolder = "trades"
)

type Config struct {
	Server struct {
		Address     string   `yaml:"address" env:"SERVER_ADDRESS"`
		CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
	} `yaml:"server"`
	TradeAPI struct {
		BaseURL string        `yaml:"base_url" env:"TRADE_API_URL"`
		Token   string        `yaml:"token" env:"TRADE_API_TOKEN"`
		Timeout time.Duration `yaml:"timeout" env:"TRADE_API_TIMEOUT"`
	} `yaml:"trade_api"`
	Session struct {
		SigningKey string `yaml:"signing_key" env:"SESSION_SIGNING_KEY"`
		CookieName string `yaml:"cookie_name" env:"SESSION_COOKIE"`
	} `yaml:"session"`
	Cache struct {
		RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
		RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
		RedisDB       int           `yaml:"redis_db" env:"REDIS_DB"`
		TTL           time.Duration `yaml:"ttl" env:"CACHE_TTL"`
		MaxCost       int64         `yaml:"max_cost" env:"CACHE_MAX_COST"`
	} `yaml:"cache"`
	Database struct {
		Driver string `yaml:"driver" env:"DB_DRIVER"`
		URL    string `yaml:"url" env:"DATABASE_URL"`
	} `yaml:"database"`
	Storage struct {
		Bucket    string `yaml:"bucket" env:"S3_BUCKET"`
		Region    string `yaml:"region" env:"S3_REGION"`
		Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT"`
		AccessKey string `yaml:"access_key" env:"S3_ACCESS_KEY"`
		SecretKey string `yaml:"secret_key" env:"S3_SECRET_KEY"`
		PublicURL string `yaml:"public_url" env:"S3_PUBLIC_URL"`
		Folder    string `yaml:"folder" env:"S3_FOLDER"`
	} `yaml:"storage"`
	Refresh struct {
		Interval time.Duration `yaml:"interval" env:"REFRESH_INTERVAL"`
	} `yaml:"refresh"`
}

// LoadConfig reads the YAML file at path (optional when empty or missing),
// applies environment overrides and defaults, and validates the result.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("unmarshal config data: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.TradeAPI.Timeout <= 0 {
		c.TradeAPI.Timeout = defaultAPITimeout
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = defaultCookieName
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = defaultCacheTTL
	}
	if c.Cache.MaxCost <= 0 {
		c.Cache.MaxCost = defaultCacheMaxCost
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Storage.Folder == "" {
		c.Storage.Folder = defaultUploadFolder
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.TradeAPI.BaseURL) == "" {
		return errors.New("trade_api.base_url is required")
	}
	if u, err := url.Parse(c.TradeAPI.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("trade_api.base_url %q is not an absolute URL", c.TradeAPI.BaseURL)
	}
	if c.Session.SigningKey == "" {
		return errors.New("session.signing_key is required")
	}
	switch c.Database.Driver {
	case "mysql", "pgx", "sqlite":
	default:
		return fmt.Errorf("database.driver %q is not supported", c.Database.Driver)
	}
	if c.Refresh.Interval < 0 {
		return errors.New("refresh.interval must not be negative")
	}
	return nil
}

// UploadsEnabled reports whether image files can be pushed to S3.
func (c Config) UploadsEnabled() bool {
	return c.Storage.Bucket != "" && c.Storage.Region != ""
}

package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	QuoteSource string            `yaml:"quote_source"`
	Marketstack MarketstackConfig `yaml:"marketstack"`
	Alpaca      AlpacaConfig      `yaml:"alpaca"`
	News        NewsConfig        `yaml:"news"`
	Cache       CacheConfig       `yaml:"cache"`
	Refresh     RefreshConfig     `yaml:"refresh"`
	Telegram    TelegramConfig    `yaml:"telegram"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port    string `yaml:"port"`
	OpsPort string `yaml:"ops_port"`
	Env     string `yaml:"env"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// AuthConfig holds JWT signing configuration
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// MarketstackConfig holds the quote provider endpoint and key
type MarketstackConfig struct {
	BaseURL   string        `yaml:"base_url"`
	AccessKey string        `yaml:"access_key"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// AlpacaConfig holds credentials for the alternate market data source
type AlpacaConfig struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// NewsConfig holds the news provider endpoint and key
type NewsConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// CacheConfig selects the backend of the quote TTL cache
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // "postgres" or "sqlite"
	SQLitePath string        `yaml:"sqlite_path"`
	TTL        time.Duration `yaml:"ttl"`
}

// RefreshConfig holds cron schedules of background jobs and the idle
// lifetime of sessions they refresh
type RefreshConfig struct {
	Schedule       string        `yaml:"schedule"`
	AlertSchedule  string        `yaml:"alert_schedule"`
	SessionIdleTTL time.Duration `yaml:"session_idle_ttl"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Quote sources
const (
	SourceMarketstack = "marketstack"
	SourceAlpaca      = "alpaca"
)

// Cache drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Load loads configuration from environment variables.
// When CONFIG_FILE points to a YAML file, its values fill every setting the
// environment leaves unset.
func Load() (*Config, error) {
	var file Config
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:    getEnv("PORT", or(file.Server.Port, "8080")),
			OpsPort: getEnv("OPS_PORT", or(file.Server.OpsPort, "8081")),
			Env:     getEnv("GO_ENV", or(file.Server.Env, "development")),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", file.Database.URL),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", file.Auth.JWTSecret),
			TokenTTL:  getDuration("JWT_TTL", orDuration(file.Auth.TokenTTL, 72*time.Hour)),
		},
		QuoteSource: getEnv("QUOTE_SOURCE", or(file.QuoteSource, SourceMarketstack)),
		Marketstack: MarketstackConfig{
			BaseURL:   getEnv("MARKETSTACK_BASE_URL", or(file.Marketstack.BaseURL, "https://api.marketstack.com/v1")),
			AccessKey: getEnv("MARKETSTACK_ACCESS_KEY", file.Marketstack.AccessKey),
			CacheTTL:  getDuration("MARKETSTACK_CACHE_TTL", orDuration(file.Marketstack.CacheTTL, time.Minute)),
		},
		Alpaca: AlpacaConfig{
			APIKey:    getEnv("APCA_API_KEY_ID", file.Alpaca.APIKey),
			APISecret: getEnv("APCA_API_SECRET_KEY", file.Alpaca.APISecret),
			DataURL:   getEnv("ALPACA_DATA_URL", file.Alpaca.DataURL),
		},
		News: NewsConfig{
			BaseURL: getEnv("NEWSDATA_BASE_URL", or(file.News.BaseURL, "https://newsdata.io/api/1")),
			APIKey:  getEnv("NEWSDATA_API_KEY", file.News.APIKey),
		},
		Cache: CacheConfig{
			Driver:     getEnv("CACHE_DRIVER", or(file.Cache.Driver, DriverPostgres)),
			SQLitePath: getEnv("CACHE_SQLITE_PATH", or(file.Cache.SQLitePath, "stockwizard-cache.db")),
			TTL:        getDuration("CACHE_TTL", orDuration(file.Cache.TTL, 5*time.Minute)),
		},
		Refresh: RefreshConfig{
			Schedule:       getEnv("REFRESH_SCHEDULE", or(file.Refresh.Schedule, "@every 5m")),
			AlertSchedule:  getEnv("ALERT_SCHEDULE", or(file.Refresh.AlertSchedule, "@every 5m")),
			SessionIdleTTL: getDuration("SESSION_IDLE_TTL", orDuration(file.Refresh.SessionIdleTTL, 30*time.Minute)),
		},
		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", file.Telegram.BotToken),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", file.Telegram.ChatID),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings
func (c *Config) Validate() error {
	switch c.QuoteSource {
	case SourceMarketstack, SourceAlpaca:
	default:
		return fmt.Errorf("unknown QUOTE_SOURCE %q", c.QuoteSource)
	}
	switch c.Cache.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown CACHE_DRIVER %q", c.Cache.Driver)
	}
	return nil
}

// IsProduction reports whether the app runs with GO_ENV=production
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration parses a duration ("90s", "5m") or a plain number of seconds
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func or(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func orDuration(value, fallback time.Duration) time.Duration {
	if value != 0 {
		return value
	}
	return fallback
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token          string `yaml:"token" env:"BOT_TOKEN"`
	Mode           string `yaml:"mode"`    // polling only for now
	Workers        int    `yaml:"workers"` // update workers, sharded by user
	PrimaryAdminID int64  `yaml:"primary_admin_id" env:"ADMIN_ID"`
	SupportURL     string `yaml:"support_url"`
	ChannelURL     string `yaml:"channel_url"`
	Language       string `yaml:"language"`
}

type LogConfig struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"` // trace|debug|info|warn|error
	Format   string `yaml:"format"`                // json|console
	Sampling bool   `yaml:"sampling"`              // enable sampling in prod
}

type HTTPConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

type RedisConfig struct {
	URL      string `yaml:"url" env:"REDIS_URL"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db"`
}

type LedgerConfig struct {
	Backend  string        `yaml:"backend"`   // memory | redis
	ClaimTTL time.Duration `yaml:"claim_ttl"` // how long an unverified claim may live
}

type BkashConfig struct {
	BaseURL   string        `yaml:"base_url" env:"BKASH_BASE_URL"`
	Username  string        `yaml:"username" env:"BKASH_USERNAME"`
	Password  string        `yaml:"password" env:"BKASH_PASSWORD"`
	AppKey    string        `yaml:"app_key" env:"BKASH_APP_KEY"`
	AppSecret string        `yaml:"app_secret" env:"BKASH_APP_SECRET"`
	Number    string        `yaml:"number" env:"BKASH_NUMBER"`
	Timeout   time.Duration `yaml:"timeout"`
}

type NagadConfig struct {
	Number string `yaml:"number" env:"NAGAD_NUMBER"`
}

type PaymentConfig struct {
	Bkash BkashConfig `yaml:"bkash"`
	Nagad NagadConfig `yaml:"nagad"`
}

type NotifyConfig struct {
	ChannelID   int64 `yaml:"channel_id" env:"CHANNEL_ID"`
	AdminChatID int64 `yaml:"admin_chat_id" env:"ADMIN_CHAT_ID"` // defaults to the primary admin
	Workers     int   `yaml:"workers"`
}

type RateLimitConfig struct {
	Messages  int           `yaml:"messages"`
	Callbacks int           `yaml:"callbacks"`
	Window    time.Duration `yaml:"window"`
}

type CourseSeed struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	Price      int64  `yaml:"price"`
	GroupLink  string `yaml:"group_link"`
	PaymentURL string `yaml:"payment_url"`
}

type CatalogConfig struct {
	Courses []CourseSeed `yaml:"courses"`
}

type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Redis     RedisConfig     `yaml:"redis"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Payment   PaymentConfig   `yaml:"payment"`
	Notify    NotifyConfig    `yaml:"notify"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Catalog   CatalogConfig   `yaml:"catalog"`

	Runtime RuntimeConfig `yaml:"-"`
}

const defaultBkashBaseURL = "https://tokenized.pay.bka.sh/v1.2.0-beta"

// LoadConfig reads the YAML file at path, then applies environment overrides
// (an optional .env file is loaded first). A missing file is allowed when the
// environment carries the required settings.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// env-only deployment
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Bot.Token == "" {
		return nil, errors.New("bot.token is required")
	}
	if cfg.Bot.PrimaryAdminID <= 0 {
		return nil, errors.New("bot.primary_admin_id is required")
	}
	if cfg.Ledger.Backend == "redis" && cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required for the redis ledger")
	}
	// a claim must outlive the verification it guards
	if cfg.Ledger.ClaimTTL <= cfg.Payment.Bkash.Timeout {
		return nil, fmt.Errorf("ledger.claim_ttl (%s) must exceed payment.bkash.timeout (%s)",
			cfg.Ledger.ClaimTTL, cfg.Payment.Bkash.Timeout)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Workers <= 0 {
		cfg.Bot.Workers = 8
	}
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.Language == "" {
		cfg.Bot.Language = "en"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 3000
	}
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = "memory"
	}
	if cfg.Ledger.ClaimTTL <= 0 {
		cfg.Ledger.ClaimTTL = 2 * time.Minute
	}
	if cfg.Payment.Bkash.BaseURL == "" {
		cfg.Payment.Bkash.BaseURL = defaultBkashBaseURL
	}
	if cfg.Payment.Bkash.Timeout <= 0 {
		cfg.Payment.Bkash.Timeout = 30 * time.Second
	}
	if cfg.Notify.AdminChatID == 0 {
		cfg.Notify.AdminChatID = cfg.Bot.PrimaryAdminID
	}
	if cfg.Notify.Workers <= 0 {
		cfg.Notify.Workers = 2
	}
	if cfg.RateLimit.Messages <= 0 {
		cfg.RateLimit.Messages = 20
	}
	if cfg.RateLimit.Callbacks <= 0 {
		cfg.RateLimit.Callbacks = 30
	}
	if cfg.RateLimit.Window <= 0 {
		cfg.RateLimit.Window = time.Minute
	}
}

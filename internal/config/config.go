package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaults []byte

// ---- Root ----

type Config struct {
	HTTP       HTTPConfig      `mapstructure:"http"`
	MySQL      DatabaseConfig  `mapstructure:"mysql"`
	ClickHouse DatabaseConfig  `mapstructure:"clickhouse"`
	Redis      RedisConfig     `mapstructure:"redis"`
	RateLimit  RateLimitConfig `mapstructure:"rate_limit"`
	Stripe     StripeConfig    `mapstructure:"stripe"`
	Tiers      TierLimits      `mapstructure:"tiers"`
	Detector   DetectorConfig  `mapstructure:"detector"`
	Log        LogConfig       `mapstructure:"log"`
}

// ---- Leaf structs ----

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idletime"`
	PingTimeout     time.Duration `mapstructure:"ping_timeout"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type RateLimitConfig struct {
	RPS   int `mapstructure:"rps"`
	Burst int `mapstructure:"burst"`
}

// StripeConfig holds payment-provider credentials and the tier -> price mapping.
// PublishableKey is the only field safe to expose to clients.
type StripeConfig struct {
	SecretKey       string            `mapstructure:"secret_key"`
	PublishableKey  string            `mapstructure:"publishable_key"`
	WebhookSecret   string            `mapstructure:"webhook_secret"`
	SuccessURL      string            `mapstructure:"success_url"`
	CancelURL       string            `mapstructure:"cancel_url"`
	PortalReturnURL string            `mapstructure:"portal_return_url"`
	PriceIDs        map[string]string `mapstructure:"price_ids"` // tier name -> price id
}

// TierLimits is the monthly request ceiling per plan tier.
type TierLimits struct {
	Free    int64 `mapstructure:"free"`
	Starter int64 `mapstructure:"starter"`
	Pro     int64 `mapstructure:"pro"`
}

type DetectorConfig struct {
	BotKeywords []string `mapstructure:"bot_keywords"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads embedded defaults, merges user YAML (if provided), and applies env overrides (BOTD_*).
func Load(path string) (Config, error) {
	v := viper.New()

	// embedded defaults
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		_ = v.MergeInConfig()
	}

	// env override (BOTD_*); nested keys map dots to underscores,
	// e.g. stripe.secret_key -> BOTD_STRIPE_SECRET_KEY
	v.SetEnvPrefix("BOTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LimitFor maps a tier name to its monthly request limit.
// Unknown tiers fall back to the free limit.
func (t TierLimits) LimitFor(tier string) int64 {
	switch tier {
	case "starter":
		return t.Starter
	case "pro":
		return t.Pro
	default:
		return t.Free
	}
}

// PriceFor returns the provider price id configured for a paid tier.
func (s StripeConfig) PriceFor(tier string) (string, error) {
	id, ok := s.PriceIDs[tier]
	if !ok || id == "" {
		return "", fmt.Errorf("no price configured for tier %q", tier)
	}
	return id, nil
}

package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		Mode        string   `yaml:"mode"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	YouTube struct {
		APIKey   string `yaml:"api_key"`
		Timeout  string `yaml:"timeout"`
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"youtube"`
	Payment struct {
		GatewayURL    string `yaml:"gateway_url"`
		APIKey        string `yaml:"api_key"`
		Timeout       string `yaml:"timeout"`
		SandboxResult string `yaml:"sandbox_result"`
		PriceCents    int64  `yaml:"price_cents"`
		Currency      string `yaml:"currency"`
	} `yaml:"payment"`
	Storage struct {
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
		Endpoint  string `yaml:"endpoint"`
		AccessKey string `yaml:"access_key"`
		SecretKey string `yaml:"secret_key"`
		URLTTL    string `yaml:"url_ttl"`
	} `yaml:"storage"`
	Scheduler struct {
		ExpirySpec string `yaml:"expiry_spec"`
	} `yaml:"scheduler"`
	Tracing struct {
		Enabled     bool   `yaml:"enabled"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"tracing"`
	Leaderboard struct {
		Limit int `yaml:"limit"`
	} `yaml:"leaderboard"`
}

// Load reads YAML config from path and applies defaults and environment overrides.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "learnhub:leaderboard"
	}
	if c.Payment.PriceCents == 0 {
		c.Payment.PriceCents = 4999
	}
	if c.Payment.Currency == "" {
		c.Payment.Currency = "usd"
	}
	if c.Scheduler.ExpirySpec == "" {
		c.Scheduler.ExpirySpec = "0 3 * * *"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "learnhub-service"
	}
	if c.Leaderboard.Limit == 0 {
		c.Leaderboard.Limit = 10
	}
}

// ApplyEnv overrides file values with environment variables where present.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PORT", &c.Server.Port)
	str("DATABASE_URL", &c.Postgres.URL)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("YOUTUBE_API_KEY", &c.YouTube.APIKey)
	str("PAYMENT_GATEWAY_URL", &c.Payment.GatewayURL)
	str("PAYMENT_API_KEY", &c.Payment.APIKey)
	str("S3_ACCESS_KEY", &c.Storage.AccessKey)
	str("S3_SECRET_KEY", &c.Storage.SecretKey)
	if v, ok := lookup("REDIS_DB"); ok {
		if db, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = db
		}
	}
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Leaderboard.Limit < 0 {
		errs = append(errs, errors.New("leaderboard.limit must be positive"))
	}
	switch c.Payment.SandboxResult {
	case "", "approve", "decline":
	default:
		errs = append(errs, errors.New("payment.sandbox_result must be approve or decline"))
	}
	return errors.Join(errs...)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

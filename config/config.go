package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Midtrans MidtransConfig
	Apigames ApigamesConfig
	Poller   PollerConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
	Issuer       string
}

// MidtransConfig holds payment gateway credentials. ServerKey authenticates
// both Snap session creation and the status API; it is also the ingredient
// of the webhook signature.
type MidtransConfig struct {
	ServerKey    string
	ClientKey    string
	IsProduction bool
	Timeout      time.Duration
}

// ApigamesConfig holds fulfillment provider credentials.
type ApigamesConfig struct {
	MerchantID string
	SecretKey  string
	BaseURL    string
	Timeout    time.Duration
}

// PollerConfig bounds the per-order payment status poll loop.
// 30 attempts at 2s covers the source's one-minute window; raise
// POLLER_MAX_ATTEMPTS for the long-poll variant.
type PollerConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         envOr("PORT", "8080"),
			Env:          envOr("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             envOr("DB_DSN", "avalon:avalon@tcp(localhost:3306)/avalon?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			Secret:       envOr("JWT_SECRET", "change-me-in-production"),
			AccessExpiry: 12 * time.Hour,
			Issuer:       "avalon",
		},
		Midtrans: MidtransConfig{
			ServerKey:    os.Getenv("MIDTRANS_SERVER_KEY"),
			ClientKey:    os.Getenv("MIDTRANS_CLIENT_KEY"),
			IsProduction: os.Getenv("MIDTRANS_IS_PRODUCTION") == "true",
			Timeout:      30 * time.Second,
		},
		Apigames: ApigamesConfig{
			MerchantID: os.Getenv("APIGAMES_MERCHANT_ID"),
			SecretKey:  os.Getenv("APIGAMES_SECRET_KEY"),
			BaseURL:    envOr("APIGAMES_BASE_URL", "https://v1.apigames.id"),
			Timeout:    30 * time.Second,
		},
		Poller: PollerConfig{
			Interval:    envDurationOr("POLLER_INTERVAL", 2*time.Second),
			MaxAttempts: envIntOr("POLLER_MAX_ATTEMPTS", 30),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

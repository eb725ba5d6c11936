// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultEnvFile = ".env"
	maxExpiryDays  = 36500
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr        string
	DBPath            string
	LogLevel          slog.Level
	DefaultExpiryDays int

	RedisAddr          string
	RedisPassword      string
	RedeemRateLimit    int
	RedeemRateInterval time.Duration

	AMQPURL      string
	AMQPExchange string

	GitHubToken string
}

// HasRedis reports whether the redemption rate limiter should be enabled.
func (c *Config) HasRedis() bool {
	return c.RedisAddr != ""
}

// HasAMQP reports whether domain events should be published to RabbitMQ.
func (c *Config) HasAMQP() bool {
	return c.AMQPURL != ""
}

// Load reads configuration from environment variables and returns a validated Config.
// Variables from the file named by CODEVAULT_ENV_FILE (default .env) are loaded
// first without overriding the process environment; a missing default file is
// ignored. Optional variables with defaults: CODEVAULT_LISTEN_ADDR (127.0.0.1:8080),
// CODEVAULT_DB_PATH (codevault.db), CODEVAULT_LOG_LEVEL (info),
// CODEVAULT_DEFAULT_EXPIRY_DAYS (30), CODEVAULT_REDEEM_RATE_LIMIT (10),
// CODEVAULT_REDEEM_RATE_INTERVAL (1m), CODEVAULT_AMQP_EXCHANGE (codevault.events).
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddr:         envOr("CODEVAULT_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:             envOr("CODEVAULT_DB_PATH", "codevault.db"),
		LogLevel:           slog.LevelInfo,
		DefaultExpiryDays:  30,
		RedisAddr:          os.Getenv("CODEVAULT_REDIS_ADDR"),
		RedisPassword:      os.Getenv("CODEVAULT_REDIS_PASSWORD"),
		RedeemRateLimit:    10,
		RedeemRateInterval: time.Minute,
		AMQPURL:            os.Getenv("CODEVAULT_AMQP_URL"),
		AMQPExchange:       envOr("CODEVAULT_AMQP_EXCHANGE", "codevault.events"),
		GitHubToken:        os.Getenv("CODEVAULT_GITHUB_TOKEN"),
	}

	if v, ok := os.LookupEnv("CODEVAULT_LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("CODEVAULT_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	if v, ok := os.LookupEnv("CODEVAULT_DEFAULT_EXPIRY_DAYS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > maxExpiryDays {
			return nil, fmt.Errorf("CODEVAULT_DEFAULT_EXPIRY_DAYS must be an integer between 0 and %d, got %q", maxExpiryDays, v)
		}
		cfg.DefaultExpiryDays = n
	}

	if v, ok := os.LookupEnv("CODEVAULT_REDEEM_RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("CODEVAULT_REDEEM_RATE_LIMIT must be a positive integer, got %q", v)
		}
		cfg.RedeemRateLimit = n
	}

	if v, ok := os.LookupEnv("CODEVAULT_REDEEM_RATE_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CODEVAULT_REDEEM_RATE_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("CODEVAULT_REDEEM_RATE_INTERVAL must be positive, got %q", v)
		}
		cfg.RedeemRateInterval = parsed
	}

	return cfg, nil
}

func loadEnvFile() error {
	path, explicit := os.LookupEnv("CODEVAULT_ENV_FILE")
	if path == "" {
		path = defaultEnvFile
		explicit = false
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

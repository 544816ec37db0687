package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Retry     RetryConfig
	Webhook   WebhookConfig
	Email     EmailConfig
}

type ServerConfig struct {
	Address string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Address    string
	Password   string
	DB         int
	ContentTTL time.Duration
}

type SchedulerConfig struct {
	Interval     time.Duration
	BatchSize    int
	StaleTimeout time.Duration
}

// RetryConfig is the uniform activity retry policy: fixed interval, fixed
// attempt budget, applied to every step alike.
type RetryConfig struct {
	Interval    time.Duration
	MaxAttempts int
}

type WebhookConfig struct {
	EndpointURL string
	APIKey      string
}

type EmailConfig struct {
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	From     string
}

func LoadAll() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv("SERVER_ADDRESS", ":8080"),
		},
		Database: DatabaseConfig{
			PostgresURL: mustEnv("POSTGRES_URL"),
		},
		Redis: RedisConfig{
			Address:    mustEnv("REDIS_ADDR"),
			Password:   os.Getenv("REDIS_PASSWORD"),
			DB:         getEnvInt("REDIS_DB", 0),
			ContentTTL: time.Duration(getEnvInt("CONTENT_TTL_SECONDS", 0)) * time.Second,
		},
		Scheduler: SchedulerConfig{
			Interval:     time.Duration(getEnvInt("SCHED_INTERVAL_SECONDS", 10)) * time.Second,
			BatchSize:    getEnvInt("SCHED_BATCH_SIZE", 25),
			StaleTimeout: time.Duration(getEnvInt("SCHED_STALE_TIMEOUT_SECONDS", 600)) * time.Second,
		},
		Retry: RetryConfig{
			Interval:    time.Duration(getEnvInt("RETRY_INTERVAL_MS", 5000)) * time.Millisecond,
			MaxAttempts: getEnvInt("RETRY_MAX_ATTEMPTS", 10),
		},
		Webhook: WebhookConfig{
			EndpointURL: mustEnv("WEBHOOK_ENDPOINT_URL"),
			APIKey:      mustEnv("WEBHOOK_API_KEY"),
		},
		Email: EmailConfig{
			SMTPHost: mustEnv("SMTP_HOST"),
			SMTPPort: getEnv("SMTP_PORT", "587"),
			SMTPUser: os.Getenv("SMTP_USER"),
			SMTPPass: os.Getenv("SMTP_PASS"),
			From:     mustEnv("MAIL_FROM"),
		},
	}

	validate(cfg)
	return cfg, nil
}

func validate(cfg *Config) {
	if cfg.Scheduler.BatchSize <= 0 {
		panic("SCHED_BATCH_SIZE must be > 0")
	}
	if cfg.Scheduler.Interval <= 0 {
		panic("SCHED_INTERVAL_SECONDS must be > 0")
	}
	if cfg.Scheduler.StaleTimeout <= 0 {
		panic("SCHED_STALE_TIMEOUT_SECONDS must be > 0")
	}
	if cfg.Retry.Interval <= 0 {
		panic("RETRY_INTERVAL_MS must be > 0")
	}
	if cfg.Retry.MaxAttempts <= 0 {
		panic("RETRY_MAX_ATTEMPTS must be > 0")
	}
}

func mustEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("missing required env var: %s", key))
	}
	return val
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Sprintf("invalid int for env %s: %s", key, v))
	}
	return i
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Config keeps runtime settings for the planner.
type Config struct {
	Environment     string
	HTTPAddr        string
	DatabaseURL     string
	OpenAIKey       string
	OpenAIModel     string
	OpenAIBaseURL   string
	TelegramToken   string
	ReminderTime    string
	PlanRetention   time.Duration
	GenerateTimeout time.Duration
	GenerateRetries int
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is honoured but never overrides
// variables that are already set.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Environment:     env("APP_ENV", "development"),
		HTTPAddr:        env("HTTP_ADDR", ":8080"),
		DatabaseURL:     env("DATABASE_URL", "study_planner.db"),
		OpenAIKey:       env("OPENAI_KEY", ""),
		OpenAIModel:     env("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   env("OPENAI_BASE_URL", ""),
		TelegramToken:   env("TELEGRAM_TOKEN", ""),
		ReminderTime:    env("REMINDER_TIME", "08:00"),
		PlanRetention:   days(envInt("PLAN_RETENTION_DAYS", 90)),
		GenerateTimeout: time.Duration(envInt("GENERATE_TIMEOUT_SECONDS", 60)) * time.Second,
		GenerateRetries: envInt("GENERATE_RETRIES", 3),
	}

	if cfg.GenerateTimeout <= 0 {
		return cfg, fmt.Errorf("GENERATE_TIMEOUT_SECONDS must be positive")
	}
	if cfg.GenerateRetries < 0 {
		return cfg, fmt.Errorf("GENERATE_RETRIES must not be negative")
	}

	return cfg, nil
}

// Validate checks the settings the HTTP server cannot run without.
func (c Config) Validate() error {
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_KEY is required")
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR is required")
	}
	return nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := cast.ToIntE(raw)
	if err != nil {
		return fallback
	}
	return n
}

func days(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * 24 * time.Hour
}

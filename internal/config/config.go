package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the application.
type Config struct {
	TelegramToken            string
	DatabaseURL              string
	BaseURL                  string
	LogLevel                 string
	ReportInterval           time.Duration
	SessionTTL               time.Duration
	RequireEmailVerification bool
	PomodoroWork             time.Duration
	PomodoroBreak            time.Duration
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is honoured when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		TelegramToken:            strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:              strings.TrimSpace(os.Getenv("DATABASE_URL")),
		BaseURL:                  strings.TrimSpace(os.Getenv("APP_BASE_URL")),
		LogLevel:                 strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		ReportInterval:           parseHours(strings.TrimSpace(os.Getenv("REPORT_INTERVAL_HOURS"))),
		SessionTTL:               parseHours(strings.TrimSpace(os.Getenv("SESSION_TTL_HOURS"))),
		RequireEmailVerification: true,
	}

	if raw := strings.TrimSpace(os.Getenv("AUTH_REQUIRE_VERIFICATION")); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return cfg, fmt.Errorf("AUTH_REQUIRE_VERIFICATION: %w", err)
		}
		cfg.RequireEmailVerification = v
	}

	var err error
	if cfg.PomodoroWork, err = parseDuration("POMODORO_WORK", 25*time.Minute); err != nil {
		return cfg, err
	}
	if cfg.PomodoroBreak, err = parseDuration("POMODORO_BREAK", 5*time.Minute); err != nil {
		return cfg, err
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "lifeplanner.db"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080/"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.ReportInterval == 0 {
		cfg.ReportInterval = 24 * time.Hour
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}

	return cfg, nil
}

// Validate checks settings required by the bot front-end.
func (c Config) Validate() error {
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required")
	}
	return nil
}

func parseHours(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	hours, err := time.ParseDuration(raw + "h")
	if err != nil || hours <= 0 {
		return 0
	}
	return hours
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, raw)
	}
	return d, nil
}

// Package config loads server configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port     int
	LogLevel string

	// DBDriver selects the storage backend: "sqlite" or "postgres".
	DBDriver    string
	DBPath      string
	DatabaseURL string

	JWTSecret string
	TokenTTL  time.Duration

	AdminEmail    string
	AdminPassword string

	DelinquencySchedule   string
	DelinquencyMaxOverdue int
	DelinquencyGraceDays  int

	RiskServiceURL string
	RiskTimeout    time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SenderEmail  string
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var errs []string
	intEnv := func(key string, fallback int) int {
		v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be an integer", key))
		}
		return v
	}
	durationEnv := func(key string, fallback time.Duration) time.Duration {
		v, err := time.ParseDuration(getEnv(key, fallback.String()))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be a duration", key))
		}
		return v
	}

	cfg := &Config{
		Port:                  intEnv("PORT", 8080),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		DBDriver:              strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBPath:                getEnv("DB_PATH", "./data/shopcredit.db"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		TokenTTL:              durationEnv("TOKEN_TTL", 24*time.Hour),
		AdminEmail:            getEnv("ADMIN_EMAIL", ""),
		AdminPassword:         getEnv("ADMIN_PASSWORD", ""),
		DelinquencySchedule:   getEnv("DELINQUENCY_CRON", "@daily"),
		DelinquencyMaxOverdue: intEnv("DELINQUENCY_MAX_OVERDUE", 1),
		DelinquencyGraceDays:  intEnv("DELINQUENCY_GRACE_DAYS", 30),
		RiskServiceURL:        strings.TrimRight(getEnv("RISK_SERVICE_URL", ""), "/"),
		RiskTimeout:           durationEnv("RISK_TIMEOUT", 3*time.Second),
		SMTPHost:              getEnv("SMTP_HOST", ""),
		SMTPPort:              getEnv("SMTP_PORT", "587"),
		SMTPUsername:          getEnv("SMTP_USERNAME", ""),
		SMTPPassword:          getEnv("SMTP_PASSWORD", ""),
		SenderEmail:           getEnv("SENDER_EMAIL", "no-reply@shopcredit.local"),
	}

	switch cfg.DBDriver {
	case "sqlite":
		if cfg.DBPath == "" {
			errs = append(errs, "DB_PATH is required for sqlite")
		}
	case "postgres":
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL is required for postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("unsupported DB_DRIVER %q", cfg.DBDriver))
	}
	if cfg.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET is required")
	}
	if cfg.DelinquencyMaxOverdue < 0 || cfg.DelinquencyGraceDays < 0 {
		errs = append(errs, "delinquency thresholds must not be negative")
	}
	if (cfg.AdminEmail == "") != (cfg.AdminPassword == "") {
		errs = append(errs, "ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// NotificationsEnabled reports whether SMTP delivery is configured.
func (c *Config) NotificationsEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

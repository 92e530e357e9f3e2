package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full configuration surface of the dashboard backend.
type Config struct {
	DatabaseURL string
	HTTPPort    string
	LogLevel    string

	// Redis
	RedisAddr string
	RedisPass string
	RedisDB   int

	// Feed cadence
	PollInterval time.Duration // baseline 30s
	LiveWindow   time.Duration // liveness display window, shorter than the poll interval
	SnapshotTTL  time.Duration // redis snapshot cache lifetime

	// Emergency escalation
	HoldDuration       time.Duration // press-and-hold threshold
	EscalationCooldown time.Duration // rearm window after a terminal state
	DispatchTimeout    time.Duration // bound on create+notify
	GeoTimeout         time.Duration // single-shot geolocation bound
	GeoEndpoint        string
	SessionURL         string
	OperatorName       string // static identity when no auth service is wired
	OperatorEmail      string

	// Alerts
	AlertDisplayCap int

	// Notifications
	OpsEmail     string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Webhook broadcast
	WebhookURL        string
	WebhookSecret     string
	WebhookTimeout    time.Duration
	WebhookMaxRetries int
	WebhookBaseDelay  time.Duration

	// API keys for authentication
	APIKeys []string
}

// LoadConfig reads configuration from environment variables and an
// optional .env file.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass: os.Getenv("REDIS_PASSWORD"),
		RedisDB:   getEnvAsInt("REDIS_DB", 0),

		PollInterval: getEnvAsDuration("POLL_INTERVAL", 30*time.Second),
		LiveWindow:   getEnvAsDuration("LIVE_WINDOW", 2*time.Second),
		SnapshotTTL:  getEnvAsDuration("SNAPSHOT_TTL", 5*time.Minute),

		HoldDuration:       getEnvAsDuration("HOLD_DURATION", 3*time.Second),
		EscalationCooldown: getEnvAsDuration("ESCALATION_COOLDOWN", 5*time.Second),
		DispatchTimeout:    getEnvAsDuration("DISPATCH_TIMEOUT", 15*time.Second),
		GeoTimeout:         getEnvAsDuration("GEO_TIMEOUT", 5*time.Second),
		GeoEndpoint:        os.Getenv("GEO_ENDPOINT"),
		SessionURL:         os.Getenv("SESSION_URL"),
		OperatorName:       os.Getenv("OPERATOR_NAME"),
		OperatorEmail:      os.Getenv("OPERATOR_EMAIL"),

		AlertDisplayCap: getEnvAsInt("ALERT_DISPLAY_CAP", 3),

		OpsEmail:     getEnv("OPS_EMAIL", "ops@example.com"),
		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),

		WebhookURL:        os.Getenv("WEBHOOK_URL"),
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		WebhookTimeout:    getEnvAsDuration("WEBHOOK_TIMEOUT", 5*time.Second),
		WebhookMaxRetries: getEnvAsInt("WEBHOOK_MAX_RETRIES", 3),
		WebhookBaseDelay:  getEnvAsDuration("WEBHOOK_BASE_DELAY", time.Second),
	}

	apiKeysStr := os.Getenv("API_KEYS")
	if apiKeysStr != "" {
		cfg.APIKeys = strings.Split(apiKeysStr, ",")
		for i, key := range cfg.APIKeys {
			cfg.APIKeys[i] = strings.TrimSpace(key)
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.LiveWindow >= cfg.PollInterval {
		return nil, fmt.Errorf("LIVE_WINDOW must be shorter than POLL_INTERVAL")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt returns the value of an environment variable as int or a default.
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration returns the value of an environment variable as
// time.Duration or a default.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if durationValue, err := time.ParseDuration(value); err == nil {
			return durationValue
		}
	}
	return defaultValue
}

// Package config loads the process configuration once at startup. There
// are no package-level settings; main constructs a Config and injects it
// into every component.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string

	// Admin auth.
	JWTSecret            string
	TokenTTL             time.Duration
	DefaultAdminPassword string

	// Attendance policy.
	SessionCap        time.Duration
	SweepInterval     time.Duration
	ExpiryWarningDays int

	// Quarantine policy.
	Retention     time.Duration
	PurgeInterval time.Duration

	// Kiosk endpoints are rate limited per process.
	KioskRatePerMinute int
	KioskRateBurst     int

	// Response timestamps are formatted in this zone.
	DisplayTimeZone string

	// Empty disables trace export.
	OTLPEndpoint string
}

// Load reads configuration from the environment, applying defaults for
// everything except the database URL and JWT secret.
func Load() (Config, error) {
	cfg := Config{
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		TokenTTL:             getDuration("TOKEN_TTL", 24*time.Hour),
		DefaultAdminPassword: getEnv("DEFAULT_ADMIN_PASSWORD", "1234"),
		SessionCap:           getDuration("SESSION_CAP", 3*time.Hour),
		SweepInterval:        getDuration("SWEEP_INTERVAL", 30*time.Minute),
		ExpiryWarningDays:    getInt("EXPIRY_WARNING_DAYS", 7),
		Retention:            getDuration("QUARANTINE_RETENTION", 30*24*time.Hour),
		PurgeInterval:        getDuration("PURGE_INTERVAL", 24*time.Hour),
		KioskRatePerMinute:   getInt("KIOSK_RATE_PER_MINUTE", 60),
		KioskRateBurst:       getInt("KIOSK_RATE_BURST", 10),
		DisplayTimeZone:      getEnv("DISPLAY_TIMEZONE", "Asia/Seoul"),
		OTLPEndpoint:         os.Getenv("OTLP_ENDPOINT"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.KioskRatePerMinute < 1 {
		return Config{}, fmt.Errorf("KIOSK_RATE_PER_MINUTE must be at least 1, got %d", cfg.KioskRatePerMinute)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

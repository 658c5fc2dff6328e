// internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gymgate?sslmode=disable")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "1234", cfg.DefaultAdminPassword)
	assert.Equal(t, 3*time.Hour, cfg.SessionCap)
	assert.Equal(t, 30*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 7, cfg.ExpiryWarningDays)
	assert.Equal(t, 30*24*time.Hour, cfg.Retention)
	assert.Equal(t, 24*time.Hour, cfg.PurgeInterval)
	assert.Equal(t, 60, cfg.KioskRatePerMinute)
	assert.Equal(t, "Asia/Seoul", cfg.DisplayTimeZone)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gymgate?sslmode=disable")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SESSION_CAP", "2h")
	t.Setenv("SWEEP_INTERVAL", "5m")
	t.Setenv("EXPIRY_WARNING_DAYS", "14")
	t.Setenv("QUARANTINE_RETENTION", "168h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 2*time.Hour, cfg.SessionCap)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 14, cfg.ExpiryWarningDays)
	assert.Equal(t, 7*24*time.Hour, cfg.Retention)
}

func TestLoadRejectsZeroKioskRate(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gymgate?sslmode=disable")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("KIOSK_RATE_PER_MINUTE", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KIOSK_RATE_PER_MINUTE")
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/gymgate?sslmode=disable")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

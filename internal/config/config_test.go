package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 8*time.Hour, cfg.AccessTTL)
	assert.Equal(t, 10*time.Second, cfg.ReleaseGrace)
	assert.Equal(t, time.Second, cfg.ReleaseTick)
	assert.Equal(t, 12*time.Minute, cfg.TimerAlertAfter)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, "mesero", cfg.WaiterUsername)
	assert.True(t, cfg.SeedDemoData)
	assert.False(t, cfg.DB.Enabled)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, "logs", cfg.SalesLogDir)
	assert.Equal(t, 60, cfg.RateLimit.Capacity)
	assert.True(t, cfg.Cache.Methods["GET"])
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.Production())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RELEASE_GRACE", "3s")
	t.Setenv("SEED_DEMO_DATA", "false")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("REPORT_TZ", "UTC")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.ReleaseGrace)
	assert.False(t, cfg.SeedDemoData)
	assert.Equal(t, 5, cfg.RateLimit.Capacity)
	assert.Equal(t, 2*time.Second, cfg.RateLimit.RefillInterval)
	assert.Equal(t, 10*time.Minute, cfg.RateLimit.TTL)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, map[string]bool{"GET": true, "HEAD": true}, cfg.Cache.Methods)
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadRejectsBadZone(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("REPORT_TZ", "Mars/Olympus")
	_, err := Load()
	assert.Error(t, err)
}

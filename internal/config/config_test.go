package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/realmail")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "*/5 * * * *", cfg.MonitorSchedule)
	assert.Equal(t, "America/Toronto", cfg.MonitorTimezone)
	assert.Equal(t, 10*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, 5*time.Second, cfg.StreamTimeout)
	assert.Equal(t, 4, cfg.NotifyWorkers)
	assert.Equal(t, AuthModeNone, cfg.AuthMode)
}

func TestLoadConfig_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Equal(t, "DATABASE_URL is required", err.Error())
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("NOTIFY_TIMEOUT", "soon")

	_, err := LoadConfig()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOTIFY_TIMEOUT")
}

func TestLoadConfig_NonPositiveLockTTL(t *testing.T) {
	for _, value := range []string{"0s", "-1m"} {
		setRequired(t)
		t.Setenv("MONITOR_LOCK_TTL", value)

		_, err := LoadConfig()

		require.Error(t, err, value)
		assert.Contains(t, err.Error(), "MONITOR_LOCK_TTL")
	}
}

func TestLoadConfig_InvalidTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("MONITOR_TIMEZONE", "Mars/Olympus_Mons")

	_, err := LoadConfig()

	require.Error(t, err)
}

func TestLoadConfig_JWTModeRequiresSecret(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_MODE", AuthModeJWT)
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, AuthModeJWT, cfg.AuthMode)
}

func TestLoadConfig_UnknownAuthMode(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_MODE", "basic")

	_, err := LoadConfig()

	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "super-secret-value")
	t.Setenv("LEDGER_LOCK_TIMEOUT", "2s")
	t.Setenv("EVENT_BUS_DRIVER", "redis")
	t.Setenv("SERVER_PORT", "8080")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 2*time.Second, cfg.Ledger.LockTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Ledger.IdempotencyTTL)
	assert.Equal(t, "redis", cfg.EventBus.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "super-secret-value", cfg.Auth.Jwt.Secret)
	assert.True(t, cfg.DB.AutoMigrate)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env.test")
	require.NoError(t, os.WriteFile(envFile, []byte("AUTH_JWT_SECRET=from-file-secret\nLEDGER_IDEMPOTENCY_DRIVER=none\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("AUTH_JWT_SECRET")
		_ = os.Unsetenv("LEDGER_IDEMPOTENCY_DRIVER")
	})

	cfg, err := Load(".env.test")
	require.NoError(t, err)
	assert.Equal(t, "from-file-secret", cfg.Auth.Jwt.Secret)
	assert.Equal(t, "none", cfg.Ledger.IdempotencyDriver)
}

func TestLoad_Rejects(t *testing.T) {
	t.Run("missing jwt secret", func(t *testing.T) {
		t.Setenv("AUTH_JWT_SECRET", "")
		_, err := loadFromEnv()
		assert.Error(t, err)
	})
	t.Run("unknown bus", func(t *testing.T) {
		t.Setenv("AUTH_JWT_SECRET", "x")
		t.Setenv("EVENT_BUS_DRIVER", "carrier-pigeon")
		_, err := loadFromEnv()
		assert.ErrorContains(t, err, "EVENT_BUS_DRIVER")
	})
	t.Run("non positive lock timeout", func(t *testing.T) {
		t.Setenv("AUTH_JWT_SECRET", "x")
		t.Setenv("LEDGER_LOCK_TIMEOUT", "0s")
		_, err := loadFromEnv()
		assert.Error(t, err)
	})
}

func TestMaskValue(t *testing.T) {
	assert.Equal(t, "****", maskValue("short"))
	assert.Equal(t, "po****able", maskValue("postgres://user:pw@host/db?sslmode=disable"))
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "store": "memory"}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, StoreMemory, cfg.Store)
	require.Equal(t, 600, cfg.OTP.TTLSeconds)
	require.Equal(t, 4, cfg.OTP.CodeLength)
	require.Equal(t, DeliveryBestEffort, cfg.OTP.DeliveryPolicy)
	require.Equal(t, "log", cfg.Notifier.Type)
	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, 24, cfg.Cleanup.RetentionHours)
	require.Zero(t, cfg.RateLimit.RequestsPerSecond)
}

func TestLoad_PostgresRequiresConnection(t *testing.T) {
	path := writeConfig(t, `{"port": 8080}`)
	_, err := Load(path)
	require.Error(t, err)

	path = writeConfig(t, `{"port": 8080, "database": {"host": "db"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, StorePostgres, cfg.Store)
	require.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_RejectsUnknownDeliveryPolicy(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "store": "memory", "otp": {"delivery_policy": "maybe"}}`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(envDBDSN, "postgres://u:p@localhost/ledger")
	t.Setenv(envPort, "9090")
	path := writeConfig(t, `{"port": 8080}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "postgres://u:p@localhost/ledger", cfg.Database.DSN)
}

func TestLoad_RateLimitBurstDefault(t *testing.T) {
	path := writeConfig(t, `{"port": 8080, "store": "memory", "rate_limit": {"requests_per_second": 2}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 1, cfg.RateLimit.Burst)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EASYLEDGER_TEST_ENV_FILE=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("EASYLEDGER_TEST_ENV_FILE") })
	require.NoError(t, LoadEnvFile(path))
	require.Equal(t, "loaded", os.Getenv("EASYLEDGER_TEST_ENV_FILE"))
	require.NoError(t, LoadEnvFile(""))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("WALLETAUTH_JWT_SECRET", secret)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "stellar", cfg.Chain)
	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 5, cfg.Limiter.MaxVerifyAttempts)
	assert.False(t, cfg.NeedsRedis())
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  addr: ":8080"
chain: ethereum
store: redis
jwt:
  secret: "`+secret+`"
  access_ttl: 5m
  refresh_ttl: 24h
limiter:
  max_verify_attempts: 3
  window: 1m
`)
	t.Setenv("WALLETAUTH_ACCESS_TTL", "10m")
	t.Setenv("WALLETAUTH_EVENTS_ENABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "ethereum", cfg.Chain)
	assert.Equal(t, 10*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 3, cfg.Limiter.MaxVerifyAttempts)
	assert.Equal(t, time.Minute, cfg.Limiter.Window)
	assert.True(t, cfg.Events.Enabled)
	assert.True(t, cfg.NeedsRedis())
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "WALLETAUTH_JWT_SECRET="+secret+"\n")
	os.Unsetenv("WALLETAUTH_JWT_SECRET")
	t.Cleanup(func() { os.Unsetenv("WALLETAUTH_JWT_SECRET") })

	require.NoError(t, LoadEnv(path, filepath.Join(t.TempDir(), "missing.env")))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, secret, cfg.JWT.Secret)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"short secret", map[string]string{"WALLETAUTH_JWT_SECRET": "short"}},
		{"unknown chain", map[string]string{"WALLETAUTH_JWT_SECRET": secret, "WALLETAUTH_CHAIN": "bitcoin"}},
		{"unknown store", map[string]string{"WALLETAUTH_JWT_SECRET": secret, "WALLETAUTH_STORE": "mongo"}},
		{"postgres without dsn", map[string]string{"WALLETAUTH_JWT_SECRET": secret, "WALLETAUTH_STORE": "postgres"}},
		{"zero ttl", map[string]string{"WALLETAUTH_JWT_SECRET": secret, "WALLETAUTH_ACCESS_TTL": "0s"}},
		{"bad duration", map[string]string{"WALLETAUTH_JWT_SECRET": secret, "WALLETAUTH_REFRESH_TTL": "soon"}},
		{"bad attempts", map[string]string{"WALLETAUTH_JWT_SECRET": secret, "WALLETAUTH_MAX_VERIFY_ATTEMPTS": "many"}},
		{"negative attempts", map[string]string{"WALLETAUTH_JWT_SECRET": secret, "WALLETAUTH_MAX_VERIFY_ATTEMPTS": "-1"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndFile(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/listing
redis:
  url: redis://localhost:6379/0
jwt:
  private_key_path: /etc/listing/private.pem
entitlement:
  default_grant_days: 14
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/listing", cfg.Database.URL)
	assert.Equal(t, "/etc/listing/private.pem", cfg.JWT.PrivateKeyPath)
	assert.Equal(t, 168*time.Hour, cfg.JWT.SessionTTL)
	assert.Equal(t, "session", cfg.Session.CookieName)
	assert.Equal(t, 14, cfg.Entitlement.DefaultGrantDays)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://file/listing
redis:
  url: redis://file:6379/0
`)
	t.Setenv("DATABASE_URL", "postgres://env/listing")
	t.Setenv("SESSION_TTL", "24h")
	t.Setenv("DEFAULT_GRANT_DAYS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env/listing", cfg.Database.URL)
	assert.Equal(t, "redis://file:6379/0", cfg.Redis.URL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.SessionTTL)
	assert.Equal(t, 7, cfg.Entitlement.DefaultGrantDays)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "missing database url",
			body:    "redis:\n  url: redis://x\n",
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "missing redis url",
			body:    "database:\n  url: postgres://x\n",
			wantErr: "REDIS_URL is required",
		},
		{
			name: "empty signing key path",
			body: "database:\n  url: postgres://x\nredis:\n  url: redis://x\n" +
				"jwt:\n  private_key_path: \"\"\n",
			wantErr: "JWT_PRIVATE_KEY_PATH is required",
		},
		{
			name: "wildcard origin with credentials",
			body: "database:\n  url: postgres://x\nredis:\n  url: redis://x\n" +
				"cors:\n  allowed_origins: [\"*\"]\n",
			wantErr: "CORS wildcard",
		},
		{
			name: "non-positive grant days",
			body: "database:\n  url: postgres://x\nredis:\n  url: redis://x\n" +
				"entitlement:\n  default_grant_days: 0\n",
			wantErr: "default_grant_days",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestServerConfig_Address(t *testing.T) {
	s := ServerConfig{Host: "127.0.0.1", Port: 9090}
	assert.Equal(t, "127.0.0.1:9090", s.Address())
}

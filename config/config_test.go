package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/require"
)

const sample = `
store:
  enabled: true
  base_url: "https://abc.supabase.co"
  publishable_key: "file-publishable"
  secret_key: ""
  timeout_seconds: 5
cache:
  backend: "redis"
redis:
  host: "localhost"
  port: 6379
kafka:
  enabled: true
  host: "localhost"
  port: 9092
  orders_changed_topic_name: "orders.changed"
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
logitrack:
  http_addr: ":8080"
  admin_token: "file-admin"
  max_views: 100
  search_rate_limit_per_minute: 30
  snapshot_refresh_interval_seconds: 60
map:
  padding: 40
  max_zoom: 18
emulator:
  http_addr: ":8090"
  jwt_secret: "dev-secret"
`

func writeConfig(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(sample), 0o600))
	return p
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t), envconfig.MapLookuper(map[string]string{}))
	require.NoError(t, err)
	require.True(t, cfg.Store.Enabled)
	require.Equal(t, "https://abc.supabase.co", cfg.Store.BaseURL)
	require.Equal(t, 5, cfg.Store.TimeoutSeconds)
	require.False(t, cfg.Store.DisableAdminPublicFallback)
	require.Equal(t, "redis", cfg.Cache.Backend)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, "orders.changed", cfg.Kafka.OrdersChangedTopicName)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, ":8080", cfg.LogiTrack.HTTPAddr)
	require.Equal(t, 30, cfg.LogiTrack.SearchRateLimitPerMinute)
	require.Equal(t, 40, cfg.Map.Padding)
	require.Equal(t, "dev-secret", cfg.Emulator.JWTSecret)
}

func TestLoadConfig_EnvOverridesSecrets(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t), envconfig.MapLookuper(map[string]string{
		"LOGITRACK_STORE_SECRET_KEY":      "env-secret",
		"LOGITRACK_STORE_PUBLISHABLE_KEY": "env-publishable",
		"LOGITRACK_ADMIN_TOKEN":           "env-admin",
		"LOGITRACK_DB_PASSWORD":           "env-pass",
		"LOGITRACK_STORE_ENABLED":         "false",
	}))
	require.NoError(t, err)
	require.Equal(t, "env-secret", cfg.Store.SecretKey)
	require.Equal(t, "env-publishable", cfg.Store.PublishableKey)
	require.Equal(t, "env-admin", cfg.LogiTrack.AdminToken)
	require.Equal(t, "env-pass", cfg.Database.Password)
	require.False(t, cfg.Store.Enabled)
	// not set in env: the file value stays
	require.Equal(t, "https://abc.supabase.co", cfg.Store.BaseURL)
	require.Equal(t, "dev-secret", cfg.Emulator.JWTSecret)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	p := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(p, []byte("store: [unclosed"), 0o600))
	_, err = LoadConfig(p)
	require.Error(t, err)
}

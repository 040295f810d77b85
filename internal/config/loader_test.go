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
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "equipment.db")
	path := writeConfig(t, `
server:
  port: 9000
database:
  path: `+dbPath+`
jwt:
  secret_key: from-file
retention:
  max_datasets: 3
cors:
  origins: [http://localhost:3000]
`)
	t.Setenv("EQUIP_JWT_SECRET_KEY", "from-env")
	t.Setenv("EQUIP_UPLOAD_MAX_BYTES", "2048")
	t.Setenv("EQUIP_AUTH_BCRYPT_COST", "4")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "from-env", cfg.JWT.SecretKey)
	assert.Equal(t, int64(2048), cfg.Upload.MaxBytes)
	assert.Equal(t, 4, cfg.Auth.BcryptCost)
	assert.Equal(t, 3, cfg.Retention.MaxDatasets)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.Origins)

	// 默认值
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, 30*24*time.Hour, cfg.JWT.GetExpireDuration())
	assert.Equal(t, 10*time.Second, cfg.Upload.GetLockTimeout())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Redis.Enabled())
	assert.Empty(t, cfg.Server.TrustedProxies)

	// 数据库目录会被创建
	_, err = os.Stat(filepath.Dir(dbPath))
	assert.NoError(t, err)
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("EQUIP_JWT_SECRET_KEY", "env-only")
	t.Setenv("EQUIP_DATABASE_PATH", filepath.Join(t.TempDir(), "e.db"))
	t.Setenv("EQUIP_REDIS_SERVICE_HOST", "redis.internal")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "env-only", cfg.JWT.SecretKey)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Retention.MaxDatasets)
	assert.Equal(t, 10, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "redis.internal:6379", cfg.Redis.GetAddress())
}

func TestLoadConfig_TrustedProxies(t *testing.T) {
	path := writeConfig(t, `
server:
  trusted_proxies: [10.0.0.1, 192.168.0.0/16]
jwt:
  secret_key: s
database:
  path: `+filepath.Join(t.TempDir(), "e.db")+`
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1", "192.168.0.0/16"}, cfg.Server.TrustedProxies)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "e.db")
	cases := map[string]string{
		"no secret":       "database:\n  path: " + dbPath + "\n",
		"bad port":        "server:\n  port: 70000\njwt:\n  secret_key: s\ndatabase:\n  path: " + dbPath + "\n",
		"bad retention":   "retention:\n  max_datasets: -1\njwt:\n  secret_key: s\ndatabase:\n  path: " + dbPath + "\n",
		"bad log level":   "log:\n  level: loud\njwt:\n  secret_key: s\ndatabase:\n  path: " + dbPath + "\n",
		"malformed yaml":  "server: [\n",
		"negative upload": "upload:\n  max_bytes: -5\njwt:\n  secret_key: s\ndatabase:\n  path: " + dbPath + "\n",
		"bad bcrypt cost": "auth:\n  bcrypt_cost: 40\njwt:\n  secret_key: s\ndatabase:\n  path: " + dbPath + "\n",
		"bad proxy":       "server:\n  trusted_proxies: [not-an-ip]\njwt:\n  secret_key: s\ndatabase:\n  path: " + dbPath + "\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

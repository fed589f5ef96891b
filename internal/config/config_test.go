package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allEnvVars = []string{
	"ASSETS_DATABASE_DRIVER", "ASSETS_DATABASE_URL", "ASSETS_SCHEMA_FILE", "ASSETS_STRIP_SQL_TOKENS",
	"ASSETS_NATS_URL", "ASSETS_REDIS_URL", "ASSETS_CACHE_TTL", "ASSETS_LOG_LEVEL", "ASSETS_LOG_FORMAT",
	"ASSETS_METRICS_ADDR", "ASSETS_BACKUP_INTERVAL", "ASSETS_BACKUP_FILE", "ASSETS_BACKUP_S3_BUCKET",
	"ASSETS_BACKUP_S3_ENDPOINT", "ASSETS_BACKUP_S3_REGION", "ASSETS_BACKUP_S3_KEY",
	"ASSETS_BACKUP_GIT_REPO", "ASSETS_BACKUP_GIT_FILE", "ASSETS_BACKUP_GIT_BRANCH",
}

// clearAllEnv unsets every variable Load reads. t.Setenv("") would count as
// set, so the defaults would not apply; unsetting restores them.
func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "x")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unsetenv %s: %v", key, err)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	assert.Equal(t, "login_system.db", cfg.DatabaseURL)
	assert.False(t, cfg.StripSQLTokens)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, time.Duration(0), cfg.BackupInterval)
	assert.Equal(t, "us-east-1", cfg.BackupS3Region)
	assert.Equal(t, "userassets/backup.jsonl", cfg.BackupS3Key)
	assert.Equal(t, "assets.jsonl", cfg.BackupGitFile)
	assert.Equal(t, "main", cfg.BackupGitBranch)
	assert.Empty(t, cfg.NATSURL)
	assert.Empty(t, cfg.RedisURL)
}

func TestLoad_Overrides(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("ASSETS_DATABASE_DRIVER", "postgres")
	t.Setenv("ASSETS_DATABASE_URL", "postgres://localhost/assets?sslmode=disable")
	t.Setenv("ASSETS_STRIP_SQL_TOKENS", "true")
	t.Setenv("ASSETS_CACHE_TTL", "90s")
	t.Setenv("ASSETS_LOG_FORMAT", "json")
	t.Setenv("ASSETS_BACKUP_INTERVAL", "1h")
	t.Setenv("ASSETS_BACKUP_S3_BUCKET", "backups")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.DatabaseDriver)
	assert.True(t, cfg.StripSQLTokens)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, time.Hour, cfg.BackupInterval)
	assert.Equal(t, "backups", cfg.BackupS3Bucket)
}

func TestLoad_Invalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		key  string
		val  string
	}{
		{"UnknownDriver", "ASSETS_DATABASE_DRIVER", "mysql"},
		{"UnknownLogFormat", "ASSETS_LOG_FORMAT", "xml"},
		{"BadDuration", "ASSETS_CACHE_TTL", "soon"},
		{"NegativeInterval", "ASSETS_BACKUP_INTERVAL", "-5m"},
		{"BadBool", "ASSETS_STRIP_SQL_TOKENS", "maybe"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

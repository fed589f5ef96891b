// Package config loads settings from ASSETS_* environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"login_system.db"` // file path for sqlite

	SchemaFile     string `env:"SCHEMA_FILE"`                         // TOML override of the built-in schema
	StripSQLTokens bool   `env:"STRIP_SQL_TOKENS" envDefault:"false"` // remove quote/comment tokens from strings before writing

	NATSURL  string        `env:"NATS_URL"`  // empty = no events
	RedisURL string        `env:"REDIS_URL"` // empty = no cache
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	MetricsAddr string `env:"METRICS_ADDR"` // empty = metrics not served

	// Backup settings
	BackupInterval   time.Duration `env:"BACKUP_INTERVAL" envDefault:"0"` // 0 = one-shot only
	BackupFile       string        `env:"BACKUP_FILE"`
	BackupS3Bucket   string        `env:"BACKUP_S3_BUCKET"`   // enables S3 when set
	BackupS3Endpoint string        `env:"BACKUP_S3_ENDPOINT"` // custom endpoint for MinIO
	BackupS3Region   string        `env:"BACKUP_S3_REGION" envDefault:"us-east-1"`
	BackupS3Key      string        `env:"BACKUP_S3_KEY" envDefault:"userassets/backup.jsonl"`
	BackupGitRepo    string        `env:"BACKUP_GIT_REPO"` // local clone; enables git when set
	BackupGitFile    string        `env:"BACKUP_GIT_FILE" envDefault:"assets.jsonl"`
	BackupGitBranch  string        `env:"BACKUP_GIT_BRANCH" envDefault:"main"`
}

// Load parses ASSETS_* environment variables and checks enumerated values.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "ASSETS_"}); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("ASSETS_DATABASE_DRIVER: unknown driver %q (want sqlite or postgres)", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("ASSETS_DATABASE_URL is required")
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("ASSETS_LOG_FORMAT: unknown format %q (want text or json)", c.LogFormat)
	}
	if c.BackupInterval < 0 {
		return fmt.Errorf("ASSETS_BACKUP_INTERVAL must not be negative")
	}
	return nil
}

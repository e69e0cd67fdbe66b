// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"usersapi/internal/core"
	"usersapi/internal/infra/blob"
	blobcore "usersapi/internal/infra/blob/core"
	"usersapi/internal/infra/blob/s3"
	"usersapi/internal/telemetry"
)

// Config is the complete process configuration.
type Config struct {
	Port            int           `env:"PORT" envDefault:"4000"`
	LogLevel        string        `env:"USERSAPI_LOG_LEVEL" envDefault:"info"`
	BodyReadTimeout time.Duration `env:"USERSAPI_BODY_READ_TIMEOUT" envDefault:"10s"`
	MaxBodyBytes    int64         `env:"USERSAPI_MAX_BODY_BYTES" envDefault:"1048576"`
	MetricsAddr     string        `env:"USERSAPI_METRICS_ADDR" envDefault:":9090"`
	ShutdownTimeout time.Duration `env:"USERSAPI_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Storage StorageConfig
	Blob    BlobConfig
	OTel    OTelConfig
}

// StorageConfig selects the user store backend.
type StorageConfig struct {
	Driver      string `env:"USERSAPI_STORAGE_DRIVER" envDefault:"file"`
	SQLitePath  string `env:"USERSAPI_SQLITE_PATH" envDefault:"./data/users.db"`
	PostgresDSN string `env:"USERSAPI_POSTGRES_DSN"`
	DocumentKey string `env:"USERSAPI_DOCUMENT_KEY" envDefault:"users.json"`
}

// BlobConfig selects the blob driver holding the user document.
type BlobConfig struct {
	Driver            string `env:"USERSAPI_BLOB_DRIVER" envDefault:"fs"`
	FSRoot            string `env:"USERSAPI_BLOB_FS_ROOT" envDefault:"./data"`
	S3Bucket          string `env:"USERSAPI_BLOB_S3_BUCKET"`
	S3Region          string `env:"USERSAPI_BLOB_S3_REGION"`
	S3Endpoint        string `env:"USERSAPI_BLOB_S3_ENDPOINT"`
	S3PathStyle       bool   `env:"USERSAPI_BLOB_S3_PATH_STYLE"`
	S3AccessKeyID     string `env:"USERSAPI_BLOB_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"USERSAPI_BLOB_S3_SECRET_ACCESS_KEY"`
}

// OTelConfig controls trace export.
type OTelConfig struct {
	Enabled  bool   `env:"USERSAPI_OTEL_ENABLED" envDefault:"false"`
	Endpoint string `env:"USERSAPI_OTEL_ENDPOINT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the process cannot start with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.BodyReadTimeout < 0 {
		return fmt.Errorf("invalid USERSAPI_BODY_READ_TIMEOUT %s", c.BodyReadTimeout)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch core.StorageDriver(c.Storage.Driver) {
	case core.StorageMemory, core.StorageFile, core.StorageSQLite, core.StoragePostgres:
	default:
		return fmt.Errorf("unknown USERSAPI_STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if core.StorageDriver(c.Storage.Driver) == core.StorageFile {
		switch blobcore.Driver(c.Blob.Driver) {
		case blobcore.DriverFilesystem, blobcore.DriverMemory:
		case blobcore.DriverS3:
			if c.Blob.S3Bucket == "" {
				return fmt.Errorf("USERSAPI_BLOB_S3_BUCKET is required for the s3 blob driver")
			}
		default:
			return fmt.Errorf("unknown USERSAPI_BLOB_DRIVER %q", c.Blob.Driver)
		}
	}
	if c.OTel.Enabled && c.OTel.Endpoint == "" {
		return fmt.Errorf("USERSAPI_OTEL_ENDPOINT is required when tracing is enabled")
	}
	return nil
}

// Addr is the API listen address.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

// Level returns the configured slog level.
func (c Config) Level() slog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid USERSAPI_LOG_LEVEL %q: %w", s, err)
	}
	return lvl, nil
}

// StorageConfig converts to the store opener's configuration.
func (c Config) StorageConfig() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.Storage.Driver),
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
		DocumentKey: c.Storage.DocumentKey,
		Blob: blob.Config{
			Driver: blobcore.Driver(c.Blob.Driver),
			FSRoot: c.Blob.FSRoot,
			S3: s3.Config{
				Bucket:          c.Blob.S3Bucket,
				Region:          c.Blob.S3Region,
				Endpoint:        c.Blob.S3Endpoint,
				PathStyle:       c.Blob.S3PathStyle,
				AccessKeyID:     c.Blob.S3AccessKeyID,
				SecretAccessKey: c.Blob.S3SecretAccessKey,
			},
		},
	}
}

// TelemetryConfig converts to the tracing setup configuration.
func (c Config) TelemetryConfig() telemetry.Config {
	return telemetry.Config{Enabled: c.OTel.Enabled, Endpoint: c.OTel.Endpoint}
}

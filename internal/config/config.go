// Package config resolves sspdb settings from flags, SSPDB_* environment
// variables, an optional config file and defaults, in that order.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"sspdb/internal/blob"
)

// Keys understood by Load.
const (
	KeyDataDir         = "data_dir"
	KeyBlobDriver      = "blob.driver"
	KeyS3Bucket        = "blob.s3.bucket"
	KeyS3Region        = "blob.s3.region"
	KeyS3Endpoint      = "blob.s3.endpoint"
	KeyS3Prefix        = "blob.s3.prefix"
	KeyS3PathStyle     = "blob.s3.path_style"
	KeyS3AccessKey     = "blob.s3.access_key_id"
	KeyS3SecretKey     = "blob.s3.secret_access_key"
	KeyLogLevel        = "log.level"
	KeyReferencesCheck = "references.check"
	KeyMetricsAddr     = "metrics.addr"
	KeyTraceFile       = "trace.file"
)

// EnvPrefix is prepended to every environment variable, with dots mapped to
// underscores: blob.s3.bucket is SSPDB_BLOB_S3_BUCKET.
const EnvPrefix = "SSPDB"

// Config is the resolved configuration.
type Config struct {
	DataDir         string
	Blob            blob.Options
	LogLevel        string
	CheckReferences bool
	MetricsAddr     string
	TraceFile       string
}

// New returns a viper instance with defaults and environment binding set.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyDataDir, "data")
	v.SetDefault(KeyBlobDriver, string(blob.DriverFilesystem))
	v.SetDefault(KeyS3Region, "us-east-1")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyReferencesCheck, true)
	return v
}

// Load reads file into v when non-empty, then resolves Config.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	cfg := Config{
		DataDir: v.GetString(KeyDataDir),
		Blob: blob.Options{
			Driver: blob.Driver(strings.ToLower(v.GetString(KeyBlobDriver))),
			S3: blob.S3Config{
				Bucket:          v.GetString(KeyS3Bucket),
				Region:          v.GetString(KeyS3Region),
				Endpoint:        v.GetString(KeyS3Endpoint),
				Prefix:          v.GetString(KeyS3Prefix),
				PathStyle:       v.GetBool(KeyS3PathStyle),
				AccessKeyID:     v.GetString(KeyS3AccessKey),
				SecretAccessKey: v.GetString(KeyS3SecretKey),
			},
		},
		LogLevel:        strings.ToLower(v.GetString(KeyLogLevel)),
		CheckReferences: v.GetBool(KeyReferencesCheck),
		MetricsAddr:     v.GetString(KeyMetricsAddr),
		TraceFile:       v.GetString(KeyTraceFile),
	}
	cfg.Blob.Root = cfg.DataDir
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Blob.Driver {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			return errors.New("blob.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Blob.Driver == blob.DriverFilesystem && c.DataDir == "" {
		return errors.New("data_dir must not be empty")
	}
	return nil
}

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openmined/filedrop/internal/server/metadata"
	"github.com/openmined/filedrop/internal/server/remote"
	"github.com/ulule/limiter/v3"
)

const (
	DefaultAddr               = "127.0.0.1:8080"
	DefaultUploadDir          = "uploads"
	DefaultRateLimit          = "120-M"
	DefaultMaxMultipartMemory = 32 << 20 // 32 MiB
	DefaultLogLevel           = "info"
)

type Config struct {
	HTTP     HTTPConfig    `mapstructure:"http"`
	Storage  StorageConfig `mapstructure:"storage"`
	Remote   remote.Config `mapstructure:"remote"`
	LogLevel string        `mapstructure:"log_level"`
}

type HTTPConfig struct {
	Addr               string `mapstructure:"addr"`
	CertFile           string `mapstructure:"cert_file"`
	KeyFile            string `mapstructure:"key_file"`
	RateLimit          string `mapstructure:"rate_limit"`
	MaxMultipartMemory int64  `mapstructure:"max_multipart_memory"`
}

type StorageConfig struct {
	UploadDir         string   `mapstructure:"upload_dir"`
	MetadataBackend   string   `mapstructure:"metadata_backend"`
	MaxUploadSize     int64    `mapstructure:"max_upload_size"`
	MaxVideoSize      int64    `mapstructure:"max_video_size"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

func (c *HTTPConfig) TLS() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

func (c *HTTPConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("http `addr` is required")
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return errors.New("http `cert_file` and `key_file` must be set together")
	}
	if c.RateLimit != "" {
		if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
			return fmt.Errorf("http `rate_limit` %q: %w", c.RateLimit, err)
		}
	}
	if c.MaxMultipartMemory < 0 {
		return errors.New("http `max_multipart_memory` must not be negative")
	}
	return nil
}

func (c *StorageConfig) Validate() error {
	if strings.TrimSpace(c.UploadDir) == "" {
		return errors.New("storage `upload_dir` is required")
	}
	switch c.MetadataBackend {
	case "", metadata.BackendJSON, metadata.BackendSQLite:
	default:
		return fmt.Errorf("storage `metadata_backend` must be %s or %s", metadata.BackendJSON, metadata.BackendSQLite)
	}
	if c.MaxUploadSize < 0 || c.MaxVideoSize < 0 {
		return errors.New("storage size limits must not be negative")
	}
	return nil
}

func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Remote.Validate(); err != nil {
		return err
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", c.HTTP.Addr),
		slog.Bool("tls", c.HTTP.TLS()),
		slog.String("rate_limit", c.HTTP.RateLimit),
		slog.String("upload_dir", c.Storage.UploadDir),
		slog.String("metadata_backend", c.Storage.MetadataBackend),
		slog.Int64("max_upload_size", c.Storage.MaxUploadSize),
		slog.Int64("max_video_size", c.Storage.MaxVideoSize),
		slog.Any("remote", c.Remote),
		slog.String("log_level", c.LogLevel),
	)
}

// ParseLogLevel accepts debug, info, warn and error; empty means info
func ParseLogLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("`log_level` %q: %w", s, err)
	}
	return level, nil
}

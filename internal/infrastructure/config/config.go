package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all server configuration.
//
// Values are layered: Default, then an optional YAML file, then
// environment variables, then command line flags (applied by cmd/server).
// The structs carry no envconfig defaults so an unset variable never
// clobbers a value from the file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	CORS      CORSConfig      `yaml:"cors"`
	Logging   LogConfig       `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" yaml:"port"`
	Host string `envconfig:"HOST" yaml:"host"`
}

// StorageConfig holds storage root and upload limits.
type StorageConfig struct {
	Root             string `envconfig:"STORAGE_ROOT" yaml:"root"`
	MaxFileSizeMB    int64  `envconfig:"MAX_FILE_SIZE_MB" yaml:"maxFileSizeMB"`
	MaxFilesPerBatch int    `envconfig:"MAX_FILES_PER_BATCH" yaml:"maxFilesPerBatch"`
}

// CORSConfig controls the origin allow-list.
type CORSConfig struct {
	AllowPrivate bool     `envconfig:"CORS_ALLOW_PRIVATE" yaml:"allowPrivate"`
	ExtraOrigins []string `envconfig:"CORS_EXTRA_ORIGINS" yaml:"extraOrigins"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" yaml:"level"`
	Development bool   `envconfig:"LOG_DEV" yaml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" yaml:"requestsPerSecond"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" yaml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" yaml:"enabled"`
}

// Load returns Default overlaid with environment variables.
func Load() (*Config, error) {
	cfg := Default()
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile returns Default overlaid with the YAML file at path and then
// with environment variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "3001",
			Host: "0.0.0.0",
		},
		Storage: StorageConfig{
			Root:             "uploads",
			MaxFileSizeMB:    100,
			MaxFilesPerBatch: 500,
		},
		CORS: CORSConfig{
			AllowPrivate: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           false,
		},
	}
}

// Upper bounds keep MaxRequestBytes well inside int64.
const (
	MaxFileSizeMBLimit    = 1 << 20 // 1 TiB
	MaxFilesPerBatchLimit = 100_000
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if strings.TrimSpace(c.Storage.Root) == "" {
		errs = append(errs, errors.New("storage root is required"))
	}
	if c.Storage.MaxFileSizeMB <= 0 {
		errs = append(errs, fmt.Errorf("max file size must be positive, got %dMB", c.Storage.MaxFileSizeMB))
	} else if c.Storage.MaxFileSizeMB > MaxFileSizeMBLimit {
		errs = append(errs, fmt.Errorf("max file size must be at most %dMB, got %dMB", MaxFileSizeMBLimit, c.Storage.MaxFileSizeMB))
	}
	if c.Storage.MaxFilesPerBatch <= 0 {
		errs = append(errs, fmt.Errorf("max files per batch must be positive, got %d", c.Storage.MaxFilesPerBatch))
	} else if c.Storage.MaxFilesPerBatch > MaxFilesPerBatchLimit {
		errs = append(errs, fmt.Errorf("max files per batch must be at most %d, got %d", MaxFilesPerBatchLimit, c.Storage.MaxFilesPerBatch))
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, errors.New("rate limit needs positive requests per second and burst"))
	}
	return errors.Join(errs...)
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// MaxFileSizeBytes returns the per-file upload limit in bytes.
func (c *Config) MaxFileSizeBytes() int64 {
	return c.Storage.MaxFileSizeMB << 20
}

// MaxRequestBytes caps a whole upload request body.
func (c *Config) MaxRequestBytes() int64 {
	// Multipart headers and text fields ride on top of the file bytes.
	const overhead = 1 << 20
	return c.MaxFileSizeBytes()*int64(c.Storage.MaxFilesPerBatch) + overhead
}

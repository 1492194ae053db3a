package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "3001", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "uploads", cfg.Storage.Root)
	assert.Equal(t, int64(100), cfg.Storage.MaxFileSizeMB)
	assert.Equal(t, int64(100<<20), cfg.MaxFileSizeBytes())
	assert.Equal(t, 500, cfg.Storage.MaxFilesPerBatch)
	assert.True(t, cfg.CORS.AllowPrivate)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "0.0.0.0:3001", cfg.Addr())
	require.NoError(t, cfg.Validate())
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":               "9000",
		"HOST":               "127.0.0.1",
		"STORAGE_ROOT":       "/srv/drop",
		"MAX_FILE_SIZE_MB":   "5",
		"CORS_EXTRA_ORIGINS": "https://drop.example.com,http://nas.local:8080",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"RATE_LIMIT_ENABLED": "true",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "/srv/drop", cfg.Storage.Root)
	assert.Equal(t, int64(5<<20), cfg.MaxFileSizeBytes())
	assert.Equal(t, []string{"https://drop.example.com", "http://nas.local:8080"}, cfg.CORS.ExtraOrigins)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.True(t, cfg.RateLimit.Enabled)

	// Unset variables keep their defaults.
	assert.Equal(t, 500, cfg.Storage.MaxFilesPerBatch)
	assert.Equal(t, 50, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadInvalidEnvironment(t *testing.T) {
	t.Setenv("MAX_FILE_SIZE_MB", "lots")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "landrop.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "4000"
storage:
  root: /data/landrop
  maxFileSizeMB: 250
cors:
  extraOrigins:
    - https://drop.example.com
`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "missing keys keep defaults")
	assert.Equal(t, "/data/landrop", cfg.Storage.Root)
	assert.Equal(t, int64(250), cfg.Storage.MaxFileSizeMB)
	assert.Equal(t, []string{"https://drop.example.com"}, cfg.CORS.ExtraOrigins)

	t.Setenv("PORT", "5000")
	cfg, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.Server.Port, "environment beats the file")
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [unclosed"), 0o644))
	_, err = LoadFile(bad)
	assert.ErrorContains(t, err, "parse config file")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Server.Port = ""
	cfg.Storage.MaxFileSizeMB = 0
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Burst = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server port is required")
	assert.Contains(t, err.Error(), "max file size must be positive")
	assert.Contains(t, err.Error(), "rate limit")
}

func TestValidateCapsSizes(t *testing.T) {
	cfg := Default()
	cfg.Storage.MaxFileSizeMB = 1 << 50
	cfg.Storage.MaxFilesPerBatch = MaxFilesPerBatchLimit + 1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max file size must be at most")
	assert.Contains(t, err.Error(), "max files per batch must be at most")

	cfg.Storage.MaxFileSizeMB = MaxFileSizeMBLimit
	cfg.Storage.MaxFilesPerBatch = MaxFilesPerBatchLimit
	require.NoError(t, cfg.Validate())
	assert.Positive(t, cfg.MaxRequestBytes())
}

func TestMaxRequestBytes(t *testing.T) {
	cfg := Default()
	cfg.Storage.MaxFileSizeMB = 1
	cfg.Storage.MaxFilesPerBatch = 3

	assert.Equal(t, int64(4<<20), cfg.MaxRequestBytes())
}

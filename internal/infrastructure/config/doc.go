// Package config loads server configuration.
//
// Sources, lowest precedence first:
//   - Default values
//   - An optional YAML file (-config)
//   - Environment variables (PORT, STORAGE_ROOT, MAX_FILE_SIZE_MB, ...)
//   - Command line flags, applied by cmd/server
package config

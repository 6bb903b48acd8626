// Package config provides server configuration for TokRelay.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Business validation (ranges, TLS files, data directory)
//   - sanitize.go: Log sanitization (hide the bot token and admin key)
//
// Configuration is loaded via internal/infra/confloader from a YAML file
// and TOKRELAY_ environment variables.
package config

// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional YAML file. Environment variables
// use the ARCANA_ prefix with dots replaced by underscores, so the key
// server.log_level is read from ARCANA_SERVER_LOG_LEVEL.
package config

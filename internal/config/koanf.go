// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found is used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/tuskwatch/config.yaml",
	"/etc/tuskwatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces all Tuskwatch environment variables.
const envPrefix = "TUSKWATCH_"

// Load builds the configuration by layering three sources in ascending
// precedence:
//
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: TUSKWATCH_* overrides any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: environment variables (highest priority)
	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, honoring CONFIG_PATH first.
// Returns empty string when no file is found; the file layer is optional.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envMappings maps TUSKWATCH_ environment variable suffixes (lowercased)
// to koanf config paths. Underscores inside key names make a blind
// underscore-to-dot transform ambiguous, so the mapping is explicit.
var envMappings = map[string]string{
	// Database
	"database_dsn":           "database.dsn",
	"database_ensure_schema": "database.ensure_schema",

	// Engine
	"engine_workers":          "engine.workers",
	"engine_delivery_timeout": "engine.delivery_timeout",

	// Stationary detection
	"stationary_lookback":             "engine.stationary.lookback",
	"stationary_min_duration":         "engine.stationary.min_duration",
	"stationary_movement_threshold_m": "engine.stationary.movement_threshold_m",
	"stationary_severity":             "engine.stationary.severity",

	// SMTP
	"smtp_host":     "smtp.host",
	"smtp_port":     "smtp.port",
	"smtp_username": "smtp.username",
	"smtp_password": "smtp.password",
	"smtp_from":     "smtp.from",

	// SMS gateway
	"sms_gateway_url": "sms.gateway_url",
	"sms_api_key":     "sms.api_key",
	"sms_sender_id":   "sms.sender_id",

	// Server
	"server_host":    "server.host",
	"server_port":    "server.port",
	"server_timeout": "server.timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps TUSKWATCH_DATABASE_DSN to database.dsn and so
// on. Unknown variables return empty string, which koanf skips.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return envMappings[key]
}

// Tuskwatch - Wildlife Geofence Monitoring and Alert Dispatch
// Copyright 2026 D. Hapuarachchi
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hapuarachchi/tuskwatch

// Package config loads Tuskwatch configuration with koanf, layering
// struct defaults, an optional YAML file and environment variables,
// in ascending precedence.
package config

import (
	"fmt"
	"time"

	"github.com/hapuarachchi/tuskwatch/internal/engine"
	"github.com/hapuarachchi/tuskwatch/internal/notify"
	"github.com/hapuarachchi/tuskwatch/internal/validation"
)

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig    `koanf:"database"`
	Engine   engine.Config     `koanf:"engine"`
	SMTP     notify.SMTPConfig `koanf:"smtp"`
	SMS      notify.SMSConfig  `koanf:"sms"`
	Server   ServerConfig      `koanf:"server"`
	Logging  LoggingConfig     `koanf:"logging"`
}

// DatabaseConfig configures the Postgres connection.
type DatabaseConfig struct {
	// DSN is the Postgres connection string.
	DSN string `koanf:"dsn" validate:"required"`

	// EnsureSchema creates the tables and indexes at startup.
	EnsureSchema bool `koanf:"ensure_schema"`
}

// ServerConfig configures the admin HTTP surface (serve mode).
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig configures the zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:          "",
			EnsureSchema: true,
		},
		Engine: engine.DefaultConfig(),
		SMTP: notify.SMTPConfig{
			Port: 587,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8180,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}

	if c.Engine.Workers <= 0 {
		return fmt.Errorf("engine.workers must be positive, got %d", c.Engine.Workers)
	}
	if c.Engine.DeliveryTimeout <= 0 {
		return fmt.Errorf("engine.delivery_timeout must be positive, got %s", c.Engine.DeliveryTimeout)
	}
	if c.Engine.Stationary.MovementThresholdM <= 0 {
		return fmt.Errorf("engine.stationary.movement_threshold_m must be positive, got %f",
			c.Engine.Stationary.MovementThresholdM)
	}
	if c.Engine.Stationary.Lookback < c.Engine.Stationary.MinDuration {
		return fmt.Errorf("engine.stationary.lookback %s is shorter than min_duration %s",
			c.Engine.Stationary.Lookback, c.Engine.Stationary.MinDuration)
	}
	switch c.Engine.Stationary.Severity {
	case engine.SeverityCritical, engine.SeverityHigh, engine.SeverityMedium, engine.SeverityLow:
	default:
		return fmt.Errorf("engine.stationary.severity %q is not a known severity",
			c.Engine.Stationary.Severity)
	}

	return nil
}

// Package config loads registry configuration from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xraph/hive/internal/errors"
	"github.com/xraph/hive/internal/logger"
)

// Config configures a registry and its ambient stack.
type Config struct {
	Name    string               `yaml:"name"`
	Logging logger.LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig        `yaml:"metrics"`
	Tracing TracingConfig        `yaml:"tracing"`
}

// MetricsConfig enables the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`
}

// TracingConfig enables construction spans on the global tracer provider.
type TracingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	TracerName string `yaml:"tracer_name"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Name: "registry",
		Logging: logger.LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Metrics: MetricsConfig{
			Namespace: "hive",
		},
		Tracing: TracingConfig{
			TracerName: "github.com/xraph/hive",
		},
	}
}

// Load reads and validates the YAML file at path, filling unset values from
// Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ErrConfigError("failed to read config file "+path, err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML configuration.
func Parse(data []byte) (*Config, error) {
	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errors.ErrConfigError("failed to parse config", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes config to path as YAML.
func Save(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return errors.ErrConfigError("failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.ErrConfigError("failed to write config file "+path, err)
	}
	return nil
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.ErrConfigError("name must not be empty", nil)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return errors.ErrConfigError(fmt.Sprintf("unknown log level %q", c.Logging.Level), nil)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "", "auto", "json", "console":
	default:
		return errors.ErrConfigError(fmt.Sprintf("unknown log format %q", c.Logging.Format), nil)
	}

	if c.Tracing.Enabled && c.Tracing.TracerName == "" {
		return errors.ErrConfigError("tracing.tracer_name is required when tracing is enabled", nil)
	}
	return nil
}

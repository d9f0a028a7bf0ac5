// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-avp.
//
// go-avp is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package config loads the simulator daemon configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the complete simulator configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Device  DeviceConfig  `yaml:"device"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig contains the listener settings
type ServerConfig struct {
	// Listen is the TCP address the virtual device accepts connections on,
	// standing in for the USB CDC serial port.
	Listen string `yaml:"listen"`
}

// DeviceConfig describes the emulated secure element
type DeviceConfig struct {
	PIN      string `yaml:"pin"`
	Serial   string `yaml:"serial"`
	Model    string `yaml:"model"`
	Firmware string `yaml:"firmware"`

	// Seed drives the deterministic PRNG; 0 selects a time-based seed so
	// independent simulator runs do not share session identifiers.
	Seed int64 `yaml:"seed"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// MetricsConfig controls the Prometheus scrape endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Listen: "127.0.0.1:7542"},
		Device: DeviceConfig{
			PIN:      "123456",
			Serial:   "NC00000001",
			Model:    "TROPIC01",
			Firmware: "1.0.0",
		},
		Metrics: MetricsConfig{Listen: "127.0.0.1:9542"},
	}
}

// Load reads and validates a YAML configuration file. Unset fields fall
// back to defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("config: server.listen is required")
	}
	if len(c.Device.PIN) < 4 || len(c.Device.PIN) > 16 {
		return fmt.Errorf("config: device.pin must be 4 to 16 digits")
	}
	for i := 0; i < len(c.Device.PIN); i++ {
		if c.Device.PIN[i] < '0' || c.Device.PIN[i] > '9' {
			return fmt.Errorf("config: device.pin must contain only digits")
		}
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		return fmt.Errorf("config: metrics.listen is required when metrics are enabled")
	}
	return nil
}

// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/codecoup/rttbridge/bridge"
)

// EnvVar names the environment variable [Load] reads the file path
// from.
const EnvVar = "RTT2PTY_CONFIG"

// Config holds the tool defaults a user would otherwise repeat as
// flags on every invocation.
type Config struct {
	// Device is the target chip name as the probe library's device
	// database spells it.
	Device string `yaml:"device"`

	// SpeedKHz is the debug clock in kHz.
	SpeedKHz int `yaml:"speed"`

	// Buffer is the RTT buffer name to bridge.
	Buffer string `yaml:"buffer"`

	// Serial selects a probe by serial number. Zero lets the library
	// pick the only attached probe.
	Serial int `yaml:"serial"`

	// Link is a symlink path published for the PTY. Empty disables
	// publishing.
	Link string `yaml:"link"`

	// JLinkLib overrides the vendor library location. Empty uses the
	// conventional install locations.
	JLinkLib string `yaml:"jlink_lib"`
}

// Default returns the package defaults, matching the CLI flag
// defaults.
func Default() *Config {
	return &Config{
		Device:   "NRF54L15_M33",
		SpeedKHz: 4000,
		Buffer:   "Terminal",
	}
}

// Load reads the file named by the RTT2PTY_CONFIG environment
// variable. An unset or empty variable is not an error: the defaults
// come back unchanged.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the file at path over the defaults. The file must
// exist: a user who names a config file wants it read, not silently
// skipped.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		// An empty file decodes to EOF and means "all defaults".
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first nonsensical option. The speed range
// matches what the probe hardware accepts.
func (c *Config) Validate() error {
	if c.Device == "" {
		return errors.New("device name must not be empty")
	}
	if c.Buffer == "" {
		return errors.New("buffer name must not be empty")
	}
	if err := bridge.ValidateSpeed(c.SpeedKHz); err != nil {
		return err
	}
	if c.Serial < 0 {
		return fmt.Errorf("serial number %d must not be negative", c.Serial)
	}
	return nil
}

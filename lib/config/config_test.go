// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rtt2pty.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate on defaults: %v", err)
	}
	if cfg.Device != "NRF54L15_M33" {
		t.Errorf("default device = %q, want NRF54L15_M33", cfg.Device)
	}
	if cfg.SpeedKHz != 4000 {
		t.Errorf("default speed = %d, want 4000", cfg.SpeedKHz)
	}
	if cfg.Buffer != "Terminal" {
		t.Errorf("default buffer = %q, want Terminal", cfg.Buffer)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
device: XMC4700
speed: 12000
serial: 801012345
link: /tmp/rtt-pty
jlink_lib: /opt/custom/libjlinkarm.so
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Device != "XMC4700" {
		t.Errorf("device = %q, want XMC4700", cfg.Device)
	}
	if cfg.SpeedKHz != 12000 {
		t.Errorf("speed = %d, want 12000", cfg.SpeedKHz)
	}
	if cfg.Serial != 801012345 {
		t.Errorf("serial = %d, want 801012345", cfg.Serial)
	}
	if cfg.Link != "/tmp/rtt-pty" {
		t.Errorf("link = %q, want /tmp/rtt-pty", cfg.Link)
	}
	if cfg.JLinkLib != "/opt/custom/libjlinkarm.so" {
		t.Errorf("jlink_lib = %q, want /opt/custom/libjlinkarm.so", cfg.JLinkLib)
	}
	// Keys the file does not set keep their defaults.
	if cfg.Buffer != "Terminal" {
		t.Errorf("buffer = %q, want the Terminal default", cfg.Buffer)
	}
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, "buffr: Oops\n")

	if _, err := LoadFile(path); err == nil {
		t.Fatal("LoadFile accepted a misspelled key")
	}
}

func TestLoadFileMissingFileFails(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadFile succeeded on a missing file")
	}
}

func TestLoadFileEmptyFileGivesDefaults(t *testing.T) {
	path := writeConfig(t, "")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile on empty file: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("config = %+v, want defaults", cfg)
	}
}

func TestLoadWithoutEnvVarGivesDefaults(t *testing.T) {
	t.Setenv(EnvVar, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("config = %+v, want defaults", cfg)
	}
}

func TestLoadFollowsEnvVar(t *testing.T) {
	path := writeConfig(t, "device: STM32F429ZI\n")
	t.Setenv(EnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Device != "STM32F429ZI" {
		t.Errorf("device = %q, want STM32F429ZI", cfg.Device)
	}
}

func TestValidateCatchesBadValues(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantWord string
	}{
		{"empty device", func(c *Config) { c.Device = "" }, "device"},
		{"empty buffer", func(c *Config) { c.Buffer = "" }, "buffer"},
		{"speed too low", func(c *Config) { c.SpeedKHz = 4 }, "speed"},
		{"speed too high", func(c *Config) { c.SpeedKHz = 50001 }, "speed"},
		{"negative serial", func(c *Config) { c.Serial = -7 }, "serial"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := Default()
			test.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted a bad config")
			}
			if !strings.Contains(strings.ToLower(err.Error()), test.wantWord) {
				t.Errorf("error %q does not mention %q", err, test.wantWord)
			}
		})
	}
}

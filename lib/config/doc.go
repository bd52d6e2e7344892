// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML defaults loading for the rtt2pty
// tools.
//
// The file is optional: every option has a flag, and the file only
// supplies defaults for flags the user did not set. It is found
// through the RTT2PTY_CONFIG environment variable (via [Load]) or the
// --config flag (via [LoadFile]). There is no ~/.config discovery and
// no automatic file search. Unknown keys are rejected so a misspelled
// option fails loudly instead of being ignored.
//
// Key exports:
//
//   - [Config] -- the flat option set (device, speed, buffer, ...)
//   - [Default] -- package defaults matching the CLI flag defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
package config

// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package jlink drives SEGGER J-Link probes through the vendor's
// shared library, bound at runtime with purego so the build needs no
// cgo and no SDK headers.
//
// [Load] opens libjlinkarm.so and resolves the symbol set; a [Library]
// then opens at most one [Session] at a time, mirroring the single
// global connection the vendor library maintains. Session implements
// [probe.Session] and [probe.ActivitySensor]. All calls are
// single-threaded: the vendor library is not safe for concurrent use.
package jlink

// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package probe defines the capability surface the bridge consumes from
// a debug probe, independent of any vendor SDK.
//
// A [Session] is a live connection to a probe and its target: it
// reports link health (probe open, probe connected, target connected),
// starts and stops RTT on the target, enumerates up and down buffers,
// and moves bytes through them. Vendor drivers implement Session in
// subpackages; the jlink driver binds the SEGGER shared library at
// runtime, and simprobe provides a scripted in-memory implementation
// for tests and hardware-free integration runs.
//
// Reads are non-blocking and three-way by construction: a call returns
// data, or (0, nil) meaning the up buffer is currently empty, or an
// error. Callers never have to infer "no data" from an error value.
// Writes are likewise non-blocking and may be short when the down
// buffer on the target is nearly full; the caller decides whether
// short writes matter.
//
// [ControlBlock] tells StartRTT where to find the RTT control block in
// target memory: auto-detection, a fixed address, or a bounded search
// range. CLI input parsing for these lives in the bridge package; this
// package only carries the resolved form.
//
// [ActivitySensor] is an optional interface for drivers that can query
// RTT run state directly. [Active] feature-detects it and falls back
// to the up-buffer-count heuristic, so callers get a best-effort
// answer on every driver.
package probe

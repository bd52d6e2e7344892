// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package simprobe provides a scripted in-memory probe.Session for
// tests and hardware-free integration runs.
//
// A [Session] starts fully healthy: probe open, probe connected,
// target connected. Tests add buffers with [Session.AddUpBuffer] and
// [Session.AddDownBuffer], feed up-buffer traffic with
// [Session.QueueUp], and inspect what the host wrote with
// [Session.DownContents]. Fault-injection knobs simulate the failure
// modes a real probe exhibits: transient read faults, broken
// descriptors, delayed buffer discovery, and lost links.
//
// The session counts StopRTT and Close calls so lifecycle tests can
// assert teardown runs exactly once.
package simprobe

// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package bridge implements the core of the RTT-to-PTY bridge: it
// resolves a named RTT buffer pair on a target, prepares a host
// pseudo-terminal, and pumps bytes between them until interrupted.
//
// The pieces compose in the order the CLI uses them. [ParseAddressSpec]
// turns the user's control-block argument into a [probe.ControlBlock].
// [VerifySession] checks the probe chain link by link, and [WaitForRTT]
// gives target firmware a bounded window to bring RTT up.
// [FindBufferByName] resolves a buffer name to a [probe.Descriptor]
// with retries, distinguishing "name not there" ([ErrBufferNotFound])
// from "enumeration never worked". [OpenPTY] allocates the
// pseudo-terminal pair and can publish the slave path at a stable
// symlink for tooling. [Relay] then runs the polling loop.
//
// The relay is deliberately single-threaded: one goroutine polls the
// up buffer, services the down direction when enabled, and checks for
// cancellation at iteration boundaries. Timing (idle waits, transient
// error backoff) goes through an injected [clock.Clock] so the loop is
// testable without wall-clock sleeps. Teardown runs exactly once on
// every exit path and never escalates: stop RTT, close the PTY,
// release the probe, logging and continuing past individual failures.
//
// Errors carry an [ErrorKind] so the CLI can distinguish bad input,
// hardware trouble, and relay faults without parsing message text.
// [WriteBufferList] renders the target's buffer table for the
// list-buffers mode and for diagnostics when a lookup fails.
package bridge

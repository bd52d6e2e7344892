// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock interface parameter instead of calling
// time.Now, time.After, or time.Sleep directly. In production, Real()
// provides the standard library behavior. In tests, Fake() provides a
// deterministic clock that advances only when Advance is called.
//
// # Wiring Pattern
//
// Add a Clock field to structs that use time:
//
//	type Relay struct {
//	    Clock clock.Clock
//	    // ...
//	}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	relay := &Relay{Clock: c}
//	// ... start the relay goroutine ...
//	c.WaitForSleepers(1)       // wait for the goroutine to park
//	c.Advance(1 * time.Second) // fire the sleep deterministically
//
// WaitForSleepers eliminates the race between a goroutine registering a
// sleep and the test advancing the clock, which plagues tests that use
// real time.Sleep for synchronization.
package clock

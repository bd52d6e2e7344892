// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/codecoup/rttbridge/lib/clock"
	"github.com/codecoup/rttbridge/probe"
)

const (
	// bufferLookupMaxAttempts bounds how often FindBufferByName asks
	// the probe for the buffer count. The count stays unavailable
	// until the probe firmware has found the control block, which can
	// lag StartRTT by a few hundred milliseconds.
	bufferLookupMaxAttempts = 3

	// bufferLookupRetryDelay is the pause between enumeration attempts.
	bufferLookupRetryDelay = 200 * time.Millisecond
)

// LocateOptions tunes FindBufferByName. The zero value selects the
// production defaults; tests lower the delay or inject a fake clock.
type LocateOptions struct {
	// Attempts is the number of enumeration attempts. Zero or
	// negative selects the default of 3.
	Attempts int

	// Delay is the pause between attempts. Zero or negative selects
	// the default of 200ms.
	Delay time.Duration

	// Clock provides the retry delay. Nil selects the real clock.
	Clock clock.Clock

	// Logger receives enumeration progress at Debug and skipped
	// descriptors at Warn. Nil selects slog.Default().
	Logger *slog.Logger
}

func (o LocateOptions) withDefaults() LocateOptions {
	if o.Attempts <= 0 {
		o.Attempts = bufferLookupMaxAttempts
	}
	if o.Delay <= 0 {
		o.Delay = bufferLookupRetryDelay
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// FindBufferByName resolves a buffer name to its descriptor by
// enumerating the target's buffers in one direction.
//
// Retries apply only while the buffer count is unavailable (an error
// or zero buffers), which means the probe has not located the control
// block yet. Once one enumeration succeeds the answer is final: either
// the named buffer is there, or the result wraps [ErrBufferNotFound].
// Name matching is exact and case-sensitive. Unreadable descriptors
// are logged and skipped rather than aborting the scan.
//
// A matched buffer with zero capacity is a target configuration fault
// and fails immediately: relaying through it could never move a byte.
func FindBufferByName(session probe.Session, name string, direction probe.Direction, opts LocateOptions) (probe.Descriptor, error) {
	opts = opts.withDefaults()

	if name == "" {
		return probe.Descriptor{}, fmt.Errorf("empty %s buffer name: %w", direction, ErrBufferNotFound)
	}

	for attempt := 1; attempt <= opts.Attempts; attempt++ {
		count, err := session.BufferCount(direction)
		if err != nil || count == 0 {
			if err != nil {
				opts.Logger.Debug("buffer count unavailable",
					"direction", direction.String(),
					"attempt", attempt,
					"error", err,
				)
			} else {
				opts.Logger.Debug("no buffers reported yet",
					"direction", direction.String(),
					"attempt", attempt,
				)
			}
			if attempt < opts.Attempts {
				opts.Clock.Sleep(opts.Delay)
			}
			continue
		}

		for index := 0; index < count; index++ {
			descriptor, err := session.BufferDescriptor(index, direction)
			if err != nil {
				opts.Logger.Warn("skipping unreadable buffer descriptor",
					"direction", direction.String(),
					"index", index,
					"error", err,
				)
				continue
			}
			if descriptor.Name != name {
				continue
			}
			if descriptor.Capacity == 0 {
				return probe.Descriptor{}, LookupError(
					"%s buffer %q at index %d has zero capacity", direction, name, index).
					WithHint("The target declares the buffer but allocates no storage for it. " +
						"Check the firmware's RTT buffer configuration.")
			}
			return descriptor, nil
		}
		return probe.Descriptor{}, fmt.Errorf("%s buffer %q: %w", direction, name, ErrBufferNotFound)
	}

	return probe.Descriptor{}, LookupError(
		"RTT not active: no %s buffers after %d attempts", direction, opts.Attempts).
		WithHint("Is RTT initialized in the target firmware? Passing a search range " +
			"(--address START,SIZE) can help the probe find the control block.")
}

// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/codecoup/rttbridge/lib/clock"
	"github.com/codecoup/rttbridge/probe"
)

const (
	// readChunkSize bounds a single transfer in either direction.
	readChunkSize = 4096

	// pollInterval paces the loop: the idle sleep in unidirectional
	// mode, the master readiness wait in bidirectional mode, and the
	// backoff after a transient read fault. RTT up-buffers have no
	// readiness primitive, so the target side is always polled.
	pollInterval = 100 * time.Millisecond

	// maxConsecutiveReadFaults ends the relay when the up-buffer read
	// path fails this many times without an intervening success. A
	// single fault is routine (the probe re-syncing after a target
	// reset); an unbroken run of them means the session is gone.
	maxConsecutiveReadFaults = 10
)

// Relay pumps bytes between an RTT session and a host PTY. The up
// direction (target to host) is polled; the down direction (host to
// target) waits on master readability. A Relay is single-shot: run it
// once, then discard it.
type Relay struct {
	// Session is the probe session. RTT must already be started on it.
	Session probe.Session

	// PTY is the host endpoint. The relay owns it from here on:
	// Teardown closes it along with the session.
	PTY *PTY

	// Up identifies the up-buffer to drain.
	Up probe.Descriptor

	// Down identifies the down-buffer for operator input. Only
	// consulted when Bidirectional is set.
	Down probe.Descriptor

	// Bidirectional enables the host-to-target direction.
	Bidirectional bool

	// Logger receives structured log output. If nil, slog.Default()
	// is used. Per-chunk faults are logged at Debug or Warn level;
	// lifecycle events at Info.
	Logger *slog.Logger

	// Clock paces the loop. If nil, the real clock is used.
	Clock clock.Clock

	teardown sync.Once
}

// logger returns the configured logger or the default.
func (r *Relay) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// clock returns the configured clock or the real one.
func (r *Relay) clock() clock.Clock {
	if r.Clock != nil {
		return r.Clock
	}
	return clock.Real()
}

// Run relays until ctx is cancelled or a fatal fault occurs. The
// session guard runs every iteration, so a probe or target that drops
// mid-session ends the relay instead of spinning on a dead handle.
// Teardown always runs before Run returns. Cancellation is a clean
// shutdown and returns nil.
func (r *Relay) Run(ctx context.Context) error {
	defer r.Teardown()

	r.logger().Info("relay started",
		"pty", r.PTY.SlavePath(),
		"up_buffer", r.Up.Name,
		"bidirectional", r.Bidirectional,
	)

	chunk := make([]byte, readChunkSize)
	readFaults := 0

	for {
		if ctx.Err() != nil {
			r.logger().Info("shutdown requested, stopping relay")
			return nil
		}
		if err := VerifySession(r.Session); err != nil {
			return err
		}

		bytesRead, err := r.Session.Read(r.Up.Index, chunk)
		if err != nil {
			readFaults++
			if readFaults >= maxConsecutiveReadFaults {
				return RelayError("up-buffer read failed %d times in a row: %w", readFaults, err)
			}
			r.logger().Debug("up-buffer read fault", "consecutive", readFaults, "error", err)
			r.pause(ctx, pollInterval)
			continue
		}
		readFaults = 0

		if bytesRead > 0 {
			if err := r.forwardUp(chunk[:bytesRead]); err != nil {
				return err
			}
		}

		if r.Bidirectional {
			if err := r.serviceDown(chunk); err != nil {
				return err
			}
		} else {
			r.pause(ctx, pollInterval)
		}
	}
}

// forwardUp writes a chunk of target output to the PTY master. A short
// write warns and drops the remainder: the master queues writes while
// no client holds the slave open, and retrying there would stall the
// RTT drain behind an absent reader. A dead descriptor is fatal.
func (r *Relay) forwardUp(data []byte) error {
	written, err := r.PTY.WriteMaster(data)
	if err != nil {
		if isFatalIOError(err) {
			return RelayError("PTY master write: %w", err)
		}
		r.logger().Warn("PTY master write fault", "error", err)
		return nil
	}
	if written < len(data) {
		r.logger().Warn("short PTY write, dropping remainder",
			"wrote", written,
			"dropped", len(data)-written,
		)
	}
	return nil
}

// serviceDown forwards operator input from the PTY master to the down
// buffer. The readiness wait doubles as the loop pacing in
// bidirectional mode. Input is best-effort: down-buffer faults and
// short writes warn and move on. Losing the master itself is fatal.
func (r *Relay) serviceDown(chunk []byte) error {
	readable, err := r.PTY.MasterReadable(pollInterval)
	if err != nil {
		return RelayError("PTY master poll: %w", err)
	}
	if !readable {
		return nil
	}

	bytesRead, err := r.PTY.ReadMaster(chunk)
	if err != nil {
		if isFatalIOError(err) {
			return RelayError("PTY master read: %w", err)
		}
		r.logger().Warn("PTY master read fault", "error", err)
		return nil
	}
	if bytesRead == 0 {
		return nil
	}

	written, err := r.Session.Write(r.Down.Index, chunk[:bytesRead])
	if err != nil {
		r.logger().Warn("down-buffer write fault", "error", err)
		return nil
	}
	if written < bytesRead {
		r.logger().Warn("short down-buffer write, dropping remainder",
			"wrote", written,
			"dropped", bytesRead-written,
		)
	}
	return nil
}

// pause sleeps for d on the relay clock, waking early on cancellation.
func (r *Relay) pause(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-r.clock().After(d):
	}
}

// Teardown releases everything the relay owns, in fixed order: stop
// RTT on the target, close the PTY pair, close the probe session.
// Every step runs even when an earlier one fails; failures are logged
// and swallowed. Only the first call does the work, so deferred and
// explicit teardown can coexist.
func (r *Relay) Teardown() {
	r.teardown.Do(func() {
		if err := r.Session.StopRTT(); err != nil {
			r.logger().Warn("stopping RTT failed", "error", err)
		}
		if err := r.PTY.Close(); err != nil {
			r.logger().Warn("closing PTY failed", "error", err)
		}
		if err := r.Session.Close(); err != nil {
			r.logger().Warn("closing probe session failed", "error", err)
		}
		r.logger().Info("relay torn down")
	})
}

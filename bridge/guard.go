// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/codecoup/rttbridge/lib/clock"
	"github.com/codecoup/rttbridge/probe"
)

const (
	// rttSettleDelay gives target firmware a moment after StartRTT
	// before the first activity check. Probes routinely answer the
	// first status query before their control-block scan has begun.
	rttSettleDelay = 500 * time.Millisecond

	// rttActivePollInterval and rttActiveTimeout bound the activation
	// wait: poll every 200ms, give up after 5s.
	rttActivePollInterval = 200 * time.Millisecond
	rttActiveTimeout      = 5 * time.Second
)

// VerifySession checks the probe chain link by link: library
// connection open, probe connected, target connected, and the probe
// still answering identity queries. The first broken link is reported;
// success is silent. The relay loop calls this every iteration, so
// messages name the link rather than the iteration.
func VerifySession(session probe.Session) error {
	if !session.Opened() {
		return ConnectionError("probe library connection is not open")
	}
	if !session.Connected() {
		return ConnectionError("not connected to the probe").
			WithHint("Check the probe's USB connection.")
	}
	if !session.TargetConnected() {
		return ConnectionError("probe has no connection to the target").
			WithHint("Check target power and the debug cable.")
	}
	if _, err := session.ProductName(); err != nil {
		return ConnectionError("probe stopped answering identity queries: %w", err)
	}
	return nil
}

// WaitForRTT blocks until the target reports RTT activity, the timeout
// passes, or ctx is cancelled. The initial settle sleep runs before
// the first check because firmware registers its buffers some time
// after the probe finds the control block. Exhausting the timeout is
// fatal: a target that never brings RTT up has nothing to relay.
func WaitForRTT(ctx context.Context, session probe.Session, clk clock.Clock, logger *slog.Logger) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(rttSettleDelay):
	}

	deadline := clk.Now().Add(rttActiveTimeout)
	for {
		if probe.Active(session) {
			logger.Debug("RTT reported active")
			return nil
		}
		if !clk.Now().Before(deadline) {
			return ConnectionError("RTT control block not found after %s", rttActiveTimeout).
				WithHint("Ensure the firmware has RTT enabled and the target is running.")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(rttActivePollInterval):
		}
	}
}

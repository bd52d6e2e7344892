// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/codecoup/rttbridge/lib/clock"
	"github.com/codecoup/rttbridge/lib/testutil"
	"github.com/codecoup/rttbridge/probe"
	"github.com/codecoup/rttbridge/probe/simprobe"
)

func TestVerifySessionHealthy(t *testing.T) {
	if err := VerifySession(simprobe.New()); err != nil {
		t.Fatalf("VerifySession on healthy session: %v", err)
	}
}

func TestVerifySessionBrokenLinks(t *testing.T) {
	tests := []struct {
		name        string
		breakLink   func(*simprobe.Session)
		wantMessage string
	}{
		{
			name:        "library closed",
			breakLink:   func(s *simprobe.Session) { s.Close() },
			wantMessage: "library connection",
		},
		{
			name:        "probe dropped",
			breakLink:   func(s *simprobe.Session) { s.DropProbe() },
			wantMessage: "not connected to the probe",
		},
		{
			name:        "target dropped",
			breakLink:   func(s *simprobe.Session) { s.DropTarget() },
			wantMessage: "target",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			session := simprobe.New()
			test.breakLink(session)

			err := VerifySession(session)
			if err == nil {
				t.Fatal("VerifySession succeeded, want error")
			}
			var bridgeErr *Error
			if !errors.As(err, &bridgeErr) || bridgeErr.Kind != KindConnection {
				t.Fatalf("error = %v, want connection *Error", err)
			}
			if !strings.Contains(err.Error(), test.wantMessage) {
				t.Errorf("error %q does not mention %q", err, test.wantMessage)
			}
		})
	}
}

func TestVerifySessionReportsFirstBrokenLink(t *testing.T) {
	session := simprobe.New()
	session.DropProbe()
	session.DropTarget()

	err := VerifySession(session)
	if err == nil {
		t.Fatal("VerifySession succeeded, want error")
	}
	// The probe link is checked before the target link.
	if !strings.Contains(err.Error(), "not connected to the probe") {
		t.Errorf("error %q should report the probe link first", err)
	}
}

// muteIdentity passes every link flag but fails identity queries,
// breaking only the last guard check.
type muteIdentity struct {
	probe.Session
}

func (muteIdentity) ProductName() (string, error) {
	return "", errors.New("emu transfer fault")
}

func TestVerifySessionIdentityQueryFault(t *testing.T) {
	err := VerifySession(muteIdentity{simprobe.New()})
	if err == nil {
		t.Fatal("VerifySession succeeded, want error")
	}
	var bridgeErr *Error
	if !errors.As(err, &bridgeErr) || bridgeErr.Kind != KindConnection {
		t.Fatalf("error = %v, want connection *Error", err)
	}
	if !strings.Contains(err.Error(), "identity") {
		t.Errorf("error %q does not mention the identity query", err)
	}
}

// sensorless hides simprobe's RTTActive so the activity check falls
// back to the buffer-count heuristic.
type sensorless struct {
	probe.Session
}

func TestWaitForRTTActiveAfterSettle(t *testing.T) {
	session := startedSim(t)
	session.AddUpBuffer("Terminal", 1024)

	fakeClock := clock.Fake(testEpoch)
	errs := make(chan error, 1)
	go func() {
		errs <- WaitForRTT(context.Background(), session, fakeClock, slog.Default())
	}()

	fakeClock.WaitForSleepers(1)
	fakeClock.Advance(rttSettleDelay)

	if err := testutil.RequireReceive(t, errs, 5*time.Second, "WaitForRTT result"); err != nil {
		t.Fatalf("WaitForRTT: %v", err)
	}
}

func TestWaitForRTTFallbackHeuristic(t *testing.T) {
	session := startedSim(t)
	session.AddUpBuffer("Terminal", 1024)

	fakeClock := clock.Fake(testEpoch)
	errs := make(chan error, 1)
	go func() {
		errs <- WaitForRTT(context.Background(), sensorless{session}, fakeClock, slog.Default())
	}()

	fakeClock.WaitForSleepers(1)
	fakeClock.Advance(rttSettleDelay)

	if err := testutil.RequireReceive(t, errs, 5*time.Second, "WaitForRTT result"); err != nil {
		t.Fatalf("WaitForRTT via buffer-count fallback: %v", err)
	}
}

func TestWaitForRTTTimesOut(t *testing.T) {
	session := startedSim(t)
	session.ReportInactive(true)

	fakeClock := clock.Fake(testEpoch)
	errs := make(chan error, 1)
	go func() {
		errs <- WaitForRTT(context.Background(), session, fakeClock, slog.Default())
	}()

	fakeClock.WaitForSleepers(1)
	fakeClock.Advance(rttSettleDelay)

	// Step through every activity poll until the deadline passes.
	polls := int(rttActiveTimeout / rttActivePollInterval)
	for i := 0; i < polls; i++ {
		fakeClock.WaitForSleepers(1)
		fakeClock.Advance(rttActivePollInterval)
	}

	err := testutil.RequireReceive(t, errs, 5*time.Second, "WaitForRTT result")
	var bridgeErr *Error
	if !errors.As(err, &bridgeErr) || bridgeErr.Kind != KindConnection {
		t.Fatalf("error = %v, want connection *Error", err)
	}
	if !strings.Contains(err.Error(), "RTT control block not found") {
		t.Errorf("error %q does not name the activation failure", err)
	}
}

func TestWaitForRTTCancelled(t *testing.T) {
	session := startedSim(t)
	session.ReportInactive(true)

	fakeClock := clock.Fake(testEpoch)
	ctx, cancel := context.WithCancel(context.Background())

	errs := make(chan error, 1)
	go func() {
		errs <- WaitForRTT(ctx, session, fakeClock, slog.Default())
	}()

	fakeClock.WaitForSleepers(1)
	cancel()

	err := testutil.RequireReceive(t, errs, 5*time.Second, "WaitForRTT result")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import (
	"errors"
	"testing"
)

// stubSession implements Session with canned answers and no
// ActivitySensor, so Active falls back to the buffer-count heuristic.
type stubSession struct {
	upCount    int
	countError error
}

func (s *stubSession) Opened() bool                   { return true }
func (s *stubSession) Connected() bool                { return true }
func (s *stubSession) TargetConnected() bool          { return true }
func (s *stubSession) ProductName() (string, error)   { return "stub", nil }
func (s *stubSession) SerialNumber() (int, error)     { return 1, nil }
func (s *stubSession) StartRTT(cb ControlBlock) error { return nil }
func (s *stubSession) StopRTT() error                 { return nil }
func (s *stubSession) Close() error                   { return nil }

func (s *stubSession) BufferCount(direction Direction) (int, error) {
	return s.upCount, s.countError
}

func (s *stubSession) BufferDescriptor(index int, direction Direction) (Descriptor, error) {
	return Descriptor{}, errors.New("not implemented")
}

func (s *stubSession) Read(index int, buf []byte) (int, error) {
	return 0, nil
}

func (s *stubSession) Write(index int, data []byte) (int, error) {
	return len(data), nil
}

// sensorSession adds a direct RTT run state query on top of
// stubSession. Active must prefer it over the buffer-count fallback.
type sensorSession struct {
	stubSession
	running     bool
	sensorError error
}

func (s *sensorSession) RTTActive() (bool, error) {
	return s.running, s.sensorError
}

func TestActiveFallsBackToBufferCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		session *stubSession
		want    bool
	}{
		{"buffers present", &stubSession{upCount: 2}, true},
		{"no buffers", &stubSession{upCount: 0}, false},
		{"count unavailable", &stubSession{countError: errors.New("control block not found")}, false},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := Active(test.session); got != test.want {
				t.Errorf("Active() = %v, want %v", got, test.want)
			}
		})
	}
}

func TestActivePrefersSensor(t *testing.T) {
	t.Parallel()

	// The sensor says running even though the buffer count is zero;
	// the sensor answer wins.
	session := &sensorSession{running: true}
	if !Active(session) {
		t.Error("Active() = false with a sensor reporting running")
	}

	// The sensor says stopped even though buffers exist.
	session = &sensorSession{stubSession: stubSession{upCount: 3}, running: false}
	if Active(session) {
		t.Error("Active() = true with a sensor reporting stopped")
	}
}

func TestActiveSensorErrorMeansInactive(t *testing.T) {
	t.Parallel()

	session := &sensorSession{
		stubSession: stubSession{upCount: 3},
		running:     true,
		sensorError: errors.New("probe gone"),
	}
	if Active(session) {
		t.Error("Active() = true when the sensor query failed")
	}
}

func TestDirectionString(t *testing.T) {
	t.Parallel()

	if got := DirectionUp.String(); got != "up" {
		t.Errorf("DirectionUp.String() = %q, want %q", got, "up")
	}
	if got := DirectionDown.String(); got != "down" {
		t.Errorf("DirectionDown.String() = %q, want %q", got, "down")
	}
	if got := Direction(7).String(); got != "direction(7)" {
		t.Errorf("Direction(7).String() = %q, want %q", got, "direction(7)")
	}
}

func TestControlBlockConstructors(t *testing.T) {
	t.Parallel()

	if cb := AutoDetect(); cb.Mode != ControlBlockAuto {
		t.Errorf("AutoDetect().Mode = %v, want ControlBlockAuto", cb.Mode)
	}

	cb := FixedAddress(0x20001000)
	if cb.Mode != ControlBlockFixed || cb.Address != 0x20001000 {
		t.Errorf("FixedAddress() = %+v, want fixed mode at 0x20001000", cb)
	}

	cb = SearchRange(0x20000000, 0x4000)
	if cb.Mode != ControlBlockSearch || cb.SearchStart != 0x20000000 || cb.SearchSize != 0x4000 {
		t.Errorf("SearchRange() = %+v, want search mode over [0x20000000, +0x4000)", cb)
	}

	var zero ControlBlock
	if zero.Mode != ControlBlockAuto {
		t.Errorf("zero ControlBlock mode = %v, want ControlBlockAuto", zero.Mode)
	}
}

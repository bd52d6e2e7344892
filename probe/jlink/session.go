// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package jlink

import (
	"errors"
	"fmt"
)

// DefaultSpeedKHz is used when Options.SpeedKHz is zero.
const DefaultSpeedKHz = 4000

// Interface selects the target debug transport.
type Interface int

const (
	// InterfaceSWD is the two-wire transport and the default.
	InterfaceSWD Interface = iota
	// InterfaceJTAG selects the legacy JTAG transport.
	InterfaceJTAG
)

// vendorCode maps to the numbering the vendor library uses, where
// JTAG is zero. Keeping SWD as the Go zero value makes the empty
// Options struct do the common thing.
func (i Interface) vendorCode() (int32, error) {
	switch i {
	case InterfaceSWD:
		return 1, nil
	case InterfaceJTAG:
		return 0, nil
	default:
		return 0, fmt.Errorf("unknown debug interface %d", int(i))
	}
}

func (i Interface) String() string {
	switch i {
	case InterfaceSWD:
		return "SWD"
	case InterfaceJTAG:
		return "JTAG"
	default:
		return fmt.Sprintf("interface(%d)", int(i))
	}
}

// Options configures a probe connection.
type Options struct {
	// Serial selects a specific probe when several are attached. Zero
	// lets the library pick.
	Serial int

	// Device is the target chip name as the vendor database spells it,
	// e.g. "NRF54L15_M33". Required.
	Device string

	// SpeedKHz is the debug clock in kHz. Zero means DefaultSpeedKHz.
	SpeedKHz int

	// Interface is the debug transport, SWD unless set.
	Interface Interface
}

// Session is a live probe connection. The vendor library holds a
// single global connection, so at most one Session per process.
type Session struct {
	library *Library
	closed  bool
}

// Open connects to the probe and the target: select by serial when
// given, open the probe link, pick transport and speed, select the
// device, connect. Any failure after the probe link is up closes it
// again before returning.
func (l *Library) Open(opts Options) (*Session, error) {
	if opts.Device == "" {
		return nil, errors.New("device name is required")
	}
	interfaceCode, err := opts.Interface.vendorCode()
	if err != nil {
		return nil, err
	}

	if opts.Serial != 0 {
		if rc := l.selectSerial(uint32(opts.Serial)); rc < 0 {
			return nil, fmt.Errorf("no probe with serial %d (code %d)", opts.Serial, rc)
		}
	}
	if message := l.openEx(0, 0); message != "" {
		return nil, fmt.Errorf("opening probe connection: %s", message)
	}
	session := &Session{library: l}

	if rc := l.selectInterface(interfaceCode); rc != 0 {
		session.Close()
		return nil, fmt.Errorf("selecting %s interface: code %d", opts.Interface, rc)
	}
	speed := opts.SpeedKHz
	if speed == 0 {
		speed = DefaultSpeedKHz
	}
	l.setSpeed(uint32(speed))

	if err := l.execCommandChecked(fmt.Sprintf("Device = %s", opts.Device)); err != nil {
		session.Close()
		return nil, fmt.Errorf("selecting device %q: %w", opts.Device, err)
	}
	if rc := l.connectTarget(); rc < 0 {
		session.Close()
		return nil, fmt.Errorf("connecting to %s: code %d", opts.Device, rc)
	}
	return session, nil
}

// Opened reports whether the probe link is still up.
func (s *Session) Opened() bool {
	return !s.closed && s.library.isOpen()
}

// Connected reports whether the probe hardware answers.
func (s *Session) Connected() bool {
	return s.library.probeConnected()
}

// TargetConnected reports whether the target behind the probe answers.
func (s *Session) TargetConnected() bool {
	return s.library.targetConnected()
}

// ProductName returns the probe's model string.
func (s *Session) ProductName() (string, error) {
	buf := make([]byte, 128)
	s.library.productName(buf, uint32(len(buf)))
	name := cString(buf)
	if name == "" {
		return "", errors.New("probe reported no product name")
	}
	return name, nil
}

// SerialNumber returns the probe's serial number.
func (s *Session) SerialNumber() (int, error) {
	serial := s.library.serialNumber()
	if serial < 0 {
		return 0, fmt.Errorf("reading serial number: code %d", serial)
	}
	return int(serial), nil
}

// Close drops the probe connection. The library itself stays loaded.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.library.closeProbe()
	return nil
}

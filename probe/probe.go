// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package probe

import "fmt"

// Direction identifies which way an RTT buffer carries data.
type Direction int

const (
	// DirectionUp is target to host (the target writes, the host reads).
	DirectionUp Direction = iota

	// DirectionDown is host to target (the host writes, the target reads).
	DirectionDown
)

// String returns "up" or "down".
func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Descriptor describes one RTT buffer on the target.
type Descriptor struct {
	// Index is the buffer's position within its direction, starting
	// at zero.
	Index int

	// Direction is the buffer's data direction.
	Direction Direction

	// Name is the buffer's name from the target's control block, with
	// any trailing NUL padding removed by the driver.
	Name string

	// Capacity is the buffer size in bytes. A zero capacity means the
	// target declared the buffer but allocated no storage for it.
	Capacity int

	// Flags carries the target's buffer mode bits (blocking, trim,
	// skip) verbatim. The bridge does not interpret them.
	Flags uint32
}

// ControlBlockMode selects how the driver locates the RTT control
// block in target memory.
type ControlBlockMode int

const (
	// ControlBlockAuto lets the probe firmware search for the control
	// block on its own.
	ControlBlockAuto ControlBlockMode = iota

	// ControlBlockFixed points the probe at one explicit address.
	ControlBlockFixed

	// ControlBlockSearch restricts the probe's search to one address
	// range.
	ControlBlockSearch
)

// ControlBlock tells StartRTT where to find the RTT control block.
// Use the constructors; the zero value is ControlBlockAuto.
type ControlBlock struct {
	Mode ControlBlockMode

	// Address is the control block address. Meaningful only when Mode
	// is ControlBlockFixed.
	Address uint64

	// SearchStart and SearchSize bound the search when Mode is
	// ControlBlockSearch.
	SearchStart uint64
	SearchSize  uint64
}

// AutoDetect returns a ControlBlock that lets the probe search on its own.
func AutoDetect() ControlBlock {
	return ControlBlock{Mode: ControlBlockAuto}
}

// FixedAddress returns a ControlBlock pointing at one explicit address.
func FixedAddress(address uint64) ControlBlock {
	return ControlBlock{Mode: ControlBlockFixed, Address: address}
}

// SearchRange returns a ControlBlock bounding the search to
// [start, start+size).
func SearchRange(start, size uint64) ControlBlock {
	return ControlBlock{Mode: ControlBlockSearch, SearchStart: start, SearchSize: size}
}

// Session is a live connection to a debug probe and its target. All
// methods are safe to call from a single goroutine; implementations
// are not required to support concurrent callers.
type Session interface {
	// Opened reports whether the probe library connection is open.
	Opened() bool

	// Connected reports whether the host is connected to the probe.
	Connected() bool

	// TargetConnected reports whether the probe is connected to the
	// target MCU.
	TargetConnected() bool

	// ProductName returns the probe's product name string.
	ProductName() (string, error)

	// SerialNumber returns the probe's serial number.
	SerialNumber() (int, error)

	// StartRTT starts RTT processing on the target. The control block
	// describes where to find the target's RTT structures.
	StartRTT(cb ControlBlock) error

	// StopRTT stops RTT processing on the target.
	StopRTT() error

	// BufferCount returns the number of buffers in the given
	// direction. The count is unavailable until RTT has started and
	// the control block has been found.
	BufferCount(direction Direction) (int, error)

	// BufferDescriptor returns the descriptor for one buffer.
	BufferDescriptor(index int, direction Direction) (Descriptor, error)

	// Read drains up to len(buf) bytes from an up buffer into buf
	// without blocking. It returns (0, nil) when the buffer is
	// currently empty.
	Read(index int, buf []byte) (int, error)

	// Write places up to len(data) bytes into a down buffer without
	// blocking. The returned count is short when the target's buffer
	// cannot hold the rest.
	Write(index int, data []byte) (int, error)

	// Close releases the probe connection. Close is idempotent.
	Close() error
}

// ActivitySensor is an optional interface for sessions that can query
// RTT run state directly instead of inferring it from buffer counts.
type ActivitySensor interface {
	RTTActive() (bool, error)
}

// Active reports whether RTT appears to be running on the session's
// target. Sessions implementing ActivitySensor are asked directly;
// otherwise a nonzero up-buffer count stands in for run state. Errors
// from either path count as inactive, since both queries fail the same
// way when the control block has not been found yet.
func Active(s Session) bool {
	if sensor, ok := s.(ActivitySensor); ok {
		running, err := sensor.RTTActive()
		return err == nil && running
	}
	count, err := s.BufferCount(DirectionUp)
	return err == nil && count > 0
}

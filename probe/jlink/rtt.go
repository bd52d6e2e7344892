// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package jlink

import (
	"fmt"
	"unsafe"

	"github.com/codecoup/rttbridge/probe"
)

// Command codes for JLINK_RTTERMINAL_Control.
const (
	rttCommandStart     = 0
	rttCommandStop      = 1
	rttCommandGetDesc   = 2
	rttCommandGetNumBuf = 3
	rttCommandGetStat   = 4
)

// rttStartConfig mirrors JLINK_RTTERMINAL_START. A zero
// ConfigBlockAddress asks the library to auto-detect.
type rttStartConfig struct {
	ConfigBlockAddress uint32
	Reserved           [3]uint32
}

// rttBufferDescriptor mirrors JLINK_RTTERMINAL_BUFDESC.
type rttBufferDescriptor struct {
	BufferIndex  int32
	Direction    uint32
	Name         [32]byte
	SizeOfBuffer uint32
	Flags        uint32
}

// rttStatus mirrors JLINK_RTTERMINAL_STATUS.
type rttStatus struct {
	NumBytesTransferred uint32
	NumBytesRead        uint32
	IsRunning           uint32
	NumUpBuffers        uint32
	NumDownBuffers      uint32
	Reserved            [2]uint32
}

// vendorDirection maps to the library's numbering: up is 0, down is 1.
func vendorDirection(direction probe.Direction) uint32 {
	if direction == probe.DirectionDown {
		return 1
	}
	return 0
}

// searchRangeCommand formats the vendor command that constrains the
// control-block scan to one address range.
func searchRangeCommand(start, size uint64) string {
	return fmt.Sprintf("SetRTTSearchRanges 0x%X 0x%X", start, size)
}

// StartRTT locates the control block and starts the RTT engine. A
// search range is installed with a vendor command before the start
// call; a fixed address rides in the start config itself.
func (s *Session) StartRTT(cb probe.ControlBlock) error {
	var config rttStartConfig
	switch cb.Mode {
	case probe.ControlBlockFixed:
		if cb.Address > 0xFFFFFFFF {
			return fmt.Errorf("control block address 0x%X exceeds the target's 32-bit space", cb.Address)
		}
		config.ConfigBlockAddress = uint32(cb.Address)
	case probe.ControlBlockSearch:
		if err := s.library.execCommandChecked(searchRangeCommand(cb.SearchStart, cb.SearchSize)); err != nil {
			return fmt.Errorf("setting RTT search range: %w", err)
		}
	}
	if rc := s.library.rttControl(rttCommandStart, unsafe.Pointer(&config)); rc < 0 {
		return fmt.Errorf("starting RTT: code %d", rc)
	}
	return nil
}

// StopRTT stops the RTT engine on the probe.
func (s *Session) StopRTT() error {
	if rc := s.library.rttControl(rttCommandStop, nil); rc < 0 {
		return fmt.Errorf("stopping RTT: code %d", rc)
	}
	return nil
}

// BufferCount returns how many buffers the target advertises in one
// direction.
func (s *Session) BufferCount(direction probe.Direction) (int, error) {
	code := int32(vendorDirection(direction))
	count := s.library.rttControl(rttCommandGetNumBuf, unsafe.Pointer(&code))
	if count < 0 {
		return 0, fmt.Errorf("querying %s buffer count: code %d", direction, count)
	}
	return int(count), nil
}

// BufferDescriptor fetches one buffer's name, capacity, and flags.
func (s *Session) BufferDescriptor(index int, direction probe.Direction) (probe.Descriptor, error) {
	raw := rttBufferDescriptor{
		BufferIndex: int32(index),
		Direction:   vendorDirection(direction),
	}
	if rc := s.library.rttControl(rttCommandGetDesc, unsafe.Pointer(&raw)); rc < 0 {
		return probe.Descriptor{}, fmt.Errorf("reading %s descriptor %d: code %d", direction, index, rc)
	}
	return probe.Descriptor{
		Index:     index,
		Direction: direction,
		Name:      cString(raw.Name[:]),
		Capacity:  int(raw.SizeOfBuffer),
		Flags:     raw.Flags,
	}, nil
}

// Read drains up to len(buf) bytes from an up buffer without
// blocking. Zero with a nil error means no data was pending.
func (s *Session) Read(index int, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	n := s.library.rttRead(uint32(index), buf, uint32(len(buf)))
	if n < 0 {
		return 0, fmt.Errorf("reading up buffer %d: code %d", index, n)
	}
	return int(n), nil
}

// Write queues data into a down buffer without blocking. The count
// comes back short when the target has not drained the buffer.
func (s *Session) Write(index int, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}
	n := s.library.rttWrite(uint32(index), data, uint32(len(data)))
	if n < 0 {
		return 0, fmt.Errorf("writing down buffer %d: code %d", index, n)
	}
	return int(n), nil
}

// RTTActive implements probe.ActivitySensor via the status query's
// run flag.
func (s *Session) RTTActive() (bool, error) {
	var status rttStatus
	if rc := s.library.rttControl(rttCommandGetStat, unsafe.Pointer(&status)); rc < 0 {
		return false, fmt.Errorf("querying RTT status: code %d", rc)
	}
	return status.IsRunning != 0, nil
}

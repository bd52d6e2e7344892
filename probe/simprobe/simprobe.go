// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package simprobe

import (
	"errors"
	"fmt"
	"sync"

	"github.com/codecoup/rttbridge/probe"
)

// ErrSimulatedFault is the base error for injected read faults.
// Relay tests match it with errors.Is.
var ErrSimulatedFault = errors.New("simulated probe fault")

// buffer is one scripted RTT buffer. For up buffers, pending holds
// bytes the host has not read yet. For down buffers, pending holds
// everything the host wrote.
type buffer struct {
	descriptor probe.Descriptor
	pending    []byte
}

// Session is a scripted in-memory probe.Session. The zero value is not
// usable; construct with New. All methods are safe for concurrent use
// so tests can feed traffic while a relay goroutine drains it.
type Session struct {
	mu sync.Mutex

	opened          bool
	connected       bool
	targetConnected bool
	rttStarted      bool

	product string
	serial  int

	controlBlock probe.ControlBlock

	up   []*buffer
	down []*buffer

	// Fault injection.
	failNextReads     int
	brokenDescriptors map[string]bool
	hiddenDiscoveries int
	maxWritePerCall   int
	activityAlwaysOff bool

	// echoDown mirrors down-buffer writes into the same-index up
	// buffer, standing in for target firmware that echoes its console.
	echoDown bool

	stopCalls  int
	closeCalls int
}

// New returns a healthy session with no buffers: probe open and
// connected, target connected, RTT not yet started.
func New() *Session {
	return &Session{
		opened:            true,
		connected:         true,
		targetConnected:   true,
		product:           "SimProbe V1",
		serial:            801000000,
		brokenDescriptors: make(map[string]bool),
	}
}

// AddUpBuffer declares an up buffer and returns its index.
func (s *Session) AddUpBuffer(name string, capacity int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := len(s.up)
	s.up = append(s.up, &buffer{descriptor: probe.Descriptor{
		Index:     index,
		Direction: probe.DirectionUp,
		Name:      name,
		Capacity:  capacity,
	}})
	return index
}

// AddDownBuffer declares a down buffer and returns its index.
func (s *Session) AddDownBuffer(name string, capacity int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	index := len(s.down)
	s.down = append(s.down, &buffer{descriptor: probe.Descriptor{
		Index:     index,
		Direction: probe.DirectionDown,
		Name:      name,
		Capacity:  capacity,
	}})
	return index
}

// QueueUp appends bytes to an up buffer for the host to read.
func (s *Session) QueueUp(index int, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.up[index].pending = append(s.up[index].pending, data...)
}

// DownContents returns a copy of everything the host has written to a
// down buffer.
func (s *Session) DownContents(index int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.down[index].pending...)
}

// FailNextReads makes the next n Read calls return ErrSimulatedFault.
func (s *Session) FailNextReads(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNextReads = n
}

// BreakDescriptor makes BufferDescriptor fail for one buffer.
func (s *Session) BreakDescriptor(direction probe.Direction, index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.brokenDescriptors[descriptorKey(direction, index)] = true
}

// HideBuffersFor makes the next n BufferCount calls report zero
// buffers, simulating a control block scan that has not finished.
func (s *Session) HideBuffersFor(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hiddenDiscoveries = n
}

// LimitWrites caps how many bytes a single Write call accepts,
// producing short writes.
func (s *Session) LimitWrites(maxPerCall int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxWritePerCall = maxPerCall
}

// EchoDown mirrors down-buffer writes back into the same-index up
// buffer.
func (s *Session) EchoDown(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.echoDown = enabled
}

// ReportInactive forces RTTActive to report false even after StartRTT.
func (s *Session) ReportInactive(inactive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activityAlwaysOff = inactive
}

// DropTarget simulates losing the target connection mid-session.
func (s *Session) DropTarget() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targetConnected = false
}

// DropProbe simulates losing the probe connection mid-session.
func (s *Session) DropProbe() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

// StopCalls returns how many times StopRTT has been called.
func (s *Session) StopCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopCalls
}

// CloseCalls returns how many times Close has been called.
func (s *Session) CloseCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCalls
}

// ControlBlock returns the locator StartRTT received.
func (s *Session) ControlBlock() probe.ControlBlock {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controlBlock
}

func (s *Session) Opened() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Session) TargetConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.targetConnected
}

func (s *Session) ProductName() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return "", errors.New("probe not open")
	}
	return s.product, nil
}

func (s *Session) SerialNumber() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return 0, errors.New("probe not open")
	}
	return s.serial, nil
}

func (s *Session) StartRTT(cb probe.ControlBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return errors.New("probe not open")
	}
	s.controlBlock = cb
	s.rttStarted = true
	return nil
}

func (s *Session) StopRTT() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCalls++
	if !s.rttStarted {
		return errors.New("RTT not running")
	}
	s.rttStarted = false
	return nil
}

func (s *Session) BufferCount(direction probe.Direction) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.rttStarted {
		return 0, errors.New("RTT not running")
	}
	if s.hiddenDiscoveries > 0 {
		s.hiddenDiscoveries--
		return 0, nil
	}
	if direction == probe.DirectionUp {
		return len(s.up), nil
	}
	return len(s.down), nil
}

func (s *Session) BufferDescriptor(index int, direction probe.Direction) (probe.Descriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.brokenDescriptors[descriptorKey(direction, index)] {
		return probe.Descriptor{}, fmt.Errorf("descriptor %d unreadable", index)
	}
	set := s.bufferSet(direction)
	if index < 0 || index >= len(set) {
		return probe.Descriptor{}, fmt.Errorf("no %s buffer at index %d", direction, index)
	}
	return set[index].descriptor, nil
}

func (s *Session) Read(index int, buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNextReads > 0 {
		s.failNextReads--
		return 0, fmt.Errorf("read up buffer %d: %w", index, ErrSimulatedFault)
	}
	if index < 0 || index >= len(s.up) {
		return 0, fmt.Errorf("no up buffer at index %d", index)
	}
	pending := s.up[index].pending
	if len(pending) == 0 {
		return 0, nil
	}
	n := copy(buf, pending)
	s.up[index].pending = pending[n:]
	return n, nil
}

func (s *Session) Write(index int, data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.down) {
		return 0, fmt.Errorf("no down buffer at index %d", index)
	}
	n := len(data)
	if s.maxWritePerCall > 0 && n > s.maxWritePerCall {
		n = s.maxWritePerCall
	}
	s.down[index].pending = append(s.down[index].pending, data[:n]...)
	if s.echoDown && index < len(s.up) {
		s.up[index].pending = append(s.up[index].pending, data[:n]...)
	}
	return n, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeCalls++
	s.opened = false
	s.connected = false
	s.targetConnected = false
	s.rttStarted = false
	return nil
}

// RTTActive implements probe.ActivitySensor.
func (s *Session) RTTActive() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return false, errors.New("probe not open")
	}
	return s.rttStarted && !s.activityAlwaysOff, nil
}

func (s *Session) bufferSet(direction probe.Direction) []*buffer {
	if direction == probe.DirectionUp {
		return s.up
	}
	return s.down
}

func descriptorKey(direction probe.Direction, index int) string {
	return fmt.Sprintf("%s/%d", direction, index)
}

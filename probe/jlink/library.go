// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package jlink

import (
	"bytes"
	"errors"
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
)

// DefaultLibraryPath is where the SEGGER installer places the library
// on Linux.
const DefaultLibraryPath = "/opt/SEGGER/JLink/libjlinkarm.so"

// Library is a loaded libjlinkarm.so with its symbol set resolved. It
// stays loaded for the life of the process.
type Library struct {
	handle uintptr
	path   string

	openEx          func(logHandler, errorHandler uintptr) string
	closeProbe      func()
	selectSerial    func(serial uint32) int32
	selectInterface func(interfaceCode int32) int32
	setSpeed        func(kHz uint32)
	execCommand     func(command string, errBuf []byte, errBufSize int32) int32
	connectTarget   func() int32
	isOpen          func() bool
	probeConnected  func() bool
	targetConnected func() bool
	productName     func(buf []byte, bufSize uint32)
	serialNumber    func() int32
	rttControl      func(command uint32, data unsafe.Pointer) int32
	rttRead         func(index uint32, buf []byte, bufSize uint32) int32
	rttWrite        func(index uint32, data []byte, dataSize uint32) int32
}

// Load opens the vendor library at path. An empty path tries the
// conventional install location first and then leaves resolution to
// the loader search path.
func Load(path string) (*Library, error) {
	candidates := []string{path}
	if path == "" {
		candidates = []string{DefaultLibraryPath, "libjlinkarm.so"}
	}

	var firstErr error
	for _, candidate := range candidates {
		handle, err := purego.Dlopen(candidate, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("loading %s: %w", candidate, err)
			}
			continue
		}
		library := &Library{handle: handle, path: candidate}
		if err := library.bind(); err != nil {
			return nil, err
		}
		return library, nil
	}
	return nil, firstErr
}

// Path returns the library path that was actually loaded.
func (l *Library) Path() string { return l.path }

// bind resolves every symbol the driver uses. Checking with Dlsym
// first turns a truncated or mismatched library into an error instead
// of the panic RegisterLibFunc raises on a missing symbol.
func (l *Library) bind() error {
	symbols := []struct {
		name string
		fptr any
	}{
		{"JLINKARM_OpenEx", &l.openEx},
		{"JLINKARM_Close", &l.closeProbe},
		{"JLINKARM_EMU_SelectByUSBSN", &l.selectSerial},
		{"JLINKARM_TIF_Select", &l.selectInterface},
		{"JLINKARM_SetSpeed", &l.setSpeed},
		{"JLINKARM_ExecCommand", &l.execCommand},
		{"JLINKARM_Connect", &l.connectTarget},
		{"JLINKARM_IsOpen", &l.isOpen},
		{"JLINKARM_EMU_IsConnected", &l.probeConnected},
		{"JLINKARM_IsConnected", &l.targetConnected},
		{"JLINKARM_EMU_GetProductName", &l.productName},
		{"JLINKARM_GetSN", &l.serialNumber},
		{"JLINK_RTTERMINAL_Control", &l.rttControl},
		{"JLINK_RTTERMINAL_Read", &l.rttRead},
		{"JLINK_RTTERMINAL_Write", &l.rttWrite},
	}
	for _, symbol := range symbols {
		if _, err := purego.Dlsym(l.handle, symbol.name); err != nil {
			return fmt.Errorf("%s has no symbol %s: %w", l.path, symbol.name, err)
		}
		purego.RegisterLibFunc(symbol.fptr, l.handle, symbol.name)
	}
	return nil
}

// execCommandChecked runs a J-Link command string. The library reports
// command failures through the error buffer rather than the return
// code.
func (l *Library) execCommandChecked(command string) error {
	errBuf := make([]byte, 256)
	l.execCommand(command, errBuf, int32(len(errBuf)))
	if message := cString(errBuf); message != "" {
		return errors.New(message)
	}
	return nil
}

// cString trims a NUL-terminated C string out of buf.
func cString(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i])
	}
	return string(buf)
}

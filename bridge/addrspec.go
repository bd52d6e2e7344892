// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"strconv"
	"strings"

	"github.com/codecoup/rttbridge/probe"
)

const (
	// MinSpeedKHz and MaxSpeedKHz bound the debug interface speed.
	// Probes reject values outside this window, so it is checked up
	// front where the message can name the flag.
	MinSpeedKHz = 5
	MaxSpeedKHz = 50000

	// maxSearchSize is the largest control-block search range the
	// probe API accepts (the size field is 32-bit on the wire).
	maxSearchSize = 0xFFFFFFFF
)

// ValidateSpeed checks an interface speed in kHz against the accepted
// range.
func ValidateSpeed(kHz int) error {
	if kHz < MinSpeedKHz || kHz > MaxSpeedKHz {
		return ValidationError("interface speed %d kHz out of range (%d..%d)",
			kHz, MinSpeedKHz, MaxSpeedKHz)
	}
	return nil
}

// ParseAddressSpec parses a control-block location argument. Two forms
// are accepted: a single address ("0x20000a00" or decimal), and a
// search range "START,SIZE" where both values are independently hex or
// decimal. The range size must fit the probe's 32-bit limit and cannot
// be zero. Empty input is an error; callers map an absent argument to
// probe.AutoDetect themselves.
//
// The parse is pure string work: no probe interaction, no I/O.
func ParseAddressSpec(input string) (probe.ControlBlock, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return probe.ControlBlock{}, ValidationError("empty address specification")
	}

	if strings.Contains(trimmed, ",") {
		parts := strings.Split(trimmed, ",")
		if len(parts) != 2 {
			return probe.ControlBlock{}, ValidationError(
				"address range must be START,SIZE, got %q", input)
		}
		start, err := parseAddressValue(parts[0])
		if err != nil {
			return probe.ControlBlock{}, ValidationError(
				"invalid range start %q", strings.TrimSpace(parts[0]))
		}
		size, err := parseAddressValue(parts[1])
		if err != nil {
			return probe.ControlBlock{}, ValidationError(
				"invalid range size %q", strings.TrimSpace(parts[1]))
		}
		if size == 0 || size > maxSearchSize {
			return probe.ControlBlock{}, ValidationError(
				"range size %#x out of range (1..%#x)", size, uint64(maxSearchSize))
		}
		return probe.SearchRange(start, size), nil
	}

	address, err := parseAddressValue(trimmed)
	if err != nil {
		return probe.ControlBlock{}, ValidationError("invalid address %q", trimmed)
	}
	return probe.FixedAddress(address), nil
}

// parseAddressValue parses one numeric token, hex with a 0x/0X prefix
// or decimal otherwise. Surrounding whitespace is tolerated.
func parseAddressValue(token string) (uint64, error) {
	token = strings.TrimSpace(token)
	if strings.HasPrefix(token, "0x") || strings.HasPrefix(token, "0X") {
		return strconv.ParseUint(token[2:], 16, 64)
	}
	return strconv.ParseUint(token, 10, 64)
}

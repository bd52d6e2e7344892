// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"fmt"
)

// ErrBufferNotFound reports that buffer enumeration completed but the
// requested name was never seen. It is deliberately not an *Error:
// callers that can fall back (or print a buffer listing) match it with
// errors.Is, while every *Error kind means the operation itself broke.
var ErrBufferNotFound = errors.New("buffer not found")

// ErrorKind classifies bridge errors so the CLI can choose between
// fixing input, checking hardware, and reporting a fault without
// parsing message text.
type ErrorKind string

const (
	// KindValidation indicates bad user input: an out-of-range speed,
	// a malformed address spec. Fix the input and rerun.
	KindValidation ErrorKind = "validation"

	// KindConnection indicates a broken link in the probe chain: the
	// library connection, the probe, or the target. Check cabling and
	// target power.
	KindConnection ErrorKind = "connection"

	// KindLookup indicates RTT buffer resolution failed: RTT never
	// became reachable, or a matched buffer is unusable.
	KindLookup ErrorKind = "lookup"

	// KindEndpoint indicates the host-side PTY could not be prepared:
	// allocation, unlocking, or symlink publication failed.
	KindEndpoint ErrorKind = "endpoint"

	// KindRelay indicates the relay loop died: repeated transport
	// faults or a closed PTY peer.
	KindRelay ErrorKind = "relay"
)

// Error is a classified bridge error. It wraps an inner error,
// preserving the chain for errors.Is and errors.As, and carries an
// optional hint with recovery guidance that the CLI prints after the
// message. Use the kind-specific constructors rather than constructing
// Error directly.
type Error struct {
	// Kind classifies the error for programmatic handling.
	Kind ErrorKind

	// Err is the underlying error with the human-readable message.
	Err error

	// Hint is optional recovery guidance shown to the user after the
	// error message.
	Hint string
}

// Error returns the message, followed by the hint on its own paragraph
// when one is set.
func (e *Error) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

// Unwrap returns the underlying error, allowing errors.Is and
// errors.As to walk the full chain through the Error wrapper.
func (e *Error) Unwrap() error { return e.Err }

// WithHint attaches recovery guidance and returns the receiver so it
// chains onto a constructor call.
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// ValidationError creates a validation error: the user provided bad input.
func ValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Err: fmt.Errorf(format, args...)}
}

// ConnectionError creates a connection error: a link in the probe
// chain is down.
func ConnectionError(format string, args ...any) *Error {
	return &Error{Kind: KindConnection, Err: fmt.Errorf(format, args...)}
}

// LookupError creates a lookup error: RTT buffer resolution failed.
func LookupError(format string, args ...any) *Error {
	return &Error{Kind: KindLookup, Err: fmt.Errorf(format, args...)}
}

// EndpointError creates an endpoint error: the host PTY could not be
// prepared.
func EndpointError(format string, args ...any) *Error {
	return &Error{Kind: KindEndpoint, Err: fmt.Errorf(format, args...)}
}

// RelayError creates a relay error: the relay loop hit a fatal fault.
func RelayError(format string, args ...any) *Error {
	return &Error{Kind: KindRelay, Err: fmt.Errorf(format, args...)}
}

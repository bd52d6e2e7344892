// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorWithoutHint(t *testing.T) {
	err := ValidationError("speed 3 kHz out of range")
	if err.Error() != "speed 3 kHz out of range" {
		t.Errorf("Error() = %q, want %q", err.Error(), "speed 3 kHz out of range")
	}
}

func TestErrorWithHint(t *testing.T) {
	err := ConnectionError("target not connected").
		WithHint("Check target power and the debug cable.")

	want := "target not connected\n\nCheck target power and the debug cable."
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestErrorWithHintReturnsReceiver(t *testing.T) {
	original := ValidationError("bad input")
	chained := original.WithHint("fix it")
	if original != chained {
		t.Error("WithHint should return the same pointer")
	}
}

func TestErrorHintSurvivesErrorsAs(t *testing.T) {
	inner := LookupError("RTT not active").WithHint("Is the target running RTT firmware?")
	wrapped := fmt.Errorf("buffer resolution failed: %w", inner)

	var bridgeErr *Error
	if !errors.As(wrapped, &bridgeErr) {
		t.Fatal("errors.As should find *Error in wrapped chain")
	}
	if bridgeErr.Hint != "Is the target running RTT firmware?" {
		t.Errorf("Hint = %q after unwrap, want %q", bridgeErr.Hint, "Is the target running RTT firmware?")
	}
}

func TestErrorEmptyHintNotAppended(t *testing.T) {
	err := RelayError("unexpected failure")
	if strings.Contains(err.Error(), "\n\n") {
		t.Error("empty hint should not add blank line to error message")
	}
}

func TestErrorAllKinds(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind ErrorKind
	}{
		{"Validation", ValidationError("bad"), KindValidation},
		{"Connection", ConnectionError("down"), KindConnection},
		{"Lookup", LookupError("missing"), KindLookup},
		{"Endpoint", EndpointError("no pty"), KindEndpoint},
		{"Relay", RelayError("died"), KindRelay},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if test.err.Kind != test.kind {
				t.Errorf("Kind = %q, want %q", test.err.Kind, test.kind)
			}
			hinted := test.err.WithHint("try again")
			if hinted.Hint != "try again" {
				t.Errorf("Hint = %q after WithHint, want %q", hinted.Hint, "try again")
			}
		})
	}
}

func TestBufferNotFoundIsNotKinded(t *testing.T) {
	wrapped := fmt.Errorf("up buffer %q: %w", "Terminal", ErrBufferNotFound)

	if !errors.Is(wrapped, ErrBufferNotFound) {
		t.Fatal("errors.Is should match ErrBufferNotFound through wrapping")
	}
	var bridgeErr *Error
	if errors.As(wrapped, &bridgeErr) {
		t.Error("ErrBufferNotFound should not match *Error")
	}
}

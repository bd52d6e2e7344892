// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"testing"

	"github.com/codecoup/rttbridge/bridge"
)

func TestRunVersionIsClean(t *testing.T) {
	if err := run([]string{"--version"}); err != nil {
		t.Fatalf("run(--version): %v", err)
	}
}

func TestRunHelpIsClean(t *testing.T) {
	if err := run([]string{"--help"}); err != nil {
		t.Fatalf("run(--help): %v", err)
	}
}

func TestRunRejectsNonPositiveInterval(t *testing.T) {
	for _, interval := range []string{"0s", "-5s"} {
		err := run([]string{"--version", "--interval", interval})
		if err != nil {
			t.Fatalf("run(--version --interval %s): %v", interval, err)
		}

		err = run([]string{"--interval", interval, "--buffer", "Terminal"})
		if err == nil {
			t.Fatalf("run(--interval %s) succeeded, want validation error", interval)
		}
		var bridgeErr *bridge.Error
		if !errors.As(err, &bridgeErr) || bridgeErr.Kind != bridge.KindValidation {
			t.Fatalf("run(--interval %s) error = %v, want validation *Error", interval, err)
		}
	}
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	if err := run([]string{"--flash"}); err == nil {
		t.Fatal("run(--flash) succeeded, want flag error")
	}
}

// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"fmt"
	"io"

	"github.com/codecoup/rttbridge/probe"
)

// WriteBufferList prints every buffer the target advertises, up
// direction first. A descriptor that cannot be read gets an inline
// note and the listing continues; a direction whose count cannot be
// read at all aborts the listing with an error.
func WriteBufferList(w io.Writer, session probe.Session) error {
	for _, direction := range []probe.Direction{probe.DirectionUp, probe.DirectionDown} {
		if err := writeDirectionList(w, session, direction); err != nil {
			return err
		}
	}
	return nil
}

func writeDirectionList(w io.Writer, session probe.Session, direction probe.Direction) error {
	fmt.Fprintln(w, directionHeading(direction))

	count, err := session.BufferCount(direction)
	if err != nil {
		return LookupError("reading %s buffer count: %w", direction, err)
	}
	if count == 0 {
		fmt.Fprintln(w, "  (none)")
		return nil
	}
	for i := 0; i < count; i++ {
		descriptor, err := session.BufferDescriptor(i, direction)
		if err != nil {
			fmt.Fprintf(w, "  #%d (error reading descriptor: %v)\n", i, err)
			continue
		}
		fmt.Fprintf(w, "  #%d %s (size=%d)\n", i, descriptor.Name, descriptor.Capacity)
	}
	return nil
}

func directionHeading(direction probe.Direction) string {
	if direction == probe.DirectionUp {
		return "Up-buffers:"
	}
	return "Down-buffers:"
}

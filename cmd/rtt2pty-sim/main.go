// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

// rtt2pty-sim drives the full bridge path against a simulated probe:
// session verification, RTT activation, buffer lookup, PTY allocation,
// and the relay loop, with no hardware attached. A scripted payload is
// queued into the up-buffer at a fixed interval; with --bidir, bytes
// written to the PTY are echoed back through the simulated target.
//
// The binary prints the same "PTY name is /dev/pts/N" marker as
// rtt2pty, so integration tests and terminal tooling can treat the two
// interchangeably.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/codecoup/rttbridge/bridge"
	"github.com/codecoup/rttbridge/lib/clock"
	"github.com/codecoup/rttbridge/lib/version"
	"github.com/codecoup/rttbridge/probe"
	"github.com/codecoup/rttbridge/probe/simprobe"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		bufferName  string
		bidir       bool
		link        string
		script      string
		interval    time.Duration
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("rtt2pty-sim", pflag.ContinueOnError)
	flagSet.StringVarP(&bufferName, "buffer", "b", "Terminal", "simulated RTT buffer name")
	flagSet.BoolVarP(&bidir, "bidir", "2", false, "echo host input back through the simulated target")
	flagSet.StringVarP(&link, "link", "l", "", "publish the PTY path at this symlink")
	flagSet.StringVar(&script, "script", "Hello from the simulated target!\r\n", "bytes the simulated target emits each interval")
	flagSet.DurationVar(&interval, "interval", time.Second, "pause between script emissions")
	flagSet.BoolVar(&showVersion, "version", false, "print version and exit")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	if showVersion {
		fmt.Printf("rtt2pty-sim %s\n", version.Info())
		return nil
	}

	if interval <= 0 {
		return bridge.ValidationError("interval must be positive, got %s", interval)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	session := simprobe.New()
	upIndex := session.AddUpBuffer(bufferName, 1024)
	session.AddDownBuffer(bufferName, 1024)
	session.EchoDown(true)

	if err := session.StartRTT(probe.AutoDetect()); err != nil {
		return err
	}
	if err := bridge.VerifySession(session); err != nil {
		return err
	}
	if err := bridge.WaitForRTT(context.Background(), session, clock.Real(), slog.Default()); err != nil {
		return err
	}

	upBuffer, err := bridge.FindBufferByName(session, bufferName, probe.DirectionUp, bridge.LocateOptions{})
	if err != nil {
		return err
	}

	var downBuffer probe.Descriptor
	if bidir {
		downBuffer, err = bridge.FindBufferByName(session, bufferName, probe.DirectionDown, bridge.LocateOptions{})
		if err != nil {
			return err
		}
	}

	pty, err := bridge.OpenPTY()
	if err != nil {
		return err
	}
	fmt.Printf("PTY name is %s\n", pty.SlavePath())

	if link != "" {
		if err := pty.Publish(link); err != nil {
			slog.Warn("symlink publication failed", "link", link, "error", err)
		} else {
			fmt.Printf("Created symlink %s -> %s\n", link, pty.SlavePath())
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Seed one emission so the first bytes appear without waiting a
	// full interval, then feed on the ticker until shutdown.
	session.QueueUp(upIndex, []byte(script))
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				session.QueueUp(upIndex, []byte(script))
			}
		}
	}()

	relay := &bridge.Relay{
		Session:       session,
		PTY:           pty,
		Up:            upBuffer,
		Down:          downBuffer,
		Bidirectional: bidir,
	}
	return relay.Run(ctx)
}

// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

// rtt2pty bridges a SEGGER J-Link RTT channel to a host pseudo-terminal.
//
// The bridge opens a probe session, starts RTT on the target, resolves
// the configured up-buffer by name, allocates a PTY pair, and relays
// target output to the PTY master until a signal or a fatal fault stops
// it. Host tools open the announced slave path ("PTY name is
// /dev/pts/N") like any serial port. With --bidir, bytes written to the
// PTY travel back through the target's down-buffer.
//
// Defaults come from an optional YAML config file named by --config or
// the RTT2PTY_CONFIG environment variable; explicit flags always win.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/codecoup/rttbridge/bridge"
	"github.com/codecoup/rttbridge/lib/clock"
	"github.com/codecoup/rttbridge/lib/config"
	"github.com/codecoup/rttbridge/lib/version"
	"github.com/codecoup/rttbridge/probe"
	"github.com/codecoup/rttbridge/probe/jlink"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

// cliOptions holds the parsed command line. The fields the config file
// also covers are overlaid onto the loaded config in resolveSettings;
// the rest only exist as flags.
type cliOptions struct {
	device      string
	serial      int
	speedKHz    int
	buffer      string
	bidir       bool
	address     string
	link        string
	printBufs   bool
	jlinkLib    string
	configPath  string
	logLevel    string
	showVersion bool
}

func newFlagSet(options *cliOptions) *pflag.FlagSet {
	defaults := config.Default()
	flagSet := pflag.NewFlagSet("rtt2pty", pflag.ContinueOnError)
	flagSet.StringVarP(&options.device, "device", "d", defaults.Device, "target device name")
	flagSet.IntVarP(&options.serial, "serial", "s", defaults.Serial, "probe serial number (0 = first probe found)")
	flagSet.IntVarP(&options.speedKHz, "speed", "S", defaults.SpeedKHz, "interface speed in kHz")
	flagSet.StringVarP(&options.buffer, "buffer", "b", defaults.Buffer, "RTT buffer name")
	flagSet.BoolVarP(&options.bidir, "bidir", "2", false, "relay host input to the target's down-buffer")
	flagSet.StringVarP(&options.address, "address", "a", "", "control block location: ADDR or START,SIZE (hex or decimal)")
	flagSet.StringVarP(&options.link, "link", "l", defaults.Link, "publish the PTY path at this symlink")
	flagSet.BoolVarP(&options.printBufs, "print-bufs", "p", false, "list the target's RTT buffers and exit")
	flagSet.StringVar(&options.jlinkLib, "jlink-lib", defaults.JLinkLib, "path to libjlinkarm.so")
	flagSet.StringVar(&options.configPath, "config", "", "YAML config file (also read from RTT2PTY_CONFIG)")
	flagSet.StringVar(&options.logLevel, "log-level", "info", "log level: debug, info, warn, or error")
	flagSet.BoolVar(&options.showVersion, "version", false, "print version and exit")
	flagSet.BoolP("help", "h", false, "show help")
	return flagSet
}

func run(args []string) error {
	var options cliOptions
	flagSet := newFlagSet(&options)

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}

	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	if options.showVersion {
		fmt.Printf("rtt2pty %s\n", version.Info())
		return nil
	}

	if rest := flagSet.Args(); len(rest) > 0 {
		return bridge.ValidationError("unexpected argument: %s", rest[0])
	}

	settings, err := resolveSettings(flagSet, &options)
	if err != nil {
		return err
	}

	controlBlock := probe.AutoDetect()
	if options.address != "" {
		controlBlock, err = bridge.ParseAddressSpec(options.address)
		if err != nil {
			return err
		}
	}

	level, err := parseLogLevel(options.logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(newLogHandler(level)))
	slog.Debug("rtt2pty starting", "version", version.Short())

	return runBridge(settings, &options, controlBlock)
}

// resolveSettings merges the three configuration layers: built-in
// defaults, then the config file, then any flag the user set
// explicitly. The merged result is validated as a whole.
func resolveSettings(flagSet *pflag.FlagSet, options *cliOptions) (*config.Config, error) {
	var settings *config.Config
	var err error
	if options.configPath != "" {
		settings, err = config.LoadFile(options.configPath)
	} else {
		settings, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if flagSet.Changed("device") {
		settings.Device = options.device
	}
	if flagSet.Changed("serial") {
		settings.Serial = options.serial
	}
	if flagSet.Changed("speed") {
		settings.SpeedKHz = options.speedKHz
	}
	if flagSet.Changed("buffer") {
		settings.Buffer = options.buffer
	}
	if flagSet.Changed("link") {
		settings.Link = options.link
	}
	if flagSet.Changed("jlink-lib") {
		settings.JLinkLib = options.jlinkLib
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func parseLogLevel(name string) (slog.Level, error) {
	switch name {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, bridge.ValidationError("unknown log level %q (use debug, info, warn, or error)", name)
	}
}

// newLogHandler builds the stderr log handler: human-readable text
// when stderr is a terminal, JSON when piped or redirected so scripts
// and test harnesses get machine-parseable records.
func newLogHandler(level slog.Level) slog.Handler {
	handlerOptions := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return slog.NewTextHandler(os.Stderr, handlerOptions)
	}
	return slog.NewJSONHandler(os.Stderr, handlerOptions)
}

// runBridge walks the startup sequence: probe session, RTT activation,
// buffer resolution, PTY allocation, then the relay loop. Until the
// relay takes ownership of the session and PTY, the deferred cleanup
// here stops RTT and closes the session on every failure path. The
// same cleanup serves the --print-bufs early exit.
func runBridge(settings *config.Config, options *cliOptions, controlBlock probe.ControlBlock) error {
	library, err := jlink.Load(settings.JLinkLib)
	if err != nil {
		return bridge.ConnectionError("loading J-Link library: %w", err).
			WithHint("Install the SEGGER J-Link software or point --jlink-lib at libjlinkarm.so.")
	}
	slog.Debug("J-Link library loaded", "path", library.Path())

	fmt.Println("Connecting to J-Link...")
	fmt.Printf("Connecting to %s...\n", settings.Device)
	session, err := library.Open(jlink.Options{
		Serial:    settings.Serial,
		Device:    settings.Device,
		SpeedKHz:  settings.SpeedKHz,
		Interface: jlink.InterfaceSWD,
	})
	if err != nil {
		return bridge.ConnectionError("connecting to %s: %w", settings.Device, err).
			WithHint("Ensure the J-Link is connected, its drivers are installed, and the target is powered.")
	}

	rttStarted := false
	handedOff := false
	defer func() {
		if handedOff {
			return
		}
		if rttStarted {
			if err := session.StopRTT(); err != nil {
				slog.Warn("stopping RTT failed", "error", err)
			}
		}
		if err := session.Close(); err != nil {
			slog.Warn("closing probe session failed", "error", err)
		}
	}()

	if err := bridge.VerifySession(session); err != nil {
		return err
	}

	fmt.Println("Connected to:")
	if product, err := session.ProductName(); err == nil {
		fmt.Printf("  %s\n", product)
	} else {
		fmt.Printf("  (probe info unavailable: %v)\n", err)
	}
	if serialNumber, err := session.SerialNumber(); err == nil {
		fmt.Printf("  S/N: %d\n", serialNumber)
	}

	fmt.Println("Configuring RTT...")
	switch controlBlock.Mode {
	case probe.ControlBlockSearch:
		fmt.Printf("Using RTT search range: 0x%X, 0x%X\n", controlBlock.SearchStart, controlBlock.SearchSize)
	case probe.ControlBlockFixed:
		fmt.Printf("Using RTT address: 0x%X\n", controlBlock.Address)
	default:
		fmt.Println("Using auto-detection for RTT control block...")
	}
	if err := session.StartRTT(controlBlock); err != nil {
		return bridge.ConnectionError("starting RTT: %w", err)
	}
	rttStarted = true

	fmt.Println("Searching for RTT control block...")
	if err := bridge.WaitForRTT(context.Background(), session, clock.Real(), slog.Default()); err != nil {
		return err
	}

	if options.printBufs {
		return bridge.WriteBufferList(os.Stdout, session)
	}

	upBuffer, err := locateBuffer(session, settings.Buffer, probe.DirectionUp)
	if err != nil {
		return err
	}

	var downBuffer probe.Descriptor
	if options.bidir {
		downBuffer, err = locateBuffer(session, settings.Buffer, probe.DirectionDown)
		if err != nil {
			return err
		}
	}

	pty, err := bridge.OpenPTY()
	if err != nil {
		return err
	}
	fmt.Printf("PTY name is %s\n", pty.SlavePath())

	if settings.Link != "" {
		if err := pty.Publish(settings.Link); err != nil {
			slog.Warn("symlink publication failed", "link", settings.Link, "error", err)
			fmt.Fprintln(os.Stderr, "Continuing without symlink...")
		} else {
			fmt.Printf("Created symlink %s -> %s\n", settings.Link, pty.SlavePath())
		}
	}

	relay := &bridge.Relay{
		Session:       session,
		PTY:           pty,
		Up:            upBuffer,
		Down:          downBuffer,
		Bidirectional: options.bidir,
	}
	handedOff = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("RTT bridge active. Press Ctrl+C to exit.")
	return relay.Run(ctx)
}

// locateBuffer resolves one buffer by name and announces the result.
// When the name is simply absent (as opposed to the lookup itself
// breaking), the target's buffer inventory goes to stderr so the user
// can see what names exist.
func locateBuffer(session probe.Session, name string, direction probe.Direction) (probe.Descriptor, error) {
	descriptor, err := bridge.FindBufferByName(session, name, direction, bridge.LocateOptions{})
	if err != nil {
		if errors.Is(err, bridge.ErrBufferNotFound) {
			fmt.Fprintf(os.Stderr, "\nAvailable buffers:\n")
			if listErr := bridge.WriteBufferList(os.Stderr, session); listErr != nil {
				slog.Warn("listing buffers failed", "error", listErr)
			}
		}
		return probe.Descriptor{}, err
	}
	fmt.Printf("Using %s-buffer #%d '%s' (size=%d)\n", direction, descriptor.Index, descriptor.Name, descriptor.Capacity)
	return descriptor, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `rtt2pty — bridge a SEGGER J-Link RTT channel to a pseudo-terminal.

Connects to the target through a J-Link probe, starts RTT, resolves
the named buffer, and relays its bytes to a freshly allocated PTY.
The slave path is printed as "PTY name is /dev/pts/N"; open it like a
serial port. With --bidir, bytes typed into the PTY are relayed back
to the target's down-buffer.

Usage:
  rtt2pty [flags]

Examples:
  # Bridge the default Terminal buffer of an attached nRF54L15
  rtt2pty

  # Bidirectional bridge with a stable symlink
  rtt2pty --bidir --link /tmp/rtt-terminal

  # Narrow the control block search and pick a different buffer
  rtt2pty --address 0x20000000,0x10000 --buffer Logger

  # List the target's RTT buffers
  rtt2pty --print-bufs

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}

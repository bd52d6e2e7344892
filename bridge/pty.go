// Copyright 2026 The rttbridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// PTY is the host-side endpoint of the bridge: a pseudo-terminal pair
// allocated through the Linux devpts interface. The relay writes
// target output to the master; host programs open the slave path like
// any serial port.
//
// Both descriptors stay open for the PTY's lifetime. Holding the slave
// open keeps the pair alive while no client is attached, so master
// writes queue instead of failing with EIO between client sessions.
type PTY struct {
	masterFd  int
	slaveFd   int
	slavePath string
	linkPath  string
}

// OpenPTY allocates a master/slave pair: open /dev/ptmx, query the
// slave number, unlock the slave, open it. Any partial failure closes
// what was opened.
func OpenPTY() (*PTY, error) {
	masterFd, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, EndpointError("open /dev/ptmx: %w", err)
	}

	ptyNumber, err := unix.IoctlGetInt(masterFd, unix.TIOCGPTN)
	if err != nil {
		unix.Close(masterFd)
		return nil, EndpointError("get PTY number (TIOCGPTN): %w", err)
	}

	if err := unix.IoctlSetPointerInt(masterFd, unix.TIOCSPTLCK, 0); err != nil {
		unix.Close(masterFd)
		return nil, EndpointError("unlock PTY slave (TIOCSPTLCK): %w", err)
	}

	slavePath := fmt.Sprintf("/dev/pts/%d", ptyNumber)
	slaveFd, err := unix.Open(slavePath, unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		unix.Close(masterFd)
		return nil, EndpointError("open PTY slave %s: %w", slavePath, err)
	}

	return &PTY{
		masterFd:  masterFd,
		slaveFd:   slaveFd,
		slavePath: slavePath,
	}, nil
}

// SlavePath returns the filesystem path of the slave side, the path
// host programs open.
func (p *PTY) SlavePath() string { return p.slavePath }

// Publish points a symlink at the slave path so tooling can find the
// PTY at a stable location. An existing symlink at linkPath is
// replaced; anything else at that path is refused rather than deleted.
// Parent directories are created as needed. The link is removed again
// during Close.
func (p *PTY) Publish(linkPath string) error {
	if info, err := os.Lstat(linkPath); err == nil {
		if info.Mode()&os.ModeSymlink == 0 {
			return EndpointError("refusing to replace %s: exists and is not a symlink", linkPath)
		}
		if err := os.Remove(linkPath); err != nil {
			return EndpointError("remove stale symlink %s: %w", linkPath, err)
		}
	}

	if dir := filepath.Dir(linkPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return EndpointError("create symlink directory %s: %w", dir, err)
		}
	}

	if err := os.Symlink(p.slavePath, linkPath); err != nil {
		return EndpointError("create symlink %s: %w", linkPath, err)
	}
	p.linkPath = linkPath
	return nil
}

// WriteMaster writes target output into the master side, retrying on
// EINTR. The descriptor is in blocking mode: when no client is
// draining the slave and the kernel queue fills, the call blocks until
// a client catches up, mirroring a serial port with flow control.
func (p *PTY) WriteMaster(data []byte) (int, error) {
	for {
		n, err := unix.Write(p.masterFd, data)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

// ReadMaster reads host input from the master side, retrying on EINTR.
// Callers poll with MasterReadable first; the descriptor blocks.
func (p *PTY) ReadMaster(buf []byte) (int, error) {
	for {
		n, err := unix.Read(p.masterFd, buf)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

// MasterReadable polls the master for pending input, waiting at most
// timeout. Error and hangup conditions report as readable so the
// following read surfaces them.
func (p *PTY) MasterReadable(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(p.masterFd), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, int(timeout.Milliseconds()))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("poll PTY master: %w", err)
		}
		return n > 0 && fds[0].Revents != 0, nil
	}
}

// Close releases the pair and removes the published symlink. Failures
// in one step never stop the remaining steps; the collected errors
// come back joined. Close is idempotent.
func (p *PTY) Close() error {
	var errs []error

	if p.masterFd >= 0 {
		if err := unix.Close(p.masterFd); err != nil {
			errs = append(errs, fmt.Errorf("close PTY master: %w", err))
		}
		p.masterFd = -1
	}

	if p.slaveFd >= 0 {
		if err := unix.Close(p.slaveFd); err != nil {
			errs = append(errs, fmt.Errorf("close PTY slave: %w", err))
		}
		p.slaveFd = -1
	}

	if p.linkPath != "" {
		// Only remove what is still a symlink; the path may have been
		// replaced since Publish.
		if info, err := os.Lstat(p.linkPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
			if err := os.Remove(p.linkPath); err != nil {
				errs = append(errs, fmt.Errorf("remove symlink %s: %w", p.linkPath, err))
			}
		}
		p.linkPath = ""
	}

	return errors.Join(errs...)
}

// isFatalIOError reports whether a PTY read or write failed in a way
// that ends the relay: EBADF (descriptor gone) or EIO (peer side
// closed). Everything else is worth another iteration.
func isFatalIOError(err error) bool {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return false
	}
	return errno == unix.EBADF || errno == unix.EIO
}

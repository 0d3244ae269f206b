// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package console adapts the host terminal to the machine's keyboard and
// display: unbuffered, unechoed input and a non-blocking key poll.
package console

import (
	"io"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

type Console struct {
	in  *os.File
	out *os.File

	restore *unix.Termios
	scratch [1]byte
}

func New(in, out *os.File) *Console {
	return &Console{in: in, out: out}
}

func (c *Console) fd() int {
	return int(c.in.Fd())
}

// IsTerminal reports whether input comes from a terminal rather than a pipe
// or file.
func (c *Console) IsTerminal() bool {
	return term.IsTerminal(c.fd())
}

// EnterRawMode turns off line buffering and echo. Input that is not a
// terminal is left alone.
func (c *Console) EnterRawMode() error {
	if !c.IsTerminal() || c.restore != nil {
		return nil
	}

	termios, err := unix.IoctlGetTermios(c.fd(), ioctlGetTermios)

	if err != nil {
		return err
	}

	saved := *termios
	termstate := *termios

	termstate.Lflag &^= unix.ICANON | unix.ECHO

	// Reads block for a single byte
	termstate.Cc[unix.VMIN] = 1
	termstate.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(
		c.fd(), ioctlSetTermios, &termstate,
	); err != nil {
		return err
	}

	c.restore = &saved
	return nil
}

func (c *Console) ExitRawMode() error {
	if c.restore == nil {
		return nil
	}

	if err := unix.IoctlSetTermios(
		c.fd(), ioctlSetTermios, c.restore,
	); err != nil {
		return err
	}

	c.restore = nil
	return nil
}

// RestoreOnInterrupt puts the terminal back and calls exit when the process
// is interrupted. The returned function stops watching for the signal.
func (c *Console) RestoreOnInterrupt(exit func()) (stop func()) {
	signals := make(chan os.Signal, 1)
	done := make(chan struct{})

	signal.Notify(signals, os.Interrupt)

	go func() {
		select {
		case <-signals:
			c.ExitRawMode()
			c.out.WriteString("\n")
			exit()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(signals)
		close(done)
	}
}

// Pending polls input without blocking.
func (c *Console) Pending() bool {
	fds := []unix.PollFd{{Fd: int32(c.fd()), Events: unix.POLLIN}}

	for {
		n, err := unix.Poll(fds, 0)

		if err == unix.EINTR {
			continue
		}

		return err == nil && n > 0 &&
			fds[0].Revents&(unix.POLLIN|unix.POLLHUP) != 0
	}
}

// ReadByte blocks until one byte of input is available.
func (c *Console) ReadByte() (byte, error) {
	n, err := c.in.Read(c.scratch[:])

	if n == 1 {
		return c.scratch[0], nil
	} else if err != nil {
		return 0, err
	}

	return 0, io.EOF
}

func (c *Console) Write(p []byte) (int, error) {
	return c.out.Write(p)
}

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

package machine

import (
	"errors"

	"github.com/lassandro/lc3vm/pkg/translate"
)

var f = translate.From

var ErrHalted = errors.New(f("machine halted"))

// IllegalOpcodeError reports a fetch of RTI or the reserved opcode.
type IllegalOpcodeError struct {
	Addr        uint16
	Instruction uint16
}

func (err *IllegalOpcodeError) Error() string {
	return f("illegal opcode %#04x at %#04x", err.Instruction, err.Addr)
}

type LoadError struct {
	Path string
	Err  error
}

func (err *LoadError) Error() string {
	return f("failed to load image %s: %v", err.Path, err.Err)
}

func (err *LoadError) Unwrap() error {
	return err.Err
}

// DeviceError wraps a failure of the host side of the keyboard or display.
type DeviceError struct {
	Device string
	Err    error
}

func (err *DeviceError) Error() string {
	return f("%s: %v", err.Device, err.Err)
}

func (err *DeviceError) Unwrap() error {
	return err.Err
}

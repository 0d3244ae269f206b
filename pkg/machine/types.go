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
	"io"
)

// Keyboard is the input device behind GETC, IN and the KBSR/KBDR registers.
type Keyboard interface {
	// ReadByte blocks until a key is available.
	io.ByteReader

	// Pending reports whether ReadByte would return without blocking.
	Pending() bool
}

type DeviceHandler struct {
	Keyboard Keyboard
	Display  io.Writer
}

type MachineState struct {
	Registers [8]uint16
	Program   uint16
	Condition uint16
	Running   bool
	Memory    [MEMSPACE_SIZE]uint16
}

type MachineDebugger interface {
	// Fetch runs after an instruction is fetched, before it executes.
	Fetch(addr uint16, instruction uint16, mc *Machine)

	// Step runs after an instruction executes.
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	Devices  *DeviceHandler
	State    MachineState
	Debugger MachineDebugger

	fault error
}

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

type flusher interface {
	Flush() error
}

// getc blocks for one key. End of input reads as 0xFFFF.
func (mc *Machine) getc() uint16 {
	kb := mc.keyboard()

	if kb == nil {
		return 0xFFFF
	}

	key, err := kb.ReadByte()

	if err == io.EOF {
		return 0xFFFF
	} else if err != nil {
		mc.fail(&DeviceError{"keyboard", err})
		return 0xFFFF
	}

	return uint16(key)
}

func (mc *Machine) putc(char byte) {
	mc.puts(string([]byte{char}))
}

func (mc *Machine) puts(s string) {
	display := mc.display()

	if display == nil {
		return
	}

	if _, err := io.WriteString(display, s); err != nil {
		mc.fail(&DeviceError{"display", err})
	}
}

func (mc *Machine) flush() {
	if display, ok := mc.display().(flusher); ok {
		if err := display.Flush(); err != nil {
			mc.fail(&DeviceError{"display", err})
		}
	}
}

// eachWord walks the zero terminated word string at addr. Reads bypass the
// device registers.
func (mc *Machine) eachWord(addr uint16, fn func(word uint16)) {
	for i := 0; i < MEMSPACE_SIZE; i++ {
		word := mc.State.Memory[addr]

		if word == 0 {
			return
		}

		fn(word)
		addr++
	}
}

func (mc *Machine) trap(vector uint16) {
	switch vector {
	case TRAP_GETC:
		mc.State.Registers[0] = mc.getc()

	case TRAP_OUT:
		mc.putc(byte(mc.State.Registers[0]))
		mc.flush()

	case TRAP_PUTS:
		mc.eachWord(mc.State.Registers[0], func(word uint16) {
			mc.putc(byte(word))
		})
		mc.flush()

	case TRAP_IN:
		mc.puts(f("Enter a character: "))
		mc.flush()

		mc.State.Registers[0] = mc.getc()
		mc.putc(byte(mc.State.Registers[0]))
		mc.flush()

	case TRAP_PUTSP:
		mc.eachWord(mc.State.Registers[0], func(word uint16) {
			mc.putc(byte(word))

			if high := byte(word >> 8); high != 0 {
				mc.putc(high)
			}
		})
		mc.flush()

	case TRAP_HALT:
		mc.puts(f("HALT\n"))
		mc.flush()
		mc.State.Running = false
	}
}

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

	"github.com/lassandro/lc3vm/pkg/encoding"
)

func New(devices *DeviceHandler) *Machine {
	mc := &Machine{Devices: devices}
	mc.State.Reset()
	return mc
}

func (mc *MachineState) Reset() {
	for i := range mc.Registers {
		mc.Registers[i] = 0x0000
	}

	for i := range mc.Memory {
		mc.Memory[i] = 0x0000
	}

	mc.Program = MEMSPACE_USER
	mc.Condition = FLAG_ZERO
	mc.Running = true
}

func (mc *Machine) keyboard() Keyboard {
	if mc.Devices == nil {
		return nil
	}

	return mc.Devices.Keyboard
}

func (mc *Machine) display() io.Writer {
	if mc.Devices == nil {
		return nil
	}

	return mc.Devices.Display
}

// fail records the first device error of the current step.
func (mc *Machine) fail(err error) {
	if mc.fault == nil {
		mc.fault = err
	}
}

func (mc *Machine) pollKeyboard() {
	kb := mc.keyboard()

	if kb != nil && kb.Pending() {
		key, err := kb.ReadByte()

		if err == nil {
			mc.State.Memory[DEV_KBSR] = 1 << 15
			mc.State.Memory[DEV_KBDR] = uint16(key)
			return
		} else if err != io.EOF {
			mc.fail(&DeviceError{"keyboard", err})
		}
	}

	mc.State.Memory[DEV_KBSR] = 0
}

func (mc *Machine) read(addr uint16) uint16 {
	if addr == DEV_KBSR {
		mc.pollKeyboard()
	}

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value uint16) {
	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

func (mc *Machine) setFlags(value uint16) {
	if value>>15 == 1 {
		mc.State.Condition = FLAG_NEG
	} else if value == 0 {
		mc.State.Condition = FLAG_ZERO
	} else {
		mc.State.Condition = FLAG_POS
	}
}

func (mc *Machine) setRegister(reg uint16, value uint16) {
	mc.State.Registers[reg] = value
	mc.setFlags(value)
}

// Run steps the machine until it halts or faults.
func (mc *Machine) Run() error {
	for mc.State.Running {
		if err := mc.Step(); err != nil {
			return err
		}
	}

	return nil
}

// Step fetches, decodes and executes a single instruction.
func (mc *Machine) Step() error {
	if !mc.State.Running {
		return ErrHalted
	}

	mc.fault = nil

	pc := mc.State.Program
	instruction := mc.read(pc)
	opcode := encoding.Opcode(instruction)

	if mc.Debugger != nil {
		mc.Debugger.Fetch(pc, instruction, mc)
	}

	mc.State.Program++

	switch opcode {
	// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
	// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD:
		dest := encoding.Reg0(instruction)
		src1 := encoding.Reg1(instruction)

		if encoding.Bit(instruction, 5) {
			imm5 := encoding.SignExtend(instruction, 5)

			mc.setRegister(dest, mc.State.Registers[src1]+imm5)
		} else {
			src2 := encoding.Reg2(instruction)

			mc.setRegister(
				dest, mc.State.Registers[src1]+mc.State.Registers[src2],
			)
		}

	// AND  |0101    |DR   |SR1  |0|00 |SR2   | Register  bitwise
	// AND  |0101    |DR   |SR1  |1|imm5      | Immediate bitwise
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_AND:
		dest := encoding.Reg0(instruction)
		src1 := encoding.Reg1(instruction)

		if encoding.Bit(instruction, 5) {
			imm5 := encoding.SignExtend(instruction, 5)

			mc.setRegister(dest, mc.State.Registers[src1]&imm5)
		} else {
			src2 := encoding.Reg2(instruction)

			mc.setRegister(
				dest, mc.State.Registers[src1]&mc.State.Registers[src2],
			)
		}

	// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_NOT:
		dest := encoding.Reg0(instruction)
		src := encoding.Reg1(instruction)

		mc.setRegister(dest, ^mc.State.Registers[src])

	// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_BR:
		flags := encoding.Reg0(instruction)

		if flags&mc.State.Condition != 0 {
			mc.State.Program += encoding.SignExtend(instruction, 9)
		}

	// JMP  |1100    |000  |BaseR|000000      | Jump
	// RET  |1100    |000  |111  |000000      | Return
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JMP:
		mc.State.Program = mc.State.Registers[encoding.Reg1(instruction)]

	// JSR  |0100    |1|PCoffset11            | Jump to subroutine
	// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JSR:
		mc.State.Registers[7] = mc.State.Program

		if encoding.Bit(instruction, 11) {
			mc.State.Program += encoding.SignExtend(instruction, 11)
		} else {
			mc.State.Program = mc.State.Registers[encoding.Reg1(instruction)]
		}

	// LD   |0010    |DR   |PCoffset9         | Load
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD:
		dest := encoding.Reg0(instruction)
		addr := mc.State.Program + encoding.SignExtend(instruction, 9)

		mc.setRegister(dest, mc.read(addr))

	// LDI  |1010    |DR   |PCoffset9         | Load indirect
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDI:
		dest := encoding.Reg0(instruction)
		addr := mc.State.Program + encoding.SignExtend(instruction, 9)

		mc.setRegister(dest, mc.read(mc.read(addr)))

	// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LDR:
		dest := encoding.Reg0(instruction)
		base := encoding.Reg1(instruction)
		addr := mc.State.Registers[base] + encoding.SignExtend(instruction, 6)

		mc.setRegister(dest, mc.read(addr))

	// LEA  |1110    |DR   |PCoffset9         | Load effective address
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LEA:
		dest := encoding.Reg0(instruction)

		mc.setRegister(
			dest, mc.State.Program+encoding.SignExtend(instruction, 9),
		)

	// ST   |0011    |SR   |PCoffset9         | Store
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ST:
		src := encoding.Reg0(instruction)
		addr := mc.State.Program + encoding.SignExtend(instruction, 9)

		mc.write(addr, mc.State.Registers[src])

	// STI  |1011    |SR   |PCoffset9         | Store indirect
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_STI:
		src := encoding.Reg0(instruction)
		addr := mc.State.Program + encoding.SignExtend(instruction, 9)

		mc.write(mc.read(addr), mc.State.Registers[src])

	// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_STR:
		src := encoding.Reg0(instruction)
		base := encoding.Reg1(instruction)
		addr := mc.State.Registers[base] + encoding.SignExtend(instruction, 6)

		mc.write(addr, mc.State.Registers[src])

	// TRAP |1111    |0000   |trapvect8       | System call
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_TRAP:
		mc.trap(encoding.TrapVector(instruction))

	// RTI  |1000    |000000000000            | Return from interrupt (illegal)
	// RES  |1101    |                        | Reserved (illegal)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_RTI, OP_RES:
		mc.State.Running = false

		return &IllegalOpcodeError{Addr: pc, Instruction: instruction}
	}

	if mc.fault != nil {
		mc.State.Running = false
		return mc.fault
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return nil
}

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

package debugger

import (
	"fmt"
	"strings"

	"github.com/lassandro/lc3vm/pkg/encoding"
	"github.com/lassandro/lc3vm/pkg/machine"
)

// Condition renders a condition register as its n/z/p letters.
func Condition(cc uint16) string {
	var result strings.Builder

	if cc&machine.FLAG_NEG != 0 {
		result.WriteByte('n')
	}

	if cc&machine.FLAG_ZERO != 0 {
		result.WriteByte('z')
	}

	if cc&machine.FLAG_POS != 0 {
		result.WriteByte('p')
	}

	if result.Len() == 0 {
		return "-"
	}

	return result.String()
}

func signed(value uint16, bits uint16) int16 {
	return int16(encoding.SignExtend(value, bits))
}

// pcrel is the target of a PCoffset9 operand.
func pcrel(instr, next uint16) uint16 {
	return next + encoding.SignExtend(instr, 9)
}

// Disassemble renders the instruction stored at addr in assembler syntax.
// PC relative operands are shown as their target address.
func Disassemble(instr, addr uint16) string {
	r0 := encoding.Reg0(instr)
	r1 := encoding.Reg1(instr)
	next := addr + 1

	switch encoding.Opcode(instr) {
	case machine.OP_ADD, machine.OP_AND:
		name := "ADD"
		if encoding.Opcode(instr) == machine.OP_AND {
			name = "AND"
		}

		if encoding.Bit(instr, 5) {
			return fmt.Sprintf(
				"%s R%d, R%d, #%d", name, r0, r1, signed(instr, 5),
			)
		}

		return fmt.Sprintf(
			"%s R%d, R%d, R%d", name, r0, r1, encoding.Reg2(instr),
		)

	case machine.OP_NOT:
		return fmt.Sprintf("NOT R%d, R%d", r0, r1)

	case machine.OP_BR:
		if r0 == 0 {
			return "NOP"
		}

		var flags strings.Builder
		if r0&0b100 != 0 {
			flags.WriteByte('n')
		}
		if r0&0b010 != 0 {
			flags.WriteByte('z')
		}
		if r0&0b001 != 0 {
			flags.WriteByte('p')
		}

		target := next + encoding.SignExtend(instr, 9)
		return fmt.Sprintf("BR%s x%04X", flags.String(), target)

	case machine.OP_JMP:
		if r1 == 7 {
			return "RET"
		}

		return fmt.Sprintf("JMP R%d", r1)

	case machine.OP_JSR:
		if encoding.Bit(instr, 11) {
			return fmt.Sprintf("JSR x%04X", next+encoding.SignExtend(instr, 11))
		}

		return fmt.Sprintf("JSRR R%d", r1)

	case machine.OP_LD:
		return fmt.Sprintf("LD R%d, x%04X", r0, pcrel(instr, next))

	case machine.OP_LDI:
		return fmt.Sprintf("LDI R%d, x%04X", r0, pcrel(instr, next))

	case machine.OP_LEA:
		return fmt.Sprintf("LEA R%d, x%04X", r0, pcrel(instr, next))

	case machine.OP_ST:
		return fmt.Sprintf("ST R%d, x%04X", r0, pcrel(instr, next))

	case machine.OP_STI:
		return fmt.Sprintf("STI R%d, x%04X", r0, pcrel(instr, next))

	case machine.OP_LDR:
		return fmt.Sprintf("LDR R%d, R%d, #%d", r0, r1, signed(instr, 6))

	case machine.OP_STR:
		return fmt.Sprintf("STR R%d, R%d, #%d", r0, r1, signed(instr, 6))

	case machine.OP_TRAP:
		vector := encoding.TrapVector(instr)

		if name, ok := trapNames[vector]; ok {
			return name
		}

		return fmt.Sprintf("TRAP x%02X", vector)

	case machine.OP_RTI:
		return "RTI"

	default:
		return fmt.Sprintf(".FILL x%04X", instr)
	}
}

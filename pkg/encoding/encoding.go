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

// Package encoding holds the bit-level helpers shared by the machine, the
// assembler and the debugger.
package encoding

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidHex = errors.New("invalid hex string")

// Decodes a hexidecimal string in the formats: 0xFFFF, xFFFF, 0xFF, xFF
func DecodeHex(s string) (uint16, error) {
	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i != 1 || s[0] != '0' {
		return 0, ErrInvalidHex
	}

	result, err := strconv.ParseUint(s, 0, 16)

	if err != nil {
		return 0, err
	}

	return uint16(result), nil
}

// Decodes a base-10 string in the formats: #123, 123, #-5
func DecodeInt(s string) (int32, error) {
	s = strings.TrimPrefix(s, "#")

	result, err := strconv.ParseInt(s, 10, 32)

	if err != nil {
		return 0, err
	}

	return int32(result), nil
}

// Mask returns the low bitcount bits set.
func Mask(bitcount uint16) uint16 {
	if bitcount >= 16 {
		return 0xFFFF
	}

	return (1 << bitcount) - 1
}

// SignExtend widens the low bitcount bits of value as a two's complement
// quantity. Bits above bitcount are ignored.
func SignExtend(value uint16, bitcount uint16) uint16 {
	value &= Mask(bitcount)

	if bitcount < 16 && (value>>(bitcount-1))&0x1 == 1 {
		value |= 0xFFFF << bitcount
	}

	return value
}

// ZeroExtend keeps the low bitcount bits of value.
func ZeroExtend(value uint16, bitcount uint16) uint16 {
	return value & Mask(bitcount)
}

// Instruction field accessors
// ---- [ 15 14 13 12 | 11 10 9 | 8 7 6 | 5 | 4 3 | 2 1 0 ]

func Opcode(instruction uint16) uint16 {
	return instruction >> 12
}

// DR, SR (store) and the nzp bits of BR
func Reg0(instruction uint16) uint16 {
	return (instruction >> 9) & 0x7
}

// SR1 and BaseR
func Reg1(instruction uint16) uint16 {
	return (instruction >> 6) & 0x7
}

// SR2
func Reg2(instruction uint16) uint16 {
	return instruction & 0x7
}

func Bit(instruction uint16, n uint16) bool {
	return (instruction>>n)&0x1 == 1
}

func TrapVector(instruction uint16) uint16 {
	return ZeroExtend(instruction, 8)
}

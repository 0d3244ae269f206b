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

package assembler_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lassandro/lc3vm/pkg/assembler"
	"github.com/lassandro/lc3vm/pkg/machine"
)

type testCase struct {
	Name   string
	Source []string
	Origin uint16
	Words  []uint16
}

func assemble(t *testing.T, source ...string) *assembler.Object {
	obj, errs := assembler.Assemble(strings.NewReader(strings.Join(source, "\n")))

	for _, err := range errs {
		t.Error(err)
	}

	require.NotNil(t, obj)
	return obj
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			test := test
			t.Run(test.Name, func(t *testing.T) {
				obj := assemble(t, test.Source...)

				assert.Equal(t, test.Origin, obj.Origin)
				assert.Equal(t, test.Words, obj.Words)
			})
		}
	})
}

func testFailure(
	t *testing.T, name string, source []string, target interface{},
) {
	t.Run(name, func(t *testing.T) {
		obj, errs := assembler.Assemble(strings.NewReader(strings.Join(source, "\n")))

		assert.Nil(t, obj)
		require.NotEmpty(t, errs)
		assert.IsType(t, target, errs[0], "%v", errs[0])

		if tokenErr, ok := errs[0].(assembler.TokenError); ok {
			assert.NotZero(t, tokenErr.GetPosition().Line)
		}
	})
}

func TestOperate(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "ADD Register",
			Source: []string{".ORIG x3000", "ADD R0, R1, R2", ".END"},
			Origin: 0x3000,
			Words:  []uint16{0b0001_000_001_000_010},
		},
		{
			Name:   "ADD Immediate",
			Source: []string{".ORIG x3000", "add r7 r6 #-16"},
			Origin: 0x3000,
			Words:  []uint16{0b0001_111_110_1_10000},
		},
		{
			Name:   "AND Hex Immediate",
			Source: []string{".ORIG x3000", "AND R1, R1, x1F"},
			Origin: 0x3000,
			Words:  []uint16{0b0101_001_001_1_11111},
		},
		{
			Name:   "NOT",
			Source: []string{".ORIG x3000", "NOT R3, R4"},
			Origin: 0x3000,
			Words:  []uint16{0b1001_011_100_111111},
		},
	})
}

func TestControl(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "BR Labels",
			Source: []string{
				".ORIG x3000",
				"LOOP  ADD R0, R0, #-1",
				"      BRp LOOP",
				"      BRnzp DONE",
				"      BR #0",
				"DONE  RET",
			},
			Origin: 0x3000,
			Words: []uint16{
				0b0001_000_000_1_11111,
				0b0000_001_111111110,
				0b0000_111_000000001,
				0b0000_111_000000000,
				0b1100_000_111_000000,
			},
		},
		{
			Name: "JSR JSRR JMP",
			Source: []string{
				".ORIG x4000",
				"JSR SUB",
				"JSRR R3",
				"JMP R2",
				"SUB RTI",
			},
			Origin: 0x4000,
			Words: []uint16{
				0b0100_1_00000000010,
				0b0100_0_00_011_000000,
				0b1100_000_010_000000,
				0b1000_000000000000,
			},
		},
		{
			Name: "Traps",
			Source: []string{
				".ORIG x3000",
				"GETC", "OUT", "PUTS", "IN", "PUTSP", "HALT", "TRAP x25", "TRAP #33",
			},
			Origin: 0x3000,
			Words: []uint16{
				0xF020, 0xF021, 0xF022, 0xF023, 0xF024, 0xF025, 0xF025, 0xF021,
			},
		},
	})
}

func TestMemory(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "PC Relative",
			Source: []string{
				".ORIG x3000",
				"LD  R1, DATA",
				"LDI R2, PTR",
				"ST  R1, DATA",
				"STI R2, PTR",
				"LEA R3, DATA",
				"DATA .FILL x0041",
				"PTR  .FILL DATA",
			},
			Origin: 0x3000,
			Words: []uint16{
				0b0010_001_000000100,
				0b1010_010_000000100,
				0b0011_001_000000010,
				0b1011_010_000000010,
				0b1110_011_000000000,
				0x0041,
				0x3005,
			},
		},
		{
			Name: "Base Relative",
			Source: []string{
				".ORIG x3000",
				"LDR R0, R6, #-1",
				"STR R1, R5, #31",
			},
			Origin: 0x3000,
			Words: []uint16{
				0b0110_000_110_111111,
				0b0111_001_101_011111,
			},
		},
	})
}

func TestDirectives(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "STRINGZ BLKW FILL",
			Source: []string{
				"; leading comment",
				"      .ORIG x3000 ; origin",
				"MSG   .STRINGZ \"Hi, \\\"LC3\\\"\"",
				"BUF   .BLKW 2",
				"      .FILL #-1",
				"      .FILL 65535",
				"      .END",
				"      ADD R0, R0, R0 ; ignored",
			},
			Origin: 0x3000,
			Words: []uint16{
				'H', 'i', ',', ' ', '"', 'L', 'C', '3', '"', 0,
				0, 0,
				0xFFFF,
				0xFFFF,
			},
		},
		{
			Name: "Expressions",
			Source: []string{
				".ORIG x3000",
				"LD R0, $(DATA + 1)",
				"ADD R0, R0, $(2 * 3)",
				"TRAP $(0x20 + 5)",
				"DATA .FILL $(DATA - 0x3000)",
				".FILL $(ord(\"A\"))",
				".BLKW $(1 + 1)",
			},
			Origin: 0x3000,
			Words: []uint16{
				0b0010_000_000000011,
				0b0001_000_000_1_00110,
				0xF025,
				0x0003,
				0x0041,
				0, 0,
			},
		},
	})
}

func TestFailure(t *testing.T) {
	testFailure(t, "Missing ORIG", []string{"ADD R0, R0, R0"}, &assembler.OrigError{})
	testFailure(t, "Empty", []string{""}, &assembler.OrigError{})
	testFailure(t, "Second ORIG", []string{".ORIG x3000", ".ORIG x4000"}, &assembler.OrigError{})
	testFailure(t, "Register", []string{".ORIG x3000", "ADD R8, R0, R0"}, &assembler.InvalidRegisterError{})
	testFailure(t, "imm5 Range", []string{".ORIG x3000", "ADD R0, R0, #16"}, &assembler.OversizedLiteralError{})
	testFailure(t, "imm5 Hex Range", []string{".ORIG x3000", "ADD R0, R0, x20"}, &assembler.OversizedLiteralError{})
	testFailure(t, "offset6 Range", []string{".ORIG x3000", "LDR R0, R0, #-33"}, &assembler.OversizedLiteralError{})
	testFailure(t, "trapvect8 Range", []string{".ORIG x3000", "TRAP #-1"}, &assembler.OversizedLiteralError{})
	testFailure(t, "Branch Range", []string{".ORIG x3000", "BR FAR", ".BLKW 300", "FAR HALT"}, &assembler.OversizedLiteralError{})
	testFailure(t, "Operand Count", []string{".ORIG x3000", "NOT R0"}, &assembler.InvalidNumArgumentsError{})
	testFailure(t, "Operand Type", []string{".ORIG x3000", "JMP #1"}, &assembler.InvalidOperandError{})
	testFailure(t, "Unknown Label", []string{".ORIG x3000", "LD R0, NOWHERE"}, &assembler.UnknownLabelError{})
	testFailure(t, "Redeclared Label", []string{".ORIG x3000", "A HALT", "A HALT"}, &assembler.RedeclaredLabelError{})
	testFailure(t, "Unknown Instruction", []string{".ORIG x3000", "A B C"}, &assembler.UnknownIdentifierError{})
	testFailure(t, "Unterminated String", []string{".ORIG x3000", ".STRINGZ \"abc"}, &assembler.InvalidStringError{})
	testFailure(t, "Bad Character", []string{".ORIG x3000", "L@BEL HALT"}, &assembler.UnexpectedCharacterError{})
	testFailure(t, "Bad Literal", []string{".ORIG x3000", ".FILL #12a"}, &assembler.InvalidLiteralError{})
	testFailure(t, "Bad Expression", []string{".ORIG x3000", ".FILL $(1 +)"}, &assembler.ExpressionError{})
	testFailure(t, "String Expression", []string{".ORIG x3000", ".FILL $(\"a\")"}, &assembler.ExpressionError{})
}

func TestCollectsErrors(t *testing.T) {
	_, errs := assembler.Assemble(strings.NewReader(strings.Join([]string{
		".ORIG x3000",
		"ADD R9, R0, R0",
		"LD R0, MISSING",
		"HERE BOGUS R1",
	}, "\n")))

	require.Len(t, errs, 3)
	assert.IsType(t, &assembler.UnknownIdentifierError{}, errs[0])
	assert.IsType(t, &assembler.InvalidRegisterError{}, errs[1])
	assert.IsType(t, &assembler.UnknownLabelError{}, errs[2])
}

func TestSymbols(t *testing.T) {
	assert := assert.New(t)

	obj := assemble(t,
		".ORIG x3000",
		"START LEA R0, MSG",
		"      PUTS",
		"      HALT",
		"MSG   .STRINGZ \"ok\"",
	)

	assert.Equal(map[uint16]string{0x3000: "START", 0x3003: "MSG"}, obj.Symbols.Labels)
	assert.Equal(map[uint16]int{0x3000: 2, 0x3001: 3, 0x3002: 4, 0x3003: 5}, obj.Symbols.Lines)
}

func TestWriteTo(t *testing.T) {
	assert := assert.New(t)

	obj := assemble(t, ".ORIG x3000", "ADD R0, R0, #5", "HALT")

	var buffer bytes.Buffer
	n, err := obj.WriteTo(&buffer)

	assert.NoError(err)
	assert.Equal(int64(6), n)
	assert.Equal([]byte{0x30, 0x00, 0x10, 0x25, 0xF0, 0x25}, buffer.Bytes())
}

func TestAssembleAndRun(t *testing.T) {
	assert := assert.New(t)

	obj := assemble(t,
		".ORIG x3000",
		"        LEA R0, HELLO",
		"        PUTS",
		"        AND R1, R1, #0",
		"        ADD R1, R1, #3",
		"LOOP    LD R0, STAR",
		"        OUT",
		"        ADD R1, R1, #-1",
		"        BRp LOOP",
		"        LEA R0, PACKED",
		"        PUTSP",
		"        JSR DOUBLE",
		"        HALT",
		"DOUBLE  ADD R1, R1, #7",
		"        ADD R1, R1, R1",
		"        RET",
		"HELLO   .STRINGZ \"Hello \"",
		"STAR    .FILL x2A",
		"PACKED  .FILL x6221 ; '!', 'b'",
		"        .FILL x0079 ; 'y'",
		"        .FILL #0",
		".END",
	)

	var image bytes.Buffer
	_, err := obj.WriteTo(&image)
	require.NoError(t, err)

	var display bytes.Buffer
	mc := machine.New(&machine.DeviceHandler{Display: &display})

	require.NoError(t, mc.LoadImage(&image))
	require.NoError(t, mc.Run())

	assert.Equal("Hello ***!byHALT\n", display.String())
	assert.Equal(uint16(14), mc.State.Registers[1])
	assert.Equal(machine.FLAG_POS, mc.State.Condition)
}

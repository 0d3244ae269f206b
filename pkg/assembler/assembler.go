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

// Package assembler translates LC-3 assembly into program images.
package assembler

import (
	"bufio"
	"encoding/binary"
	"io"
	"strconv"
	"strings"

	"github.com/lassandro/lc3vm/pkg/encoding"
)

type statement struct {
	Label    *Token
	Keyword  *Token
	Operands []Token
	Addr     uint16
}

type assembler struct {
	labels map[string]uint16
	errs   []error
}

func keyword(value string) (Instruction, DirectiveType, bool) {
	value = strings.ToUpper(value)

	if instruction, ok := instructions[value]; ok {
		return instruction, DIRECTIVE_INVALID, true
	}

	if directive, ok := directives[value]; ok {
		return Instruction{}, directive, true
	}

	return Instruction{}, DIRECTIVE_INVALID, false
}

func parseRegister(token *Token) (uint16, bool) {
	value := token.Value

	if len(value) != 2 || (value[0] != 'R' && value[0] != 'r') {
		return 0, false
	}

	if value[1] < '0' || value[1] > '7' {
		return 0, false
	}

	return uint16(value[1] - '0'), true
}

// parseLiteral returns the value of a #dec, dec or xHEX literal, and whether
// it was written in hex.
func parseLiteral(token *Token) (int64, bool, error) {
	if isHexLiteral(token.Value) {
		result, err := encoding.DecodeHex(token.Value)

		if err != nil {
			return 0, true, &InvalidLiteralError{token.Position, token.Value}
		}

		return int64(result), true, nil
	}

	result, err := encoding.DecodeInt(token.Value)

	if err != nil {
		return 0, false, &InvalidLiteralError{token.Position, token.Value}
	}

	return int64(result), false, nil
}

// fit checks value against a field width. Hex values are raw bit patterns,
// decimal values are two's complement when signed.
func fit(
	token *Token, value int64, bits LiteralType, hex, signed bool,
) (uint16, error) {
	var min, max int64

	switch {
	case bits == LITERAL_WORD:
		min, max = -(1 << 15), (1<<16)-1
	case signed && !hex:
		min, max = -(1 << (bits - 1)), (1<<(bits-1))-1
	default:
		min, max = 0, (1<<bits)-1
	}

	if value < min || value > max {
		return 0, &OversizedLiteralError{token.Position, bits, value}
	}

	return uint16(value) & encoding.Mask(uint16(bits)), nil
}

func (asm *assembler) fail(err error) {
	asm.errs = append(asm.errs, err)
}

func (asm *assembler) expect(token *Token, types ...TokenType) bool {
	for _, t := range types {
		if token.Type == t {
			return true
		}
	}

	asm.fail(&InvalidOperandError{token.Position, types, token.Type})
	return false
}

func (asm *assembler) register(token *Token) uint16 {
	if !asm.expect(token, TOKEN_IDENT) {
		return 0
	}

	reg, ok := parseRegister(token)

	if !ok {
		asm.fail(&InvalidRegisterError{token.Position, token.Value})
	}

	return reg
}

// number resolves a literal or expression operand.
func (asm *assembler) number(
	token *Token, bits LiteralType, signed bool,
) uint16 {
	if !asm.expect(token, TOKEN_LITERAL, TOKEN_EXPR) {
		return 0
	}

	var value int64
	var hex bool
	var err error

	if token.Type == TOKEN_EXPR {
		value, err = evaluate(token, asm.labels)
	} else {
		value, hex, err = parseLiteral(token)
	}

	if err == nil {
		var result uint16

		if result, err = fit(token, value, bits, hex, signed); err == nil {
			return result
		}
	}

	asm.fail(err)
	return 0
}

func (asm *assembler) label(token *Token) (uint16, bool) {
	addr, ok := asm.labels[token.Value]

	if !ok {
		asm.fail(&UnknownLabelError{token.Position, token.Value})
	}

	return addr, ok
}

// pcOffset resolves a PC relative operand. Labels and expressions name the
// target address, literals are the offset itself.
func (asm *assembler) pcOffset(
	token *Token, addr uint16, bits LiteralType,
) uint16 {
	if token.Type == TOKEN_LITERAL {
		return asm.number(token, bits, true)
	}

	if !asm.expect(token, TOKEN_IDENT, TOKEN_LITERAL, TOKEN_EXPR) {
		return 0
	}

	var target int64

	if token.Type == TOKEN_IDENT {
		label, ok := asm.label(token)

		if !ok {
			return 0
		}

		target = int64(label)
	} else {
		value, err := evaluate(token, asm.labels)

		if err != nil {
			asm.fail(err)
			return 0
		}

		target = value
	}

	result, err := fit(token, target-(int64(addr)+1), bits, false, true)

	if err != nil {
		asm.fail(err)
	}

	return result
}

func (asm *assembler) operands(stmt *statement, count int) bool {
	if have := len(stmt.Operands); have != count {
		asm.fail(&InvalidNumArgumentsError{stmt.Keyword.Position, count, have})
		return false
	}

	return true
}

func operandCount(format Format) int {
	switch format {
	case FORMAT_ARITH, FORMAT_BASEREL:
		return 3
	case FORMAT_NOT, FORMAT_PCREL:
		return 2
	case FORMAT_BRANCH, FORMAT_BASE, FORMAT_JSR, FORMAT_TRAP:
		return 1
	default:
		return 0
	}
}

func (asm *assembler) encode(stmt *statement, instruction Instruction) uint16 {
	if !asm.operands(stmt, operandCount(instruction.Format)) {
		return 0
	}

	ops := stmt.Operands
	result := instruction.Bits

	switch instruction.Format {
	// ADD  |0001    |DR   |SR1  |0|00 |SR2   | Register  addition
	// ADD  |0001    |DR   |SR1  |1|imm5      | Immediate addition
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case FORMAT_ARITH:
		result |= asm.register(&ops[0]) << 9
		result |= asm.register(&ops[1]) << 6

		if ops[2].Type == TOKEN_IDENT {
			result |= asm.register(&ops[2])
		} else {
			result |= 1 << 5
			result |= asm.number(&ops[2], LITERAL_IMM5, true)
		}

	// NOT  |1001    |DR   |SR   |1|11111     | Bitwise complement
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case FORMAT_NOT:
		result |= asm.register(&ops[0]) << 9
		result |= asm.register(&ops[1]) << 6

	// BR   |0000    |N|Z|P|PCoffset9         | Conditional branch
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case FORMAT_BRANCH:
		result |= asm.pcOffset(&ops[0], stmt.Addr, LITERAL_PCOFFSET9)

	// JMP  |1100    |000  |BaseR|000000      | Jump
	// JSRR |0100    |0|00 |BaseR|000000      | Jump to subroutine register
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case FORMAT_BASE:
		result |= asm.register(&ops[0]) << 6

	// JSR  |0100    |1|PCoffset11            | Jump to subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case FORMAT_JSR:
		result |= asm.pcOffset(&ops[0], stmt.Addr, LITERAL_PCOFFSET11)

	// LD   |0010    |DR   |PCoffset9         | Load
	// ST   |0011    |SR   |PCoffset9         | Store
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case FORMAT_PCREL:
		result |= asm.register(&ops[0]) << 9
		result |= asm.pcOffset(&ops[1], stmt.Addr, LITERAL_PCOFFSET9)

	// LDR  |0110    |DR   |BaseR|offset6     | Load base+offset
	// STR  |0111    |SR   |BaseR|offset6     | Store base+offset
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case FORMAT_BASEREL:
		result |= asm.register(&ops[0]) << 9
		result |= asm.register(&ops[1]) << 6
		result |= asm.number(&ops[2], LITERAL_OFFSET6, true)

	// TRAP |1111    |0000   |trapvect8       | System call
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case FORMAT_TRAP:
		result |= asm.number(&ops[0], LITERAL_TRAPVEC8, false)
	}

	return result
}

func (asm *assembler) stringz(stmt *statement) (string, bool) {
	if !asm.operands(stmt, 1) || !asm.expect(&stmt.Operands[0], TOKEN_STRING) {
		return "", false
	}

	s, err := strconv.Unquote(stmt.Operands[0].Value)

	if err != nil {
		asm.fail(&InvalidStringError{stmt.Operands[0].Position})
		return "", false
	}

	return s, true
}

// size reports how many words a statement occupies.
func (asm *assembler) size(stmt *statement, directive DirectiveType) uint32 {
	switch directive {
	case DIRECTIVE_INVALID:
		return 1

	case DIRECTIVE_FILL:
		return 1

	case DIRECTIVE_BLKW:
		if !asm.operands(stmt, 1) {
			return 0
		}

		return uint32(asm.number(&stmt.Operands[0], LITERAL_WORD, false))

	case DIRECTIVE_STRINGZ:
		if s, ok := asm.stringz(stmt); ok {
			return uint32(len(s) + 1)
		}
	}

	return 0
}

// Assemble translates LC-3 assembly source into a program image. All errors
// in the source are collected; the object is nil when there are any.
func Assemble(input io.Reader) (*Object, []error) {
	asm := assembler{labels: make(map[string]uint16)}

	var statements []statement
	var origin uint16
	var program uint32
	var origSeen bool

	scanner := bufio.NewScanner(input)
	lineno := 0

	// Pass one:
	// - Tokenize each line
	// - Assign addresses to labels
	for scanner.Scan() {
		lineno++

		tokens, errs := tokenize(scanner.Text(), lineno)

		if len(errs) > 0 {
			asm.errs = append(asm.errs, errs...)
			continue
		}

		if len(tokens) == 0 {
			continue
		}

		var stmt statement
		rest := tokens

		if rest[0].Type == TOKEN_IDENT {
			if _, _, ok := keyword(rest[0].Value); !ok {
				stmt.Label = &rest[0]
				rest = rest[1:]
			}
		}

		directive := DIRECTIVE_INVALID

		if len(rest) > 0 {
			stmt.Keyword = &rest[0]
			stmt.Operands = rest[1:]

			var ok bool
			_, directive, ok = keyword(rest[0].Value)

			if !ok {
				asm.fail(&UnknownIdentifierError{
					rest[0].Position, rest[0].Value,
				})
				continue
			}
		}

		if !origSeen {
			if directive != DIRECTIVE_ORIG {
				asm.fail(&OrigError{tokens[0].Position})
				return nil, asm.errs
			}

			if asm.operands(&stmt, 1) {
				origin = asm.number(&stmt.Operands[0], LITERAL_WORD, false)
			}

			program = uint32(origin)
			origSeen = true
			continue
		} else if directive == DIRECTIVE_ORIG {
			asm.fail(&OrigError{stmt.Keyword.Position})
			continue
		}

		if directive == DIRECTIVE_END {
			break
		}

		stmt.Addr = uint16(program)

		if stmt.Label != nil {
			if _, exists := asm.labels[stmt.Label.Value]; exists {
				asm.fail(&RedeclaredLabelError{
					stmt.Label.Position, stmt.Label.Value,
				})
			} else {
				asm.labels[stmt.Label.Value] = stmt.Addr
			}
		}

		if stmt.Keyword == nil {
			continue
		}

		failures := len(asm.errs)
		program += asm.size(&stmt, directive)

		if len(asm.errs) > failures {
			continue
		}

		if program > 1<<16 {
			asm.fail(&OversizedLiteralError{
				stmt.Keyword.Position, LITERAL_WORD, int64(program),
			})
			return nil, asm.errs
		}

		statements = append(statements, stmt)
	}

	if err := scanner.Err(); err != nil {
		asm.fail(err)
	}

	if !origSeen {
		asm.fail(&OrigError{Cursor{Line: lineno + 1, Column: 1}})
		return nil, asm.errs
	}

	obj := &Object{
		Origin: origin,
		Words:  make([]uint16, program-uint32(origin)),
		Symbols: SymTable{
			Labels: make(map[uint16]string),
			Lines:  make(map[uint16]int),
		},
	}

	for label, addr := range asm.labels {
		obj.Symbols.Labels[addr] = label
	}

	// Pass two:
	// - Encode instructions and data, collecting errors past those of pass
	//   one
	// - Record source lines for the debugger
	for i := range statements {
		stmt := &statements[i]
		index := stmt.Addr - origin
		instruction, directive, _ := keyword(stmt.Keyword.Value)

		obj.Symbols.Lines[stmt.Addr] = stmt.Keyword.Position.Line

		switch directive {
		case DIRECTIVE_INVALID:
			obj.Words[index] = asm.encode(stmt, instruction)

		case DIRECTIVE_FILL:
			if !asm.operands(stmt, 1) {
				break
			}

			if operand := &stmt.Operands[0]; operand.Type == TOKEN_IDENT {
				obj.Words[index], _ = asm.label(operand)
			} else {
				obj.Words[index] = asm.number(operand, LITERAL_WORD, false)
			}

		case DIRECTIVE_STRINGZ:
			s, ok := asm.stringz(stmt)

			if !ok {
				break
			}

			for _, char := range []byte(s) {
				obj.Words[index] = uint16(char)
				index++
			}

			obj.Words[index] = 0
		}
	}

	if len(asm.errs) > 0 {
		return nil, asm.errs
	}

	return obj, nil
}

// WriteTo emits the image: the origin followed by every word, big-endian.
func (obj *Object) WriteTo(w io.Writer) (int64, error) {
	buffered := bufio.NewWriter(w)

	if err := binary.Write(buffered, binary.BigEndian, obj.Origin); err != nil {
		return 0, err
	}

	if err := binary.Write(buffered, binary.BigEndian, obj.Words); err != nil {
		return 0, err
	}

	if err := buffered.Flush(); err != nil {
		return 0, err
	}

	return int64(2 + 2*len(obj.Words)), nil
}

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

package assembler

const (
	TOKEN_NONE TokenType = iota
	TOKEN_IDENT
	TOKEN_DIRECTIVE
	TOKEN_STRING
	TOKEN_LITERAL
	TOKEN_EXPR
)

// Operand field widths
const (
	LITERAL_IMM5       LiteralType = 5
	LITERAL_OFFSET6    LiteralType = 6
	LITERAL_TRAPVEC8   LiteralType = 8
	LITERAL_PCOFFSET9  LiteralType = 9
	LITERAL_PCOFFSET11 LiteralType = 11
	LITERAL_WORD       LiteralType = 16
)

const (
	DIRECTIVE_INVALID DirectiveType = iota
	DIRECTIVE_ORIG
	DIRECTIVE_FILL
	DIRECTIVE_BLKW
	DIRECTIVE_STRINGZ
	DIRECTIVE_END
)

var directives = map[string]DirectiveType{
	".ORIG":    DIRECTIVE_ORIG,
	".FILL":    DIRECTIVE_FILL,
	".BLKW":    DIRECTIVE_BLKW,
	".STRINGZ": DIRECTIVE_STRINGZ,
	".END":     DIRECTIVE_END,
}

// Operand layouts
const (
	FORMAT_NONE    Format = iota
	FORMAT_ARITH          // DR, SR1, SR2|imm5
	FORMAT_NOT            // DR, SR
	FORMAT_BRANCH         // PCoffset9
	FORMAT_BASE           // BaseR
	FORMAT_JSR            // PCoffset11
	FORMAT_PCREL          // DR|SR, PCoffset9
	FORMAT_BASEREL        // DR|SR, BaseR, offset6
	FORMAT_TRAP           // trapvect8
)

type Instruction struct {
	Format Format
	Bits   uint16
}

var instructions = map[string]Instruction{
	"ADD":  {FORMAT_ARITH, 0b0001 << 12},
	"AND":  {FORMAT_ARITH, 0b0101 << 12},
	"NOT":  {FORMAT_NOT, 0b1001<<12 | 0x3F},
	"JMP":  {FORMAT_BASE, 0b1100 << 12},
	"RET":  {FORMAT_NONE, 0b1100<<12 | 7<<6},
	"JSR":  {FORMAT_JSR, 0b0100<<12 | 1<<11},
	"JSRR": {FORMAT_BASE, 0b0100 << 12},
	"LD":   {FORMAT_PCREL, 0b0010 << 12},
	"LDI":  {FORMAT_PCREL, 0b1010 << 12},
	"LEA":  {FORMAT_PCREL, 0b1110 << 12},
	"ST":   {FORMAT_PCREL, 0b0011 << 12},
	"STI":  {FORMAT_PCREL, 0b1011 << 12},
	"LDR":  {FORMAT_BASEREL, 0b0110 << 12},
	"STR":  {FORMAT_BASEREL, 0b0111 << 12},
	"RTI":  {FORMAT_NONE, 0b1000 << 12},
	"TRAP": {FORMAT_TRAP, 0b1111 << 12},

	// Trap Routines
	"GETC":  {FORMAT_NONE, 0xF020},
	"OUT":   {FORMAT_NONE, 0xF021},
	"PUTS":  {FORMAT_NONE, 0xF022},
	"IN":    {FORMAT_NONE, 0xF023},
	"PUTSP": {FORMAT_NONE, 0xF024},
	"HALT":  {FORMAT_NONE, 0xF025},

	// Branches, condition bits n|z|p
	"BR":    {FORMAT_BRANCH, 0b111 << 9},
	"BRN":   {FORMAT_BRANCH, 0b100 << 9},
	"BRZ":   {FORMAT_BRANCH, 0b010 << 9},
	"BRP":   {FORMAT_BRANCH, 0b001 << 9},
	"BRNZ":  {FORMAT_BRANCH, 0b110 << 9},
	"BRZP":  {FORMAT_BRANCH, 0b011 << 9},
	"BRNP":  {FORMAT_BRANCH, 0b101 << 9},
	"BRNZP": {FORMAT_BRANCH, 0b111 << 9},
}

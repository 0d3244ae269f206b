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

import (
	"strings"

	"github.com/lassandro/lc3vm/pkg/translate"
)

var f = translate.From

type LiteralType uint
type TokenType uint
type DirectiveType uint
type Format uint

type Cursor struct {
	Line   int
	Column int
	Size   int
}

type Token struct {
	Type     TokenType
	Position Cursor
	Value    string
}

type SymTable struct {
	Source string
	Labels map[uint16]string
	Lines  map[uint16]int
}

// Object is an assembled program image.
type Object struct {
	Origin  uint16
	Words   []uint16
	Symbols SymTable
}

type TokenError interface {
	error
	GetPosition() Cursor
}

func (t TokenType) String() string {
	switch t {
	case TOKEN_IDENT:
		return f("Identifier")
	case TOKEN_DIRECTIVE:
		return f("Directive")
	case TOKEN_STRING:
		return f("String")
	case TOKEN_LITERAL:
		return f("Literal")
	case TOKEN_EXPR:
		return f("Expression")
	default:
		return "<invalid>"
	}
}

func position(c Cursor) string {
	return f("%02d:%02d", c.Line, c.Column)
}

type InvalidOperandError struct {
	Position Cursor
	Required []TokenType
	Received TokenType
}

func (err *InvalidOperandError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidOperandError) Error() string {
	required := make([]string, 0, len(err.Required))

	for _, tokenType := range err.Required {
		required = append(required, tokenType.String())
	}

	return f(
		"%s: Invalid operands\n\twant:%s\n\thave:%s",
		position(err.Position),
		strings.Join(required, f(" or ")),
		err.Received,
	)
}

type InvalidNumArgumentsError struct {
	Position Cursor
	Required int
	Received int
}

func (err *InvalidNumArgumentsError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidNumArgumentsError) Error() string {
	return f(
		"%s: Invalid number of operands\n\twant:%v\n\thave:%v",
		position(err.Position),
		err.Required,
		err.Received,
	)
}

type InvalidRegisterError struct {
	Position Cursor
	Value    string
}

func (err *InvalidRegisterError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidRegisterError) Error() string {
	return f("%s: Invalid register '%s'", position(err.Position), err.Value)
}

type InvalidLiteralError struct {
	Position Cursor
	Value    string
}

func (err *InvalidLiteralError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidLiteralError) Error() string {
	return f("%s: Invalid literal '%s'", position(err.Position), err.Value)
}

type OversizedLiteralError struct {
	Position Cursor
	Bits     LiteralType
	Value    int64
}

func (err *OversizedLiteralError) GetPosition() Cursor {
	return err.Position
}

func (err *OversizedLiteralError) Error() string {
	return f(
		"%s: Literal %v does not fit in %v bits",
		position(err.Position),
		err.Value,
		uint(err.Bits),
	)
}

type InvalidStringError struct {
	Position Cursor
}

func (err *InvalidStringError) GetPosition() Cursor {
	return err.Position
}

func (err *InvalidStringError) Error() string {
	return f("%s: Invalid string", position(err.Position))
}

type UnexpectedCharacterError struct {
	Position Cursor
	Char     rune
}

func (err *UnexpectedCharacterError) GetPosition() Cursor {
	return err.Position
}

func (err *UnexpectedCharacterError) Error() string {
	return f(
		"%s: Unexpected character '%c'", position(err.Position), err.Char,
	)
}

type RedeclaredLabelError struct {
	Position Cursor
	Label    string
}

func (err *RedeclaredLabelError) GetPosition() Cursor {
	return err.Position
}

func (err *RedeclaredLabelError) Error() string {
	return f("%s: Redeclared label '%s'", position(err.Position), err.Label)
}

type UnknownLabelError struct {
	Position Cursor
	Label    string
}

func (err *UnknownLabelError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownLabelError) Error() string {
	return f("%s: Unknown label '%s'", position(err.Position), err.Label)
}

type UnknownIdentifierError struct {
	Position Cursor
	Value    string
}

func (err *UnknownIdentifierError) GetPosition() Cursor {
	return err.Position
}

func (err *UnknownIdentifierError) Error() string {
	return f(
		"%s: Unknown instruction or directive '%s'",
		position(err.Position),
		err.Value,
	)
}

type OrigError struct {
	Position Cursor
}

func (err *OrigError) GetPosition() Cursor {
	return err.Position
}

func (err *OrigError) Error() string {
	return f(
		"%s: .ORIG must appear once, before any other statement",
		position(err.Position),
	)
}

type ExpressionError struct {
	Position Cursor
	Expr     string
	Err      error
}

func (err *ExpressionError) GetPosition() Cursor {
	return err.Position
}

func (err *ExpressionError) Error() string {
	return f(
		"%s: Invalid expression '%s': %v",
		position(err.Position),
		err.Expr,
		err.Err,
	)
}

func (err *ExpressionError) Unwrap() error {
	return err.Err
}

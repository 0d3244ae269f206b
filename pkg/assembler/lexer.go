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
	"unicode"
)

func isSeparator(char byte) bool {
	return char == ' ' || char == '\t' || char == ',' || char == ';' ||
		char == '\r'
}

func isHexLiteral(word string) bool {
	digits := word[1:]

	if len(word) > 2 && (word[0] == '0') && (word[1] == 'x' || word[1] == 'X') {
		digits = word[2:]
	} else if word[0] != 'x' && word[0] != 'X' {
		return false
	}

	if len(digits) == 0 {
		return false
	}

	for _, char := range digits {
		if !unicode.Is(unicode.ASCII_Hex_Digit, char) {
			return false
		}
	}

	return true
}

func classify(word string) TokenType {
	switch {
	case word[0] == '.':
		return TOKEN_DIRECTIVE
	case word[0] == '#' || word[0] == '-' || unicode.IsDigit(rune(word[0])):
		return TOKEN_LITERAL
	case isHexLiteral(word):
		return TOKEN_LITERAL
	default:
		return TOKEN_IDENT
	}
}

func checkIdent(token *Token) error {
	for i, char := range token.Value {
		if char == '_' || unicode.IsLetter(char) && char <= unicode.MaxASCII {
			continue
		}

		if i > 0 && unicode.IsDigit(char) {
			continue
		}

		cursor := token.Position
		cursor.Column += i
		cursor.Size = 1

		return &UnexpectedCharacterError{cursor, char}
	}

	return nil
}

// tokenize splits one source line into tokens. Comments run from ';' to the
// end of the line, operands are separated by whitespace or commas.
func tokenize(line string, lineno int) (tokens []Token, errs []error) {
	i := 0

	for i < len(line) {
		char := line[i]

		if char == ';' {
			break
		}

		if isSeparator(char) {
			i++
			continue
		}

		start := i
		var token Token

		switch {
		// String Literal
		case char == '"':
			i++

			for i < len(line) && line[i] != '"' {
				if line[i] == '\\' {
					i++
				}
				i++
			}

			if i >= len(line) {
				errs = append(errs, &InvalidStringError{
					Cursor{lineno, start + 1, len(line) - start},
				})
				return
			}

			i++
			token.Type = TOKEN_STRING

		// Compile time expression, $( ... )
		case strings.HasPrefix(line[i:], "$("):
			depth := 0

			for i < len(line) {
				if line[i] == '(' {
					depth++
				} else if line[i] == ')' {
					depth--

					if depth == 0 {
						break
					}
				}
				i++
			}

			if i >= len(line) {
				errs = append(errs, &UnexpectedCharacterError{
					Cursor{lineno, start + 1, 1}, '$',
				})
				return
			}

			i++
			token.Type = TOKEN_EXPR

		default:
			for i < len(line) && !isSeparator(line[i]) {
				i++
			}

			token.Type = classify(line[start:i])
		}

		token.Value = line[start:i]
		token.Position = Cursor{lineno, start + 1, i - start}

		if token.Type == TOKEN_IDENT {
			if err := checkIdent(&token); err != nil {
				errs = append(errs, err)
			}
		}

		tokens = append(tokens, token)
	}

	return
}

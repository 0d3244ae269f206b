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
	"errors"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

var errNotInteger = errors.New(f("expression is not an integer"))

// evaluate runs a $(...) operand through starlark with every known label
// predeclared as its address.
func evaluate(token *Token, labels map[string]uint16) (int64, error) {
	expr := strings.TrimSuffix(strings.TrimPrefix(token.Value, "$("), ")")

	predeclared := make(starlark.StringDict, len(labels))
	for label, addr := range labels {
		predeclared[label] = starlark.MakeInt(int(addr))
	}

	thread := &starlark.Thread{Name: "expr"}
	prog := "rc = " + expr + "\n"

	globals, err := starlark.ExecFileOptions(
		&syntax.FileOptions{}, thread, "expr", prog, predeclared,
	)

	if err != nil {
		return 0, &ExpressionError{token.Position, expr, err}
	}

	value, ok := globals["rc"].(starlark.Int)

	if !ok {
		return 0, &ExpressionError{token.Position, expr, errNotInteger}
	}

	result, ok := value.Int64()

	if !ok {
		return 0, &ExpressionError{token.Position, expr, errNotInteger}
	}

	return result, nil
}

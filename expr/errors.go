// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package expr implements the physical expression VM: literal/column/
// binary/unary/call nodes evaluated over array.Array columns, with a
// flat per-expression vector of stateful function instances that can
// save and restore their state across a checkpoint.
package expr

import (
	"fmt"

	"github.com/sunli829/yql/array"
)

// TypeError reports an operator or cast applied to operand types it
// does not accept.
type TypeError struct {
	Op   string
	Args []array.DataType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("expr: cannot apply %q to types %v", e.Op, e.Args)
}

// SyntaxError reports a malformed expression tree (arity/shape, not
// text syntax — there is no textual grammar in this package).
type SyntaxError struct {
	Msg string
}

func (e *SyntaxError) Error() string { return "expr: " + e.Msg }

// ArgumentArityError reports a function call whose argument count
// does not satisfy its Signature.
type ArgumentArityError struct {
	Func string
	Want string
	Got  int
}

func (e *ArgumentArityError) Error() string {
	return fmt.Sprintf("expr: function %q expects %s arguments, got %d", e.Func, e.Want, e.Got)
}

// RuntimeError reports an evaluation-time failure: arithmetic on
// malformed literal input, timestamp parse/format failure, or an
// unknown function/state id.
type RuntimeError struct {
	Msg string
}

func (e *RuntimeError) Error() string { return "expr: " + e.Msg }

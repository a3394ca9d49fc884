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

package expr

import (
	"fmt"

	"github.com/sunli829/yql/array"
)

type BinaryOp int

const (
	And BinaryOp = iota
	Or
	Eq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	Plus
	Minus
	Multiply
	Divide
	Rem
)

func (op BinaryOp) String() string {
	switch op {
	case And:
		return "and"
	case Or:
		return "or"
	case Eq:
		return "="
	case NotEq:
		return "!="
	case Lt:
		return "<"
	case LtEq:
		return "<="
	case Gt:
		return ">"
	case GtEq:
		return ">="
	case Plus:
		return "+"
	case Minus:
		return "-"
	case Multiply:
		return "*"
	case Divide:
		return "/"
	case Rem:
		return "%"
	}
	return "?"
}

// ResultType computes the output DataType of op applied to left/right,
// following spec.md §4.3's coercion table.
func (op BinaryOp) ResultType(left, right array.DataType) (array.DataType, error) {
	switch op {
	case And, Or:
		if left.IsBoolean() && right.IsBoolean() {
			return array.Boolean, nil
		}
	case Eq, NotEq:
		if (left.IsString() && right.IsString()) || (left.IsInteger() && right.IsInteger()) {
			return array.Boolean, nil
		}
	case Lt, LtEq, Gt, GtEq:
		if (left.IsNumeric() && right.IsNumeric()) || (left.IsString() && right.IsString()) {
			return array.Boolean, nil
		}
	case Plus, Minus, Multiply, Divide:
		if (left.IsFloat() && right.IsNumeric()) || (left.IsNumeric() && right.IsFloat()) {
			return array.Float64, nil
		}
		if left.IsInteger() && right.IsInteger() {
			return array.Int64, nil
		}
	case Rem:
		if left.IsInteger() && right.IsInteger() {
			return array.Int64, nil
		}
	}
	return array.DataType{}, &TypeError{Op: op.String(), Args: []array.DataType{left, right}}
}

// Eval applies op pointwise to lhs/rhs, preserving the scalar layout
// when both operands are scalar (spec.md §4.3, §8's scalar-preservation
// property) and propagating null per row.
func (op BinaryOp) Eval(lhs, rhs array.Array) (array.Array, error) {
	if lhs.Len() != rhs.Len() {
		return nil, &RuntimeError{Msg: "binary operator: mismatched array lengths"}
	}
	resultType, err := op.ResultType(lhs.DataType(), rhs.DataType())
	if err != nil {
		return nil, err
	}
	switch op {
	case And:
		return boolOp(lhs, rhs, func(a, b bool) bool { return a && b })
	case Or:
		return boolOp(lhs, rhs, func(a, b bool) bool { return a || b })
	case Eq, NotEq, Lt, LtEq, Gt, GtEq:
		return compareOp(op, lhs, rhs)
	case Plus, Minus, Multiply, Divide, Rem:
		return arithOp(op, lhs, rhs, resultType)
	}
	return nil, &TypeError{Op: op.String(), Args: []array.DataType{lhs.DataType(), rhs.DataType()}}
}

func boolOp(lhs, rhs array.Array, f func(a, b bool) bool) (array.Array, error) {
	n := lhs.Len()
	if ls, ok := lhs.ToScalar(); ok {
		if rs, ok2 := rhs.ToScalar(); ok2 {
			if ls.IsNull() || rs.IsNull() {
				return array.NewScalarArrayOf(array.Boolean, n, array.NullScalar()), nil
			}
			return array.NewScalarArrayOf(array.Boolean, n, array.BoolScalar(f(ls.Bool(), rs.Bool()))), nil
		}
	}
	b := array.NewPrimitiveBuilder[bool](array.Boolean, n)
	for i := 0; i < n; i++ {
		ls, rs := lhs.ScalarAt(i), rhs.ScalarAt(i)
		if ls.IsNull() || rs.IsNull() {
			b.AppendNull()
			continue
		}
		b.Append(f(ls.Bool(), rs.Bool()))
	}
	return b.Finish(), nil
}

func compareOp(op BinaryOp, lhs, rhs array.Array) (array.Array, error) {
	n := lhs.Len()
	cmp := func(ls, rs array.Scalar) bool {
		var c int
		switch {
		case ls.DataType().IsString():
			c = stringCompare(ls.Str(), rs.Str())
		case ls.DataType().IsFloat() || rs.DataType().IsFloat():
			c = floatCompare(scalarAsFloat(ls), scalarAsFloat(rs))
		default:
			c = intCompare(ls.Int(), rs.Int())
		}
		switch op {
		case Eq:
			return c == 0
		case NotEq:
			return c != 0
		case Lt:
			return c < 0
		case LtEq:
			return c <= 0
		case Gt:
			return c > 0
		case GtEq:
			return c >= 0
		}
		return false
	}
	if ls, ok := lhs.ToScalar(); ok {
		if rs, ok2 := rhs.ToScalar(); ok2 {
			if ls.IsNull() || rs.IsNull() {
				return array.NewScalarArrayOf(array.Boolean, n, array.NullScalar()), nil
			}
			return array.NewScalarArrayOf(array.Boolean, n, array.BoolScalar(cmp(ls, rs))), nil
		}
	}
	b := array.NewPrimitiveBuilder[bool](array.Boolean, n)
	for i := 0; i < n; i++ {
		ls, rs := lhs.ScalarAt(i), rhs.ScalarAt(i)
		if ls.IsNull() || rs.IsNull() {
			b.AppendNull()
			continue
		}
		b.Append(cmp(ls, rs))
	}
	return b.Finish(), nil
}

func scalarAsFloat(s array.Scalar) float64 {
	if s.DataType().IsFloat() {
		return s.Float()
	}
	return float64(s.Int())
}

func stringCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func floatCompare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func intCompare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func arithOp(op BinaryOp, lhs, rhs array.Array, resultType array.DataType) (array.Array, error) {
	n := lhs.Len()
	isFloat := resultType.IsFloat()

	apply := func(ls, rs array.Scalar) array.Scalar {
		if isFloat {
			a, b := scalarAsFloat(ls), scalarAsFloat(rs)
			var r float64
			switch op {
			case Plus:
				r = a + b
			case Minus:
				r = a - b
			case Multiply:
				r = a * b
			case Divide:
				r = a / b
			}
			return array.FloatScalar(array.Float64, r)
		}
		a, b := ls.Int(), rs.Int()
		var r int64
		switch op {
		case Plus:
			r = a + b
		case Minus:
			r = a - b
		case Multiply:
			r = a * b
		case Divide:
			r = a / b
		case Rem:
			r = a % b
		}
		return array.IntScalar(array.Int64, r)
	}

	if ls, ok := lhs.ToScalar(); ok {
		if rs, ok2 := rhs.ToScalar(); ok2 {
			if ls.IsNull() || rs.IsNull() {
				return array.NewScalarArrayOf(resultType, n, array.NullScalar()), nil
			}
			return array.NewScalarArrayOf(resultType, n, apply(ls, rs)), nil
		}
	}
	b := array.NewBuilder(resultType, n)
	for i := 0; i < n; i++ {
		ls, rs := lhs.ScalarAt(i), rhs.ScalarAt(i)
		if ls.IsNull() || rs.IsNull() {
			b.AppendScalar(array.NullScalar())
			continue
		}
		b.AppendScalar(apply(ls, rs))
	}
	return b.Finish(), nil
}

type UnaryOp int

const (
	Neg UnaryOp = iota
	Not
)

func (op UnaryOp) String() string {
	if op == Neg {
		return "-"
	}
	return "not"
}

func (op UnaryOp) ResultType(dt array.DataType) (array.DataType, error) {
	switch op {
	case Neg:
		if dt.IsNumeric() {
			return dt, nil
		}
	case Not:
		if dt.IsBoolean() {
			return array.Boolean, nil
		}
	}
	return array.DataType{}, &TypeError{Op: op.String(), Args: []array.DataType{dt}}
}

// Eval applies op pointwise, preserving scalar layout.
func (op UnaryOp) Eval(a array.Array) (array.Array, error) {
	resultType, err := op.ResultType(a.DataType())
	if err != nil {
		return nil, err
	}
	n := a.Len()
	apply := func(s array.Scalar) array.Scalar {
		switch op {
		case Neg:
			if resultType.IsFloat() {
				return array.FloatScalar(resultType, -s.Float())
			}
			return array.IntScalar(resultType, -s.Int())
		case Not:
			return array.BoolScalar(!s.Bool())
		}
		panic(fmt.Sprintf("expr: unreachable unary op %v", op))
	}
	if s, ok := a.ToScalar(); ok {
		if s.IsNull() {
			return array.NewScalarArrayOf(resultType, n, array.NullScalar()), nil
		}
		return array.NewScalarArrayOf(resultType, n, apply(s)), nil
	}
	b := array.NewBuilder(resultType, n)
	for i := 0; i < n; i++ {
		s := a.ScalarAt(i)
		if s.IsNull() {
			b.AppendScalar(array.NullScalar())
			continue
		}
		b.AppendScalar(apply(s))
	}
	return b.Finish(), nil
}

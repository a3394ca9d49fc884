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

import "github.com/sunli829/yql/array"

// Literal is a constant value embedded in an expression tree. Integer
// and float literals pick the narrowest data type that holds them, so
// a plan built from small constants costs no more than it has to.
type Literal struct {
	typ array.DataType
	i   int64
	f   float64
	b   bool
	s   string
}

func LiteralBool(v bool) Literal { return Literal{typ: array.Boolean, b: v} }

func LiteralString(v string) Literal { return Literal{typ: array.String, s: v} }

// LiteralInt picks Int8/Int16/Int32/Int64 by the narrowest type that
// holds v.
func LiteralInt(v int64) Literal {
	switch {
	case v >= -1<<7 && v <= 1<<7-1:
		return Literal{typ: array.Int8, i: v}
	case v >= -1<<15 && v <= 1<<15-1:
		return Literal{typ: array.Int16, i: v}
	case v >= -1<<31 && v <= 1<<31-1:
		return Literal{typ: array.Int32, i: v}
	default:
		return Literal{typ: array.Int64, i: v}
	}
}

// LiteralTimestamp constructs a Timestamp-typed literal holding ms
// since epoch.
func LiteralTimestamp(ms int64) Literal {
	return Literal{typ: array.Timestamp, i: ms}
}

// LiteralFloat picks Float32 when v fits without overflow, else
// Float64.
func LiteralFloat(v float64) Literal {
	const maxFloat32 = 3.4028234663852886e+38
	if v >= -maxFloat32 && v <= maxFloat32 {
		return Literal{typ: array.Float32, f: v}
	}
	return Literal{typ: array.Float64, f: v}
}

func (l Literal) DataType() array.DataType { return l.typ }

// ToArray widens the literal to a scalar array of length n.
func (l Literal) ToArray(n int) array.Array {
	switch {
	case l.typ.IsBoolean():
		return array.NewScalarArrayOf(l.typ, n, array.BoolScalar(l.b))
	case l.typ.IsString():
		return array.NewScalarArrayOf(l.typ, n, array.StringScalar(l.s))
	case l.typ.IsFloat():
		return array.NewScalarArrayOf(l.typ, n, array.FloatScalar(l.typ, l.f))
	case l.typ.IsInteger(), l.typ.IsTimestamp():
		return array.NewScalarArrayOf(l.typ, n, array.IntScalar(l.typ, l.i))
	}
	return array.NewNullArray(n)
}

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

package array

import "fmt"

// Scalar is a single tagged value mirroring DataType. It is used for
// per-row probes (e.g. the last value of a window) and for stateful
// function state.
type Scalar struct {
	typ DataType
	// null is true when the scalar holds no value.
	null bool
	i    int64
	f    float64
	b    bool
	s    string
}

func NullScalar() Scalar { return Scalar{typ: Null, null: true} }

func IntScalar(typ DataType, v int64) Scalar {
	if !typ.IsInteger() && !typ.IsTimestamp() {
		panic(fmt.Sprintf("array: IntScalar with non-integer type %s", typ))
	}
	return Scalar{typ: typ, i: v}
}

func FloatScalar(typ DataType, v float64) Scalar {
	if !typ.IsFloat() {
		panic(fmt.Sprintf("array: FloatScalar with non-float type %s", typ))
	}
	return Scalar{typ: typ, f: v}
}

func BoolScalar(v bool) Scalar { return Scalar{typ: Boolean, b: v} }

func StringScalar(v string) Scalar { return Scalar{typ: String, s: v} }

func (s Scalar) DataType() DataType { return s.typ }
func (s Scalar) IsNull() bool       { return s.null }
func (s Scalar) Int() int64         { return s.i }
func (s Scalar) Float() float64     { return s.f }
func (s Scalar) Bool() bool         { return s.b }
func (s Scalar) Str() string        { return s.s }

func (s Scalar) Equal(o Scalar) bool {
	if s.null != o.null {
		return false
	}
	if s.null {
		return true
	}
	if !s.typ.Equal(o.typ) {
		return false
	}
	switch {
	case s.typ.IsInteger(), s.typ.IsTimestamp():
		return s.i == o.i
	case s.typ.IsFloat():
		return s.f == o.f
	case s.typ.IsBoolean():
		return s.b == o.b
	case s.typ.IsString():
		return s.s == o.s
	}
	return true
}

func (s Scalar) String() string {
	if s.null {
		return "null"
	}
	switch {
	case s.typ.IsInteger(), s.typ.IsTimestamp():
		return fmt.Sprintf("%d", s.i)
	case s.typ.IsFloat():
		return fmt.Sprintf("%v", s.f)
	case s.typ.IsBoolean():
		return fmt.Sprintf("%v", s.b)
	case s.typ.IsString():
		return s.s
	}
	return "null"
}

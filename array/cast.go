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

import (
	"fmt"
	"time"
)

// Cast converts a to data type `to`, following DataType.CanCastTo:
// identity, integer widening, integer->float, float widening, and
// any->String via formatted print. It returns an error if the
// conversion is not permitted. Nulls propagate: a null input produces
// a null output at the same row.
func Cast(a Array, to DataType) (Array, error) {
	if a.DataType().Equal(to) {
		return a, nil
	}
	if !a.DataType().CanCastTo(to) {
		return nil, fmt.Errorf("array: cannot cast %s to %s", a.DataType(), to)
	}
	if s, ok := a.ToScalar(); ok {
		return NewScalarArrayOf(to, a.Len(), castScalar(s, to)), nil
	}
	out := NewBuilder(to, a.Len())
	for i := 0; i < a.Len(); i++ {
		out.AppendScalar(castScalar(a.ScalarAt(i), to))
	}
	return out.Finish(), nil
}

func castScalar(s Scalar, to DataType) Scalar {
	if s.IsNull() {
		return NullScalar()
	}
	if to.IsString() {
		return StringScalar(formatScalar(s))
	}
	switch {
	case to.IsInteger():
		return IntScalar(to, s.Int())
	case to.IsFloat():
		if s.DataType().IsFloat() {
			return FloatScalar(to, s.Float())
		}
		return FloatScalar(to, float64(s.Int()))
	}
	return s
}

func formatScalar(s Scalar) string {
	switch {
	case s.DataType().IsTimestamp():
		return time.UnixMilli(s.Int()).UTC().Format(time.RFC3339Nano)
	case s.DataType().IsFloat():
		return fmt.Sprintf("%v", s.Float())
	case s.DataType().IsBoolean():
		return fmt.Sprintf("%v", s.Bool())
	case s.DataType().IsString():
		return s.Str()
	case s.DataType().IsInteger():
		return fmt.Sprintf("%d", s.Int())
	}
	return ""
}

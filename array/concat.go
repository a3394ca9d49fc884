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

// NewScalarArrayOf builds a length-n array using the scalar layout
// with the given shared value (or null, if s.IsNull()).
func NewScalarArrayOf(dt DataType, n int, s Scalar) Array {
	switch {
	case dt.IsNull():
		return NewNullArray(n)
	case dt.Equal(Int8):
		return NewScalarArray[int8](dt, n, int8(s.Int()), !s.IsNull())
	case dt.Equal(Int16):
		return NewScalarArray[int16](dt, n, int16(s.Int()), !s.IsNull())
	case dt.Equal(Int32):
		return NewScalarArray[int32](dt, n, int32(s.Int()), !s.IsNull())
	case dt.Equal(Int64):
		return NewScalarArray[int64](dt, n, s.Int(), !s.IsNull())
	case dt.Equal(Float32):
		return NewScalarArray[float32](dt, n, float32(s.Float()), !s.IsNull())
	case dt.Equal(Float64):
		return NewScalarArray[float64](dt, n, s.Float(), !s.IsNull())
	case dt.Equal(Boolean):
		return NewScalarArray[bool](dt, n, s.Bool(), !s.IsNull())
	case dt.IsTimestamp():
		return NewScalarArray[int64](dt, n, s.Int(), !s.IsNull())
	case dt.IsString():
		return NewScalarStringArray(n, s.Str(), !s.IsNull())
	}
	panic("array: unreachable data type in NewScalarArrayOf")
}

// Concat joins a and b, which must share a data type. Per spec.md
// §4.1, two scalar arrays that carry the same (possibly-null) value
// fold into a single longer scalar array rather than materializing.
func Concat(a, b Array) Array {
	if sa, ok := a.ToScalar(); ok {
		if sb, ok2 := b.ToScalar(); ok2 && sa.Equal(sb) {
			return NewScalarArrayOf(a.DataType(), a.Len()+b.Len(), sa)
		}
	}
	out := NewBuilder(a.DataType(), a.Len()+b.Len())
	for i := 0; i < a.Len(); i++ {
		out.AppendScalar(a.ScalarAt(i))
	}
	for i := 0; i < b.Len(); i++ {
		out.AppendScalar(b.ScalarAt(i))
	}
	return out.Finish()
}

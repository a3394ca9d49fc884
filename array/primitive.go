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

import "golang.org/x/exp/constraints"

// native is the set of Go types that back a fixed-width column:
// every integer and float width the DataType enum names, plus bool
// for Boolean and int64 for Timestamp.
type native interface {
	constraints.Integer | constraints.Float | ~bool
}

// PrimitiveArray is a fixed-width typed array. It implements both
// physical layouts named in spec.md §4.1: when isScalar is set, the
// array is the scalar optimization (length + one optional value);
// otherwise it is a regular array backed by a native-typed buffer
// plus an optional null Bitmap.
type PrimitiveArray[T native] struct {
	dt DataType
	n  int

	values   []T
	nulls    Bitmap
	hasNulls bool

	isScalar    bool
	scalarVal   T
	scalarValid bool
}

// NewPrimitiveArray constructs a regular primitive array. nulls may be
// the zero Bitmap (meaning "absent"/all-valid) when hasNulls is false.
func NewPrimitiveArray[T native](dt DataType, values []T, nulls Bitmap, hasNulls bool) *PrimitiveArray[T] {
	return &PrimitiveArray[T]{dt: dt, n: len(values), values: values, nulls: nulls, hasNulls: hasNulls}
}

// NewScalarArray constructs a length-n array using the scalar layout.
// valid=false means every element is null.
func NewScalarArray[T native](dt DataType, n int, value T, valid bool) *PrimitiveArray[T] {
	return &PrimitiveArray[T]{dt: dt, n: n, isScalar: true, scalarVal: value, scalarValid: valid}
}

func (a *PrimitiveArray[T]) DataType() DataType { return a.dt }
func (a *PrimitiveArray[T]) Len() int            { return a.n }

func (a *PrimitiveArray[T]) IsValid(i int) bool {
	if i < 0 || i >= a.n {
		panic(indexErr(i, a.n))
	}
	if a.isScalar {
		return a.scalarValid
	}
	if !a.hasNulls {
		return true
	}
	return !a.nulls.IsSet(i)
}

func (a *PrimitiveArray[T]) NullCount() int {
	if a.isScalar {
		if a.scalarValid {
			return 0
		}
		return a.n
	}
	if !a.hasNulls {
		return 0
	}
	return a.nulls.CountSet()
}

// Value returns the raw value at i without regard to validity.
//
// Panics if i is out of range.
func (a *PrimitiveArray[T]) Value(i int) T {
	if i < 0 || i >= a.n {
		panic(indexErr(i, a.n))
	}
	if a.isScalar {
		return a.scalarVal
	}
	return a.values[i]
}

// ValueOpt returns the value at i, or (zero, false) if null.
func (a *PrimitiveArray[T]) ValueOpt(i int) (T, bool) {
	if !a.IsValid(i) {
		var zero T
		return zero, false
	}
	return a.Value(i), true
}

func (a *PrimitiveArray[T]) Slice(offset, length int) Array {
	if offset < 0 || length < 0 || offset+length > a.n {
		panic(sliceErr(offset, length, a.n))
	}
	if a.isScalar {
		return &PrimitiveArray[T]{dt: a.dt, n: length, isScalar: true, scalarVal: a.scalarVal, scalarValid: a.scalarValid}
	}
	out := &PrimitiveArray[T]{dt: a.dt, n: length, values: a.values[offset : offset+length]}
	if a.hasNulls {
		out.hasNulls = true
		out.nulls = a.nulls.Slice(offset, length)
	}
	return out
}

func (a *PrimitiveArray[T]) ScalarAt(i int) Scalar {
	v, ok := a.ValueOpt(i)
	if !ok {
		return NullScalar()
	}
	return scalarOf(a.dt, v)
}

func (a *PrimitiveArray[T]) ToScalar() (Scalar, bool) {
	if !a.isScalar {
		return Scalar{}, false
	}
	if !a.scalarValid {
		return NullScalar(), true
	}
	return scalarOf(a.dt, a.scalarVal), true
}

func scalarOf[T native](dt DataType, v T) Scalar {
	switch any(v).(type) {
	case bool:
		return BoolScalar(any(v).(bool))
	case float32:
		return FloatScalar(dt, float64(any(v).(float32)))
	case float64:
		return FloatScalar(dt, any(v).(float64))
	default:
		return IntScalar(dt, toInt64(v))
	}
}

func toInt64[T native](v T) int64 {
	switch x := any(v).(type) {
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case int:
		return int64(x)
	}
	return 0
}

// PrimitiveBuilder accumulates values for a PrimitiveArray[T].
type PrimitiveBuilder[T native] struct {
	dt     DataType
	values []T
	nulls  *BitmapBuilder
}

func NewPrimitiveBuilder[T native](dt DataType, capacity int) *PrimitiveBuilder[T] {
	return &PrimitiveBuilder[T]{
		dt:     dt,
		values: make([]T, 0, capacity),
		nulls:  NewBitmapBuilder(capacity),
	}
}

// Append grows the buffer by one element and records it as valid (no
// null bit is set).
func (b *PrimitiveBuilder[T]) Append(v T) {
	b.values = append(b.values, v)
	b.nulls.Append(false)
}

// AppendNull appends a default value and marks it null.
func (b *PrimitiveBuilder[T]) AppendNull() {
	var zero T
	b.values = append(b.values, zero)
	b.nulls.Append(true)
}

// AppendOpt dispatches to Append or AppendNull.
func (b *PrimitiveBuilder[T]) AppendOpt(v T, ok bool) {
	if !ok {
		b.AppendNull()
		return
	}
	b.Append(v)
}

func (b *PrimitiveBuilder[T]) Len() int { return len(b.values) }

// Finish freezes the builder into an immutable regular array. If no
// null was ever appended, the mask is absent.
func (b *PrimitiveBuilder[T]) Finish() *PrimitiveArray[T] {
	mask, has := b.nulls.Finish()
	return NewPrimitiveArray(b.dt, b.values, mask, has)
}

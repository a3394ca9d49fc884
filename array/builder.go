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

// Builder is a type-erased front for the typed builders, used by code
// (concat, dataset assembly, group materialization) that only knows
// the DataType at runtime.
type Builder interface {
	AppendScalar(s Scalar)
	Len() int
	Finish() Array
}

// NewBuilder returns a fresh builder for dt with the given capacity
// hint.
func NewBuilder(dt DataType, capacity int) Builder {
	switch {
	case dt.IsNull():
		return &nullBuilder{}
	case dt.Equal(Int8):
		return &primBuilder[int8]{b: NewPrimitiveBuilder[int8](dt, capacity)}
	case dt.Equal(Int16):
		return &primBuilder[int16]{b: NewPrimitiveBuilder[int16](dt, capacity)}
	case dt.Equal(Int32):
		return &primBuilder[int32]{b: NewPrimitiveBuilder[int32](dt, capacity)}
	case dt.Equal(Int64):
		return &primBuilder[int64]{b: NewPrimitiveBuilder[int64](dt, capacity)}
	case dt.Equal(Float32):
		return &primBuilder[float32]{b: NewPrimitiveBuilder[float32](dt, capacity)}
	case dt.Equal(Float64):
		return &primBuilder[float64]{b: NewPrimitiveBuilder[float64](dt, capacity)}
	case dt.Equal(Boolean):
		return &boolBuilder{b: NewPrimitiveBuilder[bool](dt, capacity)}
	case dt.IsTimestamp():
		return &tsBuilder{dt: dt, b: NewPrimitiveBuilder[int64](dt, capacity)}
	case dt.IsString():
		return &strBuilder{b: NewStringBuilder(capacity)}
	}
	panic(fmt.Sprintf("array: no builder for type %s", dt))
}

type nullBuilder struct{ n int }

func (b *nullBuilder) AppendScalar(Scalar) { b.n++ }
func (b *nullBuilder) Len() int            { return b.n }
func (b *nullBuilder) Finish() Array       { return NewNullArray(b.n) }

type primBuilder[T native] struct{ b *PrimitiveBuilder[T] }

func (b *primBuilder[T]) AppendScalar(s Scalar) {
	if s.IsNull() {
		b.b.AppendNull()
		return
	}
	var v T
	switch any(v).(type) {
	case float32:
		b.b.Append(T(s.Float()))
	case float64:
		b.b.Append(T(s.Float()))
	default:
		b.b.Append(T(s.Int()))
	}
}
func (b *primBuilder[T]) Len() int      { return b.b.Len() }
func (b *primBuilder[T]) Finish() Array { return b.b.Finish() }

type boolBuilder struct{ b *PrimitiveBuilder[bool] }

func (b *boolBuilder) AppendScalar(s Scalar) {
	if s.IsNull() {
		b.b.AppendNull()
		return
	}
	b.b.Append(s.Bool())
}
func (b *boolBuilder) Len() int      { return b.b.Len() }
func (b *boolBuilder) Finish() Array { return b.b.Finish() }

type tsBuilder struct {
	dt DataType
	b  *PrimitiveBuilder[int64]
}

func (b *tsBuilder) AppendScalar(s Scalar) {
	if s.IsNull() {
		b.b.AppendNull()
		return
	}
	b.b.Append(s.Int())
}
func (b *tsBuilder) Len() int      { return b.b.Len() }
func (b *tsBuilder) Finish() Array { return b.b.Finish() }

type strBuilder struct{ b *StringBuilder }

func (b *strBuilder) AppendScalar(s Scalar) {
	if s.IsNull() {
		b.b.AppendNull()
		return
	}
	b.b.Append(s.Str())
}
func (b *strBuilder) Len() int      { return b.b.Len() }
func (b *strBuilder) Finish() Array { return b.b.Finish() }

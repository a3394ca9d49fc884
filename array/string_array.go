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

// stringIndex is the (offset, length) pair pointing into a shared
// byte buffer, per spec.md's two-buffer string layout.
type stringIndex struct {
	offset, length int32
}

// StringArray is the variable-length UTF-8 string array. Like
// PrimitiveArray it supports both the regular layout (a concatenated
// byte buffer plus an index buffer) and the scalar layout.
type StringArray struct {
	n int

	data    []byte
	offsets []stringIndex
	nulls   Bitmap
	hasNulls bool

	isScalar    bool
	scalarVal   string
	scalarValid bool
}

func NewStringArray(data []byte, offsets []stringIndex, nulls Bitmap, hasNulls bool) *StringArray {
	return &StringArray{n: len(offsets), data: data, offsets: offsets, nulls: nulls, hasNulls: hasNulls}
}

func NewScalarStringArray(n int, value string, valid bool) *StringArray {
	return &StringArray{n: n, isScalar: true, scalarVal: value, scalarValid: valid}
}

func (a *StringArray) DataType() DataType { return String }
func (a *StringArray) Len() int           { return a.n }

func (a *StringArray) IsValid(i int) bool {
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

func (a *StringArray) NullCount() int {
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

func (a *StringArray) Value(i int) string {
	if i < 0 || i >= a.n {
		panic(indexErr(i, a.n))
	}
	if a.isScalar {
		return a.scalarVal
	}
	idx := a.offsets[i]
	return string(a.data[idx.offset : idx.offset+idx.length])
}

func (a *StringArray) ValueOpt(i int) (string, bool) {
	if !a.IsValid(i) {
		return "", false
	}
	return a.Value(i), true
}

func (a *StringArray) Slice(offset, length int) Array {
	if offset < 0 || length < 0 || offset+length > a.n {
		panic(sliceErr(offset, length, a.n))
	}
	if a.isScalar {
		return &StringArray{n: length, isScalar: true, scalarVal: a.scalarVal, scalarValid: a.scalarValid}
	}
	out := &StringArray{n: length, data: a.data, offsets: a.offsets[offset : offset+length]}
	if a.hasNulls {
		out.hasNulls = true
		out.nulls = a.nulls.Slice(offset, length)
	}
	return out
}

func (a *StringArray) ScalarAt(i int) Scalar {
	v, ok := a.ValueOpt(i)
	if !ok {
		return NullScalar()
	}
	return StringScalar(v)
}

func (a *StringArray) ToScalar() (Scalar, bool) {
	if !a.isScalar {
		return Scalar{}, false
	}
	if !a.scalarValid {
		return NullScalar(), true
	}
	return StringScalar(a.scalarVal), true
}

// StringBuilder accumulates strings into the two-buffer layout.
type StringBuilder struct {
	data    []byte
	offsets []stringIndex
	nulls   *BitmapBuilder
}

func NewStringBuilder(capacity int) *StringBuilder {
	return &StringBuilder{
		offsets: make([]stringIndex, 0, capacity),
		nulls:   NewBitmapBuilder(capacity),
	}
}

func (b *StringBuilder) Append(v string) {
	off := int32(len(b.data))
	b.data = append(b.data, v...)
	b.offsets = append(b.offsets, stringIndex{offset: off, length: int32(len(v))})
	b.nulls.Append(false)
}

func (b *StringBuilder) AppendNull() {
	off := int32(len(b.data))
	b.offsets = append(b.offsets, stringIndex{offset: off, length: 0})
	b.nulls.Append(true)
}

func (b *StringBuilder) AppendOpt(v string, ok bool) {
	if !ok {
		b.AppendNull()
		return
	}
	b.Append(v)
}

func (b *StringBuilder) Len() int { return len(b.offsets) }

func (b *StringBuilder) Finish() *StringArray {
	mask, has := b.nulls.Finish()
	return NewStringArray(b.data, b.offsets, mask, has)
}

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

package wire

import (
	"fmt"

	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/dataset"
)

func WriteDataType(b *Buffer, dt array.DataType) {
	b.WriteByte(dt.Code())
	b.WriteString(dt.TZ())
}

func ReadDataType(r *Reader) (array.DataType, error) {
	code, err := r.ReadByte()
	if err != nil {
		return array.DataType{}, err
	}
	tz, err := r.ReadString()
	if err != nil {
		return array.DataType{}, err
	}
	return array.FromCode(code, tz)
}

// WriteScalar encodes a Scalar: its data type, a null flag, then (if
// non-null) a type-appropriate payload.
func WriteScalar(b *Buffer, s array.Scalar) {
	WriteDataType(b, s.DataType())
	b.WriteBool(s.IsNull())
	if s.IsNull() {
		return
	}
	switch {
	case s.DataType().IsFloat():
		b.WriteFloat64(s.Float())
	case s.DataType().IsBoolean():
		b.WriteBool(s.Bool())
	case s.DataType().IsString():
		b.WriteString(s.Str())
	case s.DataType().IsInteger(), s.DataType().IsTimestamp():
		b.WriteVarint(s.Int())
	}
}

func ReadScalar(r *Reader) (array.Scalar, error) {
	dt, err := ReadDataType(r)
	if err != nil {
		return array.Scalar{}, err
	}
	isNull, err := r.ReadBool()
	if err != nil {
		return array.Scalar{}, err
	}
	if isNull {
		return array.NullScalar(), nil
	}
	switch {
	case dt.IsFloat():
		v, err := r.ReadFloat64()
		if err != nil {
			return array.Scalar{}, err
		}
		return array.FloatScalar(dt, v), nil
	case dt.IsBoolean():
		v, err := r.ReadBool()
		if err != nil {
			return array.Scalar{}, err
		}
		return array.BoolScalar(v), nil
	case dt.IsString():
		v, err := r.ReadString()
		if err != nil {
			return array.Scalar{}, err
		}
		return array.StringScalar(v), nil
	case dt.IsInteger(), dt.IsTimestamp():
		v, err := r.ReadVarint()
		if err != nil {
			return array.Scalar{}, err
		}
		return array.IntScalar(dt, v), nil
	case dt.IsNull():
		return array.NullScalar(), nil
	}
	return array.Scalar{}, fmt.Errorf("wire: cannot decode scalar of type %s", dt)
}

// WriteArray encodes an array: its data type, a scalar/regular tag,
// and then either the single shared scalar value and length, or every
// row materialized via ScalarAt. This is not the fastest possible
// columnar wire format, but every operator state and DataSet in this
// engine is small (one batch, one window) so a row-wise codec keeps
// the framework from needing a parallel encoder per PrimitiveArray[T]
// instantiation.
func WriteArray(b *Buffer, a array.Array) {
	WriteDataType(b, a.DataType())
	if s, ok := a.ToScalar(); ok {
		b.WriteBool(true)
		b.WriteUvarint(uint64(a.Len()))
		WriteScalar(b, s)
		return
	}
	b.WriteBool(false)
	b.WriteUvarint(uint64(a.Len()))
	for i := 0; i < a.Len(); i++ {
		WriteScalar(b, a.ScalarAt(i))
	}
}

func ReadArray(r *Reader) (array.Array, error) {
	dt, err := ReadDataType(r)
	if err != nil {
		return nil, err
	}
	isScalar, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if isScalar {
		s, err := ReadScalar(r)
		if err != nil {
			return nil, err
		}
		return array.NewScalarArrayOf(dt, int(n), s), nil
	}
	bld := array.NewBuilder(dt, int(n))
	for i := uint64(0); i < n; i++ {
		s, err := ReadScalar(r)
		if err != nil {
			return nil, err
		}
		bld.AppendScalar(s)
	}
	return bld.Finish(), nil
}

func writeSchema(b *Buffer, s *dataset.Schema) {
	fields := s.Fields()
	b.WriteUvarint(uint64(len(fields)))
	for _, f := range fields {
		b.WriteString(f.Qualifier)
		b.WriteString(f.Name)
		WriteDataType(b, f.Type)
	}
}

func readSchema(r *Reader) (*dataset.Schema, error) {
	n, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	fields := make([]dataset.Field, n)
	for i := range fields {
		q, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		dt, err := ReadDataType(r)
		if err != nil {
			return nil, err
		}
		fields[i] = dataset.Field{Qualifier: q, Name: name, Type: dt}
	}
	return dataset.NewSchema(fields)
}

// WriteDataSet serializes a DataSet's schema and columns.
func WriteDataSet(b *Buffer, ds *dataset.DataSet) {
	writeSchema(b, ds.Schema())
	for _, col := range ds.Columns() {
		WriteArray(b, col)
	}
}

// ReadDataSet is the inverse of WriteDataSet: round-tripping a
// DataSet must reproduce an Equal value (spec.md §8).
func ReadDataSet(r *Reader) (*dataset.DataSet, error) {
	schema, err := readSchema(r)
	if err != nil {
		return nil, err
	}
	cols := make([]array.Array, schema.Len())
	for i := range cols {
		a, err := ReadArray(r)
		if err != nil {
			return nil, err
		}
		cols[i] = a
	}
	return dataset.New(schema, cols)
}

// EncodeDataSet is a convenience wrapper returning the raw bytes.
func EncodeDataSet(ds *dataset.DataSet) []byte {
	var b Buffer
	WriteDataSet(&b, ds)
	return b.Bytes()
}

// DecodeDataSet is the inverse of EncodeDataSet.
func DecodeDataSet(data []byte) (*dataset.DataSet, error) {
	return ReadDataSet(NewReader(data))
}

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

// Package array implements the columnar array layer: typed immutable
// arrays with bit-packed null masks, zero-copy slicing, and a
// scalar/regular layout split that lets pointwise operations on
// constant columns skip materialization.
package array

import "fmt"

// DataType is the closed enum of value types a column can hold.
type DataType struct {
	kind kind
	// tz is only meaningful when kind == kindTimestamp; it is carried
	// for display purposes but ignored by Equal, per spec: Timestamp
	// equality ignores timezone.
	tz string
}

type kind uint8

const (
	kindNull kind = iota
	kindInt8
	kindInt16
	kindInt32
	kindInt64
	kindFloat32
	kindFloat64
	kindBoolean
	kindTimestamp
	kindString
)

var (
	Null      = DataType{kind: kindNull}
	Int8      = DataType{kind: kindInt8}
	Int16     = DataType{kind: kindInt16}
	Int32     = DataType{kind: kindInt32}
	Int64     = DataType{kind: kindInt64}
	Float32   = DataType{kind: kindFloat32}
	Float64   = DataType{kind: kindFloat64}
	Boolean   = DataType{kind: kindBoolean}
	Timestamp = DataType{kind: kindTimestamp}
	String    = DataType{kind: kindString}
)

// TimestampTZ returns the Timestamp data type annotated with tz.
// tz is purely informational: Equal ignores it.
func TimestampTZ(tz string) DataType {
	return DataType{kind: kindTimestamp, tz: tz}
}

// TZ returns the timezone name attached to a Timestamp type, or "".
func (d DataType) TZ() string { return d.tz }

// Code returns the stable wire tag for d's kind, for use by the wire
// package; it does not encode the timezone.
func (d DataType) Code() uint8 { return uint8(d.kind) }

// FromCode reconstructs a DataType from a wire tag produced by Code,
// attaching tz (only meaningful for the Timestamp code).
func FromCode(code uint8, tz string) (DataType, error) {
	if code > uint8(kindString) {
		return DataType{}, fmt.Errorf("array: unknown data type code %d", code)
	}
	return DataType{kind: kind(code), tz: tz}, nil
}

// Equal reports whether d and o denote the same type. Timestamp
// equality ignores the attached timezone.
func (d DataType) Equal(o DataType) bool {
	return d.kind == o.kind
}

func (d DataType) IsNumeric() bool {
	switch d.kind {
	case kindInt8, kindInt16, kindInt32, kindInt64, kindFloat32, kindFloat64:
		return true
	}
	return false
}

func (d DataType) IsInteger() bool {
	switch d.kind {
	case kindInt8, kindInt16, kindInt32, kindInt64:
		return true
	}
	return false
}

func (d DataType) IsFloat() bool {
	return d.kind == kindFloat32 || d.kind == kindFloat64
}

func (d DataType) IsBoolean() bool { return d.kind == kindBoolean }
func (d DataType) IsString() bool  { return d.kind == kindString }
func (d DataType) IsTimestamp() bool { return d.kind == kindTimestamp }
func (d DataType) IsNull() bool    { return d.kind == kindNull }

// CanCastTo reports whether a value of type d can be cast to type to:
// identity, widening integer->integer, integer->float, float widening,
// and any->String.
func (d DataType) CanCastTo(to DataType) bool {
	if d.Equal(to) {
		return true
	}
	switch to.kind {
	case kindNull:
		return d.kind == kindNull
	case kindInt8:
		return false
	case kindInt16:
		return d.kind == kindInt8
	case kindInt32:
		return d.kind == kindInt8 || d.kind == kindInt16
	case kindInt64:
		return d.kind == kindInt8 || d.kind == kindInt16 || d.kind == kindInt32
	case kindFloat32:
		return d.IsInteger()
	case kindFloat64:
		return d.IsInteger() || d.kind == kindFloat32
	case kindBoolean:
		return false
	case kindTimestamp:
		return d.kind == kindTimestamp
	case kindString:
		return true
	}
	return false
}

func (d DataType) String() string {
	switch d.kind {
	case kindNull:
		return "null"
	case kindInt8:
		return "int8"
	case kindInt16:
		return "int16"
	case kindInt32:
		return "int32"
	case kindInt64:
		return "int64"
	case kindFloat32:
		return "float32"
	case kindFloat64:
		return "float64"
	case kindBoolean:
		return "boolean"
	case kindTimestamp:
		if d.tz != "" {
			return fmt.Sprintf("timestamp(%s)", d.tz)
		}
		return "timestamp"
	case kindString:
		return "string"
	}
	return "unknown"
}

// byteWidth returns the size in bytes of a fixed-width native value
// for primitive data types. It panics for String/Null, which are not
// fixed-width.
func (d DataType) byteWidth() int {
	switch d.kind {
	case kindInt8, kindBoolean:
		return 1
	case kindInt16:
		return 2
	case kindInt32, kindFloat32:
		return 4
	case kindInt64, kindFloat64, kindTimestamp:
		return 8
	}
	panic(fmt.Sprintf("array: data type %s has no fixed byte width", d))
}

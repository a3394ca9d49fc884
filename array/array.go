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

// Array is the common contract for every columnar array variant. Two
// physical layouts share it: regular (buffer + null mask) and scalar
// (length + single optional value, see ToScalar). Callers dispatch on
// DataType() rather than on Go's dynamic type, the way the teacher
// dispatches on its own DataType enum.
type Array interface {
	// DataType returns the element type of this array.
	DataType() DataType

	// Len returns the number of elements.
	Len() int

	// IsValid reports whether element i is non-null.
	//
	// Panics if i is out of range.
	IsValid(i int) bool

	// NullCount returns the number of null elements. For a scalar
	// array this is 0 or Len(), computed in O(1); for a regular array
	// it is counted from the null mask.
	NullCount() int

	// Slice returns a zero-copy slice of length `length` starting at
	// `offset`. Buffers are never copied; a regular array's null mask
	// slices with an additional bit offset.
	//
	// Panics if offset+length > Len().
	Slice(offset, length int) Array

	// ScalarAt returns the value at row i as a generic Scalar (with
	// IsNull() true if the element is null).
	//
	// Panics if i is out of range.
	ScalarAt(i int) Scalar

	// ToScalar reports whether this array uses the scalar physical
	// layout, returning the (possibly null) shared value when it
	// does. A `false` second result means the array is regular
	// (materialized) even if every element happens to share a value.
	ToScalar() (Scalar, bool)
}

// Truncate keeps the first length elements of a, dropping the rest.
func Truncate(a Array, length int) Array {
	return a.Slice(0, length)
}

// Equal reports whether a and b have the same data type and are
// element-wise equal. This intentionally dispatches through Scalar
// equality rather than re-deriving a per-variant comparison, since
// ScalarAt already performs the variant dispatch spec.md's "Design
// Notes" calls for.
func Equal(a, b Array) bool {
	if !a.DataType().Equal(b.DataType()) {
		return false
	}
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !a.ScalarAt(i).Equal(b.ScalarAt(i)) {
			return false
		}
	}
	return true
}

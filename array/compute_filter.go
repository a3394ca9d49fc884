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

// TrueIndexes returns the positions where mask holds a non-null true
// value. Computing this once and reusing it across every column of a
// DataSet is what lets DataSet.Filter count true flags a single time
// instead of once per column (spec.md §4.2).
func TrueIndexes(mask *PrimitiveArray[bool]) []int {
	idx := make([]int, 0, mask.Len())
	for i := 0; i < mask.Len(); i++ {
		if v, ok := mask.ValueOpt(i); ok && v {
			idx = append(idx, i)
		}
	}
	return idx
}

// Filter applies a boolean mask to a, producing an array containing
// only the elements at the given (precomputed) true indexes. When a
// is a scalar array, the result is a scalar array of length
// len(indexes) carrying the same value — the scalar optimization must
// survive filtering.
func Filter(a Array, indexes []int) Array {
	if s, ok := a.ToScalar(); ok {
		return NewScalarArrayOf(a.DataType(), len(indexes), s)
	}
	out := NewBuilder(a.DataType(), len(indexes))
	for _, i := range indexes {
		out.AppendScalar(a.ScalarAt(i))
	}
	return out.Finish()
}

// Take returns an array containing the elements at the given indexes,
// in order; indexes need not be increasing and may repeat. It shares
// Filter's implementation, so a scalar input stays a scalar array.
// This is used by group-by bucketing (stream package) rather than by
// boolean masking.
func Take(a Array, indexes []int) Array {
	return Filter(a, indexes)
}

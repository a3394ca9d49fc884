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

package dataset

import (
	"fmt"

	"github.com/sunli829/yql/array"
)

// DataSet is an immutable schema plus same-length column vectors.
// Nothing in a DataSet is mutated after creation: slicing and
// filtering always produce a new DataSet sharing the parent's
// buffers.
type DataSet struct {
	schema  *Schema
	columns []array.Array
	n       int
}

// New constructs a DataSet, validating that every column's length
// matches every other and that column i's data type matches
// schema.Fields()[i].Type.
func New(schema *Schema, columns []array.Array) (*DataSet, error) {
	if len(columns) != schema.Len() {
		return nil, fmt.Errorf("dataset: schema has %d fields but got %d columns", schema.Len(), len(columns))
	}
	n := -1
	for i, col := range columns {
		if n == -1 {
			n = col.Len()
		} else if col.Len() != n {
			return nil, fmt.Errorf("dataset: column %d has length %d, want %d", i, col.Len(), n)
		}
		want := schema.Fields()[i].Type
		if !col.DataType().Equal(want) {
			return nil, fmt.Errorf("dataset: column %d has type %s, want %s", i, col.DataType(), want)
		}
	}
	if n == -1 {
		n = 0
	}
	return &DataSet{schema: schema, columns: columns, n: n}, nil
}

func MustNew(schema *Schema, columns []array.Array) *DataSet {
	ds, err := New(schema, columns)
	if err != nil {
		panic(err)
	}
	return ds
}

func (d *DataSet) Schema() *Schema        { return d.schema }
func (d *DataSet) Columns() []array.Array { return d.columns }
func (d *DataSet) Len() int                { return d.n }

func (d *DataSet) Column(i int) array.Array { return d.columns[i] }

// ColumnByName returns the column for a (possibly qualified) field
// name, or nil if not found.
func (d *DataSet) ColumnByName(qualifier, name string) array.Array {
	idx := d.schema.IndexOf(qualifier, name)
	if idx < 0 {
		return nil
	}
	return d.columns[idx]
}

// Slice returns a zero-copy slice of every column.
func (d *DataSet) Slice(offset, length int) *DataSet {
	cols := make([]array.Array, len(d.columns))
	for i, c := range d.columns {
		cols[i] = c.Slice(offset, length)
	}
	return &DataSet{schema: d.schema, columns: cols, n: length}
}

// Filter produces a new DataSet containing only the rows where mask
// is true, by running array.Filter over each column with a single
// shared set of true-indexes (computed once, not per column — spec.md
// §4.2).
func (d *DataSet) Filter(mask *array.PrimitiveArray[bool]) (*DataSet, error) {
	if mask.Len() != d.n {
		return nil, fmt.Errorf("dataset: filter mask has length %d, want %d", mask.Len(), d.n)
	}
	indexes := array.TrueIndexes(mask)
	cols := make([]array.Array, len(d.columns))
	for i, c := range d.columns {
		cols[i] = array.Filter(c, indexes)
	}
	return &DataSet{schema: d.schema, columns: cols, n: len(indexes)}, nil
}

// Take materializes the rows at the given indexes (need not be sorted
// or unique), used by group-by-window/group-by-expr bucketing in the
// stream package.
func (d *DataSet) Take(indexes []int) *DataSet {
	cols := make([]array.Array, len(d.columns))
	for i, c := range d.columns {
		cols[i] = array.Take(c, indexes)
	}
	return &DataSet{schema: d.schema, columns: cols, n: len(indexes)}
}

// Equal reports whether two datasets have equal schemas and
// element-wise equal columns.
func (d *DataSet) Equal(o *DataSet) bool {
	if !d.schema.Equal(o.schema) {
		return false
	}
	if len(d.columns) != len(o.columns) {
		return false
	}
	for i := range d.columns {
		if !array.Equal(d.columns[i], o.columns[i]) {
			return false
		}
	}
	return true
}

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

// Package dataset implements the DataSet: a schema plus a vector of
// same-length columnar arrays, the unit of flow between operators.
package dataset

import (
	"fmt"

	"github.com/sunli829/yql/array"
)

// ReservedTimeField is the name Source operators use for the
// synthesized event-time column they append to every output DataSet
// (spec.md §4.4, §9 "@time column synthesis"). Downstream operators
// that need event time (Aggregate) look it up by this reserved name
// rather than through a side channel.
const ReservedTimeField = "@time"

// Field describes one column: an optional qualifier (e.g. a table
// alias), a name, and a data type.
type Field struct {
	Qualifier string // "" means unqualified
	Name      string
	Type      array.DataType
}

// SchemaError reports a schema-construction failure: a duplicate
// field, a missing column, or a wildcard referencing an unknown
// qualifier.
type SchemaError struct {
	Msg string
}

func (e *SchemaError) Error() string { return "schema: " + e.Msg }

// Schema is an ordered, immutable list of fields.
type Schema struct {
	fields []Field
}

// NewSchema validates and constructs a Schema. Names must be unique
// within a qualifier; a qualified and an unqualified field sharing a
// name are rejected as ambiguous.
func NewSchema(fields []Field) (*Schema, error) {
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		key := f.Qualifier + "." + f.Name
		if seen[key] {
			return nil, &SchemaError{Msg: fmt.Sprintf("duplicate field %q", key)}
		}
		seen[key] = true
	}
	// detect qualified/unqualified collisions on the same bare name
	byName := make(map[string]int, len(fields))
	for _, f := range fields {
		byName[f.Name]++
	}
	qualifiedNames := make(map[string]bool)
	unqualifiedNames := make(map[string]bool)
	for _, f := range fields {
		if f.Qualifier != "" {
			qualifiedNames[f.Name] = true
		} else {
			unqualifiedNames[f.Name] = true
		}
	}
	for name := range qualifiedNames {
		if unqualifiedNames[name] {
			return nil, &SchemaError{Msg: fmt.Sprintf("field %q is ambiguous between a qualified and unqualified binding", name)}
		}
	}
	out := make([]Field, len(fields))
	copy(out, fields)
	return &Schema{fields: out}, nil
}

func MustNewSchema(fields []Field) *Schema {
	s, err := NewSchema(fields)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the ordered field list. Callers must not mutate it.
func (s *Schema) Fields() []Field { return s.fields }

func (s *Schema) Len() int { return len(s.fields) }

// IndexOf returns the column index of the field matching qualifier
// and name (qualifier "" matches any unqualified field, or the sole
// field with that name if qualifiers are otherwise disjoint), or -1.
func (s *Schema) IndexOf(qualifier, name string) int {
	if qualifier != "" {
		for i, f := range s.fields {
			if f.Qualifier == qualifier && f.Name == name {
				return i
			}
		}
		return -1
	}
	for i, f := range s.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// WithExtraField returns a new Schema equal to s with field appended.
func (s *Schema) WithExtraField(f Field) (*Schema, error) {
	fields := make([]Field, 0, len(s.fields)+1)
	fields = append(fields, s.fields...)
	fields = append(fields, f)
	return NewSchema(fields)
}

// Equal reports whether two schemas have the same fields in the same
// order (Timestamp data type equality ignores timezone, inherited
// from array.DataType.Equal).
func (s *Schema) Equal(o *Schema) bool {
	if len(s.fields) != len(o.fields) {
		return false
	}
	for i := range s.fields {
		a, b := s.fields[i], o.fields[i]
		if a.Qualifier != b.Qualifier || a.Name != b.Name || !a.Type.Equal(b.Type) {
			return false
		}
	}
	return true
}

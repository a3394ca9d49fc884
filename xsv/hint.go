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

package xsv

import (
	"encoding/json"
	"fmt"

	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/dataset"
)

// Delim is a single-byte field separator.
type Delim byte

// Date/time ingestion formats for a FieldHint of type datetime.
const (
	FormatDateTime             = "datetime" // RFC3339-ish text, via date.Parse
	FormatDateTimeUnixSec      = "unix_seconds"
	FormatDateTimeUnixMilliSec = "unix_milli_seconds"
	FormatDateTimeUnixMicroSec = "unix_micro_seconds"
)

// FieldHint describes one output column: its name, its DataType, and
// (for Timestamp columns) the ingestion format. Unlike the teacher's
// dotted-subfield hints (meant for nested ion structs), this engine's
// DataSet schema is flat, so Name is a single column name.
type FieldHint struct {
	Name    string         `json:"name"`
	Type    array.DataType `json:"-"`
	Format  string         `json:"format,omitempty"`
	Default string         `json:"default,omitempty"`

	typeName string
}

type jsonFieldHint struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Format  string `json:"format,omitempty"`
	Default string `json:"default,omitempty"`
}

func (fh *FieldHint) UnmarshalJSON(data []byte) error {
	var j jsonFieldHint
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	dt, err := dataTypeByName(j.Type)
	if err != nil {
		return err
	}
	fh.Name, fh.Type, fh.Format, fh.Default = j.Name, dt, j.Format, j.Default
	return nil
}

func dataTypeByName(name string) (array.DataType, error) {
	switch name {
	case "", "string":
		return array.String, nil
	case "int":
		return array.Int64, nil
	case "float":
		return array.Float64, nil
	case "bool":
		return array.Boolean, nil
	case "datetime":
		return array.Timestamp, nil
	}
	return array.DataType{}, fmt.Errorf("xsv: unknown field type %q", name)
}

// Hint carries the parse options and the field schema for a CSV/TSV
// source: column order, name, and DataType.
type Hint struct {
	SkipRecords int         `json:"skipRecords"`
	Separator   rune        `json:"separator"`
	Fields      []FieldHint `json:"fields"`
}

// ParseHint decodes a JSON-encoded Hint, per the teacher's
// ParseHint/FieldHint.UnmarshalJSON pattern.
func ParseHint(data []byte) (*Hint, error) {
	var h Hint
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	if len(h.Fields) == 0 {
		return nil, fmt.Errorf("xsv: hint has no fields")
	}
	return &h, nil
}

// Schema builds the DataSet schema described by the hint's fields.
func (h *Hint) Schema() (*dataset.Schema, error) {
	fields := make([]dataset.Field, len(h.Fields))
	for i, f := range h.Fields {
		fields[i] = dataset.Field{Name: f.Name, Type: f.Type}
	}
	return dataset.NewSchema(fields)
}

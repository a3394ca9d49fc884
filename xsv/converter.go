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

// Package xsv implements parsing CSV (RFC 4180) and TSV (tab
// separated values) records into engine DataSets, driven by a
// type-hinted column schema.
package xsv

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/date"
	"github.com/sunli829/yql/dataset"
)

var ErrNoHints = errors.New("hints are mandatory")

// RowChopper fetches records row by row and splits each into its
// individual fields until the reader is exhausted (io.EOF).
type RowChopper interface {
	GetNext(r io.Reader) ([]string, error)
}

// ReadBatch reads up to maxRows records from r via ch, converting
// each field according to hint, and returns the resulting DataSet.
// It returns (nil, nil) at a clean end of input with zero rows read.
func ReadBatch(r io.Reader, ch RowChopper, hint *Hint, maxRows int) (*dataset.DataSet, error) {
	if hint == nil || len(hint.Fields) == 0 {
		return nil, ErrNoHints
	}
	schema, err := hint.Schema()
	if err != nil {
		return nil, err
	}
	builders := make([]array.Builder, len(hint.Fields))
	for i, f := range hint.Fields {
		builders[i] = array.NewBuilder(f.Type, maxRows)
	}

	rows := 0
	for rows < maxRows {
		fields, err := ch.GetNext(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		for i, f := range hint.Fields {
			text := f.Default
			if i < len(fields) {
				text = fields[i]
			}
			s, err := convertField(f, text)
			if err != nil {
				return nil, fmt.Errorf("xsv: field %q: %w", f.Name, err)
			}
			builders[i].AppendScalar(s)
		}
		rows++
	}
	if rows == 0 {
		return nil, nil
	}

	cols := make([]array.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.Finish()
	}
	return dataset.New(schema, cols)
}

func convertField(f FieldHint, text string) (array.Scalar, error) {
	if text == "" {
		return array.NullScalar(), nil
	}
	switch {
	case f.Type.IsString():
		return array.StringScalar(text), nil
	case f.Type.IsFloat():
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return array.Scalar{}, err
		}
		return array.FloatScalar(array.Float64, v), nil
	case f.Type.IsInteger():
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return array.Scalar{}, err
		}
		return array.IntScalar(array.Int64, v), nil
	case f.Type.IsBoolean():
		v, err := strconv.ParseBool(text)
		if err != nil {
			return array.Scalar{}, err
		}
		return array.BoolScalar(v), nil
	case f.Type.IsTimestamp():
		ms, err := parseTimestampField(f.Format, text)
		if err != nil {
			return array.Scalar{}, err
		}
		return array.IntScalar(array.Timestamp, ms), nil
	}
	return array.Scalar{}, fmt.Errorf("unsupported field type %s", f.Type)
}

func parseTimestampField(format, text string) (int64, error) {
	switch format {
	case "", FormatDateTime:
		t, ok := date.Parse([]byte(text))
		if !ok {
			return 0, fmt.Errorf("invalid date/time format %q", text)
		}
		return t.Unix()*1000 + int64(t.Nanosecond())/1e6, nil
	case FormatDateTimeUnixSec:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return 0, err
		}
		return v * 1000, nil
	case FormatDateTimeUnixMilliSec:
		return strconv.ParseInt(text, 10, 64)
	case FormatDateTimeUnixMicroSec:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return 0, err
		}
		return v / 1000, nil
	}
	return 0, fmt.Errorf("invalid date format %q", format)
}

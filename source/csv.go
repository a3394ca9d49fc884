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

package source

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/sunli829/yql/dataset"
	"github.com/sunli829/yql/xsv"
)

const defaultCSVBatchSize = 10000

// CSVOptions configures the CSV/TSV driver, mirroring the original's
// Options struct (delimiter, header, batch size).
type CSVOptions struct {
	Delimiter byte
	HasHeader bool
	BatchSize int
}

// CSV reads delimited text from a path, applying hint's column
// schema. Its driver state is the count of rows already delivered:
// resuming re-opens the file and skips that many records.
type CSV struct {
	options CSVOptions
	hint    *xsv.Hint
	schema  *dataset.Schema
	path    string
}

// NewCSV constructs a CSV driver reading path with the given options
// and column hint.
func NewCSV(options CSVOptions, hint *xsv.Hint, path string) (*CSV, error) {
	if options.BatchSize <= 0 {
		options.BatchSize = defaultCSVBatchSize
	}
	schema, err := hint.Schema()
	if err != nil {
		return nil, err
	}
	return &CSV{options: options, hint: hint, schema: schema, path: path}, nil
}

func (c *CSV) ProviderName() string    { return "csv" }
func (c *CSV) Schema() *dataset.Schema { return c.schema }

func (c *CSV) Open(state []byte) (Stream, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, err
	}
	skip := 0
	if len(state) == 8 {
		skip = int(binary.BigEndian.Uint64(state))
	}
	chopper := &xsv.CsvChopper{
		SkipRecords: c.hint.SkipRecords + skip,
		Separator:   xsv.Delim(c.options.Delimiter),
	}
	return &csvStream{f: f, chopper: chopper, hint: c.hint, batchSize: c.options.BatchSize, position: skip}, nil
}

type csvStream struct {
	f         *os.File
	chopper   *xsv.CsvChopper
	hint      *xsv.Hint
	batchSize int
	position  int
}

func (s *csvStream) Next() ([]byte, *dataset.DataSet, error) {
	ds, err := xsv.ReadBatch(s.f, s.chopper, s.hint, s.batchSize)
	if err != nil {
		return nil, nil, err
	}
	if ds == nil {
		return nil, nil, io.EOF
	}
	s.position += ds.Len()
	state := make([]byte, 8)
	binary.BigEndian.PutUint64(state, uint64(s.position))
	return state, ds, nil
}

func (s *csvStream) Close() error { return s.f.Close() }

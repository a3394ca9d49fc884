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

package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/sunli829/yql/dataset"
)

// ConsoleDriver writes every output DataSet's rows, one line per row,
// to an io.Writer (stdout for the demonstration CLI).
type ConsoleDriver struct {
	W io.Writer
}

func (d *ConsoleDriver) ProviderName() string { return "console" }

func (d *ConsoleDriver) Create() (Sink, error) {
	return &consoleSink{w: d.W}, nil
}

type consoleSink struct {
	w io.Writer
}

func (s *consoleSink) Send(ds *dataset.DataSet) error {
	fields := ds.Schema().Fields()
	for row := 0; row < ds.Len(); row++ {
		parts := make([]string, len(fields))
		for col, f := range fields {
			parts[col] = f.Name + "=" + ds.Column(col).ScalarAt(row).String()
		}
		if _, err := fmt.Fprintln(s.w, strings.Join(parts, " ")); err != nil {
			return err
		}
	}
	return nil
}

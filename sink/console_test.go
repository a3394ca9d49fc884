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
	"bytes"
	"strings"
	"testing"

	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/dataset"
)

func TestConsoleSinkWritesOneLinePerRow(t *testing.T) {
	schema := dataset.MustNewSchema([]dataset.Field{{Name: "a", Type: array.Int32}})
	b := array.NewPrimitiveBuilder[int32](array.Int32, 2)
	b.Append(1)
	b.Append(2)
	ds := dataset.MustNew(schema, []array.Array{b.Finish()})

	var buf bytes.Buffer
	drv := &ConsoleDriver{W: &buf}
	sk, err := drv.Create()
	if err != nil {
		t.Fatal(err)
	}
	if err := sk.Send(ds); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 || lines[0] != "a=1" || lines[1] != "a=2" {
		t.Fatalf("got %v", lines)
	}
}

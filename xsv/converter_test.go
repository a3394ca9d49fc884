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
	"strings"
	"testing"
)

func testHint(t *testing.T) *Hint {
	t.Helper()
	h, err := ParseHint([]byte(`{
		"skipRecords": 1,
		"fields": [
			{"name": "name", "type": "string"},
			{"name": "age", "type": "int"},
			{"name": "active", "type": "bool"}
		]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestReadBatchCSV(t *testing.T) {
	hint := testHint(t)
	r := strings.NewReader("name,age,active\nalice,30,true\nbob,41,false\n")
	ch := &CsvChopper{SkipRecords: hint.SkipRecords}
	ds, err := ReadBatch(r, ch, hint, 10)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 2 {
		t.Fatalf("got %d rows, want 2", ds.Len())
	}
	if ds.Column(0).ScalarAt(0).Str() != "alice" {
		t.Fatalf("row 0 name = %q", ds.Column(0).ScalarAt(0).Str())
	}
	if ds.Column(1).ScalarAt(1).Int() != 41 {
		t.Fatalf("row 1 age = %d", ds.Column(1).ScalarAt(1).Int())
	}
	if ds.Column(2).ScalarAt(0).Bool() != true {
		t.Fatalf("row 0 active = %v", ds.Column(2).ScalarAt(0).Bool())
	}
}

func TestReadBatchRespectsMaxRows(t *testing.T) {
	hint := testHint(t)
	r := strings.NewReader("name,age,active\na,1,true\nb,2,true\nc,3,true\n")
	ch := &CsvChopper{SkipRecords: hint.SkipRecords}
	ds, err := ReadBatch(r, ch, hint, 2)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 2 {
		t.Fatalf("got %d rows, want 2 (maxRows cap)", ds.Len())
	}
	ds2, err := ReadBatch(r, ch, hint, 2)
	if err != nil {
		t.Fatal(err)
	}
	if ds2.Len() != 1 {
		t.Fatalf("second batch got %d rows, want 1", ds2.Len())
	}
}

func TestReadBatchEmptyAtEOF(t *testing.T) {
	hint := testHint(t)
	r := strings.NewReader("name,age,active\n")
	ch := &CsvChopper{SkipRecords: hint.SkipRecords}
	ds, err := ReadBatch(r, ch, hint, 10)
	if err != nil {
		t.Fatal(err)
	}
	if ds != nil {
		t.Fatalf("expected nil dataset at clean EOF with zero rows, got %v", ds)
	}
}

func TestReadBatchNoHintsErrors(t *testing.T) {
	r := strings.NewReader("a,b\n")
	ch := &CsvChopper{}
	if _, err := ReadBatch(r, ch, nil, 10); err != ErrNoHints {
		t.Fatalf("got %v, want ErrNoHints", err)
	}
}

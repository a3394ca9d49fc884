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

package expr

import (
	"testing"

	"github.com/sunli829/yql/array"
)

func buildStr(vals ...string) array.Array {
	b := array.NewStringBuilder(len(vals))
	for _, v := range vals {
		b.Append(v)
	}
	return b.Finish()
}

func TestCoalesce(t *testing.T) {
	fn, ok := LookupFunc("coalesce")
	if !ok {
		t.Fatal("coalesce not registered")
	}
	a := buildI32WithNull(0, 1, 2)
	b := buildI32(9, 9)
	out, err := fn.Stateless([]array.Array{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if out.ScalarAt(0).Int() != 9 {
		t.Fatalf("row 0 = %d, want 9 (fallback)", out.ScalarAt(0).Int())
	}
	if out.ScalarAt(1).Int() != 2 {
		t.Fatalf("row 1 = %d, want 2 (first non-null)", out.ScalarAt(1).Int())
	}
}

func TestConcat(t *testing.T) {
	fn, ok := LookupFunc("concat")
	if !ok {
		t.Fatal("concat not registered")
	}
	a := buildStr("foo", "bar")
	b := buildStr("-1", "-2")
	out, err := fn.Stateless([]array.Array{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if out.ScalarAt(0).Str() != "foo-1" {
		t.Fatalf("row 0 = %q, want foo-1", out.ScalarAt(0).Str())
	}
	if out.ScalarAt(1).Str() != "bar-2" {
		t.Fatalf("row 1 = %q, want bar-2", out.ScalarAt(1).Str())
	}
}

func TestChr(t *testing.T) {
	fn, ok := LookupFunc("chr")
	if !ok {
		t.Fatal("chr not registered")
	}
	in := buildI32(65, 97)
	out, err := fn.Stateless([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}
	if out.ScalarAt(0).Str() != "A" || out.ScalarAt(1).Str() != "a" {
		t.Fatalf("got %q, %q", out.ScalarAt(0).Str(), out.ScalarAt(1).Str())
	}
}

func TestParseAndFormatTimestamp(t *testing.T) {
	parse, ok := LookupFunc("parse_timestamp")
	if !ok {
		t.Fatal("parse_timestamp not registered")
	}
	in := buildStr("2024-01-02T03:04:05Z")
	tsArr, err := parse.Stateless([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}
	if tsArr.ScalarAt(0).IsNull() {
		t.Fatalf("expected non-null timestamp")
	}

	format, ok := LookupFunc("format_timestamp")
	if !ok {
		t.Fatal("format_timestamp not registered")
	}
	layout := buildStr("%Y-%m-%d")
	out, err := format.Stateless([]array.Array{tsArr, layout})
	if err != nil {
		t.Fatal(err)
	}
	if out.ScalarAt(0).Str() != "2024-01-02" {
		t.Fatalf("got %q, want 2024-01-02", out.ScalarAt(0).Str())
	}
}

func TestTimestampAddSub(t *testing.T) {
	parse, _ := LookupFunc("parse_timestamp")
	in := buildStr("2024-01-01T00:00:00Z")
	tsArr, err := parse.Stateless([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}

	add, ok := LookupFunc("timestamp_add")
	if !ok {
		t.Fatal("timestamp_add not registered")
	}
	unit := buildStr("hour")
	amount := func() array.Array {
		b := array.NewPrimitiveBuilder[int64](array.Int64, 1)
		b.Append(2)
		return b.Finish()
	}()
	out, err := add.Stateless([]array.Array{tsArr, unit, amount})
	if err != nil {
		t.Fatal(err)
	}
	wantAdd := tsArr.ScalarAt(0).Int() + 2*60*60*1000
	if out.ScalarAt(0).Int() != wantAdd {
		t.Fatalf("timestamp_add: got %d, want %d", out.ScalarAt(0).Int(), wantAdd)
	}

	sub, ok := LookupFunc("timestamp_sub")
	if !ok {
		t.Fatal("timestamp_sub not registered")
	}
	out2, err := sub.Stateless([]array.Array{tsArr, unit, amount})
	if err != nil {
		t.Fatal(err)
	}
	wantSub := tsArr.ScalarAt(0).Int() - 2*60*60*1000
	if out2.ScalarAt(0).Int() != wantSub {
		t.Fatalf("timestamp_sub: got %d, want %d", out2.ScalarAt(0).Int(), wantSub)
	}
}

func TestCharLength(t *testing.T) {
	fn, ok := LookupFunc("char_length")
	if !ok {
		t.Fatal("char_length not registered")
	}
	in := buildStr("hello", "héllo", "")
	out, err := fn.Stateless([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}
	if out.ScalarAt(0).Int() != 5 {
		t.Fatalf("row 0 = %d, want 5", out.ScalarAt(0).Int())
	}
	if out.ScalarAt(1).Int() != 5 {
		t.Fatalf("row 1 = %d, want 5 (runes, not bytes)", out.ScalarAt(1).Int())
	}
	if out.ScalarAt(2).Int() != 0 {
		t.Fatalf("row 2 = %d, want 0", out.ScalarAt(2).Int())
	}
}

func TestDateExtract(t *testing.T) {
	parse, _ := LookupFunc("parse_timestamp")
	in := buildStr("2024-03-05T13:00:00Z")
	tsArr, err := parse.Stateless([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}

	extract, ok := LookupFunc("date_extract")
	if !ok {
		t.Fatal("date_extract not registered")
	}

	cases := []struct {
		unit string
		want int64
	}{
		{"year", 2024},
		{"month", 3},
		{"day", 5},
		{"hour", 13},
		{"quarter", 1},
	}
	for _, c := range cases {
		unit := buildStr(c.unit)
		out, err := extract.Stateless([]array.Array{unit, tsArr})
		if err != nil {
			t.Fatalf("date_extract(%s): %v", c.unit, err)
		}
		if got := out.ScalarAt(0).Int(); got != c.want {
			t.Fatalf("date_extract(%s): got %d, want %d", c.unit, got, c.want)
		}
	}
}

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
	"math"
	"testing"

	"github.com/sunli829/yql/array"
)

func buildF64(vals ...float64) array.Array {
	b := array.NewPrimitiveBuilder[float64](array.Float64, len(vals))
	for _, v := range vals {
		b.Append(v)
	}
	return b.Finish()
}

func TestMathFuncSqrt(t *testing.T) {
	fn, ok := LookupFunc("sqrt")
	if !ok {
		t.Fatal("sqrt not registered")
	}
	in := buildF64(4, 9, 16)
	out, err := fn.Stateless([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{2, 3, 4} {
		if got := out.ScalarAt(i).Float(); got != want {
			t.Fatalf("row %d = %v, want %v", i, got, want)
		}
	}
}

func TestMathFuncNullPropagation(t *testing.T) {
	fn, _ := LookupFunc("floor")
	b := array.NewPrimitiveBuilder[float64](array.Float64, 2)
	b.Append(1.5)
	b.AppendNull()
	in := b.Finish()
	out, err := fn.Stateless([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}
	if out.ScalarAt(0).Float() != 1 {
		t.Fatalf("row 0 = %v, want 1", out.ScalarAt(0).Float())
	}
	if !out.ScalarAt(1).IsNull() {
		t.Fatalf("row 1 should be null")
	}
}

func TestMathFuncSignum(t *testing.T) {
	fn, _ := LookupFunc("signum")
	in := buildF64(-5, 0, 5)
	out, err := fn.Stateless([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{-1, 0, 1} {
		if got := out.ScalarAt(i).Float(); got != want {
			t.Fatalf("row %d = %v, want %v", i, got, want)
		}
	}
}

func TestMathFuncScalarPreservation(t *testing.T) {
	fn, _ := LookupFunc("exp")
	in := array.NewScalarArray[float64](array.Float64, 3, 0, true)
	out, err := fn.Stateless([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}
	s, ok := out.ToScalar()
	if !ok {
		t.Fatalf("expected scalar-preserved result")
	}
	if math.Abs(s.Float()-1) > 1e-9 {
		t.Fatalf("exp(0) = %v, want 1", s.Float())
	}
}

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

func TestSumRunningAcrossBatches(t *testing.T) {
	fn, ok := LookupFunc("sum")
	if !ok {
		t.Fatal("sum not registered")
	}
	state := fn.Stateful()

	out1, err := state.Call([]array.Array{buildI32(1, 2, 3)})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{1, 3, 6} {
		if got := out1.ScalarAt(i).Float(); got != want {
			t.Fatalf("batch1 row %d = %v, want %v", i, got, want)
		}
	}

	out2, err := state.Call([]array.Array{buildI32(4)})
	if err != nil {
		t.Fatal(err)
	}
	if got := out2.ScalarAt(0).Float(); got != 10 {
		t.Fatalf("batch2 row 0 = %v, want 10 (running across batches)", got)
	}
}

func TestAvgRunning(t *testing.T) {
	fn, _ := LookupFunc("avg")
	state := fn.Stateful()
	out, err := state.Call([]array.Array{buildI32(2, 4, 6)})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{2, 3, 4} {
		if got := out.ScalarAt(i).Float(); got != want {
			t.Fatalf("row %d = %v, want %v", i, got, want)
		}
	}
}

func TestSumAvgLeadingNullUsesRunningState(t *testing.T) {
	sumFn, _ := LookupFunc("sum")
	sum := sumFn.Stateful()
	in := buildI32WithNull(0, 0, 10, 20)
	out, err := sum.Call([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float64{0, 10, 30} {
		if got := out.ScalarAt(i).Float(); got != want {
			t.Fatalf("sum row %d = %v, want %v", i, got, want)
		}
	}

	avgFn, _ := LookupFunc("avg")
	avg := avgFn.Stateful()
	out2, err := avg.Call([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}
	if got := out2.ScalarAt(0).Float(); !math.IsNaN(got) {
		t.Fatalf("avg row 0 (before any non-null value) = %v, want NaN", got)
	}
	for i, want := range []float64{10, 15} {
		if got := out2.ScalarAt(i + 1).Float(); got != want {
			t.Fatalf("avg row %d = %v, want %v", i+1, got, want)
		}
	}
}

func TestCountSkipsNulls(t *testing.T) {
	fn, _ := LookupFunc("count")
	state := fn.Stateful()
	in := buildI32WithNull(1, 10, 20)
	out, err := state.Call([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}
	if out.ScalarAt(0).Int() != 1 || out.ScalarAt(1).Int() != 1 {
		t.Fatalf("null row should not increment count: %v, %v", out.ScalarAt(0).Int(), out.ScalarAt(1).Int())
	}
}

func TestMaxMinRunning(t *testing.T) {
	maxFn, _ := LookupFunc("max")
	state := maxFn.Stateful()
	out, err := state.Call([]array.Array{buildI32(3, 1, 5, 2)})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int64{3, 3, 5, 5} {
		if got := out.ScalarAt(i).Int(); got != want {
			t.Fatalf("max row %d = %d, want %d", i, got, want)
		}
	}

	minFn, _ := LookupFunc("min")
	minState := minFn.Stateful()
	out2, err := minState.Call([]array.Array{buildI32(3, 1, 5, 2)})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int64{3, 1, 1, 1} {
		if got := out2.ScalarAt(i).Int(); got != want {
			t.Fatalf("min row %d = %d, want %d", i, got, want)
		}
	}
}

func TestFirstLast(t *testing.T) {
	firstFn, _ := LookupFunc("first")
	first := firstFn.Stateful()
	out, err := first.Call([]array.Array{buildI32(7, 8, 9)})
	if err != nil {
		t.Fatal(err)
	}
	for i := range []int{0, 1, 2} {
		if got := out.ScalarAt(i).Int(); got != 7 {
			t.Fatalf("first row %d = %d, want 7", i, got)
		}
	}

	lastFn, _ := LookupFunc("last")
	last := lastFn.Stateful()
	out2, err := last.Call([]array.Array{buildI32(7, 8, 9)})
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []int64{7, 8, 9} {
		if got := out2.ScalarAt(i).Int(); got != want {
			t.Fatalf("last row %d = %d, want %d", i, got, want)
		}
	}
}

func TestVarianceAndStddevWelford(t *testing.T) {
	varFn, _ := LookupFunc("variance")
	state := varFn.Stateful()
	in := buildF64(2, 4, 4, 4, 5, 5, 7, 9)
	out, err := state.Call([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}
	// sample variance of the whole population is 4.571428...
	last := out.ScalarAt(in.Len() - 1).Float()
	if math.Abs(last-4.571428571428571) > 1e-9 {
		t.Fatalf("variance = %v, want ~4.571428571428571", last)
	}

	stdFn, _ := LookupFunc("stddev")
	stdState := stdFn.Stateful()
	out2, err := stdState.Call([]array.Array{in})
	if err != nil {
		t.Fatal(err)
	}
	wantStd := math.Sqrt(4.571428571428571)
	if got := out2.ScalarAt(in.Len() - 1).Float(); math.Abs(got-wantStd) > 1e-9 {
		t.Fatalf("stddev = %v, want %v", got, wantStd)
	}
}

func TestLagReturnsPreviousRow(t *testing.T) {
	fn, ok := LookupFunc("lag")
	if !ok {
		t.Fatal("lag not registered")
	}
	state := fn.Stateful()
	out, err := state.Call([]array.Array{buildI32(1, 2, 3)})
	if err != nil {
		t.Fatal(err)
	}
	if !out.ScalarAt(0).IsNull() {
		t.Fatalf("first row should be null")
	}
	if out.ScalarAt(1).Int() != 1 || out.ScalarAt(2).Int() != 2 {
		t.Fatalf("got %d, %d", out.ScalarAt(1).Int(), out.ScalarAt(2).Int())
	}

	out2, err := state.Call([]array.Array{buildI32(4)})
	if err != nil {
		t.Fatal(err)
	}
	if out2.ScalarAt(0).Int() != 3 {
		t.Fatalf("lag across batches: got %d, want 3", out2.ScalarAt(0).Int())
	}
}

func TestAggregateStateRoundTrip(t *testing.T) {
	fn, _ := LookupFunc("sum")
	a := fn.Stateful()
	if _, err := a.Call([]array.Array{buildI32(1, 2, 3)}); err != nil {
		t.Fatal(err)
	}
	data, err := a.SaveState()
	if err != nil {
		t.Fatal(err)
	}

	b := fn.Stateful()
	if err := b.LoadState(data); err != nil {
		t.Fatal(err)
	}
	out, err := b.Call([]array.Array{buildI32(4)})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.ScalarAt(0).Float(); got != 10 {
		t.Fatalf("after state restore, sum row 0 = %v, want 10", got)
	}
}

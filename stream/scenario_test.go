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

package stream

import (
	"context"
	"testing"

	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/dataset"
	"github.com/sunli829/yql/expr"
	"github.com/sunli829/yql/plan"
	"github.com/sunli829/yql/sink"
	"github.com/sunli829/yql/source"
	"github.com/sunli829/yql/window"
)

// captureSink records every DataSet handed to it, in order.
type captureSink struct {
	batches []*dataset.DataSet
}

func (s *captureSink) Send(ds *dataset.DataSet) error {
	s.batches = append(s.batches, ds)
	return nil
}

type captureSinkDriver struct{ sink *captureSink }

func (d *captureSinkDriver) ProviderName() string   { return "capture" }
func (d *captureSinkDriver) Create() (sink.Sink, error) { return d.sink, nil }

func intCol(dt array.DataType, vals ...int64) array.Array {
	b := array.NewBuilder(dt, len(vals))
	for _, v := range vals {
		b.AppendScalar(array.IntScalar(dt, v))
	}
	return b.Finish()
}

func stringCol(vals ...string) array.Array {
	b := array.NewBuilder(array.String, len(vals))
	for _, v := range vals {
		b.AppendScalar(array.StringScalar(v))
	}
	return b.Finish()
}

func colInts(t *testing.T, ds *dataset.DataSet, name string) []int64 {
	t.Helper()
	idx := ds.Schema().IndexOf("", name)
	if idx < 0 {
		t.Fatalf("no column %q in %v", name, ds.Schema().Fields())
	}
	col := ds.Column(idx)
	out := make([]int64, col.Len())
	for i := range out {
		if col.DataType().IsFloat() {
			out[i] = int64(col.ScalarAt(i).Float())
			continue
		}
		out[i] = col.ScalarAt(i).Int()
	}
	return out
}

func colStrings(t *testing.T, ds *dataset.DataSet, name string) []string {
	t.Helper()
	idx := ds.Schema().IndexOf("", name)
	if idx < 0 {
		t.Fatalf("no column %q in %v", name, ds.Schema().Fields())
	}
	col := ds.Column(idx)
	out := make([]string, col.Len())
	for i := range out {
		out[i] = col.ScalarAt(i).Str()
	}
	return out
}

func runToCompletion(t *testing.T, lp plan.LogicalPlan) (*captureSink, *DataStream) {
	t.Helper()
	lowered, err := plan.Lower(lp)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	capture := &captureSink{}
	d, err := NewDataStream(lowered, &captureSinkDriver{sink: capture})
	if err != nil {
		t.Fatalf("NewDataStream: %v", err)
	}
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return capture, d
}

// S1: filter then projection, no time involved.
func TestS1FilterAndProjection(t *testing.T) {
	schema := dataset.MustNewSchema([]dataset.Field{{Name: "a", Type: array.Int32}})
	batch1 := dataset.MustNew(schema, []array.Array{intCol(array.Int32, 1, 2, 3)})
	batch2 := dataset.MustNew(schema, []array.Array{intCol(array.Int32, 4, 5)})
	driver := source.NewTestHarness(schema, []*dataset.DataSet{batch1, batch2})

	lp := &plan.Projection{
		Input: &plan.Filter{
			Input: &plan.Source{Driver: driver},
			Expr: plan.Binary{
				Op:  expr.Gt,
				LHS: plan.Column{Name: "a"},
				RHS: plan.Lit{Value: expr.LiteralInt(2)},
			},
		},
		Exprs: []plan.NamedExpr{{
			Name: "b",
			Expr: plan.Binary{Op: expr.Plus, LHS: plan.Column{Name: "a"}, RHS: plan.Lit{Value: expr.LiteralInt(10)}},
		}},
	}

	capture, _ := runToCompletion(t, lp)
	if len(capture.batches) != 2 {
		t.Fatalf("got %d output batches, want 2", len(capture.batches))
	}
	if got := colInts(t, capture.batches[0], "b"); len(got) != 1 || got[0] != 13 {
		t.Fatalf("batch 1: got %v, want [13]", got)
	}
	if got := colInts(t, capture.batches[1], "b"); len(got) != 2 || got[0] != 14 || got[1] != 15 {
		t.Fatalf("batch 2: got %v, want [14 15]", got)
	}
}

// S2: a scalar-layout column times a scalar-layout column stays
// scalar, with the right length and value.
func TestS2ScalarPreservation(t *testing.T) {
	schema := dataset.MustNewSchema([]dataset.Field{
		{Name: "x", Type: array.Int32},
		{Name: "y", Type: array.Int32},
	})
	x := array.NewScalarArrayOf(array.Int32, 3, array.IntScalar(array.Int32, 5))
	y := array.NewScalarArrayOf(array.Int32, 3, array.IntScalar(array.Int32, 7))
	batch := dataset.MustNew(schema, []array.Array{x, y})
	driver := source.NewTestHarness(schema, []*dataset.DataSet{batch})

	lp := &plan.Projection{
		Input: &plan.Source{Driver: driver},
		Exprs: []plan.NamedExpr{{
			Name: "z",
			Expr: plan.Binary{Op: expr.Multiply, LHS: plan.Column{Name: "x"}, RHS: plan.Column{Name: "y"}},
		}},
	}

	capture, _ := runToCompletion(t, lp)
	if len(capture.batches) != 1 {
		t.Fatalf("got %d output batches, want 1", len(capture.batches))
	}
	out := capture.batches[0]
	if out.Len() != 3 {
		t.Fatalf("got length %d, want 3", out.Len())
	}
	idx := out.Schema().IndexOf("", "z")
	col := out.Column(idx)
	s, ok := col.ToScalar()
	if !ok {
		t.Fatalf("expected z to stay scalar-layout")
	}
	if s.Int() != 35 {
		t.Fatalf("got z=%d, want 35", s.Int())
	}
}

func timeSchemaInt64(valueField string) *dataset.Schema {
	return dataset.MustNewSchema([]dataset.Field{
		{Name: valueField, Type: array.Int64},
		{Name: "t", Type: array.Timestamp},
	})
}

func timeBatch(schema *dataset.Schema, values, times []int64) *dataset.DataSet {
	return dataset.MustNew(schema, []array.Array{
		intCol(array.Int64, values...),
		intCol(array.Timestamp, times...),
	})
}

func sumAggregate(input plan.LogicalPlan, win window.Window) *plan.Aggregate {
	return &plan.Aggregate{
		Input: input,
		AggrExprs: []plan.NamedExpr{{
			Name: "total",
			Expr: plan.Call{Name: "sum", Args: []plan.LogicalExpr{plan.Column{Name: "v"}}},
		}},
		Window: win,
	}
}

// S3: a fixed window sums values, emitting closed windows and leaving
// the open one behind.
func TestS3FixedWindowSum(t *testing.T) {
	schema := timeSchemaInt64("v")
	batch1 := timeBatch(schema, []int64{10, 20, 30, 40}, []int64{0, 500, 1500, 2500})
	batch2 := timeBatch(schema, []int64{0}, []int64{3000})
	driver := source.NewTestHarness(schema, []*dataset.DataSet{batch1, batch2})

	lp := sumAggregate(&plan.Source{Driver: driver, TimeExpr: plan.Column{Name: "t"}}, window.Fixed(1000))

	capture, _ := runToCompletion(t, lp)
	if len(capture.batches) != 2 {
		t.Fatalf("got %d output batches, want 2 (one closed during ingest, one flushed at EOF)", len(capture.batches))
	}
	if got := colInts(t, capture.batches[0], "total"); len(got) != 2 || got[0] != 30 || got[1] != 30 {
		t.Fatalf("got %v, want [30 30]", got)
	}
	if got := colInts(t, capture.batches[0], "@time"); len(got) != 2 || got[0] != 0 || got[1] != 1000 {
		t.Fatalf("got window starts %v, want [0 1000]", got)
	}
	if got := colInts(t, capture.batches[1], "total"); len(got) != 2 || got[0] != 40 || got[1] != 0 {
		t.Fatalf("got %v, want [40 0] (windows flushed at EOF)", got)
	}
	if got := colInts(t, capture.batches[1], "@time"); len(got) != 2 || got[0] != 2000 || got[1] != 3000 {
		t.Fatalf("got window starts %v, want [2000 3000]", got)
	}
}

// S4: the watermark established by an earlier batch drops a later
// batch's late row.
func TestS4WatermarkDropsLateData(t *testing.T) {
	schema := timeSchemaInt64("v")
	b1 := timeBatch(schema, []int64{1}, []int64{0})
	b2 := timeBatch(schema, []int64{2}, []int64{2000})
	b3 := timeBatch(schema, []int64{3}, []int64{500})
	driver := source.NewTestHarness(schema, []*dataset.DataSet{b1, b2, b3})

	lp := &plan.Filter{
		Input: &plan.Source{Driver: driver, TimeExpr: plan.Column{Name: "t"}},
		Expr:  plan.Binary{Op: expr.GtEq, LHS: plan.Column{Name: "v"}, RHS: plan.Lit{Value: expr.LiteralInt(0)}},
	}
	lowered, err := plan.Lower(lp)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	capture := &captureSink{}
	d, err := NewDataStream(lowered, &captureSinkDriver{sink: capture})
	if err != nil {
		t.Fatalf("NewDataStream: %v", err)
	}
	if err := d.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var seen []int64
	for _, b := range capture.batches {
		seen = append(seen, colInts(t, b, "v")...)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("got %v, want [1 2] (row 3 dropped as late)", seen)
	}
}

// S5: group-by count within a fixed window, groups ordered by first
// appearance.
func TestS5GroupByCount(t *testing.T) {
	schema := dataset.MustNewSchema([]dataset.Field{
		{Name: "k", Type: array.String},
		{Name: "t", Type: array.Timestamp},
	})
	batch := dataset.MustNew(schema, []array.Array{
		stringCol("a", "b", "a", "a"),
		intCol(array.Timestamp, 0, 100, 200, 3000),
	})
	driver := source.NewTestHarness(schema, []*dataset.DataSet{batch})

	lp := &plan.Aggregate{
		Input:      &plan.Source{Driver: driver, TimeExpr: plan.Column{Name: "t"}},
		GroupExprs: []plan.NamedExpr{{Name: "k", Expr: plan.Column{Name: "k"}}},
		AggrExprs: []plan.NamedExpr{{
			Name: "count",
			Expr: plan.Call{Name: "count", Args: []plan.LogicalExpr{plan.Column{Name: "k"}}},
		}},
		Window: window.Fixed(1000),
	}

	capture, _ := runToCompletion(t, lp)
	if len(capture.batches) != 2 {
		t.Fatalf("got %d output batches, want 2 (window [0,1000) closed during ingest, [3000,4000) flushed at EOF)", len(capture.batches))
	}
	out := capture.batches[0]
	keys := colStrings(t, out, "k")
	counts := colInts(t, out, "count")
	times := colInts(t, out, "@time")
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("got keys %v, want [a b]", keys)
	}
	if counts[0] != 2 || counts[1] != 1 {
		t.Fatalf("got counts %v, want [2 1]", counts)
	}
	if times[0] != 0 || times[1] != 0 {
		t.Fatalf("got @time %v, want [0 0]", times)
	}

	flushed := capture.batches[1]
	if got := colStrings(t, flushed, "k"); len(got) != 1 || got[0] != "a" {
		t.Fatalf("got flushed keys %v, want [a]", got)
	}
	if got := colInts(t, flushed, "count"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("got flushed counts %v, want [1]", got)
	}
	if got := colInts(t, flushed, "@time"); len(got) != 1 || got[0] != 3000 {
		t.Fatalf("got flushed @time %v, want [3000]", got)
	}
}

// S6: a checkpoint taken mid-stream, then restored into a fresh
// pipeline fed the remaining input, reproduces the uninterrupted run.
func TestS6CheckpointResume(t *testing.T) {
	schema := timeSchemaInt64("v")
	batch1 := timeBatch(schema, []int64{10, 20, 30, 40}, []int64{0, 500, 1500, 2500})
	batch2 := timeBatch(schema, []int64{0}, []int64{3000})

	fullDriver := source.NewTestHarness(schema, []*dataset.DataSet{batch1, batch2})
	fullLp := sumAggregate(&plan.Source{Driver: fullDriver, TimeExpr: plan.Column{Name: "t"}}, window.Fixed(1000))
	wantCapture, _ := runToCompletion(t, fullLp)

	splitDriver := source.NewTestHarness(schema, []*dataset.DataSet{batch1, batch2})
	splitLp := sumAggregate(&plan.Source{Driver: splitDriver, TimeExpr: plan.Column{Name: "t"}}, window.Fixed(1000))
	lowered, err := plan.Lower(splitLp)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	firstCapture := &captureSink{}
	first, err := NewDataStream(lowered, &captureSinkDriver{sink: firstCapture})
	if err != nil {
		t.Fatalf("NewDataStream: %v", err)
	}
	ds1, wm1, err := first.source.Pull()
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if err := first.push([]*dataset.DataSet{ds1}, first.ops, wm1); err != nil {
		t.Fatalf("push: %v", err)
	}

	state, err := first.Checkpoint(context.Background(), false)
	if err != nil {
		t.Fatalf("Checkpoint: %v", err)
	}

	resumeDriver := source.NewTestHarness(schema, []*dataset.DataSet{batch1, batch2})
	resumeLp := sumAggregate(&plan.Source{Driver: resumeDriver, TimeExpr: plan.Column{Name: "t"}}, window.Fixed(1000))
	resumeLowered, err := plan.Lower(resumeLp)
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	resumeCapture := &captureSink{}
	second, err := NewDataStream(resumeLowered, &captureSinkDriver{sink: resumeCapture})
	if err != nil {
		t.Fatalf("NewDataStream: %v", err)
	}
	if err := second.Restore(state); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if err := second.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	combined := append(append([]*dataset.DataSet{}, firstCapture.batches...), resumeCapture.batches...)
	if len(wantCapture.batches) != len(combined) {
		t.Fatalf("got %d batches across the split run, want %d", len(combined), len(wantCapture.batches))
	}
	for i := range wantCapture.batches {
		if !wantCapture.batches[i].Equal(combined[i]) {
			t.Fatalf("batch %d differs after resume: got %v, want %v", i, combined[i], wantCapture.batches[i])
		}
	}
}

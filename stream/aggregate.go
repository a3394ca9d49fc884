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
	"fmt"
	"sort"

	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/dataset"
	"github.com/sunli829/yql/expr"
	"github.com/sunli829/yql/plan"
	"github.com/sunli829/yql/wire"
	"github.com/sunli829/yql/window"
)

// groupState is one group-by key's running aggregate state within a
// single window: the key's own output values, a clone of every
// aggregate expression (so each group accumulates independently), and
// the most recently computed value of each.
type groupState struct {
	keyValues []array.Scalar
	aggrExprs []*expr.Expr
	values    []array.Scalar
}

// windowState tracks every group seen so far within one [start, end)
// window.
type windowState struct {
	start, end int64
	groups     *groupIndex
}

// Aggregate buckets rows into windows and group-by keys, maintains a
// running accumulator per (window, key) pair, and emits a window's
// groups once the watermark passes its end (spec.md §4.7).
type Aggregate struct {
	id            int
	groupExprs    []plan.NamedPhysicalExpr
	aggrExprs     []plan.NamedPhysicalExpr
	win           window.Window
	schema        *dataset.Schema
	timeColIndex  int
	watermarkExpr *expr.Expr

	currentWatermark int64
	windows          map[int64]*windowState
}

func NewAggregate(pp *plan.PhysicalPlan) (*Aggregate, error) {
	if pp.Kind != plan.KindAggregate {
		return nil, &StateError{Msg: "NewAggregate given a non-aggregate physical plan node"}
	}
	timeIdx := pp.Input.Schema.IndexOf("", dataset.ReservedTimeField)
	if timeIdx < 0 {
		return nil, &StateError{Msg: "aggregate input schema is missing @time"}
	}
	return &Aggregate{
		id:            pp.ID,
		groupExprs:    pp.GroupExprs,
		aggrExprs:     pp.AggrExprs,
		win:           pp.Window,
		schema:        pp.Schema,
		timeColIndex:  timeIdx,
		watermarkExpr: pp.WatermarkExpr,
		windows:       make(map[int64]*windowState),
	}, nil
}

// evalWatermark returns the operator's own watermark column, reusing
// the @time column when no watermark expression was configured
// (spec.md §4.7 Inputs; aggregate.rs's process_watermark does the same
// independent of whatever watermark its upstream forwarded).
func (a *Aggregate) evalWatermark(ds *dataset.DataSet, timeCol array.Array) (array.Array, error) {
	if a.watermarkExpr != nil {
		return a.watermarkExpr.Eval(ds)
	}
	return timeCol, nil
}

func (a *Aggregate) ID() int { return a.id }

func (a *Aggregate) cloneAggrExprs() []*expr.Expr {
	out := make([]*expr.Expr, len(a.aggrExprs))
	for i, ne := range a.aggrExprs {
		out[i] = ne.Expr.Clone()
	}
	return out
}

func (a *Aggregate) newGroupState(keyValues []array.Scalar) *groupState {
	return &groupState{
		keyValues: keyValues,
		aggrExprs: a.cloneAggrExprs(),
		values:    make([]array.Scalar, len(a.aggrExprs)),
	}
}

func (a *Aggregate) windowFor(span window.Span) *windowState {
	ws, ok := a.windows[span.Start]
	if !ok {
		ws = &windowState{start: span.Start, end: span.End, groups: newGroupIndex()}
		a.windows[span.Start] = ws
	}
	return ws
}

// rowBucket accumulates, in row order, the input rows of the current
// Process call that belong to one (window, group) pair.
type rowBucket struct {
	gs   *groupState
	rows []int
}

// Process implements steps A-C of spec.md §4.7: drop late rows against
// the operator's own watermark, bucket every surviving row of ds by
// window and group-by key (steps A, B), then update each bucket's
// aggregate accumulators with its new rows (step C). Step D (emitting
// closed windows) runs after every update, driven by watermark.
func (a *Aggregate) Process(ds *dataset.DataSet, watermark int64) ([]*dataset.DataSet, error) {
	timeCol := ds.Column(a.timeColIndex)
	watermarkCol, err := a.evalWatermark(ds, timeCol)
	if err != nil {
		return nil, fmt.Errorf("stream: aggregate watermark: %w", err)
	}

	// Late rows (t_r below current_watermark) are dropped (spec.md
	// §4.7 Step A), advancing current_watermark row by row exactly as
	// Source does; the watermark forwarded by upstream is then folded in
	// as an additional floor.
	keep := make([]int, 0, ds.Len())
	for i := 0; i < timeCol.Len(); i++ {
		t := timeCol.ScalarAt(i)
		if t.IsNull() {
			continue
		}
		if t.Int() >= a.currentWatermark {
			keep = append(keep, i)
		}
		w := watermarkCol.ScalarAt(i)
		rowWatermark := t.Int()
		if !w.IsNull() {
			rowWatermark = w.Int()
		}
		if rowWatermark > a.currentWatermark {
			a.currentWatermark = rowWatermark
		}
	}
	if watermark > a.currentWatermark {
		a.currentWatermark = watermark
	}
	if len(keep) != ds.Len() {
		ds = ds.Take(keep)
		timeCol = array.Take(timeCol, keep)
	}

	groupCols := make([]array.Array, len(a.groupExprs))
	for i, ne := range a.groupExprs {
		col, err := ne.Expr.Eval(ds)
		if err != nil {
			return nil, fmt.Errorf("stream: aggregate group column %q: %w", ne.Name, err)
		}
		groupCols[i] = col
	}

	buckets := make(map[*windowState]map[string]*rowBucket)
	for i := 0; i < ds.Len(); i++ {
		t := timeCol.ScalarAt(i)
		if t.IsNull() {
			continue
		}
		keyValues := make([]array.Scalar, len(groupCols))
		for j, c := range groupCols {
			keyValues[j] = c.ScalarAt(i)
		}
		key := string(encodeGroupKey(keyValues))

		for _, span := range a.win.Windows(t.Int()) {
			ws := a.windowFor(span)
			gs := ws.groups.getOrCreate([]byte(key), func() *groupState { return a.newGroupState(keyValues) })

			byKey, ok := buckets[ws]
			if !ok {
				byKey = make(map[string]*rowBucket)
				buckets[ws] = byKey
			}
			b, ok := byKey[key]
			if !ok {
				b = &rowBucket{gs: gs}
				byKey[key] = b
			}
			b.rows = append(b.rows, i)
		}
	}

	for _, byKey := range buckets {
		for _, b := range byKey {
			rows := ds.Take(b.rows)
			for j, ne := range a.aggrExprs {
				result, err := b.gs.aggrExprs[j].Eval(rows)
				if err != nil {
					return nil, fmt.Errorf("stream: aggregate column %q: %w", ne.Name, err)
				}
				b.gs.values[j] = result.ScalarAt(result.Len() - 1)
			}
		}
	}

	return a.emit(), nil
}

// emit removes and materializes every window whose end has fully
// passed the watermark, in ascending start order, per spec.md §4.7's
// emission rule and its group-order invariant.
func (a *Aggregate) emit() []*dataset.DataSet {
	var ready []*windowState
	for _, ws := range a.windows {
		if ws.end < a.currentWatermark {
			ready = append(ready, ws)
		}
	}
	if len(ready) == 0 {
		return nil
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].start < ready[j].start })
	for _, ws := range ready {
		delete(a.windows, ws.start)
	}
	return []*dataset.DataSet{a.buildOutput(ready)}
}

// flush forces emission of every outstanding window regardless of
// watermark, for use when the upstream source is exhausted.
func (a *Aggregate) flush() []*dataset.DataSet {
	if len(a.windows) == 0 {
		return nil
	}
	all := make([]*windowState, 0, len(a.windows))
	for _, ws := range a.windows {
		all = append(all, ws)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].start < all[j].start })
	for _, ws := range all {
		delete(a.windows, ws.start)
	}
	return []*dataset.DataSet{a.buildOutput(all)}
}

func (a *Aggregate) buildOutput(windows []*windowState) *dataset.DataSet {
	fields := a.schema.Fields()
	nGroup := len(a.groupExprs)
	nAggr := len(a.aggrExprs)

	builders := make([]array.Builder, len(fields))
	for i, f := range fields {
		builders[i] = array.NewBuilder(f.Type, 0)
	}
	for _, ws := range windows {
		timeValue := array.IntScalar(array.Timestamp, ws.start)
		for _, gs := range ws.groups.InOrder() {
			for i := 0; i < nGroup; i++ {
				builders[i].AppendScalar(gs.keyValues[i])
			}
			for i := 0; i < nAggr; i++ {
				builders[nGroup+i].AppendScalar(gs.values[i])
			}
			builders[nGroup+nAggr].AppendScalar(timeValue)
		}
	}
	cols := make([]array.Array, len(builders))
	for i, b := range builders {
		cols[i] = b.Finish()
	}
	return dataset.MustNew(a.schema, cols)
}

// Checkpoint serializes {current_watermark, watermark_expr_state,
// group_expr_state[], windows: [(start, end, [(key, aggr_expr_state[],
// values[])])]}, with windows sorted by start and groups in each
// window kept in their tracked insertion order, so two checkpoints of
// identical state are byte-identical (spec.md §4.7).
func (a *Aggregate) Checkpoint() ([]byte, error) {
	var b wire.Buffer
	b.WriteVarint(a.currentWatermark)
	if err := writeExprState(&b, a.watermarkExpr); err != nil {
		return nil, err
	}
	for _, ne := range a.groupExprs {
		if err := writeExprState(&b, ne.Expr); err != nil {
			return nil, err
		}
	}

	starts := make([]int64, 0, len(a.windows))
	for start := range a.windows {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	b.WriteUvarint(uint64(len(starts)))
	for _, start := range starts {
		ws := a.windows[start]
		b.WriteVarint(ws.start)
		b.WriteVarint(ws.end)
		groups := ws.groups.InOrder()
		keys := ws.groups.keys()
		b.WriteUvarint(uint64(len(groups)))
		for i, gs := range groups {
			b.WriteBytes(keys[i])
			for _, v := range gs.keyValues {
				wire.WriteScalar(&b, v)
			}
			for _, ex := range gs.aggrExprs {
				if err := writeExprState(&b, ex); err != nil {
					return nil, err
				}
			}
			for _, v := range gs.values {
				wire.WriteScalar(&b, v)
			}
		}
	}
	return b.Bytes(), nil
}

func (a *Aggregate) Restore(state []byte) error {
	r := wire.NewReader(state)
	wm, err := r.ReadVarint()
	if err != nil {
		return err
	}
	if err := readExprState(r, a.watermarkExpr); err != nil {
		return err
	}
	for _, ne := range a.groupExprs {
		if err := readExprState(r, ne.Expr); err != nil {
			return err
		}
	}

	nWindows, err := r.ReadUvarint()
	if err != nil {
		return err
	}
	windows := make(map[int64]*windowState, nWindows)
	for i := uint64(0); i < nWindows; i++ {
		start, err := r.ReadVarint()
		if err != nil {
			return err
		}
		end, err := r.ReadVarint()
		if err != nil {
			return err
		}
		nGroups, err := r.ReadUvarint()
		if err != nil {
			return err
		}
		ws := &windowState{start: start, end: end, groups: newGroupIndex()}
		for j := uint64(0); j < nGroups; j++ {
			key, err := r.ReadBytes()
			if err != nil {
				return err
			}
			key = append([]byte(nil), key...)

			keyValues := make([]array.Scalar, len(a.groupExprs))
			for k := range keyValues {
				v, err := wire.ReadScalar(r)
				if err != nil {
					return err
				}
				keyValues[k] = v
			}
			aggrExprs := a.cloneAggrExprs()
			for k := range aggrExprs {
				if err := readExprState(r, aggrExprs[k]); err != nil {
					return err
				}
			}
			values := make([]array.Scalar, len(a.aggrExprs))
			for k := range values {
				v, err := wire.ReadScalar(r)
				if err != nil {
					return err
				}
				values[k] = v
			}
			gs := &groupState{keyValues: keyValues, aggrExprs: aggrExprs, values: values}
			ws.groups.getOrCreate(key, func() *groupState { return gs })
		}
		windows[start] = ws
	}

	a.currentWatermark = wm
	a.windows = windows
	return nil
}

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
	"time"

	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/dataset"
	"github.com/sunli829/yql/expr"
	"github.com/sunli829/yql/plan"
	"github.com/sunli829/yql/source"
	"github.com/sunli829/yql/wire"
)

// Source drives a source.Driver: per batch it derives event time and
// watermark, drops rows that arrive late, and appends the reserved
// @time column (spec.md §4.4).
type Source struct {
	id            int
	driver        source.Driver
	timeExpr      *expr.Expr
	watermarkExpr *expr.Expr
	schema        *dataset.Schema

	stream           source.Stream
	driverState      []byte
	currentWatermark int64
}

// NewSource builds a Source operator from a lowered Source
// PhysicalPlan and opens its driver stream from the beginning.
func NewSource(pp *plan.PhysicalPlan) (*Source, error) {
	if pp.Kind != plan.KindSource {
		return nil, &StateError{Msg: "NewSource given a non-source physical plan node"}
	}
	s := &Source{
		id:            pp.ID,
		driver:        pp.Driver,
		timeExpr:      pp.TimeExpr,
		watermarkExpr: pp.WatermarkExpr,
		schema:        pp.Schema,
	}
	st, err := s.driver.Open(nil)
	if err != nil {
		return nil, err
	}
	s.stream = st
	return s, nil
}

func (s *Source) ID() int { return s.id }

// Pull reads the next batch, computes its time/watermark columns,
// drops late rows against the running watermark, and appends @time.
// It returns io.EOF (unwrapped, from the underlying source.Stream)
// once the driver is exhausted.
func (s *Source) Pull() (*dataset.DataSet, int64, error) {
	state, ds, err := s.stream.Next()
	if err != nil {
		return nil, 0, err
	}
	s.driverState = state

	timeCol, err := s.evalTime(ds)
	if err != nil {
		return nil, 0, err
	}
	watermarkCol, err := s.evalWatermark(ds, timeCol)
	if err != nil {
		return nil, 0, err
	}

	// Advance the watermark row by row and test each row against the
	// watermark as it stood before that row, so an in-order batch
	// never drops its own earlier rows (original_source's
	// process_dataset advances per row for the same reason). A null
	// watermark for a present row falls back to that row's own time.
	keep := make([]int, 0, ds.Len())
	for i := 0; i < timeCol.Len(); i++ {
		t := timeCol.ScalarAt(i)
		if t.IsNull() {
			continue
		}
		if t.Int() >= s.currentWatermark {
			keep = append(keep, i)
		}
		w := watermarkCol.ScalarAt(i)
		rowWatermark := t.Int()
		if !w.IsNull() {
			rowWatermark = w.Int()
		}
		if rowWatermark > s.currentWatermark {
			s.currentWatermark = rowWatermark
		}
	}

	rows := ds
	times := timeCol
	if len(keep) != ds.Len() {
		rows = ds.Take(keep)
		times = array.Take(timeCol, keep)
	}

	cols := make([]array.Array, len(rows.Columns())+1)
	copy(cols, rows.Columns())
	cols[len(cols)-1] = times
	out, err := dataset.New(s.schema, cols)
	if err != nil {
		return nil, 0, err
	}
	return out, s.currentWatermark, nil
}

func (s *Source) evalTime(ds *dataset.DataSet) (array.Array, error) {
	if s.timeExpr != nil {
		return s.timeExpr.Eval(ds)
	}
	now := time.Now().UnixMilli()
	return array.NewScalarArrayOf(array.Timestamp, ds.Len(), array.IntScalar(array.Timestamp, now)), nil
}

func (s *Source) evalWatermark(ds *dataset.DataSet, timeCol array.Array) (array.Array, error) {
	if s.watermarkExpr != nil {
		return s.watermarkExpr.Eval(ds)
	}
	return timeCol, nil
}

// Checkpoint serializes {current_watermark, driver_state,
// time_expr_state, watermark_expr_state} (spec.md §4.4).
func (s *Source) Checkpoint() ([]byte, error) {
	var b wire.Buffer
	b.WriteVarint(s.currentWatermark)
	b.WriteBytes(s.driverState)
	if err := writeExprState(&b, s.timeExpr); err != nil {
		return nil, err
	}
	if err := writeExprState(&b, s.watermarkExpr); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// Restore reopens the driver at the saved resumption point and
// restores the watermark and expression state from a Checkpoint blob.
func (s *Source) Restore(state []byte) error {
	r := wire.NewReader(state)
	wm, err := r.ReadVarint()
	if err != nil {
		return err
	}
	driverState, err := r.ReadBytes()
	if err != nil {
		return err
	}
	if err := readExprState(r, s.timeExpr); err != nil {
		return err
	}
	if err := readExprState(r, s.watermarkExpr); err != nil {
		return err
	}

	buf := make([]byte, len(driverState))
	copy(buf, driverState)

	st, err := s.driver.Open(buf)
	if err != nil {
		return err
	}
	if s.stream != nil {
		s.stream.Close()
	}
	s.stream = st
	s.driverState = buf
	s.currentWatermark = wm
	return nil
}

// Close releases the underlying driver stream.
func (s *Source) Close() error {
	if s.stream == nil {
		return nil
	}
	return s.stream.Close()
}

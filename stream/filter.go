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
	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/dataset"
	"github.com/sunli829/yql/expr"
	"github.com/sunli829/yql/plan"
	"github.com/sunli829/yql/wire"
)

// Filter keeps only the rows where its boolean expression evaluates
// true, suppressing downstream emission entirely when nothing survives
// (spec.md §4.6).
type Filter struct {
	id   int
	expr *expr.Expr
}

func NewFilter(pp *plan.PhysicalPlan) (*Filter, error) {
	if pp.Kind != plan.KindFilter {
		return nil, &StateError{Msg: "NewFilter given a non-filter physical plan node"}
	}
	return &Filter{id: pp.ID, expr: pp.FilterExpr}, nil
}

func (f *Filter) ID() int { return f.id }

func (f *Filter) Process(ds *dataset.DataSet, watermark int64) ([]*dataset.DataSet, error) {
	result, err := f.expr.Eval(ds)
	if err != nil {
		return nil, err
	}
	mask, ok := result.(*array.PrimitiveArray[bool])
	if !ok {
		return nil, &StateError{Msg: "filter expression did not evaluate to a boolean array"}
	}
	filtered, err := ds.Filter(mask)
	if err != nil {
		return nil, err
	}
	if filtered.Len() == 0 {
		return nil, nil
	}
	return []*dataset.DataSet{filtered}, nil
}

func (f *Filter) Checkpoint() ([]byte, error) {
	var b wire.Buffer
	if err := writeExprState(&b, f.expr); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (f *Filter) Restore(state []byte) error {
	r := wire.NewReader(state)
	return readExprState(r, f.expr)
}

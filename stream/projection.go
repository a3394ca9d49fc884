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

	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/dataset"
	"github.com/sunli829/yql/plan"
	"github.com/sunli829/yql/wire"
)

// Projection evaluates a fixed list of bound expressions against every
// input DataSet and assembles the results in order (spec.md §4.5).
// Wildcards are already expanded to concrete column references by
// plan.Lower; by the time a Projection runs, every expression is
// concrete.
type Projection struct {
	id     int
	exprs  []plan.NamedPhysicalExpr
	schema *dataset.Schema
}

func NewProjection(pp *plan.PhysicalPlan) (*Projection, error) {
	if pp.Kind != plan.KindProjection {
		return nil, &StateError{Msg: "NewProjection given a non-projection physical plan node"}
	}
	return &Projection{id: pp.ID, exprs: pp.Exprs, schema: pp.Schema}, nil
}

func (p *Projection) ID() int { return p.id }

// Process evaluates every projection expression against ds and returns
// exactly one output DataSet.
func (p *Projection) Process(ds *dataset.DataSet, watermark int64) ([]*dataset.DataSet, error) {
	cols := make([]array.Array, len(p.exprs))
	for i, ne := range p.exprs {
		col, err := ne.Expr.Eval(ds)
		if err != nil {
			return nil, fmt.Errorf("stream: projection column %q: %w", ne.Name, err)
		}
		cols[i] = col
	}
	out, err := dataset.New(p.schema, cols)
	if err != nil {
		return nil, err
	}
	return []*dataset.DataSet{out}, nil
}

// Checkpoint blob is the vector of per-expression states, in the same
// order as p.exprs.
func (p *Projection) Checkpoint() ([]byte, error) {
	var b wire.Buffer
	for _, ne := range p.exprs {
		if err := writeExprState(&b, ne.Expr); err != nil {
			return nil, err
		}
	}
	return b.Bytes(), nil
}

func (p *Projection) Restore(state []byte) error {
	r := wire.NewReader(state)
	for _, ne := range p.exprs {
		if err := readExprState(r, ne.Expr); err != nil {
			return err
		}
	}
	return nil
}

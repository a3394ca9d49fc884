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

package plan

import (
	"testing"

	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/dataset"
	"github.com/sunli829/yql/expr"
	"github.com/sunli829/yql/source"
	"github.com/sunli829/yql/window"
)

func testDriver() source.Driver {
	schema := dataset.MustNewSchema([]dataset.Field{
		{Name: "id", Type: array.Int32},
		{Name: "amount", Type: array.Float64},
	})
	return source.NewTestHarness(schema, nil)
}

func TestLowerSourceInjectsTimeField(t *testing.T) {
	lp := &Source{Qualifier: "t", Driver: testDriver()}
	lowered, err := Lower(lp)
	if err != nil {
		t.Fatal(err)
	}
	if lowered.NodeCount != 1 || lowered.SourceCount != 1 {
		t.Fatalf("got nodeCount=%d sourceCount=%d", lowered.NodeCount, lowered.SourceCount)
	}
	idx := lowered.Root.Schema.IndexOf("", dataset.ReservedTimeField)
	if idx < 0 || !lowered.Root.Schema.Fields()[idx].Type.IsTimestamp() {
		t.Fatalf("expected synthesized @time field, got %v", lowered.Root.Schema.Fields())
	}
	if lowered.Root.Schema.IndexOf("t", "id") < 0 {
		t.Fatalf("expected qualified column t.id, got %v", lowered.Root.Schema.Fields())
	}
}

func TestLowerProjectionExpandsWildcard(t *testing.T) {
	lp := &Projection{
		Input: &Source{Qualifier: "t", Driver: testDriver()},
		Exprs: []NamedExpr{{Name: "*", Expr: Wildcard{Qualifier: "t"}}},
	}
	lowered, err := Lower(lp)
	if err != nil {
		t.Fatal(err)
	}
	if lowered.NodeCount != 2 {
		t.Fatalf("got nodeCount=%d", lowered.NodeCount)
	}
	fields := lowered.Root.Schema.Fields()
	if len(fields) != 2 || fields[0].Name != "id" || fields[1].Name != "amount" {
		t.Fatalf("got %v", fields)
	}
}

func TestLowerFilterRequiresBoolean(t *testing.T) {
	lp := &Filter{
		Input: &Source{Qualifier: "t", Driver: testDriver()},
		Expr:  Column{Qualifier: "t", Name: "amount"},
	}
	if _, err := Lower(lp); err == nil {
		t.Fatal("expected error for non-boolean filter expression")
	}

	lp2 := &Filter{
		Input: &Source{Qualifier: "t", Driver: testDriver()},
		Expr: Binary{
			Op:  expr.Gt,
			LHS: Column{Qualifier: "t", Name: "amount"},
			RHS: Lit{Value: expr.LiteralFloat(0)},
		},
	}
	lowered, err := Lower(lp2)
	if err != nil {
		t.Fatal(err)
	}
	if lowered.Root.Kind != KindFilter || !lowered.Root.FilterExpr.ResultType.IsBoolean() {
		t.Fatalf("expected a bound boolean filter expression")
	}
}

func TestLowerAggregateRequiresTimeField(t *testing.T) {
	schema := dataset.MustNewSchema([]dataset.Field{{Name: "id", Type: array.Int32}})
	driver := source.NewTestHarness(schema, nil)
	agg := &Aggregate{
		Input:      &Source{Driver: driver},
		GroupExprs: []NamedExpr{{Name: "id", Expr: Column{Name: "id"}}},
		Window:     window.Fixed(1000),
	}
	lowered, err := Lower(agg)
	if err != nil {
		t.Fatal(err)
	}
	if lowered.Root.Schema.IndexOf("", dataset.ReservedTimeField) < 0 {
		t.Fatalf("expected aggregate output to carry @time, got %v", lowered.Root.Schema.Fields())
	}
}

func TestLowerAggregateCountsNodesAndSources(t *testing.T) {
	lp := &Aggregate{
		Input: &Filter{
			Input: &Source{Qualifier: "t", Driver: testDriver()},
			Expr: Binary{
				Op:  expr.Gt,
				LHS: Column{Qualifier: "t", Name: "amount"},
				RHS: Lit{Value: expr.LiteralFloat(0)},
			},
		},
		GroupExprs: []NamedExpr{{Name: "id", Expr: Column{Qualifier: "t", Name: "id"}}},
		AggrExprs: []NamedExpr{{Name: "total", Expr: Call{
			Name: "sum",
			Args: []LogicalExpr{Column{Qualifier: "t", Name: "amount"}},
		}}},
		Window: window.Fixed(60000),
	}
	lowered, err := Lower(lp)
	if err != nil {
		t.Fatal(err)
	}
	if lowered.NodeCount != 3 || lowered.SourceCount != 1 {
		t.Fatalf("got nodeCount=%d sourceCount=%d", lowered.NodeCount, lowered.SourceCount)
	}
	fields := lowered.Root.Schema.Fields()
	if len(fields) != 3 || fields[0].Name != "id" || fields[1].Name != "total" || fields[2].Name != dataset.ReservedTimeField {
		t.Fatalf("got %v", fields)
	}
}

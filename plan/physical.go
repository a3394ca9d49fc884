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
	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/dataset"
	"github.com/sunli829/yql/expr"
	"github.com/sunli829/yql/source"
	"github.com/sunli829/yql/window"
)

// Kind discriminates the physical operator a PhysicalPlan node
// represents.
type Kind int

const (
	KindSource Kind = iota
	KindProjection
	KindFilter
	KindAggregate
)

// NamedPhysicalExpr pairs a bound expression with its output field.
type NamedPhysicalExpr struct {
	Name string
	Expr *expr.Expr
}

// PhysicalPlan is one lowered operator: a stable id, its output
// schema, and the kind-specific fields needed to build a running
// stream operator from it (spec.md §6.5).
type PhysicalPlan struct {
	ID     int
	Kind   Kind
	Schema *dataset.Schema
	Input  *PhysicalPlan

	// Source
	Driver        source.Driver
	TimeExpr      *expr.Expr // nil: synthesize wall-clock time
	WatermarkExpr *expr.Expr // nil: reuse time

	// Projection
	Exprs []NamedPhysicalExpr

	// Filter
	FilterExpr *expr.Expr

	// Aggregate
	GroupExprs []NamedPhysicalExpr
	AggrExprs  []NamedPhysicalExpr
	Window     window.Window
}

// Lowered is the result of lowering a LogicalPlan: the physical tree
// plus the counts the checkpoint barrier protocol needs (spec.md §5).
type Lowered struct {
	Root        *PhysicalPlan
	NodeCount   int
	SourceCount int
}

// Lower assigns operator ids 0..N depth-first (each node's input is
// lowered, and assigned its id, before the node itself), threading
// the input schema through every step so expressions resolve against
// concrete columns (spec.md §6.5).
func Lower(lp LogicalPlan) (*Lowered, error) {
	var nextID int
	var sourceCount int
	root, err := lowerNode(lp, &nextID, &sourceCount)
	if err != nil {
		return nil, err
	}
	return &Lowered{Root: root, NodeCount: nextID, SourceCount: sourceCount}, nil
}

func lowerNode(lp LogicalPlan, nextID, sourceCount *int) (*PhysicalPlan, error) {
	switch v := lp.(type) {
	case *Source:
		return lowerSource(v, nextID, sourceCount)
	case *Projection:
		return lowerProjection(v, nextID, sourceCount)
	case *Filter:
		return lowerFilter(v, nextID, sourceCount)
	case *Aggregate:
		return lowerAggregate(v, nextID, sourceCount)
	}
	return nil, &dataset.SchemaError{Msg: "unknown logical plan node"}
}

func assignID(nextID *int) int {
	id := *nextID
	*nextID++
	return id
}

func lowerSource(s *Source, nextID, sourceCount *int) (*PhysicalPlan, error) {
	driverSchema := s.Driver.Schema()
	qualified := make([]dataset.Field, len(driverSchema.Fields()))
	for i, f := range driverSchema.Fields() {
		qualified[i] = dataset.Field{Qualifier: s.Qualifier, Name: f.Name, Type: f.Type}
	}
	outSchema, err := dataset.NewSchema(qualified)
	if err != nil {
		return nil, err
	}

	var timeExpr, watermarkExpr *expr.Expr
	if s.TimeExpr != nil {
		timeExpr, err = resolveExpr(s.TimeExpr, outSchema)
		if err != nil {
			return nil, err
		}
	}
	if s.WatermarkExpr != nil {
		watermarkExpr, err = resolveExpr(s.WatermarkExpr, outSchema)
		if err != nil {
			return nil, err
		}
	}

	// Source lowering injects the reserved @time field every
	// downstream operator (notably Aggregate) resolves by name.
	withTime, err := outSchema.WithExtraField(dataset.Field{Name: dataset.ReservedTimeField, Type: array.Timestamp})
	if err != nil {
		return nil, err
	}

	*sourceCount++
	return &PhysicalPlan{
		ID:            assignID(nextID),
		Kind:          KindSource,
		Schema:        withTime,
		Driver:        s.Driver,
		TimeExpr:      timeExpr,
		WatermarkExpr: watermarkExpr,
	}, nil
}

func lowerProjection(p *Projection, nextID, sourceCount *int) (*PhysicalPlan, error) {
	input, err := lowerNode(p.Input, nextID, sourceCount)
	if err != nil {
		return nil, err
	}
	exprs, err := expandWildcards(p.Exprs, input.Schema)
	if err != nil {
		return nil, err
	}
	bound := make([]NamedPhysicalExpr, len(exprs))
	fields := make([]dataset.Field, len(exprs))
	for i, ne := range exprs {
		ex, err := resolveExpr(ne.Expr, input.Schema)
		if err != nil {
			return nil, err
		}
		bound[i] = NamedPhysicalExpr{Name: ne.Name, Expr: ex}
		fields[i] = dataset.Field{Name: ne.Name, Type: ex.ResultType}
	}
	schema, err := dataset.NewSchema(fields)
	if err != nil {
		return nil, err
	}
	return &PhysicalPlan{ID: assignID(nextID), Kind: KindProjection, Schema: schema, Input: input, Exprs: bound}, nil
}

func lowerFilter(f *Filter, nextID, sourceCount *int) (*PhysicalPlan, error) {
	input, err := lowerNode(f.Input, nextID, sourceCount)
	if err != nil {
		return nil, err
	}
	ex, err := resolveExpr(f.Expr, input.Schema)
	if err != nil {
		return nil, err
	}
	if !ex.ResultType.IsBoolean() {
		return nil, &expr.TypeError{Op: "filter", Args: []array.DataType{ex.ResultType}}
	}
	return &PhysicalPlan{ID: assignID(nextID), Kind: KindFilter, Schema: input.Schema, Input: input, FilterExpr: ex}, nil
}

func lowerAggregate(a *Aggregate, nextID, sourceCount *int) (*PhysicalPlan, error) {
	input, err := lowerNode(a.Input, nextID, sourceCount)
	if err != nil {
		return nil, err
	}
	timeIdx := input.Schema.IndexOf("", dataset.ReservedTimeField)
	if timeIdx < 0 || !input.Schema.Fields()[timeIdx].Type.IsTimestamp() {
		return nil, &dataset.SchemaError{Msg: "aggregate requires an input with a Timestamp @time field (injected by source lowering)"}
	}

	groupExprs, err := expandWildcards(a.GroupExprs, input.Schema)
	if err != nil {
		return nil, err
	}
	aggrExprs, err := expandWildcards(a.AggrExprs, input.Schema)
	if err != nil {
		return nil, err
	}

	boundGroup, groupFields, err := resolveNamed(groupExprs, input.Schema)
	if err != nil {
		return nil, err
	}
	boundAggr, aggrFields, err := resolveNamed(aggrExprs, input.Schema)
	if err != nil {
		return nil, err
	}

	var watermarkExpr *expr.Expr
	if a.WatermarkExpr != nil {
		watermarkExpr, err = resolveExpr(a.WatermarkExpr, input.Schema)
		if err != nil {
			return nil, err
		}
	}

	fields := append(append([]dataset.Field{}, groupFields...), aggrFields...)
	fields = append(fields, dataset.Field{Name: dataset.ReservedTimeField, Type: array.Timestamp})
	schema, err := dataset.NewSchema(fields)
	if err != nil {
		return nil, err
	}

	return &PhysicalPlan{
		ID:            assignID(nextID),
		Kind:          KindAggregate,
		Schema:        schema,
		Input:         input,
		GroupExprs:    boundGroup,
		AggrExprs:     boundAggr,
		Window:        a.Window,
		WatermarkExpr: watermarkExpr,
	}, nil
}

func resolveNamed(exprs []NamedExpr, schema *dataset.Schema) ([]NamedPhysicalExpr, []dataset.Field, error) {
	bound := make([]NamedPhysicalExpr, len(exprs))
	fields := make([]dataset.Field, len(exprs))
	for i, ne := range exprs {
		ex, err := resolveExpr(ne.Expr, schema)
		if err != nil {
			return nil, nil, err
		}
		bound[i] = NamedPhysicalExpr{Name: ne.Name, Expr: ex}
		fields[i] = dataset.Field{Name: ne.Name, Type: ex.ResultType}
	}
	return bound, fields, nil
}

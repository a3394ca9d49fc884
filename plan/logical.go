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

// Package plan implements the logical plan tree the (out of scope)
// SQL parser hands to this engine, and its lowering into a physical
// plan with resolved column references and stable operator ids
// (spec.md §6.4-§6.5).
package plan

import (
	"github.com/sunli829/yql/expr"
	"github.com/sunli829/yql/source"
	"github.com/sunli829/yql/window"
)

// LogicalPlan is the recursive sum type the parser produces:
// Source/Projection/Filter/Aggregate (spec.md §6.4).
type LogicalPlan interface {
	logicalPlan()
}

// Source is the leaf of a logical plan: a source driver plus the
// expressions used to derive each row's event time and watermark.
// TimeExpr/WatermarkExpr may be nil, per spec.md §4.4 ("If absent,
// time = wall clock at ingest, watermark = time").
type Source struct {
	Qualifier     string
	Driver        source.Driver
	TimeExpr      LogicalExpr
	WatermarkExpr LogicalExpr
}

func (*Source) logicalPlan() {}

// NamedExpr pairs a logical expression with the output column name it
// produces; Expr may be a Wildcard, expanded during lowering.
type NamedExpr struct {
	Name string
	Expr LogicalExpr
}

// Projection evaluates Exprs against Input's output schema and
// assembles the result columns in order (spec.md §4.5).
type Projection struct {
	Input LogicalPlan
	Exprs []NamedExpr
}

func (*Projection) logicalPlan() {}

// Filter keeps only rows where Expr (a Boolean expression) is true
// (spec.md §4.6).
type Filter struct {
	Input LogicalPlan
	Expr  LogicalExpr
}

func (*Filter) logicalPlan() {}

// Aggregate groups Input's rows into windows and, within each window,
// by GroupExprs' composite key, feeding AggrExprs the rows of each
// group (spec.md §4.7). WatermarkExpr is optional; if nil, the
// operator's own watermark reuses the reserved @time column (spec.md
// §4.7 Inputs: "optional watermark expression").
type Aggregate struct {
	Input         LogicalPlan
	GroupExprs    []NamedExpr
	AggrExprs     []NamedExpr
	Window        window.Window
	WatermarkExpr LogicalExpr
}

func (*Aggregate) logicalPlan() {}

// LogicalExpr is an expression tree whose Column leaves name columns
// rather than indexing them; Lower resolves these against a concrete
// Schema to produce an expr.Node.
type LogicalExpr interface {
	logicalExpr()
}

// Wildcard expands, during lowering, to one Column reference per
// field of the input schema (optionally restricted to Qualifier).
// It is only valid as the Expr of a NamedExpr in a Projection's or
// Aggregate's expression list.
type Wildcard struct {
	Qualifier string
}

func (Wildcard) logicalExpr() {}

// Column references an input column by (possibly empty) qualifier and
// name.
type Column struct {
	Qualifier string
	Name      string
}

func (Column) logicalExpr() {}

// Lit embeds a constant value.
type Lit struct {
	Value expr.Literal
}

func (Lit) logicalExpr() {}

// Binary applies a binary operator to two sub-expressions.
type Binary struct {
	Op       expr.BinaryOp
	LHS, RHS LogicalExpr
}

func (Binary) logicalExpr() {}

// Unary applies a unary operator to a sub-expression.
type Unary struct {
	Op   expr.UnaryOp
	Expr LogicalExpr
}

func (Unary) logicalExpr() {}

// Call invokes a registered function by name over Args.
type Call struct {
	Name string
	Args []LogicalExpr
}

func (Call) logicalExpr() {}

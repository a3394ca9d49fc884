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

package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/sunli829/yql/expr"
	"github.com/sunli829/yql/plan"
	"github.com/sunli829/yql/sink"
	"github.com/sunli829/yql/source"
	"github.com/sunli829/yql/window"
	"github.com/sunli829/yql/xsv"
)

// jobSpec is the YAML job file format described in SPEC_FULL.md §7.1:
// with no SQL parser in scope, a job directly encodes the
// plan.LogicalPlan tree a parser would otherwise produce.
type jobSpec struct {
	Source   sourceSpec   `json:"source"`
	Pipeline []stageSpec  `json:"pipeline"`
	Sink     sinkSpec     `json:"sink"`
}

type sourceSpec struct {
	Qualifier     string     `json:"qualifier,omitempty"`
	CSV           *csvSpec   `json:"csv,omitempty"`
	TimeExpr      *exprSpec  `json:"timeExpr,omitempty"`
	WatermarkExpr *exprSpec  `json:"watermarkExpr,omitempty"`
}

type csvSpec struct {
	Path      string   `json:"path"`
	Delimiter string   `json:"delimiter,omitempty"`
	BatchSize int      `json:"batchSize,omitempty"`
	Hint      xsv.Hint `json:"hint"`
}

type stageSpec struct {
	Op string `json:"op"`

	// filter
	Expr *exprSpec `json:"expr,omitempty"`

	// projection
	Exprs []namedExprSpec `json:"exprs,omitempty"`

	// aggregate
	GroupExprs    []namedExprSpec `json:"groupExprs,omitempty"`
	AggrExprs     []namedExprSpec `json:"aggrExprs,omitempty"`
	Window        *windowSpec     `json:"window,omitempty"`
	WatermarkExpr *exprSpec       `json:"watermarkExpr,omitempty"`
}

type namedExprSpec struct {
	Name string   `json:"name"`
	Expr exprSpec `json:"expr"`
}

type windowSpec struct {
	Kind       string `json:"kind"`
	LengthMs   int64  `json:"lengthMs,omitempty"`
	IntervalMs int64  `json:"intervalMs,omitempty"`
	Unit       string `json:"unit,omitempty"`
	TZ         string `json:"tz,omitempty"`
}

type sinkSpec struct {
	Provider string `json:"provider"`
}

// exprSpec is the structured prefix form SPEC_FULL.md §7.1 gives as an
// example: {op: gt, args: [{col: a}, {lit: 2}]}.
type exprSpec struct {
	Col       string          `json:"col,omitempty"`
	Qualifier string          `json:"qualifier,omitempty"`
	Wildcard  bool            `json:"wildcard,omitempty"`
	Lit       json.RawMessage `json:"lit,omitempty"`
	Op        string          `json:"op,omitempty"`
	Call      string          `json:"call,omitempty"`
	Args      []exprSpec      `json:"args,omitempty"`
}

func loadJob(data []byte) (*jobSpec, error) {
	var j jobSpec
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("cmd/yql: decoding job file: %w", err)
	}
	return &j, nil
}

func (j *jobSpec) buildPlan() (plan.LogicalPlan, error) {
	driver, err := j.Source.buildDriver()
	if err != nil {
		return nil, err
	}
	timeExpr, err := j.Source.TimeExpr.buildOptional()
	if err != nil {
		return nil, fmt.Errorf("cmd/yql: source timeExpr: %w", err)
	}
	watermarkExpr, err := j.Source.WatermarkExpr.buildOptional()
	if err != nil {
		return nil, fmt.Errorf("cmd/yql: source watermarkExpr: %w", err)
	}

	var lp plan.LogicalPlan = &plan.Source{
		Qualifier:     j.Source.Qualifier,
		Driver:        driver,
		TimeExpr:      timeExpr,
		WatermarkExpr: watermarkExpr,
	}

	for i, st := range j.Pipeline {
		lp, err = st.apply(lp)
		if err != nil {
			return nil, fmt.Errorf("cmd/yql: pipeline stage %d (%s): %w", i, st.Op, err)
		}
	}
	return lp, nil
}

func (s *sourceSpec) buildDriver() (source.Driver, error) {
	if s.CSV == nil {
		return nil, fmt.Errorf("cmd/yql: source has no provider configured (want csv)")
	}
	delim := byte(',')
	if s.CSV.Delimiter != "" {
		delim = s.CSV.Delimiter[0]
	}
	opts := source.CSVOptions{
		Delimiter: delim,
		BatchSize: s.CSV.BatchSize,
	}
	hint := s.CSV.Hint
	return source.NewCSV(opts, &hint, s.CSV.Path)
}

func (s *stageSpec) apply(input plan.LogicalPlan) (plan.LogicalPlan, error) {
	switch s.Op {
	case "filter":
		if s.Expr == nil {
			return nil, fmt.Errorf("filter stage requires expr")
		}
		e, err := s.Expr.build()
		if err != nil {
			return nil, err
		}
		return &plan.Filter{Input: input, Expr: e}, nil
	case "projection":
		exprs, err := buildNamedExprs(s.Exprs)
		if err != nil {
			return nil, err
		}
		return &plan.Projection{Input: input, Exprs: exprs}, nil
	case "aggregate":
		groupExprs, err := buildNamedExprs(s.GroupExprs)
		if err != nil {
			return nil, err
		}
		aggrExprs, err := buildNamedExprs(s.AggrExprs)
		if err != nil {
			return nil, err
		}
		win, err := s.Window.build()
		if err != nil {
			return nil, err
		}
		watermarkExpr, err := s.WatermarkExpr.buildOptional()
		if err != nil {
			return nil, fmt.Errorf("aggregate stage watermarkExpr: %w", err)
		}
		return &plan.Aggregate{Input: input, GroupExprs: groupExprs, AggrExprs: aggrExprs, Window: win, WatermarkExpr: watermarkExpr}, nil
	}
	return nil, fmt.Errorf("cmd/yql: unknown pipeline op %q", s.Op)
}

func buildNamedExprs(specs []namedExprSpec) ([]plan.NamedExpr, error) {
	out := make([]plan.NamedExpr, len(specs))
	for i, ne := range specs {
		e, err := ne.Expr.build()
		if err != nil {
			return nil, fmt.Errorf("expr %q: %w", ne.Name, err)
		}
		out[i] = plan.NamedExpr{Name: ne.Name, Expr: e}
	}
	return out, nil
}

func (w *windowSpec) build() (window.Window, error) {
	if w == nil {
		return window.Window{}, fmt.Errorf("aggregate stage requires a window")
	}
	switch w.Kind {
	case "fixed":
		return window.Fixed(w.LengthMs), nil
	case "sliding":
		return window.Sliding(w.LengthMs, w.IntervalMs), nil
	case "period":
		unit, ok := periodUnits[w.Unit]
		if !ok {
			return window.Window{}, fmt.Errorf("unknown period unit %q", w.Unit)
		}
		tz := w.TZ
		if tz == "" {
			tz = "UTC"
		}
		return window.NewPeriod(unit, tz)
	}
	return window.Window{}, fmt.Errorf("unknown window kind %q", w.Kind)
}

var periodUnits = map[string]window.PeriodUnit{
	"day":   window.Day,
	"week":  window.Week,
	"month": window.Month,
	"year":  window.Year,
}

// buildOptional builds e, returning a nil LogicalExpr for a nil
// *exprSpec (spec.md §4.4: Source.TimeExpr/WatermarkExpr may be
// absent).
func (e *exprSpec) buildOptional() (plan.LogicalExpr, error) {
	if e == nil {
		return nil, nil
	}
	return e.build()
}

func (e *exprSpec) build() (plan.LogicalExpr, error) {
	switch {
	case e.Wildcard:
		return plan.Wildcard{Qualifier: e.Qualifier}, nil
	case e.Col != "":
		return plan.Column{Qualifier: e.Qualifier, Name: e.Col}, nil
	case e.Lit != nil:
		lit, err := buildLiteral(e.Lit)
		if err != nil {
			return nil, err
		}
		return plan.Lit{Value: lit}, nil
	case e.Call != "":
		args := make([]plan.LogicalExpr, len(e.Args))
		for i := range e.Args {
			a, err := e.Args[i].build()
			if err != nil {
				return nil, err
			}
			args[i] = a
		}
		return plan.Call{Name: e.Call, Args: args}, nil
	case e.Op != "":
		return e.buildOp()
	}
	return nil, fmt.Errorf("cmd/yql: empty expression")
}

func (e *exprSpec) buildOp() (plan.LogicalExpr, error) {
	if op, ok := binaryOps[e.Op]; ok {
		if len(e.Args) != 2 {
			return nil, fmt.Errorf("operator %q needs exactly 2 args, got %d", e.Op, len(e.Args))
		}
		lhs, err := e.Args[0].build()
		if err != nil {
			return nil, err
		}
		rhs, err := e.Args[1].build()
		if err != nil {
			return nil, err
		}
		return plan.Binary{Op: op, LHS: lhs, RHS: rhs}, nil
	}
	if op, ok := unaryOps[e.Op]; ok {
		if len(e.Args) != 1 {
			return nil, fmt.Errorf("operator %q needs exactly 1 arg, got %d", e.Op, len(e.Args))
		}
		arg, err := e.Args[0].build()
		if err != nil {
			return nil, err
		}
		return plan.Unary{Op: op, Expr: arg}, nil
	}
	return nil, fmt.Errorf("cmd/yql: unknown operator %q", e.Op)
}

var binaryOps = map[string]expr.BinaryOp{
	"and": expr.And, "or": expr.Or,
	"eq": expr.Eq, "neq": expr.NotEq,
	"lt": expr.Lt, "lte": expr.LtEq,
	"gt": expr.Gt, "gte": expr.GtEq,
	"plus": expr.Plus, "minus": expr.Minus,
	"mul": expr.Multiply, "div": expr.Divide, "rem": expr.Rem,
}

var unaryOps = map[string]expr.UnaryOp{
	"neg": expr.Neg,
	"not": expr.Not,
}

// buildLiteral decodes a {lit: ...} value into an expr.Literal, using
// json.Number to tell an integer constant from a float one rather than
// always widening through float64.
func buildLiteral(raw json.RawMessage) (expr.Literal, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return expr.Literal{}, fmt.Errorf("cmd/yql: decoding literal: %w", err)
	}
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return expr.LiteralInt(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return expr.Literal{}, fmt.Errorf("cmd/yql: literal %q is not a number: %w", t.String(), err)
		}
		return expr.LiteralFloat(f), nil
	case string:
		return expr.LiteralString(t), nil
	case bool:
		return expr.LiteralBool(t), nil
	}
	return expr.Literal{}, fmt.Errorf("cmd/yql: unsupported literal value %v", v)
}

func (s *sinkSpec) buildDriver() (sink.Driver, error) {
	switch s.Provider {
	case "", "console":
		return &sink.ConsoleDriver{W: stdoutWriter}, nil
	}
	return nil, fmt.Errorf("cmd/yql: unknown sink provider %q", s.Provider)
}

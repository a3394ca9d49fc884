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
	"fmt"

	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/dataset"
	"github.com/sunli829/yql/expr"
)

// expandWildcards replaces every Wildcard-valued NamedExpr with one
// Column-valued NamedExpr per matching field of schema, preserving
// field order. Non-wildcard entries pass through unchanged.
func expandWildcards(exprs []NamedExpr, schema *dataset.Schema) ([]NamedExpr, error) {
	out := make([]NamedExpr, 0, len(exprs))
	for _, ne := range exprs {
		wc, ok := ne.Expr.(Wildcard)
		if !ok {
			out = append(out, ne)
			continue
		}
		matched := 0
		for _, f := range schema.Fields() {
			if wc.Qualifier != "" && f.Qualifier != wc.Qualifier {
				continue
			}
			matched++
			out = append(out, NamedExpr{Name: f.Name, Expr: Column{Qualifier: f.Qualifier, Name: f.Name}})
		}
		if matched == 0 {
			return nil, &dataset.SchemaError{Msg: fmt.Sprintf("wildcard references unknown qualifier %q", wc.Qualifier)}
		}
	}
	return out, nil
}

// resolve converts a LogicalExpr into a bound expr.Node plus its
// result DataType, resolving Column references against schema.
func resolve(le LogicalExpr, schema *dataset.Schema) (expr.Node, array.DataType, error) {
	switch v := le.(type) {
	case Wildcard:
		return nil, array.DataType{}, &dataset.SchemaError{Msg: "wildcard is only valid as a top-level projection/aggregate expression"}
	case Column:
		idx := schema.IndexOf(v.Qualifier, v.Name)
		if idx < 0 {
			return nil, array.DataType{}, &dataset.SchemaError{Msg: fmt.Sprintf("unknown column %q", qualifiedName(v.Qualifier, v.Name))}
		}
		return expr.ColumnNode{Index: idx}, schema.Fields()[idx].Type, nil
	case Lit:
		return expr.LiteralNode{Value: v.Value}, v.Value.DataType(), nil
	case Binary:
		lhs, lt, err := resolve(v.LHS, schema)
		if err != nil {
			return nil, array.DataType{}, err
		}
		rhs, rt, err := resolve(v.RHS, schema)
		if err != nil {
			return nil, array.DataType{}, err
		}
		resultType, err := v.Op.ResultType(lt, rt)
		if err != nil {
			return nil, array.DataType{}, err
		}
		return expr.BinaryNode{Op: v.Op, LHS: lhs, RHS: rhs}, resultType, nil
	case Unary:
		a, at, err := resolve(v.Expr, schema)
		if err != nil {
			return nil, array.DataType{}, err
		}
		resultType, err := v.Op.ResultType(at)
		if err != nil {
			return nil, array.DataType{}, err
		}
		return expr.UnaryNode{Op: v.Op, Expr: a}, resultType, nil
	case Call:
		args := make([]expr.Node, len(v.Args))
		argTypes := make([]array.DataType, len(v.Args))
		for i, a := range v.Args {
			node, dt, err := resolve(a, schema)
			if err != nil {
				return nil, array.DataType{}, err
			}
			args[i], argTypes[i] = node, dt
		}
		call, err := expr.NewCallNode(v.Name, args, argTypes)
		if err != nil {
			return nil, array.DataType{}, err
		}
		return call, call.Func.ReturnType(call.ArgTypes), nil
	}
	return nil, array.DataType{}, fmt.Errorf("plan: unknown logical expression type %T", le)
}

// resolveExpr resolves le and wraps the result in a ready-to-evaluate
// expr.Expr.
func resolveExpr(le LogicalExpr, schema *dataset.Schema) (*expr.Expr, error) {
	node, dt, err := resolve(le, schema)
	if err != nil {
		return nil, err
	}
	return expr.NewExpr(node, dt)
}

func qualifiedName(qualifier, name string) string {
	if qualifier == "" {
		return name
	}
	return qualifier + "." + name
}

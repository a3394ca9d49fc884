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

package expr

import (
	"fmt"

	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/dataset"
)

// Node is one node of a physical expression tree: a literal, a column
// reference, a binary/unary operator application, or a function call.
// Trees are built by a planner once logical expressions are resolved
// against a concrete schema; Node itself does no name resolution.
type Node interface {
	node()
}

type LiteralNode struct{ Value Literal }

func (LiteralNode) node() {}

// ColumnNode references the dataset column at Index by position —
// name resolution against a Schema happens before a Node tree is
// built, not while evaluating it.
type ColumnNode struct{ Index int }

func (ColumnNode) node() {}

type BinaryNode struct {
	Op       BinaryOp
	LHS, RHS Node
}

func (BinaryNode) node() {}

type UnaryNode struct {
	Op   UnaryOp
	Expr Node
}

func (UnaryNode) node() {}

// CallNode invokes a registered Function. FuncID indexes into the
// owning Expr's statefulFuncs when Func.IsStateful(); argTypes are the
// coerced input types each argument is cast to before the call, fixed
// at build time by Signature.ResolveArgTypes.
type CallNode struct {
	Func     *Function
	FuncID   int
	ArgTypes []array.DataType
	Args     []Node
}

func (CallNode) node() {}

// NewCallNode resolves name against the registry and checks argTypes
// against its signature, returning a node ready to embed in an Expr
// tree. FuncID is left unset here; NewExpr's Builder assigns it when
// the function turns out to be stateful.
func NewCallNode(name string, args []Node, argTypes []array.DataType) (*CallNode, error) {
	fn, ok := LookupFunc(name)
	if !ok {
		return nil, &SyntaxError{Msg: "unknown function " + name}
	}
	resolved, err := fn.Signature.ResolveArgTypes(name, argTypes)
	if err != nil {
		return nil, err
	}
	return &CallNode{Func: fn, ArgTypes: resolved, Args: args}, nil
}

// Builder assembles a Node tree into an Expr, assigning a stable
// stateful-function slot to every stateful CallNode it encounters
// (depth-first, in construction order) so SaveState/LoadState can
// address them by index.
type Builder struct {
	funcs []StatefulFunction
}

// Bind walks root, instantiating a fresh StatefulFunction for every
// stateful CallNode and recording its slot on the node. Bind must run
// exactly once per Node tree before the first Eval.
func (b *Builder) Bind(root Node) error {
	_, err := b.bind(root)
	return err
}

func (b *Builder) bind(n Node) (Node, error) {
	switch v := n.(type) {
	case LiteralNode, ColumnNode:
		return n, nil
	case BinaryNode:
		lhs, err := b.bind(v.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := b.bind(v.RHS)
		if err != nil {
			return nil, err
		}
		v.LHS, v.RHS = lhs, rhs
		return v, nil
	case UnaryNode:
		expr, err := b.bind(v.Expr)
		if err != nil {
			return nil, err
		}
		v.Expr = expr
		return v, nil
	case *CallNode:
		for i, a := range v.Args {
			bound, err := b.bind(a)
			if err != nil {
				return nil, err
			}
			v.Args[i] = bound
		}
		if v.Func.IsStateful() {
			v.FuncID = len(b.funcs)
			b.funcs = append(b.funcs, v.Func.Stateful())
		}
		return v, nil
	}
	return nil, fmt.Errorf("expr: unknown node type %T", n)
}

// Expr is a bound, evaluable physical expression: a Node tree plus the
// stateful function instances its Call nodes reference.
type Expr struct {
	Root          Node
	ResultType    array.DataType
	statefulFuncs []StatefulFunction
}

// NewExpr binds root and returns a ready-to-evaluate Expr.
func NewExpr(root Node, resultType array.DataType) (*Expr, error) {
	var b Builder
	if err := b.Bind(root); err != nil {
		return nil, err
	}
	return &Expr{Root: root, ResultType: resultType, statefulFuncs: b.funcs}, nil
}

// Eval computes the expression's value over every row of ds.
func (e *Expr) Eval(ds *dataset.DataSet) (array.Array, error) {
	return evalNode(e.Root, e.statefulFuncs, ds)
}

func evalNode(n Node, funcs []StatefulFunction, ds *dataset.DataSet) (array.Array, error) {
	switch v := n.(type) {
	case LiteralNode:
		return v.Value.ToArray(ds.Len()), nil
	case ColumnNode:
		if v.Index < 0 || v.Index >= len(ds.Columns()) {
			return nil, &RuntimeError{Msg: fmt.Sprintf("column index %d out of range", v.Index)}
		}
		return ds.Column(v.Index), nil
	case BinaryNode:
		lhs, err := evalNode(v.LHS, funcs, ds)
		if err != nil {
			return nil, err
		}
		rhs, err := evalNode(v.RHS, funcs, ds)
		if err != nil {
			return nil, err
		}
		return v.Op.Eval(lhs, rhs)
	case UnaryNode:
		a, err := evalNode(v.Expr, funcs, ds)
		if err != nil {
			return nil, err
		}
		return v.Op.Eval(a)
	case *CallNode:
		args := make([]array.Array, len(v.Args))
		for i, a := range v.Args {
			val, err := evalNode(a, funcs, ds)
			if err != nil {
				return nil, err
			}
			casted, err := array.Cast(val, v.ArgTypes[i])
			if err != nil {
				return nil, err
			}
			args[i] = casted
		}
		if v.Func.IsStateful() {
			return funcs[v.FuncID].Call(args)
		}
		return v.Func.Stateless(args)
	}
	return nil, fmt.Errorf("expr: unknown node type %T", n)
}

// SaveState serializes every stateful function's state, keyed by its
// slot index, following spec.md §4.3's per-expression state contract.
func (e *Expr) SaveState() (map[uint64][]byte, error) {
	out := make(map[uint64][]byte, len(e.statefulFuncs))
	for i, f := range e.statefulFuncs {
		data, err := f.SaveState()
		if err != nil {
			return nil, fmt.Errorf("expr: saving state for function slot %d: %w", i, err)
		}
		out[uint64(i)] = data
	}
	return out, nil
}

// LoadState restores every stateful function's state from a map
// produced by SaveState. An id with no matching slot is an error: the
// expression tree must be identical to the one the state was saved
// from.
func (e *Expr) LoadState(state map[uint64][]byte) error {
	for id, data := range state {
		if id >= uint64(len(e.statefulFuncs)) {
			return fmt.Errorf("expr: state references unknown function slot %d", id)
		}
		if err := e.statefulFuncs[id].LoadState(data); err != nil {
			return fmt.Errorf("expr: loading state for function slot %d: %w", id, err)
		}
	}
	return nil
}

// Clone returns a deep copy of e with independently-evolving stateful
// function state, used by group-by-expr aggregation where every group
// needs its own accumulator instances grounded on the same tree.
func (e *Expr) Clone() *Expr {
	cp := &Expr{Root: e.Root, ResultType: e.ResultType}
	cp.statefulFuncs = make([]StatefulFunction, len(e.statefulFuncs))
	for i, f := range e.statefulFuncs {
		cp.statefulFuncs[i] = f.Clone()
	}
	return cp
}

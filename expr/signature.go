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

	"golang.org/x/exp/slices"

	"github.com/sunli829/yql/array"
)

// SignatureKind discriminates the shapes a Signature can describe.
type SignatureKind int

const (
	// SigExact requires exactly the listed types, in order.
	SigExact SignatureKind = iota
	// SigUniform requires Count arguments, all of one of Choices.
	SigUniform
	// SigVariadic accepts any number of arguments, each independently
	// one of Choices.
	SigVariadic
	// SigVariadicEqual accepts any number of arguments that all share
	// the first argument's type.
	SigVariadicEqual
	// SigAny requires exactly Count arguments of any type.
	SigAny
	// SigOneOf matches if any of Alternatives matches.
	SigOneOf
)

// Signature describes the argument type tuples a Function accepts,
// grounded on the original's Signature enum (Exact/Uniform/Variadic/
// VariadicEqual/Any/OneOf).
type Signature struct {
	Kind         SignatureKind
	Exact        []array.DataType
	Count        int
	Choices      []array.DataType
	Alternatives []Signature
}

func candidateTuples(sig Signature, argc int) [][]array.DataType {
	switch sig.Kind {
	case SigExact:
		return [][]array.DataType{sig.Exact}
	case SigUniform:
		tuple := make([]array.DataType, sig.Count)
		var out [][]array.DataType
		for _, choice := range sig.Choices {
			for i := range tuple {
				tuple[i] = choice
			}
			cp := make([]array.DataType, len(tuple))
			copy(cp, tuple)
			out = append(out, cp)
		}
		return out
	case SigVariadic:
		var out [][]array.DataType
		for _, choice := range sig.Choices {
			tuple := make([]array.DataType, argc)
			for i := range tuple {
				tuple[i] = choice
			}
			out = append(out, tuple)
		}
		return out
	case SigVariadicEqual:
		if argc == 0 {
			return nil
		}
		return [][]array.DataType{} // no fixed tuples; ResolveArgTypes checks this kind itself
	case SigAny:
		return nil // arity-only; ResolveArgTypes checks this kind itself
	case SigOneOf:
		var out [][]array.DataType
		for _, alt := range sig.Alternatives {
			out = append(out, candidateTuples(alt, argc)...)
		}
		return out
	}
	return nil
}

// ResolveArgTypes validates current (the caller-supplied argument
// types) against sig and returns the declared input types each
// argument must be cast to, following the teacher's coercion rules:
// an exact type match wins outright; otherwise the first candidate
// tuple every argument CanCastTo is used.
func (sig Signature) ResolveArgTypes(funcName string, current []array.DataType) ([]array.DataType, error) {
	if len(current) == 0 {
		return nil, &ArgumentArityError{Func: funcName, Want: "at least 1", Got: 0}
	}

	switch sig.Kind {
	case SigAny:
		if len(current) != sig.Count {
			return nil, &ArgumentArityError{Func: funcName, Want: fmt.Sprintf("exactly %d", sig.Count), Got: len(current)}
		}
		return current, nil
	case SigExact:
		if len(current) != len(sig.Exact) {
			return nil, &ArgumentArityError{Func: funcName, Want: fmt.Sprintf("exactly %d", len(sig.Exact)), Got: len(current)}
		}
	case SigUniform:
		if len(current) != sig.Count {
			return nil, &ArgumentArityError{Func: funcName, Want: fmt.Sprintf("exactly %d", sig.Count), Got: len(current)}
		}
	case SigVariadicEqual:
		want := current[0]
		tuple := make([]array.DataType, len(current))
		for i := range tuple {
			tuple[i] = want
		}
		if ok := typesCoerceTo(current, tuple); ok {
			return tuple, nil
		}
		return nil, &TypeError{Op: funcName, Args: current}
	}

	candidates := candidateTuples(sig, len(current))
	for _, tuple := range candidates {
		if slices.Equal(tuple, current) {
			return current, nil
		}
	}
	for _, tuple := range candidates {
		if len(tuple) != len(current) {
			continue
		}
		if typesCoerceTo(current, tuple) {
			return tuple, nil
		}
	}
	return nil, &TypeError{Op: funcName, Args: current}
}

func typesCoerceTo(current, want []array.DataType) bool {
	if len(current) != len(want) {
		return false
	}
	for i, w := range want {
		c := current[i]
		if !c.Equal(w) && !c.CanCastTo(w) {
			return false
		}
	}
	return true
}

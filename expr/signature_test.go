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
	"testing"

	"github.com/sunli829/yql/array"
)

func TestSignatureExactMatch(t *testing.T) {
	sig := Signature{Kind: SigExact, Exact: []array.DataType{array.Int64, array.String}}
	got, err := sig.ResolveArgTypes("f", []array.DataType{array.Int64, array.String})
	if err != nil {
		t.Fatal(err)
	}
	if !got[0].Equal(array.Int64) || !got[1].Equal(array.String) {
		t.Fatalf("got %v", got)
	}
}

func TestSignatureExactArityError(t *testing.T) {
	sig := Signature{Kind: SigExact, Exact: []array.DataType{array.Int64}}
	_, err := sig.ResolveArgTypes("f", []array.DataType{array.Int64, array.Int64})
	if _, ok := err.(*ArgumentArityError); !ok {
		t.Fatalf("expected ArgumentArityError, got %v", err)
	}
}

func TestSignatureUniformCoercion(t *testing.T) {
	sig := Signature{Kind: SigUniform, Count: 2, Choices: []array.DataType{array.Float64}}
	got, err := sig.ResolveArgTypes("f", []array.DataType{array.Int32, array.Int8})
	if err != nil {
		t.Fatal(err)
	}
	if !got[0].Equal(array.Float64) || !got[1].Equal(array.Float64) {
		t.Fatalf("got %v", got)
	}
}

func TestSignatureUniformNoCandidate(t *testing.T) {
	sig := Signature{Kind: SigUniform, Count: 1, Choices: []array.DataType{array.Boolean}}
	_, err := sig.ResolveArgTypes("f", []array.DataType{array.String})
	if _, ok := err.(*TypeError); !ok {
		t.Fatalf("expected TypeError, got %v", err)
	}
}

func TestSignatureVariadicEqual(t *testing.T) {
	sig := Signature{Kind: SigVariadicEqual}
	got, err := sig.ResolveArgTypes("coalesce", []array.DataType{array.Int64, array.Int64, array.Int64})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestSignatureAnyArity(t *testing.T) {
	sig := Signature{Kind: SigAny, Count: 1}
	if _, err := sig.ResolveArgTypes("f", []array.DataType{array.Int64, array.Int64}); err == nil {
		t.Fatalf("expected arity error")
	}
}

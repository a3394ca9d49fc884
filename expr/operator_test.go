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

func buildI32(vals ...int32) array.Array {
	b := array.NewPrimitiveBuilder[int32](array.Int32, len(vals))
	for _, v := range vals {
		b.Append(v)
	}
	return b.Finish()
}

func buildI32WithNull(idx int, vals ...int32) array.Array {
	b := array.NewPrimitiveBuilder[int32](array.Int32, len(vals))
	for i, v := range vals {
		if i == idx {
			b.AppendNull()
			continue
		}
		b.Append(v)
	}
	return b.Finish()
}

func TestBinaryOpArith(t *testing.T) {
	lhs := buildI32(1, 2, 3)
	rhs := buildI32(10, 20, 30)
	out, err := Plus.Eval(lhs, rhs)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 3 {
		t.Fatalf("len = %d, want 3", out.Len())
	}
	for i, want := range []int64{11, 22, 33} {
		got := out.ScalarAt(i)
		if got.Int() != want {
			t.Fatalf("row %d = %d, want %d", i, got.Int(), want)
		}
	}
}

func TestBinaryOpNullPropagation(t *testing.T) {
	lhs := buildI32WithNull(1, 1, 2, 3)
	rhs := buildI32(10, 20, 30)
	out, err := Plus.Eval(lhs, rhs)
	if err != nil {
		t.Fatal(err)
	}
	if !out.ScalarAt(1).IsNull() {
		t.Fatalf("row 1 should be null")
	}
	if out.ScalarAt(0).Int() != 11 {
		t.Fatalf("row 0 = %d, want 11", out.ScalarAt(0).Int())
	}
}

func TestBinaryOpScalarPreservation(t *testing.T) {
	lhs := array.NewScalarArray[int32](array.Int32, 5, 3, true)
	rhs := array.NewScalarArray[int32](array.Int32, 5, 4, true)
	out, err := Multiply.Eval(lhs, rhs)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out.ToScalar(); !ok {
		t.Fatalf("expected scalar-preserved result")
	}
	if out.ScalarAt(0).Int() != 12 {
		t.Fatalf("got %d, want 12", out.ScalarAt(0).Int())
	}
}

func TestCompareOpTypeError(t *testing.T) {
	lhs := buildI32(1)
	rhs := array.NewScalarArrayOf(array.Boolean, 1, array.BoolScalar(true))
	if _, err := Lt.Eval(lhs, rhs); err == nil {
		t.Fatalf("expected type error comparing int32 to boolean")
	}
}

func TestUnaryNot(t *testing.T) {
	b := array.NewPrimitiveBuilder[bool](array.Boolean, 2)
	b.Append(true)
	b.Append(false)
	a := b.Finish()
	out, err := Not.Eval(a)
	if err != nil {
		t.Fatal(err)
	}
	if out.ScalarAt(0).Bool() != false || out.ScalarAt(1).Bool() != true {
		t.Fatalf("not inverted incorrectly")
	}
}

func TestUnaryNeg(t *testing.T) {
	a := buildI32(5, -3)
	out, err := Neg.Eval(a)
	if err != nil {
		t.Fatal(err)
	}
	if out.ScalarAt(0).Int() != -5 || out.ScalarAt(1).Int() != 3 {
		t.Fatalf("neg produced wrong values")
	}
}

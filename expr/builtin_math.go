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
	"math"

	"github.com/sunli829/yql/array"
)

// mathFuncs builds the pointwise, null-propagating scalar math
// functions required by spec.md §4.3, grounded on the original's
// make_math_func! macro (one Uniform(1, [Float64, Float32]) signature
// shared by every entry, dispatching on the array's concrete width).
func mathFuncs() []*Function {
	names := []struct {
		name string
		f64  func(float64) float64
		f32  func(float32) float32
	}{
		{"sqrt", math.Sqrt, sqrt32},
		{"sin", math.Sin, sin32},
		{"cos", math.Cos, cos32},
		{"tan", math.Tan, tan32},
		{"asin", math.Asin, asin32},
		{"acos", math.Acos, acos32},
		{"atan", math.Atan, atan32},
		{"floor", math.Floor, floor32},
		{"ceil", math.Ceil, ceil32},
		{"round", math.Round, round32},
		{"trunc", math.Trunc, trunc32},
		{"abs", math.Abs, abs32},
		{"signum", signum64, signum32},
		{"exp", math.Exp, exp32},
		{"ln", math.Log, log32},
		{"log2", math.Log2, log232},
		{"log10", math.Log10, log1032},
	}
	out := make([]*Function, 0, len(names))
	for _, n := range names {
		n := n
		out = append(out, &Function{
			Name: n.name,
			Signature: Signature{
				Kind:    SigUniform,
				Count:   1,
				Choices: []array.DataType{array.Float64, array.Float32},
			},
			ReturnType: func(argTypes []array.DataType) array.DataType { return argTypes[0] },
			Stateless: func(args []array.Array) (array.Array, error) {
				return applyFloatFunc(args[0], n.f64, n.f32)
			},
		})
	}
	return out
}

func sqrt32(x float32) float32  { return float32(math.Sqrt(float64(x))) }
func sin32(x float32) float32   { return float32(math.Sin(float64(x))) }
func cos32(x float32) float32   { return float32(math.Cos(float64(x))) }
func tan32(x float32) float32   { return float32(math.Tan(float64(x))) }
func asin32(x float32) float32  { return float32(math.Asin(float64(x))) }
func acos32(x float32) float32  { return float32(math.Acos(float64(x))) }
func atan32(x float32) float32  { return float32(math.Atan(float64(x))) }
func floor32(x float32) float32 { return float32(math.Floor(float64(x))) }
func ceil32(x float32) float32  { return float32(math.Ceil(float64(x))) }
func round32(x float32) float32 { return float32(math.Round(float64(x))) }
func trunc32(x float32) float32 { return float32(math.Trunc(float64(x))) }
func abs32(x float32) float32   { return float32(math.Abs(float64(x))) }
func exp32(x float32) float32   { return float32(math.Exp(float64(x))) }
func log32(x float32) float32   { return float32(math.Log(float64(x))) }
func log232(x float32) float32  { return float32(math.Log2(float64(x))) }
func log1032(x float32) float32 { return float32(math.Log10(float64(x))) }

func signum64(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return x
	}
}

func signum32(x float32) float32 { return float32(signum64(float64(x))) }

func applyFloatFunc(a array.Array, f64 func(float64) float64, f32 func(float32) float32) (array.Array, error) {
	n := a.Len()
	dt := a.DataType()
	if s, ok := a.ToScalar(); ok {
		if s.IsNull() {
			return array.NewScalarArrayOf(dt, n, array.NullScalar()), nil
		}
		return array.NewScalarArrayOf(dt, n, applyScalarFloat(dt, s, f64, f32)), nil
	}
	b := array.NewBuilder(dt, n)
	for i := 0; i < n; i++ {
		s := a.ScalarAt(i)
		if s.IsNull() {
			b.AppendScalar(array.NullScalar())
			continue
		}
		b.AppendScalar(applyScalarFloat(dt, s, f64, f32))
	}
	return b.Finish(), nil
}

func applyScalarFloat(dt array.DataType, s array.Scalar, f64 func(float64) float64, f32 func(float32) float32) array.Scalar {
	if dt.Equal(array.Float32) {
		return array.FloatScalar(array.Float32, float64(f32(float32(s.Float()))))
	}
	return array.FloatScalar(array.Float64, f64(s.Float()))
}

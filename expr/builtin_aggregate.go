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
	"github.com/sunli829/yql/wire"
)

// aggregateFuncs builds the running (not windowed) stateful aggregate
// functions of spec.md §4.3: each Call emits one output value per
// input row, that value being the aggregate over every row the
// function instance has seen so far, including earlier batches.
// Grounded on aggregate.rs's running accumulators; stddev/variance add
// Welford's algorithm and lag adds a one-row lookback, per SPEC_FULL.md
// §5.1.
func aggregateFuncs() []*Function {
	numeric := []array.DataType{array.Int64, array.Int32, array.Int16, array.Int8, array.Float64, array.Float32}
	oneNumericArg := Signature{Kind: SigUniform, Count: 1, Choices: numeric}
	return []*Function{
		{
			Name:       "sum",
			Signature:  oneNumericArg,
			ReturnType: func([]array.DataType) array.DataType { return array.Float64 },
			Stateful:   func() StatefulFunction { return &sumState{} },
		},
		{
			Name:       "avg",
			Signature:  oneNumericArg,
			ReturnType: func([]array.DataType) array.DataType { return array.Float64 },
			Stateful:   func() StatefulFunction { return &avgState{} },
		},
		{
			Name:       "count",
			Signature:  Signature{Kind: SigAny, Count: 1},
			ReturnType: func([]array.DataType) array.DataType { return array.Int64 },
			Stateful:   func() StatefulFunction { return &countState{} },
		},
		{
			Name:       "max",
			Signature:  oneNumericArg,
			ReturnType: func(argTypes []array.DataType) array.DataType { return argTypes[0] },
			Stateful:   func() StatefulFunction { return &minMaxState{isMax: true} },
		},
		{
			Name:       "min",
			Signature:  oneNumericArg,
			ReturnType: func(argTypes []array.DataType) array.DataType { return argTypes[0] },
			Stateful:   func() StatefulFunction { return &minMaxState{isMax: false} },
		},
		{
			Name:       "first",
			Signature:  Signature{Kind: SigAny, Count: 1},
			ReturnType: func(argTypes []array.DataType) array.DataType { return argTypes[0] },
			Stateful:   func() StatefulFunction { return &firstLastState{keepFirst: true} },
		},
		{
			Name:       "last",
			Signature:  Signature{Kind: SigAny, Count: 1},
			ReturnType: func(argTypes []array.DataType) array.DataType { return argTypes[0] },
			Stateful:   func() StatefulFunction { return &firstLastState{keepFirst: false} },
		},
		{
			Name:       "stddev",
			Signature:  oneNumericArg,
			ReturnType: func([]array.DataType) array.DataType { return array.Float64 },
			Stateful:   func() StatefulFunction { return &varianceState{std: true} },
		},
		{
			Name:       "variance",
			Signature:  oneNumericArg,
			ReturnType: func([]array.DataType) array.DataType { return array.Float64 },
			Stateful:   func() StatefulFunction { return &varianceState{std: false} },
		},
		{
			Name:       "lag",
			Signature:  Signature{Kind: SigAny, Count: 1},
			ReturnType: func(argTypes []array.DataType) array.DataType { return argTypes[0] },
			Stateful:   func() StatefulFunction { return &lagState{} },
		},
	}
}

func numericAsFloat(s array.Scalar) float64 {
	if s.DataType().IsFloat() {
		return s.Float()
	}
	return float64(s.Int())
}

// sumState accumulates a running total, starting at 0 (aggregate.rs's
// SUM appends the running accumulator for every row, including leading
// rows seen before the first non-null value).
type sumState struct {
	sum float64
}

func (s *sumState) Call(args []array.Array) (array.Array, error) {
	a := args[0]
	n := a.Len()
	b := array.NewPrimitiveBuilder[float64](array.Float64, n)
	for i := 0; i < n; i++ {
		v := a.ScalarAt(i)
		if !v.IsNull() {
			s.sum += numericAsFloat(v)
		}
		b.Append(s.sum)
	}
	return b.Finish(), nil
}

func (s *sumState) SaveState() ([]byte, error) {
	var b wire.Buffer
	b.WriteFloat64(s.sum)
	return b.Bytes(), nil
}

func (s *sumState) LoadState(data []byte) error {
	r := wire.NewReader(data)
	sum, err := r.ReadFloat64()
	if err != nil {
		return err
	}
	s.sum = sum
	return nil
}

func (s *sumState) Clone() StatefulFunction {
	cp := *s
	return &cp
}

// avgState accumulates a running sum and count, appending sum/count for
// every row including leading ones seen before the first non-null value
// (aggregate.rs's AVG does the same; with count still 0 that division
// produces NaN rather than a null output).
type avgState struct {
	sum   float64
	count float64
}

func (s *avgState) Call(args []array.Array) (array.Array, error) {
	a := args[0]
	n := a.Len()
	b := array.NewPrimitiveBuilder[float64](array.Float64, n)
	for i := 0; i < n; i++ {
		v := a.ScalarAt(i)
		if !v.IsNull() {
			s.sum += numericAsFloat(v)
			s.count++
		}
		b.Append(s.sum / s.count)
	}
	return b.Finish(), nil
}

func (s *avgState) SaveState() ([]byte, error) {
	var b wire.Buffer
	b.WriteFloat64(s.sum)
	b.WriteFloat64(s.count)
	return b.Bytes(), nil
}

func (s *avgState) LoadState(data []byte) error {
	r := wire.NewReader(data)
	sum, err := r.ReadFloat64()
	if err != nil {
		return err
	}
	count, err := r.ReadFloat64()
	if err != nil {
		return err
	}
	s.sum, s.count = sum, count
	return nil
}

func (s *avgState) Clone() StatefulFunction {
	cp := *s
	return &cp
}

// countState counts non-null rows seen.
type countState struct{ count int64 }

func (s *countState) Call(args []array.Array) (array.Array, error) {
	a := args[0]
	n := a.Len()
	b := array.NewPrimitiveBuilder[int64](array.Int64, n)
	for i := 0; i < n; i++ {
		if !a.ScalarAt(i).IsNull() {
			s.count++
		}
		b.Append(s.count)
	}
	return b.Finish(), nil
}

func (s *countState) SaveState() ([]byte, error) {
	var b wire.Buffer
	b.WriteVarint(s.count)
	return b.Bytes(), nil
}

func (s *countState) LoadState(data []byte) error {
	r := wire.NewReader(data)
	count, err := r.ReadVarint()
	if err != nil {
		return err
	}
	s.count = count
	return nil
}

func (s *countState) Clone() StatefulFunction {
	cp := *s
	return &cp
}

// minMaxState tracks a running minimum or maximum.
type minMaxState struct {
	isMax bool
	cur   array.Scalar
	seen  bool
}

func (s *minMaxState) Call(args []array.Array) (array.Array, error) {
	a := args[0]
	n := a.Len()
	dt := a.DataType()
	b := array.NewBuilder(dt, n)
	for i := 0; i < n; i++ {
		v := a.ScalarAt(i)
		if !v.IsNull() {
			switch {
			case !s.seen:
				s.cur, s.seen = v, true
			case s.isMax && numericAsFloat(v) > numericAsFloat(s.cur):
				s.cur = v
			case !s.isMax && numericAsFloat(v) < numericAsFloat(s.cur):
				s.cur = v
			}
		}
		if s.seen {
			b.AppendScalar(s.cur)
		} else {
			b.AppendScalar(array.NullScalar())
		}
	}
	return b.Finish(), nil
}

func (s *minMaxState) SaveState() ([]byte, error) {
	var b wire.Buffer
	b.WriteBool(s.seen)
	if s.seen {
		wire.WriteScalar(&b, s.cur)
	}
	return b.Bytes(), nil
}

func (s *minMaxState) LoadState(data []byte) error {
	r := wire.NewReader(data)
	seen, err := r.ReadBool()
	if err != nil {
		return err
	}
	s.seen = seen
	if !seen {
		return nil
	}
	cur, err := wire.ReadScalar(r)
	if err != nil {
		return err
	}
	s.cur = cur
	return nil
}

func (s *minMaxState) Clone() StatefulFunction {
	cp := *s
	return &cp
}

// firstLastState remembers either the first or the most recent
// non-null value seen.
type firstLastState struct {
	keepFirst bool
	cur       array.Scalar
	seen      bool
}

func (s *firstLastState) Call(args []array.Array) (array.Array, error) {
	a := args[0]
	n := a.Len()
	dt := a.DataType()
	b := array.NewBuilder(dt, n)
	for i := 0; i < n; i++ {
		v := a.ScalarAt(i)
		if !v.IsNull() {
			if s.keepFirst {
				if !s.seen {
					s.cur, s.seen = v, true
				}
			} else {
				s.cur, s.seen = v, true
			}
		}
		if s.seen {
			b.AppendScalar(s.cur)
		} else {
			b.AppendScalar(array.NullScalar())
		}
	}
	return b.Finish(), nil
}

func (s *firstLastState) SaveState() ([]byte, error) {
	var b wire.Buffer
	b.WriteBool(s.seen)
	if s.seen {
		wire.WriteScalar(&b, s.cur)
	}
	return b.Bytes(), nil
}

func (s *firstLastState) LoadState(data []byte) error {
	r := wire.NewReader(data)
	seen, err := r.ReadBool()
	if err != nil {
		return err
	}
	s.seen = seen
	if !seen {
		return nil
	}
	cur, err := wire.ReadScalar(r)
	if err != nil {
		return err
	}
	s.cur = cur
	return nil
}

func (s *firstLastState) Clone() StatefulFunction {
	cp := *s
	return &cp
}

// varianceState computes a running sample variance/stddev using
// Welford's online algorithm, avoiding the numerical instability of
// naive sum-of-squares accumulation.
type varianceState struct {
	std   bool
	count int64
	mean  float64
	m2    float64
}

func (s *varianceState) Call(args []array.Array) (array.Array, error) {
	a := args[0]
	n := a.Len()
	b := array.NewPrimitiveBuilder[float64](array.Float64, n)
	for i := 0; i < n; i++ {
		v := a.ScalarAt(i)
		if !v.IsNull() {
			s.count++
			x := numericAsFloat(v)
			delta := x - s.mean
			s.mean += delta / float64(s.count)
			s.m2 += delta * (x - s.mean)
		}
		if s.count < 2 {
			b.AppendNull()
			continue
		}
		variance := s.m2 / float64(s.count-1)
		if s.std {
			b.Append(math.Sqrt(variance))
		} else {
			b.Append(variance)
		}
	}
	return b.Finish(), nil
}

func (s *varianceState) SaveState() ([]byte, error) {
	var b wire.Buffer
	b.WriteVarint(s.count)
	b.WriteFloat64(s.mean)
	b.WriteFloat64(s.m2)
	return b.Bytes(), nil
}

func (s *varianceState) LoadState(data []byte) error {
	r := wire.NewReader(data)
	count, err := r.ReadVarint()
	if err != nil {
		return err
	}
	mean, err := r.ReadFloat64()
	if err != nil {
		return err
	}
	m2, err := r.ReadFloat64()
	if err != nil {
		return err
	}
	s.count, s.mean, s.m2 = count, mean, m2
	return nil
}

func (s *varianceState) Clone() StatefulFunction {
	cp := *s
	return &cp
}

// lagState returns the previous row's value, or null for the first
// row the instance has ever seen.
type lagState struct {
	prev array.Scalar
	seen bool
}

func (s *lagState) Call(args []array.Array) (array.Array, error) {
	a := args[0]
	n := a.Len()
	dt := a.DataType()
	b := array.NewBuilder(dt, n)
	for i := 0; i < n; i++ {
		if s.seen {
			b.AppendScalar(s.prev)
		} else {
			b.AppendScalar(array.NullScalar())
		}
		s.prev, s.seen = a.ScalarAt(i), true
	}
	return b.Finish(), nil
}

func (s *lagState) SaveState() ([]byte, error) {
	var b wire.Buffer
	b.WriteBool(s.seen)
	if s.seen {
		wire.WriteScalar(&b, s.prev)
	}
	return b.Bytes(), nil
}

func (s *lagState) LoadState(data []byte) error {
	r := wire.NewReader(data)
	seen, err := r.ReadBool()
	if err != nil {
		return err
	}
	s.seen = seen
	if !seen {
		return nil
	}
	prev, err := wire.ReadScalar(r)
	if err != nil {
		return err
	}
	s.prev = prev
	return nil
}

func (s *lagState) Clone() StatefulFunction {
	cp := *s
	return &cp
}

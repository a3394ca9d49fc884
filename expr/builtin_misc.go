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
	"strings"
	"time"

	"github.com/sunli829/yql/array"
	"github.com/sunli829/yql/date"
	"github.com/sunli829/yql/fastdate"
	"github.com/sunli829/yql/utf8"
)

// miscFuncs builds the stateless helper functions that round out the
// expression surface: null handling, string assembly, and timestamp
// conversion, grounded on f_ref.rs and the funcs module's timestamp
// helpers.
func miscFuncs() []*Function {
	return []*Function{
		{
			Name:       "coalesce",
			Signature:  Signature{Kind: SigVariadicEqual},
			ReturnType: func(argTypes []array.DataType) array.DataType { return argTypes[0] },
			Stateless:  coalesceFunc,
		},
		{
			Name:       "ifnull",
			Signature:  Signature{Kind: SigVariadicEqual},
			ReturnType: func(argTypes []array.DataType) array.DataType { return argTypes[0] },
			Stateless:  coalesceFunc,
		},
		{
			Name: "chr",
			Signature: Signature{
				Kind:    SigUniform,
				Count:   1,
				Choices: []array.DataType{array.Int64, array.Int32},
			},
			ReturnType: func([]array.DataType) array.DataType { return array.String },
			Stateless:  chrFunc,
		},
		{
			Name:       "concat",
			Signature:  Signature{Kind: SigVariadic, Choices: []array.DataType{array.String}},
			ReturnType: func([]array.DataType) array.DataType { return array.String },
			Stateless:  concatFunc,
		},
		{
			Name:       "char_length",
			Signature:  Signature{Kind: SigUniform, Count: 1, Choices: []array.DataType{array.String}},
			ReturnType: func([]array.DataType) array.DataType { return array.Int64 },
			Stateless:  charLengthFunc,
		},
		{
			Name: "parse_timestamp",
			Signature: Signature{
				Kind:    SigUniform,
				Count:   1,
				Choices: []array.DataType{array.String},
			},
			ReturnType: func([]array.DataType) array.DataType { return array.Timestamp },
			Stateless:  parseTimestampFunc,
		},
		{
			Name:       "format_timestamp",
			Signature:  Signature{Kind: SigExact, Exact: []array.DataType{array.Timestamp, array.String}},
			ReturnType: func([]array.DataType) array.DataType { return array.String },
			Stateless:  formatTimestampFunc,
		},
		{
			Name:       "timestamp_add",
			Signature:  Signature{Kind: SigExact, Exact: []array.DataType{array.Timestamp, array.String, array.Int64}},
			ReturnType: func([]array.DataType) array.DataType { return array.Timestamp },
			Stateless:  timestampAddFunc,
		},
		{
			Name:       "timestamp_sub",
			Signature:  Signature{Kind: SigExact, Exact: []array.DataType{array.Timestamp, array.String, array.Int64}},
			ReturnType: func([]array.DataType) array.DataType { return array.Timestamp },
			Stateless: func(args []array.Array) (array.Array, error) {
				return timestampOffsetFunc(args, -1)
			},
		},
		{
			Name:       "date_extract",
			Signature:  Signature{Kind: SigExact, Exact: []array.DataType{array.String, array.Timestamp}},
			ReturnType: func([]array.DataType) array.DataType { return array.Int64 },
			Stateless:  dateExtractFunc,
		},
	}
}

func coalesceFunc(args []array.Array) (array.Array, error) {
	n := args[0].Len()
	dt := args[0].DataType()
	b := array.NewBuilder(dt, n)
	for i := 0; i < n; i++ {
		s := array.NullScalar()
		for _, a := range args {
			cand := a.ScalarAt(i)
			if !cand.IsNull() {
				s = cand
				break
			}
		}
		b.AppendScalar(s)
	}
	return b.Finish(), nil
}

func chrFunc(args []array.Array) (array.Array, error) {
	a := args[0]
	n := a.Len()
	b := array.NewStringBuilder(n)
	for i := 0; i < n; i++ {
		s := a.ScalarAt(i)
		if s.IsNull() {
			b.AppendNull()
			continue
		}
		b.Append(string(rune(s.Int())))
	}
	return b.Finish(), nil
}

func concatFunc(args []array.Array) (array.Array, error) {
	if len(args) == 0 {
		return array.NewStringBuilder(0).Finish(), nil
	}
	n := args[0].Len()
	b := array.NewStringBuilder(n)
	for i := 0; i < n; i++ {
		var sb strings.Builder
		null := false
		for _, a := range args {
			s := a.ScalarAt(i)
			if s.IsNull() {
				null = true
				break
			}
			sb.WriteString(s.Str())
		}
		if null {
			b.AppendNull()
			continue
		}
		b.Append(sb.String())
	}
	return b.Finish(), nil
}

// charLengthFunc counts runes rather than bytes, using the teacher's
// SWAR-accelerated utf8.ValidStringLength rather than range-looping
// over each string.
func charLengthFunc(args []array.Array) (array.Array, error) {
	a := args[0]
	n := a.Len()
	b := array.NewBuilder(array.Int64, n)
	for i := 0; i < n; i++ {
		s := a.ScalarAt(i)
		if s.IsNull() {
			b.AppendScalar(array.NullScalar())
			continue
		}
		b.AppendScalar(array.IntScalar(array.Int64, int64(utf8.ValidStringLength([]byte(s.Str())))))
	}
	return b.Finish(), nil
}

func parseTimestampFunc(args []array.Array) (array.Array, error) {
	a := args[0]
	n := a.Len()
	b := array.NewBuilder(array.Timestamp, n)
	for i := 0; i < n; i++ {
		s := a.ScalarAt(i)
		if s.IsNull() {
			b.AppendScalar(array.NullScalar())
			continue
		}
		t, ok := date.Parse([]byte(s.Str()))
		if !ok {
			return nil, &RuntimeError{Msg: "parse_timestamp: invalid timestamp string " + s.Str()}
		}
		b.AppendScalar(array.IntScalar(array.Timestamp, t.UnixMicro()/1000))
	}
	return b.Finish(), nil
}

func formatTimestampFunc(args []array.Array) (array.Array, error) {
	ts, layout := args[0], args[1]
	n := ts.Len()
	b := array.NewStringBuilder(n)
	for i := 0; i < n; i++ {
		tsScalar, layoutScalar := ts.ScalarAt(i), layout.ScalarAt(i)
		if tsScalar.IsNull() || layoutScalar.IsNull() {
			b.AppendNull()
			continue
		}
		goLayout := goTimeLayout(layoutScalar.Str())
		b.Append(time.UnixMilli(tsScalar.Int()).UTC().Format(goLayout))
	}
	return b.Finish(), nil
}

// goTimeLayout translates a small set of strftime-style directives
// into Go's reference-time layout; unrecognized verbs pass through.
func goTimeLayout(format string) string {
	r := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%Z", "MST", "%z", "-0700",
	)
	return r.Replace(format)
}

func timestampAddFunc(args []array.Array) (array.Array, error) {
	return timestampOffsetFunc(args, 1)
}

func timestampOffsetFunc(args []array.Array, sign int64) (array.Array, error) {
	ts, unit, amount := args[0], args[1], args[2]
	n := ts.Len()
	b := array.NewBuilder(array.Timestamp, n)
	for i := 0; i < n; i++ {
		tsScalar, unitScalar, amountScalar := ts.ScalarAt(i), unit.ScalarAt(i), amount.ScalarAt(i)
		if tsScalar.IsNull() || unitScalar.IsNull() || amountScalar.IsNull() {
			b.AppendScalar(array.NullScalar())
			continue
		}
		d, err := unitDuration(unitScalar.Str())
		if err != nil {
			return nil, err
		}
		offset := sign * amountScalar.Int() * d
		b.AppendScalar(array.IntScalar(array.Timestamp, tsScalar.Int()+offset))
	}
	return b.Finish(), nil
}

// dateExtractFunc implements date_extract(unit, timestamp), mirroring
// the teacher's DATE_EXTRACT_* bytecode family in vm/interpdatetime.go,
// which decomposes a timestamp with fastdate rather than time.Time.
func dateExtractFunc(args []array.Array) (array.Array, error) {
	unit, ts := args[0], args[1]
	n := ts.Len()
	b := array.NewBuilder(array.Int64, n)
	for i := 0; i < n; i++ {
		unitScalar, tsScalar := unit.ScalarAt(i), ts.ScalarAt(i)
		if unitScalar.IsNull() || tsScalar.IsNull() {
			b.AppendScalar(array.NullScalar())
			continue
		}
		fd := fastdate.Timestamp(tsScalar.Int() * 1000)
		v, err := extractField(unitScalar.Str(), fd)
		if err != nil {
			return nil, err
		}
		b.AppendScalar(array.IntScalar(array.Int64, v))
	}
	return b.Finish(), nil
}

func extractField(unit string, fd fastdate.Timestamp) (int64, error) {
	switch unit {
	case "microsecond":
		return int64(fd.ExtractMicrosecond()), nil
	case "millisecond":
		return int64(fd.ExtractMillisecond()), nil
	case "second":
		return int64(fd.ExtractSecond()), nil
	case "minute":
		return int64(fd.ExtractMinute()), nil
	case "hour":
		return int64(fd.ExtractHour()), nil
	case "day":
		return int64(fd.ExtractDay()), nil
	case "dow":
		return int64(fd.ExtractDOW()), nil
	case "doy":
		return int64(fd.ExtractDOY()), nil
	case "month":
		return int64(fd.ExtractMonth()), nil
	case "quarter":
		return int64(fd.ExtractQuarter()), nil
	case "year":
		return int64(fd.ExtractYear()), nil
	}
	return 0, &RuntimeError{Msg: "date_extract: unknown unit " + unit}
}

// unitDuration returns the number of milliseconds in one unit of the
// named interval. Calendar-variable units (month, year) are not valid
// here; they are handled by the window package's Period kind instead.
func unitDuration(unit string) (int64, error) {
	switch unit {
	case "millisecond", "ms":
		return 1, nil
	case "second", "s":
		return 1000, nil
	case "minute", "m":
		return 60 * 1000, nil
	case "hour", "h":
		return 60 * 60 * 1000, nil
	case "day", "d":
		return 24 * 60 * 60 * 1000, nil
	case "week", "w":
		return 7 * 24 * 60 * 60 * 1000, nil
	}
	return 0, &RuntimeError{Msg: "timestamp_add/timestamp_sub: unknown unit " + unit}
}

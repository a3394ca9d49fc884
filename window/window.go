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

// Package window implements the three window kinds of spec.md §4.8:
// Fixed, Sliding, and calendar-aligned Period windows, each producing
// the set of half-open [start, end) intervals (in epoch milliseconds)
// that a given event timestamp falls into.
package window

import (
	"fmt"
	"time"
)

// Span is a half-open window interval [Start, End) in epoch
// milliseconds.
type Span struct {
	Start, End int64
}

// PeriodUnit names a calendar-aligned window granularity.
type PeriodUnit int

const (
	Day PeriodUnit = iota
	Week
	Month
	Year
)

func (u PeriodUnit) String() string {
	switch u {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	}
	return "?"
}

// Window is the closed enum of window kinds a stream Aggregate
// operator can be configured with.
type Window struct {
	kind kind

	// Fixed, Sliding: lengths in milliseconds.
	length   int64
	interval int64

	// Period
	unit PeriodUnit
	loc  *time.Location
}

type kind uint8

const (
	kindFixed kind = iota
	kindSliding
	kindPeriod
)

// Fixed returns a tumbling window of the given length: every
// timestamp falls in exactly one window, (t/length)*length to
// start+length.
func Fixed(lengthMs int64) Window {
	return Window{kind: kindFixed, length: lengthMs}
}

// Sliding returns overlapping windows of lengthMs that begin every
// intervalMs; a single timestamp can fall in more than one.
func Sliding(lengthMs, intervalMs int64) Window {
	return Window{kind: kindSliding, length: lengthMs, interval: intervalMs}
}

// Period returns a calendar-aligned window (one per row) in the named
// IANA timezone. NewPeriod should be used instead when tz needs to be
// validated; Period panics on an unknown zone, mirroring how a literal
// Fixed/Sliding call can't fail either.
func Period(unit PeriodUnit, tz string) Window {
	w, err := NewPeriod(unit, tz)
	if err != nil {
		panic(err)
	}
	return w
}

// NewPeriod validates tz against the IANA database before constructing
// a Period window.
func NewPeriod(unit PeriodUnit, tz string) (Window, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Window{}, fmt.Errorf("window: unknown timezone %q: %w", tz, err)
	}
	return Window{kind: kindPeriod, unit: unit, loc: loc}, nil
}

// Windows returns every window timestampMs (epoch milliseconds) falls
// into, per spec.md §4.8's formulas.
func (w Window) Windows(timestampMs int64) []Span {
	switch w.kind {
	case kindFixed:
		start := timestampMs / w.length * w.length
		return []Span{{Start: start, End: start + w.length}}
	case kindSliding:
		last := timestampMs / w.interval * w.interval
		var out []Span
		for start := last - (w.length-1)/w.interval*w.interval; start <= last; start += w.interval {
			if start+w.length > timestampMs {
				out = append(out, Span{Start: start, End: start + w.length})
			}
		}
		return out
	case kindPeriod:
		start, end := w.periodWindow(timestampMs)
		return []Span{{Start: start, End: end}}
	}
	return nil
}

func (w Window) periodWindow(timestampMs int64) (start, end int64) {
	t := time.UnixMilli(timestampMs).In(w.loc)
	y, m, d := t.Date()

	var s, e time.Time
	switch w.unit {
	case Day:
		s = time.Date(y, m, d, 0, 0, 0, 0, w.loc)
		e = s.AddDate(0, 0, 1)
	case Week:
		// Week starts on Monday: convert Go's Sunday=0 weekday to a
		// Monday=0 ordinal before subtracting.
		weekday := (int(t.Weekday()) + 6) % 7
		dayStart := time.Date(y, m, d, 0, 0, 0, 0, w.loc)
		s = dayStart.AddDate(0, 0, -weekday)
		e = s.AddDate(0, 0, 7)
	case Month:
		s = time.Date(y, m, 1, 0, 0, 0, 0, w.loc)
		e = s.AddDate(0, 1, 0)
	case Year:
		s = time.Date(y, time.January, 1, 0, 0, 0, 0, w.loc)
		e = s.AddDate(1, 0, 0)
	}
	return s.UnixMilli(), e.UnixMilli()
}

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

// Package stream implements the operator state machine — Source,
// Projection, Filter, Aggregate — and the checkpoint barrier protocol
// that snapshots every operator's state at a consistent point in the
// event sequence (spec.md §4.4-§4.7, §5).
package stream

// StateError reports a checkpoint blob referencing an unknown operator
// id, an expression state referencing an unknown function slot, or a
// malformed checkpoint deserialization (spec.md §7's State error kind).
type StateError struct {
	Msg string
}

func (e *StateError) Error() string { return "stream: " + e.Msg }

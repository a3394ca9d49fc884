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

package stream

import "github.com/sunli829/yql/dataset"

// Event is one of the two kinds flowing between operators (spec.md
// §5): a data batch with its watermark, or a checkpoint barrier. A
// zero-value Event is never valid; exactly one of DataSet or Barrier
// is set.
type Event struct {
	DataSet   *dataset.DataSet
	Watermark int64
	Barrier   *CheckPointBarrier
}

// NewDataEvent wraps a batch and its watermark as an Event.
func NewDataEvent(ds *dataset.DataSet, watermark int64) Event {
	return Event{DataSet: ds, Watermark: watermark}
}

// NewCheckpointEvent wraps a barrier as an Event.
func NewCheckpointEvent(b *CheckPointBarrier) Event {
	return Event{Barrier: b}
}

// IsCheckpoint reports whether this event carries a barrier rather
// than a data batch.
func (e Event) IsCheckpoint() bool { return e.Barrier != nil }

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

package source

import (
	"encoding/binary"
	"io"

	"github.com/sunli829/yql/dataset"
)

// TestHarness replays a fixed sequence of pre-built DataSets, one per
// call to Stream.Next. Its driver state is the index of the next
// dataset to emit, so resuming from a saved state skips exactly the
// datasets already delivered.
type TestHarness struct {
	schema   *dataset.Schema
	datasets []*dataset.DataSet
}

// NewTestHarness returns a driver that replays datasets in order; all
// datasets must share schema.
func NewTestHarness(schema *dataset.Schema, datasets []*dataset.DataSet) *TestHarness {
	return &TestHarness{schema: schema, datasets: datasets}
}

func (h *TestHarness) ProviderName() string    { return "test" }
func (h *TestHarness) Schema() *dataset.Schema { return h.schema }

func (h *TestHarness) Open(state []byte) (Stream, error) {
	offset := 0
	if len(state) == 8 {
		offset = int(binary.BigEndian.Uint64(state))
	}
	return &testHarnessStream{h: h, next: offset}, nil
}

type testHarnessStream struct {
	h    *TestHarness
	next int
}

func (s *testHarnessStream) Next() ([]byte, *dataset.DataSet, error) {
	if s.next >= len(s.h.datasets) {
		return nil, nil, io.EOF
	}
	ds := s.h.datasets[s.next]
	s.next++
	state := make([]byte, 8)
	binary.BigEndian.PutUint64(state, uint64(s.next))
	return state, ds, nil
}

func (s *testHarnessStream) Close() error { return nil }

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

// Package source defines the external source-driver contract
// (spec.md §6.1) and supplies two concrete drivers: a CSV reader and
// a test-harness driver for deterministic pipeline tests.
package source

import (
	"github.com/sunli829/yql/dataset"
)

// Driver is a named source provider: it declares its output schema
// and opens resumable Streams of batched rows.
type Driver interface {
	ProviderName() string
	Schema() *dataset.Schema

	// Open starts a stream, resuming from state if non-nil. state is
	// whatever this driver last returned from a Stream's Next — it is
	// opaque to the engine (spec.md §6.1).
	Open(state []byte) (Stream, error)
}

// Stream yields batches of rows. Next returns (nil, nil, io.EOF) once
// the stream is exhausted, mirroring the io.Reader end-of-data
// convention; state is the opaque resumption position to persist
// alongside the returned DataSet, valid as of right after this row
// batch.
type Stream interface {
	Next() (state []byte, ds *dataset.DataSet, err error)
	Close() error
}

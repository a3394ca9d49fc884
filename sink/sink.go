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

// Package sink defines the external sink-driver contract (spec.md
// §6.2) and a console sink used by the demonstration CLI and tests.
package sink

import "github.com/sunli829/yql/dataset"

// Driver names a sink kind and creates instances of it.
type Driver interface {
	ProviderName() string
	Create() (Sink, error)
}

// Sink receives output DataSets in order. The job driver calls Send
// synchronously for each one.
type Sink interface {
	Send(ds *dataset.DataSet) error
}

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

import (
	"sort"

	"github.com/sunli829/yql/expr"
	"github.com/sunli829/yql/wire"
)

// writeExprState appends e's per-expression stateful-function state
// (empty if e is nil, e.g. an absent time_expr/watermark_expr) to b in
// ascending slot order, so two runs of the same expression tree
// produce byte-identical output.
func writeExprState(b *wire.Buffer, e *expr.Expr) error {
	if e == nil {
		b.WriteUvarint(0)
		return nil
	}
	state, err := e.SaveState()
	if err != nil {
		return err
	}
	ids := make([]uint64, 0, len(state))
	for id := range state {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	b.WriteUvarint(uint64(len(ids)))
	for _, id := range ids {
		b.WriteUvarint(id)
		b.WriteBytes(state[id])
	}
	return nil
}

// readExprState is the inverse of writeExprState. When e is nil the
// encoded state is still consumed from r (to keep the reader aligned
// with whatever sibling fields follow) but discarded.
func readExprState(r *wire.Reader, e *expr.Expr) error {
	n, err := r.ReadUvarint()
	if err != nil {
		return err
	}
	state := make(map[uint64][]byte, n)
	for i := uint64(0); i < n; i++ {
		id, err := r.ReadUvarint()
		if err != nil {
			return err
		}
		data, err := r.ReadBytes()
		if err != nil {
			return err
		}
		buf := make([]byte, len(data))
		copy(buf, data)
		state[id] = buf
	}
	if e == nil {
		return nil
	}
	return e.LoadState(state)
}

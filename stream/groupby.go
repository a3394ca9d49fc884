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
	"bytes"
	"encoding/binary"
	"math"

	"github.com/dchest/siphash"

	"github.com/sunli829/yql/array"
)

const (
	keyTagNull byte = iota
	keyTagBool
	keyTagInt
	keyTagFloat
	keyTagString
)

// encodeGroupKey builds the composite key spec.md §4.7 describes: the
// per-row typed values (null, bool, int as i64, float as ordered bits,
// string) of values, in order.
func encodeGroupKey(values []array.Scalar) []byte {
	var buf bytes.Buffer
	var tmp [8]byte
	for _, v := range values {
		if v.IsNull() {
			buf.WriteByte(keyTagNull)
			continue
		}
		switch {
		case v.DataType().IsBoolean():
			buf.WriteByte(keyTagBool)
			if v.Bool() {
				buf.WriteByte(1)
			} else {
				buf.WriteByte(0)
			}
		case v.DataType().IsFloat():
			buf.WriteByte(keyTagFloat)
			binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v.Float()))
			buf.Write(tmp[:])
		case v.DataType().IsString():
			buf.WriteByte(keyTagString)
			binary.BigEndian.PutUint64(tmp[:], uint64(len(v.Str())))
			buf.Write(tmp[:])
			buf.WriteString(v.Str())
		default: // integer or timestamp
			buf.WriteByte(keyTagInt)
			binary.BigEndian.PutUint64(tmp[:], uint64(v.Int()))
			buf.Write(tmp[:])
		}
	}
	return buf.Bytes()
}

// groupEntry is one (key, value) pair tracked by a groupIndex, in the
// order it was first seen.
type groupEntry struct {
	key   []byte
	value *groupState
}

// groupIndex maps composite group-by keys to per-group aggregate state
// using a hash-then-compare two-level structure: siphash buckets the
// key to a small candidate set, then an exact byte comparison picks
// the match, mirroring the teacher's hash-aggregate bucketing
// (vm/interphash.go) rather than a direct string-keyed map. Iteration
// order follows insertion, which spec.md §4.7 requires group output to
// preserve.
type groupIndex struct {
	buckets map[uint64][]int
	entries []*groupEntry
}

func newGroupIndex() *groupIndex {
	return &groupIndex{buckets: make(map[uint64][]int)}
}

func (g *groupIndex) hash(key []byte) uint64 {
	return siphash.Hash(0, 0, key)
}

func (g *groupIndex) find(key []byte) (*groupState, bool) {
	h := g.hash(key)
	for _, idx := range g.buckets[h] {
		if bytes.Equal(g.entries[idx].key, key) {
			return g.entries[idx].value, true
		}
	}
	return nil, false
}

// getOrCreate returns the existing group for key, or creates one via
// create and records it at the end of insertion order.
func (g *groupIndex) getOrCreate(key []byte, create func() *groupState) *groupState {
	if v, ok := g.find(key); ok {
		return v
	}
	v := create()
	h := g.hash(key)
	idx := len(g.entries)
	g.entries = append(g.entries, &groupEntry{key: key, value: v})
	g.buckets[h] = append(g.buckets[h], idx)
	return v
}

// InOrder returns the tracked groups in insertion order.
func (g *groupIndex) InOrder() []*groupState {
	out := make([]*groupState, len(g.entries))
	for i, e := range g.entries {
		out[i] = e.value
	}
	return out
}

// keys returns the raw composite keys in the same insertion order as
// InOrder, so a caller can pair each group with the key it was stored
// under (e.g. when checkpointing).
func (g *groupIndex) keys() [][]byte {
	out := make([][]byte, len(g.entries))
	for i, e := range g.entries {
		out[i] = e.key
	}
	return out
}

func (g *groupIndex) Len() int { return len(g.entries) }

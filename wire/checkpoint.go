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

package wire

import (
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/sunli829/yql/compr"
)

// Checkpoint is the durable form of a barrier snapshot: every
// operator's opaque state, keyed by operator id, taken at the moment
// all sources rendezvoused on the same barrier (spec.md §6.3).
type Checkpoint struct {
	BarrierID uint64
	States    map[uint64][]byte
}

// EncodeCheckpoint serializes a Checkpoint to a varint-framed
// {operator_id -> bytes} map, compresses it with zstd, and appends a
// blake2b-256 checksum of the compressed payload so a truncated or
// corrupted checkpoint file is detected on load rather than silently
// misread.
func EncodeCheckpoint(cp *Checkpoint) ([]byte, error) {
	var b Buffer
	b.WriteUvarint(cp.BarrierID)
	b.WriteUvarint(uint64(len(cp.States)))
	ids := make([]uint64, 0, len(cp.States))
	for id := range cp.States {
		ids = append(ids, id)
	}
	sortUint64(ids)
	for _, id := range ids {
		b.WriteUvarint(id)
		b.WriteBytes(cp.States[id])
	}

	comp := compr.Compression("zstd")
	compressed := comp.Compress(b.Bytes(), nil)

	sum := blake2b.Sum256(compressed)

	var out Buffer
	out.WriteUvarint(uint64(len(b.Bytes())))
	out.WriteBytes(compressed)
	out.buf = append(out.buf, sum[:]...)
	return out.Bytes(), nil
}

// DecodeCheckpoint is the inverse of EncodeCheckpoint. It verifies the
// trailing checksum before decompressing.
func DecodeCheckpoint(data []byte) (*Checkpoint, error) {
	if len(data) < blake2b.Size256 {
		return nil, fmt.Errorf("wire: checkpoint blob too short to hold a checksum")
	}
	body := data[:len(data)-blake2b.Size256]
	wantSum := data[len(data)-blake2b.Size256:]

	r := NewReader(body)
	uncompressedLen, err := r.ReadUvarint()
	if err != nil {
		return nil, err
	}
	compressed, err := r.ReadBytes()
	if err != nil {
		return nil, fmt.Errorf("wire: reading compressed checkpoint body: %w", err)
	}

	gotSum := blake2b.Sum256(compressed)
	if string(gotSum[:]) != string(wantSum) {
		return nil, fmt.Errorf("wire: checkpoint checksum mismatch, blob is corrupt")
	}

	decompressed := make([]byte, uncompressedLen)
	if err := compr.Decompression("zstd").Decompress(compressed, decompressed); err != nil {
		return nil, fmt.Errorf("wire: decompressing checkpoint body: %w", err)
	}

	dr := NewReader(decompressed)
	barrierID, err := dr.ReadUvarint()
	if err != nil {
		return nil, err
	}
	n, err := dr.ReadUvarint()
	if err != nil {
		return nil, err
	}
	states := make(map[uint64][]byte, n)
	for i := uint64(0); i < n; i++ {
		id, err := dr.ReadUvarint()
		if err != nil {
			return nil, err
		}
		state, err := dr.ReadBytes()
		if err != nil {
			return nil, err
		}
		buf := make([]byte, len(state))
		copy(buf, state)
		states[id] = buf
	}
	return &Checkpoint{BarrierID: barrierID, States: states}, nil
}

func sortUint64(ids []uint64) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}

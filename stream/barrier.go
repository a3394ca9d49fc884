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
	"context"
	"sync"

	"github.com/google/uuid"
)

// rendezvous is a reusable cyclic barrier: Arrive blocks every caller
// until exactly total callers have arrived, then releases them all at
// once. Grounded on the original's tokio::sync::Barrier, which plays
// the same role for the source-operator rendezvous (spec.md §5).
type rendezvous struct {
	mu      sync.Mutex
	total   int
	arrived int
	release chan struct{}
}

func newRendezvous(total int) *rendezvous {
	if total < 1 {
		total = 1
	}
	return &rendezvous{total: total, release: make(chan struct{})}
}

func (r *rendezvous) Arrive(ctx context.Context) error {
	r.mu.Lock()
	r.arrived++
	ch := r.release
	if r.arrived == r.total {
		close(ch)
		r.arrived = 0
		r.release = make(chan struct{})
	}
	r.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CheckPointBarrier is the control event the job driver injects into
// every source operator: all sources rendezvous on it so the stream is
// cut at the same logical point, then every operator (source and
// downstream) records its state blob under its stable operator id.
// Grounded on original_source/libs/stream/src/checkpoint.rs.
type CheckPointBarrier struct {
	ID uuid.UUID

	mu        sync.Mutex
	states    map[uint64][]byte
	nodeCount int
	exit      bool
	done      chan struct{}
	closeOnce sync.Once

	sources *rendezvous
}

// NewCheckPointBarrier constructs a barrier expecting state from
// exactly nodeCount operators (source and downstream) and a rendezvous
// of sourceCount source operators. exit marks this as the final
// barrier of a job shutting down.
func NewCheckPointBarrier(nodeCount, sourceCount int, exit bool) *CheckPointBarrier {
	return &CheckPointBarrier{
		ID:        uuid.New(),
		states:    make(map[uint64][]byte, nodeCount),
		nodeCount: nodeCount,
		exit:      exit,
		done:      make(chan struct{}),
		sources:   newRendezvous(sourceCount),
	}
}

// SourceArrive blocks until every source operator has reached this
// barrier, mirroring the "source_barrier" rendezvous of spec.md §5.
func (b *CheckPointBarrier) SourceArrive(ctx context.Context) error {
	return b.sources.Arrive(ctx)
}

// IsExit reports whether this barrier marks a final, shutdown
// checkpoint.
func (b *CheckPointBarrier) IsExit() bool { return b.exit }

// IsSaved reports whether operator id has already recorded its state.
func (b *CheckPointBarrier) IsSaved(id uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.states[id]
	return ok
}

// SetState records operator id's state blob. Once every expected
// operator has recorded its state, Wait unblocks.
func (b *CheckPointBarrier) SetState(id uint64, state []byte) {
	b.mu.Lock()
	if state == nil {
		state = []byte{}
	}
	b.states[id] = state
	complete := len(b.states) == b.nodeCount
	b.mu.Unlock()
	if complete {
		b.closeOnce.Do(func() { close(b.done) })
	}
}

// Wait blocks until every expected operator has called SetState.
func (b *CheckPointBarrier) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TakeState returns the accumulated {operator_id -> state} map and
// resets it, so the same CheckPointBarrier value could in principle be
// reused (not currently done, but mirrors the original's take_state).
func (b *CheckPointBarrier) TakeState() map[uint64][]byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.states
	b.states = make(map[uint64][]byte, b.nodeCount)
	return out
}

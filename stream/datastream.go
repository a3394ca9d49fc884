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
	"encoding/binary"
	"io"

	"github.com/sunli829/yql/dataset"
	"github.com/sunli829/yql/plan"
	"github.com/sunli829/yql/sink"
	"github.com/sunli829/yql/wire"
)

// operator is the contract every non-source stream stage satisfies:
// process one input batch into zero or more output batches, and save
// or restore its own opaque state.
type operator interface {
	ID() int
	Process(ds *dataset.DataSet, watermark int64) ([]*dataset.DataSet, error)
	Checkpoint() ([]byte, error)
	Restore(state []byte) error
}

// DataStream drives a single lowered physical plan end to end: pull a
// batch from its one Source, push it synchronously through every
// downstream operator in order, and hand whatever survives to a Sink.
// This grammar never produces a join, so a physical plan is always one
// linear chain with exactly one source (spec.md §6.5) — the barrier
// protocol (barrier.go) stays genuinely concurrent and independently
// testable, but driving the pipeline itself needs no goroutines.
type DataStream struct {
	source *Source
	ops    []operator
	sink   sink.Sink
}

// NewDataStream builds the operator chain described by lowered and
// opens sinkDriver to receive its output.
func NewDataStream(lowered *plan.Lowered, sinkDriver sink.Driver) (*DataStream, error) {
	chain := flattenChain(lowered.Root)
	if len(chain) == 0 || chain[0].Kind != plan.KindSource {
		return nil, &StateError{Msg: "physical plan chain does not begin with a source"}
	}

	src, err := NewSource(chain[0])
	if err != nil {
		return nil, err
	}

	ops := make([]operator, 0, len(chain)-1)
	for _, pp := range chain[1:] {
		op, err := newOperator(pp)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	sk, err := sinkDriver.Create()
	if err != nil {
		return nil, err
	}

	return &DataStream{source: src, ops: ops, sink: sk}, nil
}

func newOperator(pp *plan.PhysicalPlan) (operator, error) {
	switch pp.Kind {
	case plan.KindProjection:
		return NewProjection(pp)
	case plan.KindFilter:
		return NewFilter(pp)
	case plan.KindAggregate:
		return NewAggregate(pp)
	}
	return nil, &StateError{Msg: "physical plan node has no stream operator"}
}

// flattenChain walks pp down through Input pointers and returns the
// nodes source-first.
func flattenChain(pp *plan.PhysicalPlan) []*plan.PhysicalPlan {
	var rootToSource []*plan.PhysicalPlan
	for n := pp; n != nil; n = n.Input {
		rootToSource = append(rootToSource, n)
	}
	out := make([]*plan.PhysicalPlan, len(rootToSource))
	for i, n := range rootToSource {
		out[len(rootToSource)-1-i] = n
	}
	return out
}

// Run pulls every batch the source produces, pushing each through the
// operator chain to the sink, until the source is exhausted. It then
// force-flushes any outstanding aggregate windows (spec.md §4.7) and
// closes the source.
func (d *DataStream) Run() error {
	for {
		ds, watermark, err := d.source.Pull()
		if err != nil {
			if err == io.EOF {
				return d.finish()
			}
			return err
		}
		if err := d.push([]*dataset.DataSet{ds}, d.ops, watermark); err != nil {
			return err
		}
	}
}

// push threads batches through ops in order, sending whatever remains
// after the last stage to the sink.
func (d *DataStream) push(batches []*dataset.DataSet, ops []operator, watermark int64) error {
	out, err := runThrough(batches, ops, watermark)
	if err != nil {
		return err
	}
	for _, b := range out {
		if err := d.sink.Send(b); err != nil {
			return err
		}
	}
	return nil
}

func runThrough(batches []*dataset.DataSet, ops []operator, watermark int64) ([]*dataset.DataSet, error) {
	for _, op := range ops {
		var next []*dataset.DataSet
		for _, b := range batches {
			out, err := op.Process(b, watermark)
			if err != nil {
				return nil, err
			}
			next = append(next, out...)
		}
		batches = next
		if len(batches) == 0 {
			return nil, nil
		}
	}
	return batches, nil
}

// finish force-emits every Aggregate operator's outstanding windows
// once the source is exhausted, pushing the result through whatever
// operators follow it, then closes the source.
func (d *DataStream) finish() error {
	for i, op := range d.ops {
		agg, ok := op.(*Aggregate)
		if !ok {
			continue
		}
		flushed := agg.flush()
		if len(flushed) == 0 {
			continue
		}
		if err := d.push(flushed, d.ops[i+1:], agg.currentWatermark); err != nil {
			return err
		}
	}
	return d.source.Close()
}

// Checkpoint rendezvouses every source (just the one, in this
// grammar), collects every operator's state blob, and encodes the
// result as a durable wire.Checkpoint (spec.md §5/§6.3). exit marks
// this as the job's final checkpoint before shutdown.
func (d *DataStream) Checkpoint(ctx context.Context, exit bool) ([]byte, error) {
	barrier := NewCheckPointBarrier(1+len(d.ops), 1, exit)
	if err := barrier.SourceArrive(ctx); err != nil {
		return nil, err
	}

	srcState, err := d.source.Checkpoint()
	if err != nil {
		return nil, err
	}
	barrier.SetState(uint64(d.source.ID()), srcState)
	for _, op := range d.ops {
		st, err := op.Checkpoint()
		if err != nil {
			return nil, err
		}
		barrier.SetState(uint64(op.ID()), st)
	}

	if err := barrier.Wait(ctx); err != nil {
		return nil, err
	}

	cp := &wire.Checkpoint{BarrierID: barrierIDUint64(barrier.ID), States: barrier.TakeState()}
	return wire.EncodeCheckpoint(cp)
}

// Restore decodes a checkpoint produced by Checkpoint and dispatches
// every state blob to its matching operator by id.
func (d *DataStream) Restore(data []byte) error {
	cp, err := wire.DecodeCheckpoint(data)
	if err != nil {
		return err
	}
	if st, ok := cp.States[uint64(d.source.ID())]; ok {
		if err := d.source.Restore(st); err != nil {
			return err
		}
	}
	for _, op := range d.ops {
		if st, ok := cp.States[uint64(op.ID())]; ok {
			if err := op.Restore(st); err != nil {
				return err
			}
		}
	}
	return nil
}

func barrierIDUint64(id [16]byte) uint64 {
	return binary.BigEndian.Uint64(id[:8])
}

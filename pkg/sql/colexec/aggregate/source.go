// Copyright 2022 The StarRocks Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package aggregate

import (
	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/sql/colexec/expression"
	"github.com/dupen01/starrocks/pkg/vm"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

// AggregateBlockingSourceOperator drains the shared Aggregator once the
// sink half completed, applying runtime filters and the stage's
// conjuncts to every drained chunk.
type AggregateBlockingSourceOperator struct {
	vm.OperatorBase
	aggr *Aggregator

	// runtimeFilters arrive from peer operators once their build side
	// finished; probed before the conjuncts. Not owned here.
	runtimeFilters []*expression.RuntimeFilter

	observer Observer
}

func NewAggregateBlockingSourceOperator(aggr *Aggregator) *AggregateBlockingSourceOperator {
	aggr.Ref()
	return &AggregateBlockingSourceOperator{aggr: aggr}
}

func (op *AggregateBlockingSourceOperator) OpType() vm.OpType {
	return vm.AggregateBlockingSource
}

func (op *AggregateBlockingSourceOperator) String() string {
	return "aggregate_blocking_source"
}

// AttachObserver hands the operator the driver's wake handle; Prepare
// registers it on the aggregator.
func (op *AggregateBlockingSourceOperator) AttachObserver(wake func()) {
	op.observer = ObserverFunc(wake)
}

func (op *AggregateBlockingSourceOperator) AddRuntimeFilter(rf *expression.RuntimeFilter) {
	op.runtimeFilters = append(op.runtimeFilters, rf)
}

func (op *AggregateBlockingSourceOperator) Prepare(proc *process.Process) error {
	if err := op.OperatorBase.Prepare(proc); err != nil {
		return err
	}
	if op.observer != nil {
		op.aggr.AttachSourceObserver(op.observer)
	}
	return nil
}

// HasOutput is true once the sink half completed and draining has not
// exhausted the table. The driver polls it, so it stays two flag reads.
func (op *AggregateBlockingSourceOperator) HasOutput() bool {
	return op.aggr.SinkComplete() && !op.aggr.HTEOS()
}

// IsFinished is the terminal signal: input consumed and state drained.
func (op *AggregateBlockingSourceOperator) IsFinished() bool {
	return op.aggr.SinkComplete() && op.aggr.HTEOS()
}

func (op *AggregateBlockingSourceOperator) SetFinished(proc *process.Process) error {
	notify := op.aggr.SetFinished()
	defer notify.Fire()
	return nil
}

// PullChunk drains one chunk. A zero-row result is a valid "emit
// nothing this call"; only IsFinished signals end of stream.
func (op *AggregateBlockingSourceOperator) PullChunk(proc *process.Process) (*chunk.Chunk, error) {
	if _, done := vm.CancelCheck(proc); done {
		return nil, proc.QueryCancelError()
	}

	var chk *chunk.Chunk
	var err error
	if op.aggr.Mode() == ModeNoGroupBy {
		chk, err = op.aggr.ConvertToChunkNoGroupBy(proc)
	} else {
		chk, err = op.aggr.ConvertHashMapToChunk(proc, proc.ChunkSize())
	}
	if err != nil {
		return nil, err
	}

	before := chk.RowCount()

	// A pre-cache stage emits serialized partial state that ordinary
	// predicates cannot read; filtering it would corrupt the result.
	if !op.aggr.IsPreCache() {
		if err := expression.EvalRuntimeFilters(op.runtimeFilters, chk); err != nil {
			chk.Clean(proc.Mp())
			return nil, err
		}
		if err := expression.FilterChunk(proc, op.aggr.Conjuncts(), chk); err != nil {
			chk.Clean(proc.Mp())
			return nil, err
		}
	}

	// give back the rows filtering removed, so the counter holds only
	// rows actually emitted
	proc.UpdateRowsReturned(int64(chk.RowCount() - before))
	return chk, nil
}

func (op *AggregateBlockingSourceOperator) Close(proc *process.Process) error {
	if op.Closed() {
		return nil
	}
	op.aggr.Unref()
	return op.OperatorBase.Close(proc)
}

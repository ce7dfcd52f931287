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
	"strings"

	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/sql/colexec/aggexec"
	"github.com/dupen01/starrocks/pkg/vm"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

// AggregateSinkOperator consumes the input stream of one aggregation
// stage and feeds the shared Aggregator.
type AggregateSinkOperator struct {
	vm.OperatorBase
	aggr      *Aggregator
	finishing bool
}

func NewAggregateSinkOperator(aggr *Aggregator) *AggregateSinkOperator {
	aggr.Ref()
	return &AggregateSinkOperator{aggr: aggr}
}

func (op *AggregateSinkOperator) OpType() vm.OpType { return vm.AggregateSink }

func (op *AggregateSinkOperator) String() string {
	var sb strings.Builder
	sb.WriteString("aggregate_sink([")
	for i, call := range op.aggr.aggCalls {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(aggexec.Names[call.Op])
	}
	sb.WriteString("])")
	return sb.String()
}

func (op *AggregateSinkOperator) NeedInput() bool {
	return !op.finishing
}

// PushChunk folds one chunk into the shared aggregator. Aggregate
// function failures come back as coded errors and abort the stage.
func (op *AggregateSinkOperator) PushChunk(proc *process.Process, c *chunk.Chunk) error {
	return op.aggr.Update(proc, c)
}

// SetFinishing marks the natural end of input: the sink half finalizes
// and every source driver blocked on sink completion wakes up.
func (op *AggregateSinkOperator) SetFinishing(proc *process.Process) error {
	if op.finishing {
		return nil
	}
	if err := op.aggr.FinalizeSink(); err != nil {
		return err
	}
	op.finishing = true
	op.aggr.NotifySourceObservers()
	return nil
}

// SetFinished aborts the stage: the aggregator force-drops to drained
// and undrained state is discarded.
func (op *AggregateSinkOperator) SetFinished(proc *process.Process) error {
	notify := op.aggr.SetFinished()
	defer notify.Fire()
	op.finishing = true
	return nil
}

func (op *AggregateSinkOperator) IsFinished() bool {
	return op.finishing
}

func (op *AggregateSinkOperator) Close(proc *process.Process) error {
	if op.Closed() {
		return nil
	}
	op.aggr.Unref()
	return op.OperatorBase.Close(proc)
}

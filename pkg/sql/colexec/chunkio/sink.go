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

package chunkio

import (
	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/vm"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

// ChunkSinkOperator is a terminal sink half that retains every pushed
// chunk. The pusher keeps its own reference; the sink takes one of its
// own, so collected chunks stay alive after the driver cleans up.
type ChunkSinkOperator struct {
	vm.OperatorBase

	collected []*chunk.Chunk
	finishing bool
}

// NewChunkSink builds an empty collecting sink.
func NewChunkSink() *ChunkSinkOperator {
	return &ChunkSinkOperator{}
}

func (op *ChunkSinkOperator) OpType() vm.OpType {
	return vm.ChunkSink
}

func (op *ChunkSinkOperator) String() string {
	return "chunk_sink"
}

func (op *ChunkSinkOperator) NeedInput() bool {
	return !op.finishing
}

// PushChunk retains c. Zero-row chunks mean "nothing this round" and
// are dropped.
func (op *ChunkSinkOperator) PushChunk(proc *process.Process, c *chunk.Chunk) error {
	if _, done := vm.CancelCheck(proc); done {
		return proc.QueryCancelError()
	}
	if c == nil || c.RowCount() == 0 {
		return nil
	}
	c.AddCnt(1)
	op.collected = append(op.collected, c)
	return nil
}

func (op *ChunkSinkOperator) SetFinishing(proc *process.Process) error {
	op.finishing = true
	return nil
}

// IsFinished mirrors SetFinishing: a terminal sink has no drain phase.
func (op *ChunkSinkOperator) IsFinished() bool {
	return op.finishing
}

func (op *ChunkSinkOperator) SetFinished(proc *process.Process) error {
	op.finishing = true
	return nil
}

// TakeChunks transfers the collected chunks and their references to the
// caller, who becomes responsible for cleaning them.
func (op *ChunkSinkOperator) TakeChunks() []*chunk.Chunk {
	out := op.collected
	op.collected = nil
	return out
}

func (op *ChunkSinkOperator) Close(proc *process.Process) error {
	if op.Closed() {
		return nil
	}
	for _, chk := range op.collected {
		chk.Clean(proc.Mp())
	}
	op.collected = nil
	return op.OperatorBase.Close(proc)
}

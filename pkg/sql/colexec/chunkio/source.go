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

// Package chunkio holds the pipeline edge operators: ChunkSourceOperator
// replays a preloaded chunk stream into a pipeline and ChunkSinkOperator
// collects what a pipeline produces. Scans and result delivery plug in
// here; tests and the bench binary use them directly.
package chunkio

import (
	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/vm"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

// ChunkSourceOperator is a source half that replays preloaded chunks in
// order. It owns every chunk until PullChunk hands it out; ownership of
// a pulled chunk transfers to the caller.
type ChunkSourceOperator struct {
	vm.OperatorBase

	chunks []*chunk.Chunk
	pos    int
	forced bool
}

// NewChunkSource takes ownership of chunks and replays them in order.
func NewChunkSource(chunks []*chunk.Chunk) *ChunkSourceOperator {
	return &ChunkSourceOperator{chunks: chunks}
}

func (op *ChunkSourceOperator) OpType() vm.OpType {
	return vm.ChunkSource
}

func (op *ChunkSourceOperator) String() string {
	return "chunk_source"
}

func (op *ChunkSourceOperator) HasOutput() bool {
	return !op.forced && op.pos < len(op.chunks)
}

func (op *ChunkSourceOperator) IsFinished() bool {
	return op.forced || op.pos >= len(op.chunks)
}

// PullChunk hands out the next chunk and its reference. A finished
// source keeps returning nil.
func (op *ChunkSourceOperator) PullChunk(proc *process.Process) (*chunk.Chunk, error) {
	if _, done := vm.CancelCheck(proc); done {
		return nil, proc.QueryCancelError()
	}
	if op.forced || op.pos >= len(op.chunks) {
		return nil, nil
	}
	chk := op.chunks[op.pos]
	op.chunks[op.pos] = nil
	op.pos++
	return chk, nil
}

// SetFinished cuts the replay short; undelivered chunks are released at
// Close.
func (op *ChunkSourceOperator) SetFinished(proc *process.Process) error {
	op.forced = true
	return nil
}

func (op *ChunkSourceOperator) Close(proc *process.Process) error {
	if op.Closed() {
		return nil
	}
	for i := op.pos; i < len(op.chunks); i++ {
		op.chunks[i].Clean(proc.Mp())
		op.chunks[i] = nil
	}
	op.chunks = nil
	return op.OperatorBase.Close(proc)
}

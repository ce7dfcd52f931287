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

package vm

import (
	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

// Operator is the unit the pipeline driver polls. An operator never
// blocks inside a call: readiness is reported through NeedInput and
// HasOutput, and the driver only invokes PushChunk or PullChunk after
// the matching readiness check returned true.
//
// Lifecycle on the sink side is SetFinishing for a natural end of
// input and SetFinished for an abort. Both are one way. Close always
// runs last, exactly once, success or failure.
type Operator interface {
	Prepare(proc *process.Process) error
	Close(proc *process.Process) error

	OpType() OpType
	String() string

	// Sink half. Operators that consume no input keep NeedInput false.
	NeedInput() bool
	PushChunk(proc *process.Process, c *chunk.Chunk) error
	SetFinishing(proc *process.Process) error

	// Source half. Operators that produce no output keep HasOutput false
	// and IsFinished true once finishing.
	HasOutput() bool
	IsFinished() bool
	PullChunk(proc *process.Process) (*chunk.Chunk, error)

	SetFinished(proc *process.Process) error
}

// ObserverAttacher is the optional interface of operators whose
// readiness depends on a peer operator. The driver hands over its wake
// handle before Prepare; the operator registers it wherever its
// readiness is decided.
type ObserverAttacher interface {
	AttachObserver(wake func())
}

type OpType int

const (
	AggregateSink OpType = iota
	AggregateBlockingSource
	ChunkSource
	ChunkSink
)

// OperatorBase carries the state every operator shares; concrete
// operators embed it and override the calls they participate in.
type OperatorBase struct {
	prepared bool
	closed   bool
}

func (o *OperatorBase) Prepare(proc *process.Process) error {
	o.prepared = true
	return nil
}

func (o *OperatorBase) Close(proc *process.Process) error {
	o.closed = true
	return nil
}

func (o *OperatorBase) Prepared() bool { return o.prepared }
func (o *OperatorBase) Closed() bool   { return o.closed }

func (o *OperatorBase) NeedInput() bool { return false }

func (o *OperatorBase) PushChunk(proc *process.Process, c *chunk.Chunk) error {
	return nil
}

func (o *OperatorBase) SetFinishing(proc *process.Process) error { return nil }

func (o *OperatorBase) HasOutput() bool  { return false }
func (o *OperatorBase) IsFinished() bool { return true }

func (o *OperatorBase) PullChunk(proc *process.Process) (*chunk.Chunk, error) {
	return nil, nil
}

func (o *OperatorBase) SetFinished(proc *process.Process) error { return nil }

// CancelCheck reports whether the query context is already done.
// Operators call it at the top of PullChunk and PushChunk so a
// cancelled query fails fast instead of burning a drain step.
func CancelCheck(proc *process.Process) (error, bool) {
	select {
	case <-proc.Ctx.Done():
		return proc.Ctx.Err(), true
	default:
		return nil, false
	}
}

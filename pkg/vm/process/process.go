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

package process

import (
	"context"
	"sync/atomic"

	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/common/srerr"
)

// DefaultChunkSize is the row capacity an operator aims for when it
// assembles an output chunk.
const DefaultChunkSize = 8192

// Process keeps the query scoped context shared by every operator of a
// fragment: the cancellation context, the memory pool charged for all
// vector allocations, and the running counters the frontend reads for
// LIMIT enforcement.
type Process struct {
	Ctx    context.Context
	Cancel context.CancelFunc

	id        string
	mp        *mpool.MPool
	chunkSize int

	// rowsReturned counts rows this fragment has emitted to its
	// consumer. Operators that filter rows after producing them must
	// give the removed rows back through UpdateRowsReturned.
	rowsReturned atomic.Int64
}

// New builds a Process on top of ctx. The returned process owns a
// derived context so Cancel only tears down this query.
func New(ctx context.Context, mp *mpool.MPool) *Process {
	proc := &Process{mp: mp}
	proc.Ctx, proc.Cancel = context.WithCancel(ctx)
	return proc
}

func (proc *Process) QueryId() string {
	return proc.id
}

func (proc *Process) SetQueryId(id string) {
	proc.id = id
}

// ChunkSize is the row budget an operator targets per output chunk.
func (proc *Process) ChunkSize() int {
	if proc == nil || proc.chunkSize <= 0 {
		return DefaultChunkSize
	}
	return proc.chunkSize
}

func (proc *Process) SetChunkSize(n int) {
	proc.chunkSize = n
}

// Some expression eval paths run without a proc (test only?). Hack in
// a fallback pool so a nil proc never turns into a nil mpool deref.
var xxxProcMp = mpool.MustNew("fallback_proc_mp")

func (proc *Process) GetMPool() *mpool.MPool {
	if proc == nil {
		return xxxProcMp
	}
	return proc.mp
}

func (proc *Process) Mp() *mpool.MPool {
	return proc.GetMPool()
}

// UpdateRowsReturned adjusts the emitted row counter by delta. A
// negative delta takes back rows that a post-filter removed from an
// already counted chunk.
func (proc *Process) UpdateRowsReturned(delta int64) {
	proc.rowsReturned.Add(delta)
}

func (proc *Process) RowsReturned() int64 {
	return proc.rowsReturned.Load()
}

// QueryCancelError maps the context error of a torn down query to the
// error the frontend reports for interrupted statements.
func (proc *Process) QueryCancelError() error {
	if err := proc.Ctx.Err(); err != nil {
		return srerr.ConvertGoError(proc.Ctx, err)
	}
	return srerr.NewQueryInterrupted(proc.Ctx)
}

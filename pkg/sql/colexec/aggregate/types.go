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

// Package aggregate implements the blocking hash-aggregation stage: an
// AggregateSinkOperator folds the input stream into a shared Aggregator,
// and an AggregateBlockingSourceOperator drains the result once the sink
// half completed. The two operators never call each other; everything
// they share goes through the Aggregator.
package aggregate

import (
	"sync"
	"sync/atomic"

	"github.com/dupen01/starrocks/pkg/common/hashmap"
	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/container/vector"
	"github.com/dupen01/starrocks/pkg/sql/colexec/aggexec"
	"github.com/dupen01/starrocks/pkg/sql/colexec/expression"
)

// AggrMode is fixed at construction; a stage never changes mode.
type AggrMode int

const (
	ModeNoGroupBy AggrMode = iota
	ModeGroupBy
)

// AggCall names one aggregate output column: the function and the
// expression producing its input. The input expression must be row
// aligned with the chunk (column references, not one-row constants).
type AggCall struct {
	Op   int
	Expr expression.ExpressionExecutor
}

// AggregatorSpec fixes the shape of one aggregation stage. The
// aggregator takes ownership of every executor in the spec and frees
// them when the last reference drops.
type AggregatorSpec struct {
	// GroupExprs computes the group-by key columns; empty means the
	// whole input folds into a single accumulator.
	GroupExprs []expression.ExpressionExecutor

	// GroupNullable widens the packed hash key by one null byte per
	// column. A stage whose group keys cannot hold nulls keeps the
	// narrower key and rejects null-key rows outright.
	GroupNullable bool

	AggCalls []AggCall

	// Conjuncts are the post-aggregation predicates (HAVING) the source
	// half applies to every drained chunk.
	Conjuncts []expression.ExpressionExecutor

	// IsPreCache keeps the output in the serialized partial-state form
	// for a downstream merge stage and skips all post-aggregation
	// filtering over it.
	IsPreCache bool
}

// Observer wakes a parked pipeline driver. Wake must not block, and
// waking a driver that is already runnable must be a no-op.
type Observer interface {
	Wake()
}

// ObserverFunc adapts a plain function to an Observer.
type ObserverFunc func()

func (f ObserverFunc) Wake() { f() }

// DeferNotify is the deferred wakeup token of a forced finish: the
// holder mutates shared state first and fires the token after, so a
// woken observer never reads the aggregator before the change landed.
type DeferNotify struct {
	obs []Observer
}

// Fire wakes the captured observers once; later calls are no-ops.
func (d *DeferNotify) Fire() {
	obs := d.obs
	d.obs = nil
	for _, ob := range obs {
		ob.Wake()
	}
}

// Aggregator owns the aggregation state one sink/source pair shares:
// the group hash map, the per-function executors, the materialized
// group-key vectors, and the completion flags the two halves handshake
// through. It is reference counted; resources release exactly once when
// the count drops to zero.
//
// At most one goroutine updates and at most one drains. The two may run
// concurrently until sinkComplete is observed: the atomic store in
// FinalizeSink publishes every accumulator write that preceded it.
type Aggregator struct {
	mode       AggrMode
	isPreCache bool

	mp *mpool.MPool

	groupExprs []expression.ExpressionExecutor
	conjuncts  []expression.ExpressionExecutor
	aggCalls   []AggCall
	aggs       []aggexec.AggFuncExec

	hash hashmap.HashMap
	itr  hashmap.Iterator

	// keyVecs hold each group's key values at index gid-1, appended at
	// insert time so draining never rehashes.
	keyVecs []*vector.Vector

	// groupCount is owned by the sink half; drainBound snapshots it at
	// finalization and bounds the drain cursor.
	groupCount int
	drainBound int

	// drainOffset is owned by the source half once sinkComplete is up.
	drainOffset int

	finalized    atomic.Bool
	sinkComplete atomic.Bool
	htEOS        atomic.Bool

	refCount atomic.Int32

	mu        sync.Mutex
	observers []Observer

	// per-chunk scratch reused across Update calls
	groupVecs []*vector.Vector
	aggVecs   [][]*vector.Vector
	inserted  []uint8
	zInserted []uint8
}

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
	"github.com/dupen01/starrocks/pkg/common/hashmap"
	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/container/vector"
	"github.com/dupen01/starrocks/pkg/sql/colexec/aggexec"
	"github.com/dupen01/starrocks/pkg/sql/colexec/expression"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

// NewAggregator builds the shared state of one aggregation stage. The
// returned aggregator holds no references yet; each operator attaching
// to it calls Ref.
func NewAggregator(spec AggregatorSpec, mp *mpool.MPool) (*Aggregator, error) {
	a := &Aggregator{
		isPreCache: spec.IsPreCache,
		mp:         mp,
		groupExprs: spec.GroupExprs,
		conjuncts:  spec.Conjuncts,
		aggCalls:   spec.AggCalls,
	}
	a.aggs = make([]aggexec.AggFuncExec, len(spec.AggCalls))
	for i, call := range spec.AggCalls {
		if call.Expr == nil {
			a.release()
			return nil, srerr.NewInvalidArgNoCtx("aggregate input expression", i)
		}
		exec, err := aggexec.New(call.Op, call.Expr.OutputType(), mp)
		if err != nil {
			a.release()
			return nil, err
		}
		a.aggs[i] = exec
	}
	a.aggVecs = make([][]*vector.Vector, len(a.aggs))
	for i := range a.aggVecs {
		a.aggVecs[i] = make([]*vector.Vector, 1)
	}

	if len(spec.GroupExprs) == 0 {
		a.mode = ModeNoGroupBy
		for _, ag := range a.aggs {
			if err := ag.GroupGrow(1); err != nil {
				a.release()
				return nil, err
			}
		}
		return a, nil
	}

	a.mode = ModeGroupBy
	a.keyVecs = make([]*vector.Vector, len(spec.GroupExprs))
	keyWidth := 0
	varlen := false
	for i, ge := range spec.GroupExprs {
		typ := ge.OutputType()
		a.keyVecs[i] = vector.NewVec(typ)
		if w := typ.Oid.FixedLength(); w < 0 {
			varlen = true
		} else {
			keyWidth += w
		}
		if spec.GroupNullable {
			keyWidth++
		}
	}
	if !varlen && keyWidth <= hashmap.MaxIntFixedKeySize {
		m := hashmap.NewIntHashMap(spec.GroupNullable)
		a.hash, a.itr = m, m.NewIterator()
	} else {
		m := hashmap.NewStrHashMap(spec.GroupNullable)
		a.hash, a.itr = m, m.NewIterator()
	}
	a.groupVecs = make([]*vector.Vector, len(spec.GroupExprs))
	a.inserted = make([]uint8, hashmap.UnitLimit)
	a.zInserted = make([]uint8, hashmap.UnitLimit)
	return a, nil
}

func (a *Aggregator) Mode() AggrMode { return a.mode }

func (a *Aggregator) IsPreCache() bool { return a.isPreCache }

// GroupCount reports the number of materialized groups. Sink side owns
// it; the source half reads it only after observing SinkComplete.
func (a *Aggregator) GroupCount() int { return a.groupCount }

func (a *Aggregator) SinkComplete() bool { return a.sinkComplete.Load() }

func (a *Aggregator) HTEOS() bool { return a.htEOS.Load() }

// Conjuncts exposes the stage's post-aggregation predicates to the
// source half.
func (a *Aggregator) Conjuncts() []expression.ExpressionExecutor {
	return a.conjuncts
}

// Ref attaches one more holder.
func (a *Aggregator) Ref() {
	a.refCount.Add(1)
}

// Unref detaches one holder; the last one releases the hash map, the
// executors and the key vectors.
func (a *Aggregator) Unref() {
	if a.refCount.Add(-1) != 0 {
		return
	}
	a.release()
}

func (a *Aggregator) release() {
	if a.hash != nil {
		a.hash.Free()
		a.hash, a.itr = nil, nil
	}
	for _, ag := range a.aggs {
		if ag != nil {
			ag.Free()
		}
	}
	a.aggs = nil
	for _, kv := range a.keyVecs {
		if kv != nil {
			kv.Free(a.mp)
		}
	}
	a.keyVecs = nil
	for _, ge := range a.groupExprs {
		if ge != nil {
			ge.Free()
		}
	}
	a.groupExprs = nil
	for _, c := range a.conjuncts {
		if c != nil {
			c.Free()
		}
	}
	a.conjuncts = nil
	for i := range a.aggCalls {
		if a.aggCalls[i].Expr != nil {
			a.aggCalls[i].Expr.Free()
		}
	}
	a.aggCalls = nil
	a.mu.Lock()
	a.observers = nil
	a.mu.Unlock()
}

// AttachSourceObserver registers a source-side wake handle; it fires
// when the sink completes or a forced finish lands. Handles detach
// implicitly at teardown.
func (a *Aggregator) AttachSourceObserver(ob Observer) {
	if ob == nil {
		return
	}
	a.mu.Lock()
	a.observers = append(a.observers, ob)
	a.mu.Unlock()
}

func (a *Aggregator) snapshotObservers() []Observer {
	a.mu.Lock()
	obs := make([]Observer, len(a.observers))
	copy(obs, a.observers)
	a.mu.Unlock()
	return obs
}

// NotifySourceObservers wakes every registered source driver. Callers
// mutate shared state before notifying, never after.
func (a *Aggregator) NotifySourceObservers() {
	for _, ob := range a.snapshotObservers() {
		ob.Wake()
	}
}

// Update folds one input chunk into the aggregation state. Sink side
// only, before FinalizeSink. Empty chunks are a no-op.
func (a *Aggregator) Update(proc *process.Process, chk *chunk.Chunk) error {
	if chk == nil || chk.RowCount() == 0 {
		return nil
	}
	for i, call := range a.aggCalls {
		vec, err := call.Expr.Eval(proc, chk)
		if err != nil {
			return err
		}
		a.aggVecs[i][0] = vec
	}
	if a.mode == ModeNoGroupBy {
		for i, ag := range a.aggs {
			if err := ag.BulkFill(0, a.aggVecs[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return a.updateGroups(proc, chk)
}

func (a *Aggregator) updateGroups(proc *process.Process, chk *chunk.Chunk) error {
	for i, ge := range a.groupExprs {
		vec, err := ge.Eval(proc, chk)
		if err != nil {
			return err
		}
		a.groupVecs[i] = vec
	}
	count := chk.RowCount()
	for i := 0; i < count; i += hashmap.UnitLimit {
		n := count - i
		if n > hashmap.UnitLimit {
			n = hashmap.UnitLimit
		}
		rows := a.hash.GroupCount()
		vals, err := a.itr.Insert(i, n, a.groupVecs)
		if err != nil {
			return err
		}
		if err := a.batchFill(i, n, vals, rows); err != nil {
			return err
		}
	}
	return nil
}

// batchFill materializes the unit's new groups and folds its rows. A
// group id above the pre-insert count names a fresh group: its key
// values append to the result vectors and every executor grows by one
// slot, keeping gid-1 a valid index everywhere.
func (a *Aggregator) batchFill(i, n int, vals []uint64, hashRows uint64) error {
	cnt := 0
	copy(a.inserted[:n], a.zInserted[:n])
	for k, v := range vals[:n] {
		if v == 0 {
			continue
		}
		if v > hashRows {
			a.inserted[k] = 1
			hashRows++
			cnt++
		}
	}
	if cnt > 0 {
		a.groupCount += cnt
		for j, vec := range a.keyVecs {
			if err := vector.UnionBatch(vec, a.groupVecs[j], int64(i), n, a.inserted[:n], a.mp); err != nil {
				return err
			}
		}
		for _, ag := range a.aggs {
			if err := ag.GroupGrow(cnt); err != nil {
				return err
			}
		}
	}
	for j, ag := range a.aggs {
		if err := ag.BatchFill(int64(i), vals[:n], a.aggVecs[j]); err != nil {
			return err
		}
	}
	return nil
}

// FinalizeSink publishes the end of input: the group count snapshots
// into the drain bound and sinkComplete flips, releasing every
// accumulator write to the source half. Exactly one call per
// aggregator; a second call is a programming error.
func (a *Aggregator) FinalizeSink() error {
	if !a.finalized.CompareAndSwap(false, true) {
		return srerr.NewInvalidStateNoCtx("aggregate sink finalized twice")
	}
	a.drainBound = a.groupCount
	a.sinkComplete.Store(true)
	return nil
}

// SetFinished force-completes the aggregator from any state, discarding
// whatever has not been drained. The returned token carries the
// observer wakeups; the caller fires it only after its own state change
// is visible.
func (a *Aggregator) SetFinished() *DeferNotify {
	a.sinkComplete.Store(true)
	a.htEOS.Store(true)
	return &DeferNotify{obs: a.snapshotObservers()}
}

// ConvertToChunkNoGroupBy materializes the single accumulator into a
// one-row chunk and finishes draining. NoGroupBy mode only.
func (a *Aggregator) ConvertToChunkNoGroupBy(proc *process.Process) (*chunk.Chunk, error) {
	chk := chunk.NewWithSize(len(a.aggs))
	for i, ag := range a.aggs {
		vec, err := a.flushWindow(ag, 0, 1)
		if err != nil {
			chk.Clean(proc.Mp())
			return nil, err
		}
		chk.SetVector(int32(i), vec)
	}
	chk.SetRowCount(1)
	a.htEOS.Store(true)
	proc.UpdateRowsReturned(1)
	return chk, nil
}

// ConvertHashMapToChunk advances the drain cursor by up to batchSize
// groups, materializing their key values and aggregate results into a
// fresh chunk. Groups come out in insertion order; no group is skipped
// or repeated. htEOS rises when the cursor reaches the bound recorded
// at finalization.
func (a *Aggregator) ConvertHashMapToChunk(proc *process.Process, batchSize int) (*chunk.Chunk, error) {
	if batchSize <= 0 {
		batchSize = process.DefaultChunkSize
	}
	start := a.drainOffset
	end := start + batchSize
	if end > a.drainBound {
		end = a.drainBound
	}
	n := end - start
	chk := chunk.NewWithSize(len(a.keyVecs) + len(a.aggs))
	for j, kv := range a.keyVecs {
		w, err := kv.CloneWindow(start, end, proc.Mp())
		if err != nil {
			chk.Clean(proc.Mp())
			return nil, err
		}
		chk.SetVector(int32(j), w)
	}
	for j, ag := range a.aggs {
		vec, err := a.flushWindow(ag, int64(start), int64(n))
		if err != nil {
			chk.Clean(proc.Mp())
			return nil, err
		}
		chk.SetVector(int32(len(a.keyVecs)+j), vec)
	}
	chk.SetRowCount(n)
	a.drainOffset = end
	if a.drainOffset >= a.drainBound {
		a.htEOS.Store(true)
	}
	proc.UpdateRowsReturned(int64(n))
	return chk, nil
}

// flushWindow picks the output form: finalized values for a terminal
// stage, serialized partial state for a pre-cache stage feeding a merge.
func (a *Aggregator) flushWindow(ag aggexec.AggFuncExec, start, count int64) (*vector.Vector, error) {
	if a.isPreCache {
		return ag.SerializePartial(start, count)
	}
	return ag.Flush(start, count)
}

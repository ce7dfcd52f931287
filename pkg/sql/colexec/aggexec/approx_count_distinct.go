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

package aggexec

import (
	hll "github.com/axiomhq/hyperloglog"

	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
)

// approxCountDistinctAgg keeps one hyperloglog sketch per group and
// feeds it the raw storage bytes of each non-null row. Works for any
// input type since distinctness only needs stable bytes per value.
type approxCountDistinctAgg struct {
	mp    *mpool.MPool
	otyp  types.Type
	ityps []types.Type

	sks []*hll.Sketch
}

func newApproxCountDistinct(ityp types.Type, mp *mpool.MPool) *approxCountDistinctAgg {
	return &approxCountDistinctAgg{
		mp:    mp,
		otyp:  types.T_uint64.ToType(),
		ityps: []types.Type{ityp},
	}
}

func (a *approxCountDistinctAgg) OutputType() types.Type {
	return a.otyp
}

func (a *approxCountDistinctAgg) InputTypes() []types.Type {
	return a.ityps
}

func (a *approxCountDistinctAgg) GroupGrow(count int) error {
	for i := 0; i < count; i++ {
		a.sks = append(a.sks, hll.New())
	}
	return nil
}

func (a *approxCountDistinctAgg) Free() {
	a.sks = nil
}

func (a *approxCountDistinctAgg) Fill(groupIdx int64, rowIndex int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	if vec.IsNull(uint64(rowIndex)) {
		return nil
	}
	a.sks[groupIdx].Insert(vec.GetRawBytesAt(int(rowIndex)))
	return nil
}

func (a *approxCountDistinctAgg) BulkFill(groupIdx int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	sk := a.sks[groupIdx]
	for i, n := 0, vec.Length(); i < n; i++ {
		if vec.IsNull(uint64(i)) {
			continue
		}
		sk.Insert(vec.GetRawBytesAt(i))
	}
	return nil
}

func (a *approxCountDistinctAgg) BatchFill(offset int64, groups []uint64, vectors []*vector.Vector) error {
	vec := vectors[0]
	for i := range groups {
		if groups[i] == GroupNotMatch {
			continue
		}
		rowIndex := offset + int64(i)
		if vec.IsNull(uint64(rowIndex)) {
			continue
		}
		a.sks[groups[i]-1].Insert(vec.GetRawBytesAt(int(rowIndex)))
	}
	return nil
}

func (a *approxCountDistinctAgg) Merge(other AggFuncExec, groupIdx1, groupIdx2 int64) error {
	b := other.(*approxCountDistinctAgg)
	return a.sks[groupIdx1].Merge(b.sks[groupIdx2])
}

func (a *approxCountDistinctAgg) Flush(start, count int64) (*vector.Vector, error) {
	if start < 0 || count < 0 || start+count > int64(len(a.sks)) {
		return nil, srerr.NewInvalidArgNoCtx("aggregate flush window", start+count)
	}
	vec := vector.NewVec(a.otyp)
	for i := start; i < start+count; i++ {
		if err := vector.AppendFixed(vec, a.sks[i].Estimate(), false, a.mp); err != nil {
			vec.Free(a.mp)
			return nil, err
		}
	}
	return vec, nil
}

func (a *approxCountDistinctAgg) SerializePartial(start, count int64) (*vector.Vector, error) {
	if start < 0 || count < 0 || start+count > int64(len(a.sks)) {
		return nil, srerr.NewInvalidArgNoCtx("aggregate flush window", start+count)
	}
	vec := vector.NewVec(types.T_varchar.ToType())
	for i := start; i < start+count; i++ {
		var state []byte
		if a.sks[i].Estimate() == 0 {
			state = encodePartialState(true, nil)
		} else {
			payload, err := a.sks[i].MarshalBinary()
			if err != nil {
				vec.Free(a.mp)
				return nil, srerr.NewInternalErrorNoCtx("marshal hll sketch: %v", err)
			}
			state = encodePartialState(false, payload)
		}
		if err := vector.AppendBytes(vec, state, false, a.mp); err != nil {
			vec.Free(a.mp)
			return nil, err
		}
	}
	return vec, nil
}

func (a *approxCountDistinctAgg) MergePartial(groupIdx int64, partial []byte) error {
	empty, payload, err := decodePartialState(partial)
	if err != nil {
		return err
	}
	if empty {
		return nil
	}
	sk := hll.New()
	if err := sk.UnmarshalBinary(payload); err != nil {
		return srerr.NewInternalErrorNoCtx("unmarshal hll sketch: %v", err)
	}
	return a.sks[groupIdx].Merge(sk)
}

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
	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
)

const avgPartialSize = 16

// avgAgg keeps a running float64 sum per group in the shared fixed
// state and the matching row count in cnts. The two move together:
// GroupGrow and Merge touch both or neither.
type avgAgg[T1 numeric] struct {
	fixedAggState[float64]
	cnts []int64
}

func newAvg(ityp types.Type, mp *mpool.MPool) (AggFuncExec, error) {
	otyp, err := ReturnType(AggregateAvg, ityp)
	if err != nil {
		return nil, err
	}
	switch ityp.Oid {
	case types.T_int8:
		return newAvgAgg[int8](ityp, otyp, mp), nil
	case types.T_int16:
		return newAvgAgg[int16](ityp, otyp, mp), nil
	case types.T_int32:
		return newAvgAgg[int32](ityp, otyp, mp), nil
	case types.T_int64:
		return newAvgAgg[int64](ityp, otyp, mp), nil
	case types.T_uint8:
		return newAvgAgg[uint8](ityp, otyp, mp), nil
	case types.T_uint16:
		return newAvgAgg[uint16](ityp, otyp, mp), nil
	case types.T_uint32:
		return newAvgAgg[uint32](ityp, otyp, mp), nil
	case types.T_uint64:
		return newAvgAgg[uint64](ityp, otyp, mp), nil
	case types.T_float32:
		return newAvgAgg[float32](ityp, otyp, mp), nil
	case types.T_float64:
		return newAvgAgg[float64](ityp, otyp, mp), nil
	}
	return nil, srerr.NewNotSupportedNoCtx("aggregate avg on type %s", ityp.Oid)
}

func newAvgAgg[T1 numeric](ityp, otyp types.Type, mp *mpool.MPool) *avgAgg[T1] {
	return &avgAgg[T1]{
		fixedAggState: fixedAggState[float64]{
			mp:    mp,
			otyp:  otyp,
			ityps: []types.Type{ityp},
		},
	}
}

func (a *avgAgg[T1]) GroupGrow(count int) error {
	if err := a.fixedAggState.GroupGrow(count); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		a.cnts = append(a.cnts, 0)
	}
	return nil
}

func (a *avgAgg[T1]) Free() {
	a.fixedAggState.Free()
	a.cnts = nil
}

func (a *avgAgg[T1]) fillValue(groupIdx int64, value T1) {
	a.vs[groupIdx] += float64(value)
	a.cnts[groupIdx]++
	a.es[groupIdx] = false
}

func (a *avgAgg[T1]) Fill(groupIdx int64, rowIndex int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	if vec.IsNull(uint64(rowIndex)) {
		return nil
	}
	a.fillValue(groupIdx, vector.MustFixedCol[T1](vec)[rowIndex])
	return nil
}

func (a *avgAgg[T1]) BulkFill(groupIdx int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	values := vector.MustFixedCol[T1](vec)
	if !vec.HasNull() {
		for i := range values {
			a.vs[groupIdx] += float64(values[i])
		}
		if len(values) > 0 {
			a.cnts[groupIdx] += int64(len(values))
			a.es[groupIdx] = false
		}
		return nil
	}
	for i := range values {
		if vec.IsNull(uint64(i)) {
			continue
		}
		a.fillValue(groupIdx, values[i])
	}
	return nil
}

func (a *avgAgg[T1]) BatchFill(offset int64, groups []uint64, vectors []*vector.Vector) error {
	vec := vectors[0]
	values := vector.MustFixedCol[T1](vec)
	for i := range groups {
		if groups[i] == GroupNotMatch {
			continue
		}
		rowIndex := offset + int64(i)
		if vec.IsNull(uint64(rowIndex)) {
			continue
		}
		a.fillValue(int64(groups[i]-1), values[rowIndex])
	}
	return nil
}

func (a *avgAgg[T1]) Merge(other AggFuncExec, groupIdx1, groupIdx2 int64) error {
	b := other.(*avgAgg[T1])
	if b.cnts[groupIdx2] == 0 {
		return nil
	}
	a.vs[groupIdx1] += b.vs[groupIdx2]
	a.cnts[groupIdx1] += b.cnts[groupIdx2]
	a.es[groupIdx1] = false
	return nil
}

func (a *avgAgg[T1]) Flush(start, count int64) (*vector.Vector, error) {
	if err := a.checkWindow(start, count); err != nil {
		return nil, err
	}
	vec := vector.NewVec(a.otyp)
	for i := start; i < start+count; i++ {
		var value float64
		if a.cnts[i] > 0 {
			value = a.vs[i] / float64(a.cnts[i])
		}
		if err := vector.AppendFixed(vec, value, a.cnts[i] == 0, a.mp); err != nil {
			vec.Free(a.mp)
			return nil, err
		}
	}
	return vec, nil
}

func (a *avgAgg[T1]) SerializePartial(start, count int64) (*vector.Vector, error) {
	if err := a.checkWindow(start, count); err != nil {
		return nil, err
	}
	vec := vector.NewVec(types.T_varchar.ToType())
	payload := make([]byte, 0, avgPartialSize)
	for i := start; i < start+count; i++ {
		payload = payload[:0]
		payload = append(payload, types.EncodeFixed(a.vs[i])...)
		payload = append(payload, types.EncodeFixed(a.cnts[i])...)
		state := encodePartialState(a.cnts[i] == 0, payload)
		if err := vector.AppendBytes(vec, state, false, a.mp); err != nil {
			vec.Free(a.mp)
			return nil, err
		}
	}
	return vec, nil
}

func (a *avgAgg[T1]) MergePartial(groupIdx int64, partial []byte) error {
	empty, payload, err := decodePartialState(partial)
	if err != nil {
		return err
	}
	if empty {
		return nil
	}
	if len(payload) != avgPartialSize {
		return srerr.NewInvalidInputNoCtx("partial aggregate payload size %d", len(payload))
	}
	a.vs[groupIdx] += types.DecodeFixed[float64](payload[:8])
	a.cnts[groupIdx] += types.DecodeFixed[int64](payload[8:])
	a.es[groupIdx] = false
	return nil
}

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
	"github.com/dupen01/starrocks/pkg/vectorize/sum"
)

// sumAgg accumulates T1 values into the wider T2. The add hook carries
// the overflow rule of the accumulator type.
type sumAgg[T1 numeric, T2 numeric] struct {
	fixedAggState[T2]
	add func(x, y T2) (T2, error)
}

func addInt64(x, y int64) (int64, error) {
	r := x + y
	if (y > 0 && r < x) || (y < 0 && r > x) {
		return 0, srerr.NewOutOfRangeNoCtx("bigint", "sum of bigint value is out of range")
	}
	return r, nil
}

func addUint64(x, y uint64) (uint64, error) {
	r := x + y
	if r < x {
		return 0, srerr.NewOutOfRangeNoCtx("bigint unsigned", "sum of bigint unsigned value is out of range")
	}
	return r, nil
}

func addFloat64(x, y float64) (float64, error) {
	return x + y, nil
}

func newSumAgg[T1 numeric, T2 numeric](ityp types.Type, otyp types.Type, mp *mpool.MPool, add func(T2, T2) (T2, error)) *sumAgg[T1, T2] {
	return &sumAgg[T1, T2]{
		fixedAggState: fixedAggState[T2]{
			mp:    mp,
			otyp:  otyp,
			ityps: []types.Type{ityp},
		},
		add: add,
	}
}

func newSum(ityp types.Type, mp *mpool.MPool) (AggFuncExec, error) {
	otyp, err := ReturnType(AggregateSum, ityp)
	if err != nil {
		return nil, err
	}
	switch ityp.Oid {
	case types.T_int8:
		return newSumAgg[int8, int64](ityp, otyp, mp, addInt64), nil
	case types.T_int16:
		return newSumAgg[int16, int64](ityp, otyp, mp, addInt64), nil
	case types.T_int32:
		return newSumAgg[int32, int64](ityp, otyp, mp, addInt64), nil
	case types.T_int64:
		return newSumAgg[int64, int64](ityp, otyp, mp, addInt64), nil
	case types.T_uint8:
		return newSumAgg[uint8, uint64](ityp, otyp, mp, addUint64), nil
	case types.T_uint16:
		return newSumAgg[uint16, uint64](ityp, otyp, mp, addUint64), nil
	case types.T_uint32:
		return newSumAgg[uint32, uint64](ityp, otyp, mp, addUint64), nil
	case types.T_uint64:
		return newSumAgg[uint64, uint64](ityp, otyp, mp, addUint64), nil
	case types.T_float32:
		return newSumAgg[float32, float64](ityp, otyp, mp, addFloat64), nil
	case types.T_float64:
		return newSumAgg[float64, float64](ityp, otyp, mp, addFloat64), nil
	}
	return nil, srerr.NewNotSupportedNoCtx("aggregate sum on type %s", ityp.Oid)
}

func (a *sumAgg[T1, T2]) fillValue(groupIdx int64, value T1) error {
	r, err := a.add(a.vs[groupIdx], T2(value))
	if err != nil {
		return err
	}
	a.vs[groupIdx] = r
	a.es[groupIdx] = false
	return nil
}

func (a *sumAgg[T1, T2]) Fill(groupIdx int64, rowIndex int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	if vec.IsNull(uint64(rowIndex)) {
		return nil
	}
	return a.fillValue(groupIdx, vector.MustFixedCol[T1](vec)[rowIndex])
}

func (a *sumAgg[T1, T2]) BulkFill(groupIdx int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	values := vector.MustFixedCol[T1](vec)
	if !vec.HasNull() {
		// float64 keeps no overflow rule, the vectorized kernel is safe
		if xs, ok := any(values).([]float64); ok {
			if len(xs) == 0 {
				return nil
			}
			return a.fillValue(groupIdx, T1(sum.Float64Sum(xs)))
		}
		for i := range values {
			if err := a.fillValue(groupIdx, values[i]); err != nil {
				return err
			}
		}
		return nil
	}
	for i := range values {
		if vec.IsNull(uint64(i)) {
			continue
		}
		if err := a.fillValue(groupIdx, values[i]); err != nil {
			return err
		}
	}
	return nil
}

func (a *sumAgg[T1, T2]) BatchFill(offset int64, groups []uint64, vectors []*vector.Vector) error {
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
		if err := a.fillValue(int64(groups[i]-1), values[rowIndex]); err != nil {
			return err
		}
	}
	return nil
}

func (a *sumAgg[T1, T2]) Merge(other AggFuncExec, groupIdx1, groupIdx2 int64) error {
	b := other.(*sumAgg[T1, T2])
	if b.es[groupIdx2] {
		return nil
	}
	r, err := a.add(a.vs[groupIdx1], b.vs[groupIdx2])
	if err != nil {
		return err
	}
	a.vs[groupIdx1] = r
	a.es[groupIdx1] = false
	return nil
}

func (a *sumAgg[T1, T2]) Flush(start, count int64) (*vector.Vector, error) {
	return a.flushWindow(start, count)
}

func (a *sumAgg[T1, T2]) SerializePartial(start, count int64) (*vector.Vector, error) {
	return a.serializeFixedWindow(start, count)
}

func (a *sumAgg[T1, T2]) MergePartial(groupIdx int64, partial []byte) error {
	v, empty, err := decodeFixedPartial[T2](partial)
	if err != nil {
		return err
	}
	if empty {
		return nil
	}
	r, err := a.add(a.vs[groupIdx], v)
	if err != nil {
		return err
	}
	a.vs[groupIdx] = r
	a.es[groupIdx] = false
	return nil
}

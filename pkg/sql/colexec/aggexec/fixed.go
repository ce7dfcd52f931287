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

// fixedAggState keeps one fixed width running value per group, backed
// by pool memory. es[i] reports that group i has seen no value yet;
// executors whose zero state is meaningful (count) set isCount and es
// is ignored at flush.
type fixedAggState[T types.FixedSizeT] struct {
	mp    *mpool.MPool
	otyp  types.Type
	ityps []types.Type

	da []byte
	vs []T
	es []bool

	isCount bool
}

func (a *fixedAggState[T]) OutputType() types.Type {
	return a.otyp
}

func (a *fixedAggState[T]) InputTypes() []types.Type {
	return a.ityps
}

func (a *fixedAggState[T]) GroupGrow(count int) error {
	finalCount := len(a.es) + count
	itemSize := a.otyp.TypeSize()
	if len(a.es) == 0 {
		data, err := a.mp.Alloc(count * itemSize)
		if err != nil {
			return err
		}
		a.da = data
	} else {
		data, err := a.mp.Grow(a.da, finalCount*itemSize)
		if err != nil {
			return err
		}
		a.da = data
	}
	a.da = a.da[:finalCount*itemSize]
	a.vs = types.DecodeSlice[T](a.da)
	a.vs = a.vs[:finalCount]
	for i := len(a.es); i < finalCount; i++ {
		a.es = append(a.es, true)
	}
	return nil
}

func (a *fixedAggState[T]) GroupCount() int {
	return len(a.es)
}

func (a *fixedAggState[T]) Free() {
	if cap(a.da) > 0 {
		a.mp.Free(a.da)
		a.da = nil
		a.vs = nil
		a.es = nil
	}
}

func (a *fixedAggState[T]) checkWindow(start, count int64) error {
	if start < 0 || count < 0 || start+count > int64(len(a.es)) {
		return srerr.NewInvalidArgNoCtx("aggregate flush window", start+count)
	}
	return nil
}

// flushWindow builds the result vector for groups [start, start+count).
// Groups that never saw a value come out null unless isCount.
func (a *fixedAggState[T]) flushWindow(start, count int64) (*vector.Vector, error) {
	if err := a.checkWindow(start, count); err != nil {
		return nil, err
	}
	vec := vector.NewVec(a.otyp)
	for i := start; i < start+count; i++ {
		isNull := a.es[i] && !a.isCount
		if err := vector.AppendFixed(vec, a.vs[i], isNull, a.mp); err != nil {
			vec.Free(a.mp)
			return nil, err
		}
	}
	return vec, nil
}

// serializeFixedWindow is the partial form shared by executors whose
// whole state is the single running value.
func (a *fixedAggState[T]) serializeFixedWindow(start, count int64) (*vector.Vector, error) {
	if err := a.checkWindow(start, count); err != nil {
		return nil, err
	}
	vec := vector.NewVec(types.T_varchar.ToType())
	for i := start; i < start+count; i++ {
		state := encodePartialState(a.es[i] && !a.isCount, types.EncodeFixed(a.vs[i]))
		if err := vector.AppendBytes(vec, state, false, a.mp); err != nil {
			vec.Free(a.mp)
			return nil, err
		}
	}
	return vec, nil
}

func decodeFixedPartial[T types.FixedSizeT](partial []byte) (T, bool, error) {
	var zero T
	empty, payload, err := decodePartialState(partial)
	if err != nil {
		return zero, false, err
	}
	if empty {
		return zero, true, nil
	}
	if len(payload) != len(types.EncodeFixed(zero)) {
		return zero, false, srerr.NewInvalidInputNoCtx("partial aggregate payload size %d", len(payload))
	}
	return types.DecodeFixed[T](payload), false, nil
}

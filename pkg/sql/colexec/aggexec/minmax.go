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
	"bytes"

	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
)

// minMaxAgg keeps the extreme value per group; better reports whether
// x should replace y.
type minMaxAgg[T orderedValue] struct {
	fixedAggState[T]
	better func(x, y T) bool
}

func newMinMax(ityp types.Type, mp *mpool.MPool, isMin bool) (AggFuncExec, error) {
	otyp, err := ReturnType(AggregateMin, ityp)
	if err != nil {
		return nil, err
	}
	switch ityp.Oid {
	case types.T_int8:
		return newMinMaxAgg[int8](ityp, otyp, mp, isMin), nil
	case types.T_int16:
		return newMinMaxAgg[int16](ityp, otyp, mp, isMin), nil
	case types.T_int32:
		return newMinMaxAgg[int32](ityp, otyp, mp, isMin), nil
	case types.T_int64:
		return newMinMaxAgg[int64](ityp, otyp, mp, isMin), nil
	case types.T_uint8:
		return newMinMaxAgg[uint8](ityp, otyp, mp, isMin), nil
	case types.T_uint16:
		return newMinMaxAgg[uint16](ityp, otyp, mp, isMin), nil
	case types.T_uint32:
		return newMinMaxAgg[uint32](ityp, otyp, mp, isMin), nil
	case types.T_uint64:
		return newMinMaxAgg[uint64](ityp, otyp, mp, isMin), nil
	case types.T_float32:
		return newMinMaxAgg[float32](ityp, otyp, mp, isMin), nil
	case types.T_float64:
		return newMinMaxAgg[float64](ityp, otyp, mp, isMin), nil
	case types.T_timestamp:
		return newMinMaxAgg[types.Timestamp](ityp, otyp, mp, isMin), nil
	case types.T_char, types.T_varchar:
		return newStrMinMax(ityp, otyp, mp, isMin), nil
	}
	op := AggregateMax
	if isMin {
		op = AggregateMin
	}
	return nil, srerr.NewNotSupportedNoCtx("aggregate %s on type %s", Names[op], ityp.Oid)
}

func newMinMaxAgg[T orderedValue](ityp, otyp types.Type, mp *mpool.MPool, isMin bool) *minMaxAgg[T] {
	a := &minMaxAgg[T]{
		fixedAggState: fixedAggState[T]{
			mp:    mp,
			otyp:  otyp,
			ityps: []types.Type{ityp},
		},
	}
	if isMin {
		a.better = func(x, y T) bool { return x < y }
	} else {
		a.better = func(x, y T) bool { return x > y }
	}
	return a
}

func (a *minMaxAgg[T]) fillValue(groupIdx int64, value T) {
	if a.es[groupIdx] || a.better(value, a.vs[groupIdx]) {
		a.vs[groupIdx] = value
		a.es[groupIdx] = false
	}
}

func (a *minMaxAgg[T]) Fill(groupIdx int64, rowIndex int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	if vec.IsNull(uint64(rowIndex)) {
		return nil
	}
	a.fillValue(groupIdx, vector.MustFixedCol[T](vec)[rowIndex])
	return nil
}

func (a *minMaxAgg[T]) BulkFill(groupIdx int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	values := vector.MustFixedCol[T](vec)
	if !vec.HasNull() {
		for i := range values {
			a.fillValue(groupIdx, values[i])
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

func (a *minMaxAgg[T]) BatchFill(offset int64, groups []uint64, vectors []*vector.Vector) error {
	vec := vectors[0]
	values := vector.MustFixedCol[T](vec)
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

func (a *minMaxAgg[T]) Merge(other AggFuncExec, groupIdx1, groupIdx2 int64) error {
	b := other.(*minMaxAgg[T])
	if b.es[groupIdx2] {
		return nil
	}
	a.fillValue(groupIdx1, b.vs[groupIdx2])
	return nil
}

func (a *minMaxAgg[T]) Flush(start, count int64) (*vector.Vector, error) {
	return a.flushWindow(start, count)
}

func (a *minMaxAgg[T]) SerializePartial(start, count int64) (*vector.Vector, error) {
	return a.serializeFixedWindow(start, count)
}

func (a *minMaxAgg[T]) MergePartial(groupIdx int64, partial []byte) error {
	v, empty, err := decodeFixedPartial[T](partial)
	if err != nil {
		return err
	}
	if empty {
		return nil
	}
	a.fillValue(groupIdx, v)
	return nil
}

// strMinMaxAgg is the varlen variant. Group states own their bytes and
// live on the Go heap, matching how varlen aggregate results are kept
// elsewhere in this package.
type strMinMaxAgg struct {
	mp    *mpool.MPool
	otyp  types.Type
	ityps []types.Type

	vs [][]byte
	es []bool

	isMin bool
}

func newStrMinMax(ityp, otyp types.Type, mp *mpool.MPool, isMin bool) *strMinMaxAgg {
	return &strMinMaxAgg{
		mp:    mp,
		otyp:  otyp,
		ityps: []types.Type{ityp},
		isMin: isMin,
	}
}

func (a *strMinMaxAgg) OutputType() types.Type {
	return a.otyp
}

func (a *strMinMaxAgg) InputTypes() []types.Type {
	return a.ityps
}

func (a *strMinMaxAgg) GroupGrow(count int) error {
	for i := 0; i < count; i++ {
		a.vs = append(a.vs, nil)
		a.es = append(a.es, true)
	}
	return nil
}

func (a *strMinMaxAgg) Free() {
	a.vs = nil
	a.es = nil
}

func (a *strMinMaxAgg) better(x, y []byte) bool {
	if a.isMin {
		return bytes.Compare(x, y) < 0
	}
	return bytes.Compare(x, y) > 0
}

func (a *strMinMaxAgg) fillValue(groupIdx int64, value []byte) {
	if a.es[groupIdx] || a.better(value, a.vs[groupIdx]) {
		a.vs[groupIdx] = append(a.vs[groupIdx][:0], value...)
		a.es[groupIdx] = false
	}
}

func (a *strMinMaxAgg) Fill(groupIdx int64, rowIndex int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	if vec.IsNull(uint64(rowIndex)) {
		return nil
	}
	a.fillValue(groupIdx, vec.GetBytesAt(int(rowIndex)))
	return nil
}

func (a *strMinMaxAgg) BulkFill(groupIdx int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	for i, n := 0, vec.Length(); i < n; i++ {
		if vec.IsNull(uint64(i)) {
			continue
		}
		a.fillValue(groupIdx, vec.GetBytesAt(i))
	}
	return nil
}

func (a *strMinMaxAgg) BatchFill(offset int64, groups []uint64, vectors []*vector.Vector) error {
	vec := vectors[0]
	for i := range groups {
		if groups[i] == GroupNotMatch {
			continue
		}
		rowIndex := offset + int64(i)
		if vec.IsNull(uint64(rowIndex)) {
			continue
		}
		a.fillValue(int64(groups[i]-1), vec.GetBytesAt(int(rowIndex)))
	}
	return nil
}

func (a *strMinMaxAgg) Merge(other AggFuncExec, groupIdx1, groupIdx2 int64) error {
	b := other.(*strMinMaxAgg)
	if b.es[groupIdx2] {
		return nil
	}
	a.fillValue(groupIdx1, b.vs[groupIdx2])
	return nil
}

func (a *strMinMaxAgg) Flush(start, count int64) (*vector.Vector, error) {
	if start < 0 || count < 0 || start+count > int64(len(a.es)) {
		return nil, srerr.NewInvalidArgNoCtx("aggregate flush window", start+count)
	}
	vec := vector.NewVec(a.otyp)
	for i := start; i < start+count; i++ {
		if err := vector.AppendBytes(vec, a.vs[i], a.es[i], a.mp); err != nil {
			vec.Free(a.mp)
			return nil, err
		}
	}
	return vec, nil
}

func (a *strMinMaxAgg) SerializePartial(start, count int64) (*vector.Vector, error) {
	if start < 0 || count < 0 || start+count > int64(len(a.es)) {
		return nil, srerr.NewInvalidArgNoCtx("aggregate flush window", start+count)
	}
	vec := vector.NewVec(types.T_varchar.ToType())
	for i := start; i < start+count; i++ {
		state := encodePartialState(a.es[i], a.vs[i])
		if err := vector.AppendBytes(vec, state, false, a.mp); err != nil {
			vec.Free(a.mp)
			return nil, err
		}
	}
	return vec, nil
}

func (a *strMinMaxAgg) MergePartial(groupIdx int64, partial []byte) error {
	empty, payload, err := decodePartialState(partial)
	if err != nil {
		return err
	}
	if empty {
		return nil
	}
	a.fillValue(groupIdx, payload)
	return nil
}

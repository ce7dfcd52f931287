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
	"math"

	"github.com/RoaringBitmap/roaring"

	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
)

// bitmapUnionIntAgg folds integer values into one roaring bitmap per
// group and reports the cardinality. Values must fit in uint32, the
// bitmap element domain.
type bitmapUnionIntAgg[T types.Ints | types.UInts] struct {
	mp    *mpool.MPool
	otyp  types.Type
	ityps []types.Type

	bmps []*roaring.Bitmap
}

func newBitmapUnionInt(ityp types.Type, mp *mpool.MPool) (AggFuncExec, error) {
	otyp, err := ReturnType(AggregateBitmapUnionInt, ityp)
	if err != nil {
		return nil, err
	}
	switch ityp.Oid {
	case types.T_int32:
		return newBitmapUnionIntAgg[int32](ityp, otyp, mp), nil
	case types.T_uint32:
		return newBitmapUnionIntAgg[uint32](ityp, otyp, mp), nil
	case types.T_int64:
		return newBitmapUnionIntAgg[int64](ityp, otyp, mp), nil
	case types.T_uint64:
		return newBitmapUnionIntAgg[uint64](ityp, otyp, mp), nil
	}
	return nil, srerr.NewNotSupportedNoCtx("aggregate bitmap_union_int on type %s", ityp.Oid)
}

func newBitmapUnionIntAgg[T types.Ints | types.UInts](ityp, otyp types.Type, mp *mpool.MPool) *bitmapUnionIntAgg[T] {
	return &bitmapUnionIntAgg[T]{
		mp:    mp,
		otyp:  otyp,
		ityps: []types.Type{ityp},
	}
}

func (a *bitmapUnionIntAgg[T]) OutputType() types.Type {
	return a.otyp
}

func (a *bitmapUnionIntAgg[T]) InputTypes() []types.Type {
	return a.ityps
}

func (a *bitmapUnionIntAgg[T]) GroupGrow(count int) error {
	for i := 0; i < count; i++ {
		a.bmps = append(a.bmps, roaring.New())
	}
	return nil
}

func (a *bitmapUnionIntAgg[T]) Free() {
	a.bmps = nil
}

func (a *bitmapUnionIntAgg[T]) fillValue(groupIdx int64, value T) error {
	if int64(value) < 0 || uint64(value) > math.MaxUint32 {
		return srerr.NewOutOfRangeNoCtx("bitmap element", "value %v out of uint32 range", value)
	}
	a.bmps[groupIdx].Add(uint32(value))
	return nil
}

func (a *bitmapUnionIntAgg[T]) Fill(groupIdx int64, rowIndex int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	if vec.IsNull(uint64(rowIndex)) {
		return nil
	}
	return a.fillValue(groupIdx, vector.MustFixedCol[T](vec)[rowIndex])
}

func (a *bitmapUnionIntAgg[T]) BulkFill(groupIdx int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	values := vector.MustFixedCol[T](vec)
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

func (a *bitmapUnionIntAgg[T]) BatchFill(offset int64, groups []uint64, vectors []*vector.Vector) error {
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
		if err := a.fillValue(int64(groups[i]-1), values[rowIndex]); err != nil {
			return err
		}
	}
	return nil
}

func (a *bitmapUnionIntAgg[T]) Merge(other AggFuncExec, groupIdx1, groupIdx2 int64) error {
	b := other.(*bitmapUnionIntAgg[T])
	a.bmps[groupIdx1].Or(b.bmps[groupIdx2])
	return nil
}

func (a *bitmapUnionIntAgg[T]) Flush(start, count int64) (*vector.Vector, error) {
	if start < 0 || count < 0 || start+count > int64(len(a.bmps)) {
		return nil, srerr.NewInvalidArgNoCtx("aggregate flush window", start+count)
	}
	vec := vector.NewVec(a.otyp)
	for i := start; i < start+count; i++ {
		if err := vector.AppendFixed(vec, a.bmps[i].GetCardinality(), false, a.mp); err != nil {
			vec.Free(a.mp)
			return nil, err
		}
	}
	return vec, nil
}

func (a *bitmapUnionIntAgg[T]) SerializePartial(start, count int64) (*vector.Vector, error) {
	if start < 0 || count < 0 || start+count > int64(len(a.bmps)) {
		return nil, srerr.NewInvalidArgNoCtx("aggregate flush window", start+count)
	}
	vec := vector.NewVec(types.T_varchar.ToType())
	for i := start; i < start+count; i++ {
		var state []byte
		if a.bmps[i].IsEmpty() {
			state = encodePartialState(true, nil)
		} else {
			payload, err := a.bmps[i].MarshalBinary()
			if err != nil {
				vec.Free(a.mp)
				return nil, srerr.NewInternalErrorNoCtx("marshal bitmap: %v", err)
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

func (a *bitmapUnionIntAgg[T]) MergePartial(groupIdx int64, partial []byte) error {
	empty, payload, err := decodePartialState(partial)
	if err != nil {
		return err
	}
	if empty {
		return nil
	}
	bmp := roaring.New()
	if err := bmp.UnmarshalBinary(payload); err != nil {
		return srerr.NewInternalErrorNoCtx("unmarshal bitmap: %v", err)
	}
	a.bmps[groupIdx].Or(bmp)
	return nil
}

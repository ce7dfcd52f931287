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
	"github.com/dupen01/starrocks/pkg/container/nulls"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
)

// countAgg counts non null rows; the star form counts every row.
type countAgg struct {
	fixedAggState[int64]
	isStar bool
}

func newCount(ityp types.Type, mp *mpool.MPool, isStar bool) *countAgg {
	return &countAgg{
		fixedAggState: fixedAggState[int64]{
			mp:      mp,
			otyp:    types.T_int64.ToType(),
			ityps:   []types.Type{ityp},
			isCount: true,
		},
		isStar: isStar,
	}
}

func (a *countAgg) Fill(groupIdx int64, rowIndex int64, vectors []*vector.Vector) error {
	if a.isStar || !vectors[0].IsNull(uint64(rowIndex)) {
		a.vs[groupIdx]++
		a.es[groupIdx] = false
	}
	return nil
}

func (a *countAgg) BulkFill(groupIdx int64, vectors []*vector.Vector) error {
	vec := vectors[0]
	cnt := int64(vec.Length())
	if !a.isStar {
		cnt -= int64(nulls.Size(vec.GetNulls()))
	}
	a.vs[groupIdx] += cnt
	if cnt > 0 {
		a.es[groupIdx] = false
	}
	return nil
}

func (a *countAgg) BatchFill(offset int64, groups []uint64, vectors []*vector.Vector) error {
	vec := vectors[0]
	if !a.isStar && vec.HasNull() {
		for i := range groups {
			if groups[i] == GroupNotMatch {
				continue
			}
			if vec.IsNull(uint64(offset + int64(i))) {
				continue
			}
			a.vs[groups[i]-1]++
			a.es[groups[i]-1] = false
		}
		return nil
	}
	for i := range groups {
		if groups[i] == GroupNotMatch {
			continue
		}
		a.vs[groups[i]-1]++
		a.es[groups[i]-1] = false
	}
	return nil
}

func (a *countAgg) Merge(other AggFuncExec, groupIdx1, groupIdx2 int64) error {
	b := other.(*countAgg)
	a.vs[groupIdx1] += b.vs[groupIdx2]
	if !b.es[groupIdx2] {
		a.es[groupIdx1] = false
	}
	return nil
}

func (a *countAgg) Flush(start, count int64) (*vector.Vector, error) {
	return a.flushWindow(start, count)
}

func (a *countAgg) SerializePartial(start, count int64) (*vector.Vector, error) {
	return a.serializeFixedWindow(start, count)
}

func (a *countAgg) MergePartial(groupIdx int64, partial []byte) error {
	v, empty, err := decodeFixedPartial[int64](partial)
	if err != nil {
		return err
	}
	if empty {
		return nil
	}
	a.vs[groupIdx] += v
	a.es[groupIdx] = false
	return nil
}

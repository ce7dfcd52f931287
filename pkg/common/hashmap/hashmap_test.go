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

package hashmap

import (
	"fmt"
	"testing"

	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/container/nulls"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
	"github.com/stretchr/testify/require"
)

const Rows = 10

func TestIntHashMapIterator(t *testing.T) {
	{
		m := mpool.MustNewZero()
		mp := NewIntHashMap(false)
		vecs := []*vector.Vector{
			newInt32Vector(t, m, []int32{-1, -1, -1, 2, 2, 2, 3, 3, 3, 4}),
			newUint32Vector(t, m, []uint32{1, 1, 1, 2, 2, 2, 3, 3, 3, 4}),
		}
		itr := mp.NewIterator()
		vs, err := itr.Insert(0, Rows, vecs)
		require.NoError(t, err)
		require.Equal(t, []uint64{1, 1, 1, 2, 2, 2, 3, 3, 3, 4}, vs)
		vs = itr.Find(0, Rows, vecs)
		require.Equal(t, []uint64{1, 1, 1, 2, 2, 2, 3, 3, 3, 4}, vs)
		require.Equal(t, uint64(4), mp.GroupCount())
		for _, vec := range vecs {
			vec.Free(m)
		}
		mp.Free()
		require.Equal(t, int64(0), m.CurrNB())
	}
	{
		// nulls form a group of their own when the map keeps them
		m := mpool.MustNewZero()
		mp := NewIntHashMap(true)
		vecs := []*vector.Vector{
			newInt32Vector(t, m, []int32{0, 1, 0, 2, 0, 3, 0, 4, 0, 5}, 0, 2, 4, 6, 8),
		}
		itr := mp.NewIterator()
		vs, err := itr.Insert(0, Rows, vecs)
		require.NoError(t, err)
		require.Equal(t, []uint64{1, 2, 1, 3, 1, 4, 1, 5, 1, 6}, vs)
		vs = itr.Find(0, Rows, vecs)
		require.Equal(t, []uint64{1, 2, 1, 3, 1, 4, 1, 5, 1, 6}, vs)
		for _, vec := range vecs {
			vec.Free(m)
		}
		mp.Free()
		require.Equal(t, int64(0), m.CurrNB())
	}
	{
		// null rows never name a group when the map rejects them
		m := mpool.MustNewZero()
		mp := NewIntHashMap(false)
		vecs := []*vector.Vector{
			newInt64Vector(t, m, []int64{0, 1, 0, 2, 0, 3, 0, 4, 0, 5}, 0, 2, 4, 6, 8),
		}
		itr := mp.NewIterator()
		vs, err := itr.Insert(0, Rows, vecs)
		require.NoError(t, err)
		require.Equal(t, []uint64{0, 1, 0, 2, 0, 3, 0, 4, 0, 5}, vs)
		vs = itr.Find(0, Rows, vecs)
		require.Equal(t, []uint64{0, 1, 0, 2, 0, 3, 0, 4, 0, 5}, vs)
		require.Equal(t, uint64(5), mp.GroupCount())
		for _, vec := range vecs {
			vec.Free(m)
		}
		mp.Free()
		require.Equal(t, int64(0), m.CurrNB())
	}
	{
		// a null key and a zero valued key stay distinct groups
		m := mpool.MustNewZero()
		mp := NewIntHashMap(true)
		vecs := []*vector.Vector{
			newInt32Vector(t, m, []int32{0, 0}, 1),
		}
		itr := mp.NewIterator()
		vs, err := itr.Insert(0, 2, vecs)
		require.NoError(t, err)
		require.Equal(t, []uint64{1, 2}, vs)
		for _, vec := range vecs {
			vec.Free(m)
		}
		mp.Free()
		require.Equal(t, int64(0), m.CurrNB())
	}
}

func TestStrHashMapIterator(t *testing.T) {
	{
		m := mpool.MustNewZero()
		mp := NewStrHashMap(false)
		vecs := []*vector.Vector{
			newStringVector(t, m, []string{"a", "a", "b", "b", "c", "c", "d", "d", "e", "e"}),
			newInt64Vector(t, m, []int64{1, 1, 1, 1, 2, 2, 2, 2, 3, 3}),
		}
		itr := mp.NewIterator()
		vs, err := itr.Insert(0, Rows, vecs)
		require.NoError(t, err)
		require.Equal(t, []uint64{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}, vs)
		vs = itr.Find(0, Rows, vecs)
		require.Equal(t, []uint64{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}, vs)
		require.Equal(t, uint64(5), mp.GroupCount())
		for _, vec := range vecs {
			vec.Free(m)
		}
		mp.Free()
		require.Equal(t, int64(0), m.CurrNB())
	}
	{
		// the length prefix keeps ("ab","c") apart from ("a","bc")
		m := mpool.MustNewZero()
		mp := NewStrHashMap(false)
		vecs := []*vector.Vector{
			newStringVector(t, m, []string{"ab", "a"}),
			newStringVector(t, m, []string{"c", "bc"}),
		}
		itr := mp.NewIterator()
		vs, err := itr.Insert(0, 2, vecs)
		require.NoError(t, err)
		require.Equal(t, []uint64{1, 2}, vs)
		for _, vec := range vecs {
			vec.Free(m)
		}
		mp.Free()
		require.Equal(t, int64(0), m.CurrNB())
	}
	{
		m := mpool.MustNewZero()
		mp := NewStrHashMap(true)
		vecs := []*vector.Vector{
			newStringVector(t, m, []string{"", "x", "", "y", "", "z", "", "x", "", "y"}, 0, 2, 4, 6, 8),
		}
		itr := mp.NewIterator()
		vs, err := itr.Insert(0, Rows, vecs)
		require.NoError(t, err)
		require.Equal(t, []uint64{1, 2, 1, 3, 1, 4, 1, 2, 1, 3}, vs)
		for _, vec := range vecs {
			vec.Free(m)
		}
		mp.Free()
		require.Equal(t, int64(0), m.CurrNB())
	}
	{
		// a null and an empty string stay distinct groups
		m := mpool.MustNewZero()
		mp := NewStrHashMap(true)
		vecs := []*vector.Vector{
			newStringVector(t, m, []string{"", ""}, 1),
		}
		itr := mp.NewIterator()
		vs, err := itr.Insert(0, 2, vecs)
		require.NoError(t, err)
		require.Equal(t, []uint64{1, 2}, vs)
		for _, vec := range vecs {
			vec.Free(m)
		}
		mp.Free()
		require.Equal(t, int64(0), m.CurrNB())
	}
}

func TestHashMapUnitBatches(t *testing.T) {
	m := mpool.MustNewZero()
	mp := NewIntHashMap(false)
	n := UnitLimit*2 + 3
	vals := make([]int64, n)
	for i := range vals {
		vals[i] = int64(i % 100)
	}
	vecs := []*vector.Vector{newInt64Vector(t, m, vals)}
	itr := mp.NewIterator()
	for start := 0; start < n; start += UnitLimit {
		cnt := n - start
		if cnt > UnitLimit {
			cnt = UnitLimit
		}
		vs, err := itr.Insert(start, cnt, vecs)
		require.NoError(t, err)
		for i := 0; i < cnt; i++ {
			require.Equal(t, uint64(vals[start+i])+1, vs[i])
		}
	}
	require.Equal(t, uint64(100), mp.GroupCount())
	for _, vec := range vecs {
		vec.Free(m)
	}
	mp.Free()
	require.Equal(t, int64(0), m.CurrNB())
}

func newInt32Vector(t *testing.T, m *mpool.MPool, vs []int32, nullRows ...uint64) *vector.Vector {
	vec := vector.NewVec(types.T_int32.ToType())
	for i := range vs {
		require.NoError(t, vector.AppendFixed(vec, vs[i], false, m))
	}
	nulls.Add(vec.GetNulls(), nullRows...)
	return vec
}

func newUint32Vector(t *testing.T, m *mpool.MPool, vs []uint32, nullRows ...uint64) *vector.Vector {
	vec := vector.NewVec(types.T_uint32.ToType())
	for i := range vs {
		require.NoError(t, vector.AppendFixed(vec, vs[i], false, m))
	}
	nulls.Add(vec.GetNulls(), nullRows...)
	return vec
}

func newInt64Vector(t *testing.T, m *mpool.MPool, vs []int64, nullRows ...uint64) *vector.Vector {
	vec := vector.NewVec(types.T_int64.ToType())
	for i := range vs {
		require.NoError(t, vector.AppendFixed(vec, vs[i], false, m))
	}
	nulls.Add(vec.GetNulls(), nullRows...)
	return vec
}

func newStringVector(t *testing.T, m *mpool.MPool, vs []string, nullRows ...uint64) *vector.Vector {
	vec := vector.NewVec(types.T_varchar.ToType())
	for i := range vs {
		require.NoError(t, vector.AppendBytes(vec, []byte(vs[i]), false, m))
	}
	nulls.Add(vec.GetNulls(), nullRows...)
	return vec
}

func TestGroupIdsAreDense(t *testing.T) {
	m := mpool.MustNewZero()
	defer func() {
		require.Equal(t, int64(0), m.CurrNB())
	}()
	mp := NewStrHashMap(false)
	defer mp.Free()
	vecs := []*vector.Vector{
		newStringVector(t, m, []string{"x", "y", "x", "z", "y", "w"}),
	}
	defer func() {
		for _, vec := range vecs {
			vec.Free(m)
		}
	}()
	itr := mp.NewIterator()
	vs, err := itr.Insert(0, 6, vecs)
	require.NoError(t, err)
	seen := make(map[uint64]bool)
	for _, v := range vs {
		require.True(t, v >= 1 && v <= mp.GroupCount(), fmt.Sprintf("group id %d out of range", v))
		seen[v] = true
	}
	require.Equal(t, int(mp.GroupCount()), len(seen))
}

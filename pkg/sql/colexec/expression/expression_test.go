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

package expression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/container/nulls"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
	"github.com/dupen01/starrocks/pkg/testutil"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

func makeTestChunk(t *testing.T, proc *process.Process, ids []int64, names []string, nullRows ...uint64) *chunk.Chunk {
	mp := proc.Mp()
	idVec := vector.NewVec(types.T_int64.ToType())
	require.NoError(t, vector.AppendFixedList(idVec, ids, mp))
	for _, row := range nullRows {
		nulls.Add(idVec.GetNulls(), row)
	}
	nameVec := vector.NewVec(types.T_varchar.ToType())
	for _, s := range names {
		require.NoError(t, vector.AppendBytes(nameVec, []byte(s), false, mp))
	}
	chk := chunk.New([]string{"id", "name"})
	chk.SetVector(0, idVec)
	chk.SetVector(1, nameVec)
	chk.SetRowCount(len(ids))
	return chk
}

func TestColumnExpressionExecutor(t *testing.T) {
	proc := testutil.NewProcess()
	mp := proc.Mp()
	chk := makeTestChunk(t, proc, []int64{1, 2, 3}, []string{"a", "b", "c"})

	col := NewColumnExpressionExecutor(0, types.T_int64.ToType())
	vec, err := col.Eval(proc, chk)
	require.NoError(t, err)
	require.Same(t, chk.Vecs[0], vec)
	require.Equal(t, types.T_int64, col.OutputType().Oid)
	require.Equal(t, 0, col.ColIndex())
	col.Free()

	bad := NewColumnExpressionExecutor(9, types.T_int64.ToType())
	_, err = bad.Eval(proc, chk)
	require.Error(t, err)

	chk.Clean(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestCompareExecutorFixed(t *testing.T) {
	proc := testutil.NewProcess()
	mp := proc.Mp()
	chk := makeTestChunk(t, proc, []int64{5, 10, 15, 20}, []string{"a", "b", "c", "d"}, 2)

	col := NewColumnExpressionExecutor(0, types.T_int64.ToType())
	konst, err := NewFixedConstExecutor[int64](types.T_int64.ToType(), 10, mp)
	require.NoError(t, err)

	gt, err := NewCompareExecutor(Greater, col, konst, mp)
	require.NoError(t, err)

	vec, err := gt.Eval(proc, chk)
	require.NoError(t, err)
	require.Equal(t, 4, vec.Length())
	vals := vector.MustFixedCol[bool](vec)
	require.False(t, vals[0])          // 5 > 10
	require.False(t, vals[1])          // 10 > 10
	require.True(t, vec.IsNull(2))     // null row compares null
	require.True(t, vals[3])           // 20 > 10

	// a second Eval reuses the result vector
	vec2, err := gt.Eval(proc, chk)
	require.NoError(t, err)
	require.Same(t, vec, vec2)
	require.Equal(t, 4, vec2.Length())

	gt.Free()
	gt.Free() // idempotent
	chk.Clean(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestCompareExecutorString(t *testing.T) {
	proc := testutil.NewProcess()
	mp := proc.Mp()
	chk := makeTestChunk(t, proc, []int64{1, 2, 3}, []string{"apple", "banana", "cherry"})

	col := NewColumnExpressionExecutor(1, types.T_varchar.ToType())
	konst, err := NewStringConstExecutor(types.T_varchar.ToType(), []byte("banana"), mp)
	require.NoError(t, err)

	le, err := NewCompareExecutor(LessEqual, col, konst, mp)
	require.NoError(t, err)

	vec, err := le.Eval(proc, chk)
	require.NoError(t, err)
	vals := vector.MustFixedCol[bool](vec)
	require.Equal(t, []bool{true, true, false}, vals)

	le.Free()
	chk.Clean(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestCompareExecutorMismatch(t *testing.T) {
	proc := testutil.NewProcess()
	mp := proc.Mp()

	intCol := NewColumnExpressionExecutor(0, types.T_int64.ToType())
	strCol := NewColumnExpressionExecutor(1, types.T_varchar.ToType())
	_, err := NewCompareExecutor(Equal, intCol, strCol, mp)
	require.Error(t, err)

	boolCol := NewColumnExpressionExecutor(0, types.T_bool.ToType())
	_, err = NewCompareExecutor(Less, boolCol, boolCol, mp)
	require.Error(t, err)
	_, err = NewCompareExecutor(Equal, boolCol, boolCol, mp)
	require.NoError(t, err)
}

func TestFilterChunk(t *testing.T) {
	proc := testutil.NewProcess()
	mp := proc.Mp()

	t.Run("single_conjunct", func(t *testing.T) {
		chk := makeTestChunk(t, proc, []int64{5, 10, 15, 20}, []string{"a", "b", "c", "d"})
		defer chk.Clean(mp)

		konst, err := NewFixedConstExecutor[int64](types.T_int64.ToType(), 10, mp)
		require.NoError(t, err)
		ge, err := NewCompareExecutor(GreaterEqual, NewColumnExpressionExecutor(0, types.T_int64.ToType()), konst, mp)
		require.NoError(t, err)
		defer ge.Free()

		require.NoError(t, FilterChunk(proc, []ExpressionExecutor{ge}, chk))
		require.Equal(t, 3, chk.RowCount())
		require.Equal(t, []int64{10, 15, 20}, vector.MustFixedCol[int64](chk.Vecs[0]))
		require.Equal(t, "b", string(chk.Vecs[1].GetBytesAt(0)))
	})

	t.Run("conjunction_narrows", func(t *testing.T) {
		chk := makeTestChunk(t, proc, []int64{5, 10, 15, 20}, []string{"a", "b", "c", "d"})
		defer chk.Clean(mp)

		lo, err := NewFixedConstExecutor[int64](types.T_int64.ToType(), 5, mp)
		require.NoError(t, err)
		hi, err := NewFixedConstExecutor[int64](types.T_int64.ToType(), 20, mp)
		require.NoError(t, err)
		gtLo, err := NewCompareExecutor(Greater, NewColumnExpressionExecutor(0, types.T_int64.ToType()), lo, mp)
		require.NoError(t, err)
		ltHi, err := NewCompareExecutor(Less, NewColumnExpressionExecutor(0, types.T_int64.ToType()), hi, mp)
		require.NoError(t, err)
		defer gtLo.Free()
		defer ltHi.Free()

		require.NoError(t, FilterChunk(proc, []ExpressionExecutor{gtLo, ltHi}, chk))
		require.Equal(t, 2, chk.RowCount())
		require.Equal(t, []int64{10, 15}, vector.MustFixedCol[int64](chk.Vecs[0]))
	})

	t.Run("null_predicate_rejects", func(t *testing.T) {
		chk := makeTestChunk(t, proc, []int64{5, 10, 15}, []string{"a", "b", "c"}, 1)
		defer chk.Clean(mp)

		konst, err := NewFixedConstExecutor[int64](types.T_int64.ToType(), 0, mp)
		require.NoError(t, err)
		gt, err := NewCompareExecutor(Greater, NewColumnExpressionExecutor(0, types.T_int64.ToType()), konst, mp)
		require.NoError(t, err)
		defer gt.Free()

		require.NoError(t, FilterChunk(proc, []ExpressionExecutor{gt}, chk))
		require.Equal(t, 2, chk.RowCount())
		require.Equal(t, []int64{5, 15}, vector.MustFixedCol[int64](chk.Vecs[0]))
	})

	t.Run("all_rows_kept_without_shrink", func(t *testing.T) {
		chk := makeTestChunk(t, proc, []int64{5, 10}, []string{"a", "b"})
		defer chk.Clean(mp)

		konst, err := NewFixedConstExecutor[int64](types.T_int64.ToType(), 0, mp)
		require.NoError(t, err)
		gt, err := NewCompareExecutor(Greater, NewColumnExpressionExecutor(0, types.T_int64.ToType()), konst, mp)
		require.NoError(t, err)
		defer gt.Free()

		require.NoError(t, FilterChunk(proc, []ExpressionExecutor{gt}, chk))
		require.Equal(t, 2, chk.RowCount())
	})

	t.Run("const_false_clears_chunk", func(t *testing.T) {
		chk := makeTestChunk(t, proc, []int64{5, 10}, []string{"a", "b"})
		defer chk.Clean(mp)

		f, err := NewFixedConstExecutor(types.T_bool.ToType(), false, mp)
		require.NoError(t, err)
		defer f.Free()

		require.NoError(t, FilterChunk(proc, []ExpressionExecutor{f}, chk))
		require.Equal(t, 0, chk.RowCount())
	})

	t.Run("non_bool_conjunct_rejected", func(t *testing.T) {
		chk := makeTestChunk(t, proc, []int64{5}, []string{"a"})
		defer chk.Clean(mp)

		col := NewColumnExpressionExecutor(0, types.T_int64.ToType())
		err := FilterChunk(proc, []ExpressionExecutor{col}, chk)
		require.Error(t, err)
	})

	require.Equal(t, int64(0), mp.CurrNB())
}

func TestNullConstExecutor(t *testing.T) {
	proc := testutil.NewProcess()
	mp := proc.Mp()
	chk := makeTestChunk(t, proc, []int64{1, 2}, []string{"a", "b"})

	nullExec, err := NewNullConstExecutor(types.T_int64.ToType(), mp)
	require.NoError(t, err)
	eq, err := NewCompareExecutor(Equal, NewColumnExpressionExecutor(0, types.T_int64.ToType()), nullExec, mp)
	require.NoError(t, err)

	// null = x is null for every row, so the filter drops everything
	require.NoError(t, FilterChunk(proc, []ExpressionExecutor{eq}, chk))
	require.Equal(t, 0, chk.RowCount())

	eq.Free()
	chk.Clean(mp)
	require.Equal(t, int64(0), mp.CurrNB())
}

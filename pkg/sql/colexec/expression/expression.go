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

// Package expression evaluates scalar expressions over chunks. Conjunct
// executors produce boolean vectors that FilterChunk turns into in-place
// row selections.
package expression

import (
	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

// ExpressionExecutor evaluates one expression against a chunk. The result
// vector stays owned by the executor (or by the chunk, for bare column
// references); callers must not free it and must copy it to retain it
// past the next Eval.
type ExpressionExecutor interface {
	Eval(proc *process.Process, chk *chunk.Chunk) (*vector.Vector, error)

	// OutputType reports the type Eval's result will carry.
	OutputType() types.Type

	// Free releases executor-owned vectors. Safe to call more than once.
	Free()
}

// ColumnExpressionExecutor resolves a column of the input chunk. Its Eval
// result is the chunk's own vector.
type ColumnExpressionExecutor struct {
	colIndex int
	typ      types.Type
}

func NewColumnExpressionExecutor(colIndex int, typ types.Type) *ColumnExpressionExecutor {
	return &ColumnExpressionExecutor{colIndex: colIndex, typ: typ}
}

func (e *ColumnExpressionExecutor) Eval(_ *process.Process, chk *chunk.Chunk) (*vector.Vector, error) {
	if e.colIndex < 0 || e.colIndex >= chk.VectorCount() {
		return nil, srerr.NewInvalidArgNoCtx("column index", e.colIndex)
	}
	return chk.Vecs[e.colIndex], nil
}

func (e *ColumnExpressionExecutor) OutputType() types.Type {
	return e.typ
}

func (e *ColumnExpressionExecutor) ColIndex() int {
	return e.colIndex
}

func (e *ColumnExpressionExecutor) Free() {}

// FixedVectorExpressionExecutor holds a one-row constant; comparison
// kernels broadcast it across the chunk.
type FixedVectorExpressionExecutor struct {
	m            *mpool.MPool
	typ          types.Type
	resultVector *vector.Vector
}

func NewFixedConstExecutor[T types.FixedSizeT](typ types.Type, val T, mp *mpool.MPool) (*FixedVectorExpressionExecutor, error) {
	vec := vector.NewVec(typ)
	if err := vector.AppendFixed(vec, val, false, mp); err != nil {
		vec.Free(mp)
		return nil, err
	}
	return &FixedVectorExpressionExecutor{m: mp, typ: typ, resultVector: vec}, nil
}

func NewStringConstExecutor(typ types.Type, val []byte, mp *mpool.MPool) (*FixedVectorExpressionExecutor, error) {
	vec := vector.NewVec(typ)
	if err := vector.AppendBytes(vec, val, false, mp); err != nil {
		vec.Free(mp)
		return nil, err
	}
	return &FixedVectorExpressionExecutor{m: mp, typ: typ, resultVector: vec}, nil
}

func NewNullConstExecutor(typ types.Type, mp *mpool.MPool) (*FixedVectorExpressionExecutor, error) {
	vec := vector.NewVec(typ)
	var err error
	if typ.IsString() {
		err = vector.AppendBytes(vec, nil, true, mp)
	} else {
		err = vector.AppendFixed[int64](vec, 0, true, mp)
	}
	if err != nil {
		vec.Free(mp)
		return nil, err
	}
	return &FixedVectorExpressionExecutor{m: mp, typ: typ, resultVector: vec}, nil
}

func (e *FixedVectorExpressionExecutor) Eval(*process.Process, *chunk.Chunk) (*vector.Vector, error) {
	return e.resultVector, nil
}

func (e *FixedVectorExpressionExecutor) OutputType() types.Type {
	return e.typ
}

func (e *FixedVectorExpressionExecutor) Free() {
	if e.resultVector != nil {
		e.resultVector.Free(e.m)
		e.resultVector = nil
	}
}

// FilterChunk evaluates the conjuncts against chk and shrinks it in place
// to the rows every conjunct accepts. A null predicate value rejects the
// row. Evaluation stops early once no rows remain.
func FilterChunk(proc *process.Process, conjuncts []ExpressionExecutor, chk *chunk.Chunk) error {
	for _, conjunct := range conjuncts {
		if chk.RowCount() == 0 {
			return nil
		}
		vec, err := conjunct.Eval(proc, chk)
		if err != nil {
			return err
		}
		if vec.GetType().Oid != types.T_bool {
			return srerr.NewInternalErrorNoCtx("filter on %s value", vec.GetType().String())
		}
		sels, err := boolSels(vec, chk.RowCount())
		if err != nil {
			return err
		}
		if len(sels) != chk.RowCount() {
			chk.Shrink(sels)
		}
	}
	return nil
}

// boolSels collects the row indexes whose predicate value is true and not
// null. A one-row vector short-circuits: it keeps either every row or none.
func boolSels(vec *vector.Vector, rows int) ([]int64, error) {
	vals := vector.MustFixedCol[bool](vec)
	if vec.Length() == 1 && rows != 1 {
		if vec.IsNull(0) || !vals[0] {
			return nil, nil
		}
		sels := make([]int64, rows)
		for i := range sels {
			sels[i] = int64(i)
		}
		return sels, nil
	}
	if vec.Length() != rows {
		return nil, srerr.NewInternalErrorNoCtx("filter vector length %d over %d rows", vec.Length(), rows)
	}
	sels := make([]int64, 0, rows)
	for i := 0; i < rows; i++ {
		if !vec.IsNull(uint64(i)) && vals[i] {
			sels = append(sels, int64(i))
		}
	}
	return sels, nil
}

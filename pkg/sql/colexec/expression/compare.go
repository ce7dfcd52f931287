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
	"bytes"

	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

type CompareOp int

const (
	Equal CompareOp = iota
	NotEqual
	Less
	LessEqual
	Greater
	GreaterEqual
)

var compareOpNames = [...]string{
	Equal:        "=",
	NotEqual:     "!=",
	Less:         "<",
	LessEqual:    "<=",
	Greater:      ">",
	GreaterEqual: ">=",
}

func (op CompareOp) String() string {
	if op < 0 || int(op) >= len(compareOpNames) {
		return "?"
	}
	return compareOpNames[op]
}

type compareFn func(left, right *vector.Vector, res *vector.Vector, rows int, mp *mpool.MPool) error

// FunctionExpressionExecutor applies a comparison to two sub expressions.
// The boolean result vector is executor owned and reused across calls.
type FunctionExpressionExecutor struct {
	m    *mpool.MPool
	op   CompareOp
	args []ExpressionExecutor
	fn   compareFn

	resultVector *vector.Vector
}

// NewCompareExecutor builds op over two executors of the same type. Order
// comparisons on bool are rejected.
func NewCompareExecutor(op CompareOp, left, right ExpressionExecutor, mp *mpool.MPool) (*FunctionExpressionExecutor, error) {
	ltyp, rtyp := left.OutputType(), right.OutputType()
	if ltyp.Oid != rtyp.Oid {
		return nil, srerr.NewInternalErrorNoCtx("compare %s with %s", ltyp.String(), rtyp.String())
	}
	fn, err := compareKernel(op, ltyp.Oid)
	if err != nil {
		return nil, err
	}
	return &FunctionExpressionExecutor{
		m:            mp,
		op:           op,
		args:         []ExpressionExecutor{left, right},
		fn:           fn,
		resultVector: vector.NewVec(types.T_bool.ToType()),
	}, nil
}

func (e *FunctionExpressionExecutor) Eval(proc *process.Process, chk *chunk.Chunk) (*vector.Vector, error) {
	left, err := e.args[0].Eval(proc, chk)
	if err != nil {
		return nil, err
	}
	right, err := e.args[1].Eval(proc, chk)
	if err != nil {
		return nil, err
	}
	e.resultVector.Reset()
	if err := e.fn(left, right, e.resultVector, chk.RowCount(), e.m); err != nil {
		return nil, err
	}
	return e.resultVector, nil
}

func (e *FunctionExpressionExecutor) OutputType() types.Type {
	return types.T_bool.ToType()
}

func (e *FunctionExpressionExecutor) Free() {
	if e.resultVector != nil {
		e.resultVector.Free(e.m)
		e.resultVector = nil
	}
	for _, arg := range e.args {
		arg.Free()
	}
}

func compareKernel(op CompareOp, oid types.T) (compareFn, error) {
	switch oid {
	case types.T_bool:
		if op != Equal && op != NotEqual {
			return nil, srerr.NewNotSupportedNoCtx("%s comparison on bool", op)
		}
		return fixedCompareFn[bool](func(x, y bool) bool {
			if op == Equal {
				return x == y
			}
			return x != y
		}), nil
	case types.T_int8:
		return orderedCompareFn[int8](op), nil
	case types.T_int16:
		return orderedCompareFn[int16](op), nil
	case types.T_int32:
		return orderedCompareFn[int32](op), nil
	case types.T_int64:
		return orderedCompareFn[int64](op), nil
	case types.T_uint8:
		return orderedCompareFn[uint8](op), nil
	case types.T_uint16:
		return orderedCompareFn[uint16](op), nil
	case types.T_uint32:
		return orderedCompareFn[uint32](op), nil
	case types.T_uint64:
		return orderedCompareFn[uint64](op), nil
	case types.T_float32:
		return orderedCompareFn[float32](op), nil
	case types.T_float64:
		return orderedCompareFn[float64](op), nil
	case types.T_timestamp:
		return orderedCompareFn[types.Timestamp](op), nil
	case types.T_char, types.T_varchar:
		return stringCompareFn(op), nil
	}
	return nil, srerr.NewNotSupportedNoCtx("%s comparison on type %s", op, oid)
}

type orderedCol interface {
	types.Ints | types.UInts | types.Floats | types.Timestamp
}

func orderedCompareFn[T orderedCol](op CompareOp) compareFn {
	switch op {
	case Equal:
		return fixedCompareFn[T](func(x, y T) bool { return x == y })
	case NotEqual:
		return fixedCompareFn[T](func(x, y T) bool { return x != y })
	case Less:
		return fixedCompareFn[T](func(x, y T) bool { return x < y })
	case LessEqual:
		return fixedCompareFn[T](func(x, y T) bool { return x <= y })
	case Greater:
		return fixedCompareFn[T](func(x, y T) bool { return x > y })
	default:
		return fixedCompareFn[T](func(x, y T) bool { return x >= y })
	}
}

// broadcastStep maps a vector onto the chunk rows: step 1 walks the
// vector, step 0 pins a one-row constant.
func broadcastStep(vec *vector.Vector, rows int) (int, error) {
	if vec.Length() == rows {
		return 1, nil
	}
	if vec.Length() == 1 {
		return 0, nil
	}
	return 0, srerr.NewInternalErrorNoCtx("compare vector length %d over %d rows", vec.Length(), rows)
}

func fixedCompareFn[T types.FixedSizeT](cmp func(x, y T) bool) compareFn {
	return func(left, right *vector.Vector, res *vector.Vector, rows int, mp *mpool.MPool) error {
		lstep, err := broadcastStep(left, rows)
		if err != nil {
			return err
		}
		rstep, err := broadcastStep(right, rows)
		if err != nil {
			return err
		}
		ls := vector.MustFixedCol[T](left)
		rs := vector.MustFixedCol[T](right)
		for i, li, ri := 0, 0, 0; i < rows; i, li, ri = i+1, li+lstep, ri+rstep {
			isNull := left.IsNull(uint64(li)) || right.IsNull(uint64(ri))
			var v bool
			if !isNull {
				v = cmp(ls[li], rs[ri])
			}
			if err := vector.AppendFixed(res, v, isNull, mp); err != nil {
				return err
			}
		}
		return nil
	}
}

func stringCompareFn(op CompareOp) compareFn {
	var keep func(c int) bool
	switch op {
	case Equal:
		keep = func(c int) bool { return c == 0 }
	case NotEqual:
		keep = func(c int) bool { return c != 0 }
	case Less:
		keep = func(c int) bool { return c < 0 }
	case LessEqual:
		keep = func(c int) bool { return c <= 0 }
	case Greater:
		keep = func(c int) bool { return c > 0 }
	default:
		keep = func(c int) bool { return c >= 0 }
	}
	return func(left, right *vector.Vector, res *vector.Vector, rows int, mp *mpool.MPool) error {
		lstep, err := broadcastStep(left, rows)
		if err != nil {
			return err
		}
		rstep, err := broadcastStep(right, rows)
		if err != nil {
			return err
		}
		for i, li, ri := 0, 0, 0; i < rows; i, li, ri = i+1, li+lstep, ri+rstep {
			isNull := left.IsNull(uint64(li)) || right.IsNull(uint64(ri))
			var v bool
			if !isNull {
				v = keep(bytes.Compare(left.GetBytesAt(li), right.GetBytesAt(ri)))
			}
			if err := vector.AppendFixed(res, v, isNull, mp); err != nil {
				return err
			}
		}
		return nil
	}
}

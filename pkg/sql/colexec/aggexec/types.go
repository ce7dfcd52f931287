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

const (
	// GroupNotMatch marks a row that belongs to no group in a
	// BatchFill group id slice. Valid group ids start at 1.
	GroupNotMatch = 0
)

const (
	AggregateSum = iota
	AggregateCount
	AggregateStarCount
	AggregateMin
	AggregateMax
	AggregateAvg
	AggregateApproxCountDistinct
	AggregateBitmapUnionInt
)

var Names = [...]string{
	AggregateSum:                 "sum",
	AggregateCount:               "count",
	AggregateStarCount:           "starcount",
	AggregateMin:                 "min",
	AggregateMax:                 "max",
	AggregateAvg:                 "avg",
	AggregateApproxCountDistinct: "approx_count_distinct",
	AggregateBitmapUnionInt:      "bitmap_union_int",
}

// AggFuncExec holds per-group running state for one aggregate function.
// Group indexes are 0-based here; the 1-based ids handed out by the hash
// map are shifted by the caller. None of the methods are goroutine safe.
type AggFuncExec interface {
	// OutputType returns the result type of the function.
	OutputType() types.Type

	// InputTypes returns the argument types of the function.
	InputTypes() []types.Type

	// GroupGrow allocates n more group slots.
	GroupGrow(n int) error

	// Fill adds one row of the input vectors to one group.
	Fill(groupIdx int64, rowIndex int64, vectors []*vector.Vector) error

	// BulkFill adds every row of the input vectors to one group.
	BulkFill(groupIdx int64, vectors []*vector.Vector) error

	// BatchFill adds rows [offset, offset+len(groups)) to the groups
	// named by the 1-based ids in groups; GroupNotMatch skips the row.
	BatchFill(offset int64, groups []uint64, vectors []*vector.Vector) error

	// Merge folds group groupIdx2 of other into group groupIdx1.
	// other must be an executor of the same function and input type.
	Merge(other AggFuncExec, groupIdx1, groupIdx2 int64) error

	// Flush finalizes groups [start, start+count) into a result vector.
	Flush(start, count int64) (*vector.Vector, error)

	// SerializePartial encodes the running state of groups
	// [start, start+count) into a varchar vector, one row per group,
	// each row shaped [emptyFlag byte][payload].
	SerializePartial(start, count int64) (*vector.Vector, error)

	// MergePartial folds one serialized group state into groupIdx.
	MergePartial(groupIdx int64, partial []byte) error

	// Free releases pool backed state. Safe to call more than once.
	Free()
}

// New builds the executor for an aggregate function over one input type.
func New(op int, ityp types.Type, mp *mpool.MPool) (AggFuncExec, error) {
	switch op {
	case AggregateSum:
		return newSum(ityp, mp)
	case AggregateCount:
		return newCount(ityp, mp, false), nil
	case AggregateStarCount:
		return newCount(ityp, mp, true), nil
	case AggregateMin:
		return newMinMax(ityp, mp, true)
	case AggregateMax:
		return newMinMax(ityp, mp, false)
	case AggregateAvg:
		return newAvg(ityp, mp)
	case AggregateApproxCountDistinct:
		return newApproxCountDistinct(ityp, mp), nil
	case AggregateBitmapUnionInt:
		return newBitmapUnionInt(ityp, mp)
	}
	return nil, srerr.NewInternalErrorNoCtx("unsupported aggregate %d", op)
}

// ReturnType reports the result type New's executor will produce.
func ReturnType(op int, typ types.Type) (types.Type, error) {
	switch op {
	case AggregateSum:
		switch typ.Oid {
		case types.T_int8, types.T_int16, types.T_int32, types.T_int64:
			return types.T_int64.ToType(), nil
		case types.T_uint8, types.T_uint16, types.T_uint32, types.T_uint64:
			return types.T_uint64.ToType(), nil
		case types.T_float32, types.T_float64:
			return types.T_float64.ToType(), nil
		}
	case AggregateCount, AggregateStarCount:
		return types.T_int64.ToType(), nil
	case AggregateMin, AggregateMax:
		if typ.Oid != types.T_bool {
			return typ, nil
		}
	case AggregateAvg:
		switch typ.Oid {
		case types.T_int8, types.T_int16, types.T_int32, types.T_int64,
			types.T_uint8, types.T_uint16, types.T_uint32, types.T_uint64,
			types.T_float32, types.T_float64:
			return types.T_float64.ToType(), nil
		}
	case AggregateApproxCountDistinct:
		return types.T_uint64.ToType(), nil
	case AggregateBitmapUnionInt:
		switch typ.Oid {
		case types.T_int32, types.T_uint32, types.T_int64, types.T_uint64:
			return types.T_uint64.ToType(), nil
		}
	default:
		return types.Type{}, srerr.NewInternalErrorNoCtx("unsupported aggregate %d", op)
	}
	return types.Type{}, srerr.NewNotSupportedNoCtx("aggregate %s on type %s", Names[op], typ.Oid)
}

// partial state rows are [emptyFlag byte][payload]

func encodePartialState(empty bool, payload []byte) []byte {
	data := make([]byte, 0, len(payload)+1)
	if empty {
		data = append(data, 1)
	} else {
		data = append(data, 0)
	}
	return append(data, payload...)
}

func decodePartialState(data []byte) (bool, []byte, error) {
	if len(data) < 1 {
		return false, nil, srerr.NewInvalidInputNoCtx("partial aggregate state too short")
	}
	return data[0] == 1, data[1:], nil
}

// numeric is what the arithmetic executors accept.
type numeric interface {
	types.Ints | types.UInts | types.Floats
}

// orderedValue is what min/max accept.
type orderedValue interface {
	types.Ints | types.UInts | types.Floats | types.Timestamp
}

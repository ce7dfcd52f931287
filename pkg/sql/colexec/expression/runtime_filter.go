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
	"github.com/dupen01/starrocks/pkg/common/bloomfilter"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/container/vector"
)

// InFilterCardLimit is the build side cardinality under which a runtime
// filter keeps the exact key set instead of a bloom filter.
const InFilterCardLimit = 1024

// RuntimeFilter prunes chunk rows against the key set another operator
// collected at run time. Small build sides keep the exact keys; larger
// ones fall back to a bloom filter, which may let false positives
// through for the conjuncts to drop but never removes a matching row.
type RuntimeFilter struct {
	colIdx int32
	in     map[string]struct{}
	bloom  *bloomfilter.BloomFilter
}

// BuildRuntimeFilter snapshots the build side keys for probing column
// colIdx. Null build rows never match a probe.
func BuildRuntimeFilter(colIdx int32, build *vector.Vector) *RuntimeFilter {
	rf := &RuntimeFilter{colIdx: colIdx}
	n := build.Length()
	if n <= InFilterCardLimit {
		rf.in = make(map[string]struct{}, n)
		for row := 0; row < n; row++ {
			if build.IsNull(uint64(row)) {
				continue
			}
			rf.in[string(build.GetRawBytesAt(row))] = struct{}{}
		}
		return rf
	}
	rf.bloom = bloomfilter.New(int64(n), 0.01)
	rf.bloom.Add(build)
	return rf
}

func (rf *RuntimeFilter) ColIdx() int32 { return rf.colIdx }

// Exact reports whether the filter holds the exact key set rather than
// a bloom approximation.
func (rf *RuntimeFilter) Exact() bool { return rf.in != nil }

func (rf *RuntimeFilter) Clean() {
	rf.in = nil
	if rf.bloom != nil {
		rf.bloom.Clean()
		rf.bloom = nil
	}
}

// EvalRuntimeFilters shrinks chk in place to the rows every filter
// accepts. Evaluation stops as soon as the chunk is empty.
func EvalRuntimeFilters(filters []*RuntimeFilter, chk *chunk.Chunk) error {
	for _, rf := range filters {
		if chk.RowCount() == 0 {
			return nil
		}
		if err := rf.eval(chk); err != nil {
			return err
		}
	}
	return nil
}

func (rf *RuntimeFilter) eval(chk *chunk.Chunk) error {
	if int(rf.colIdx) < 0 || int(rf.colIdx) >= chk.VectorCount() {
		return srerr.NewInternalErrorNoCtx("runtime filter probes column %d of %d", rf.colIdx, chk.VectorCount())
	}
	vec := chk.Vecs[rf.colIdx]
	rows := chk.RowCount()
	sels := make([]int64, 0, rows)
	if rf.in != nil {
		for row := 0; row < rows; row++ {
			if vec.IsNull(uint64(row)) {
				continue
			}
			if _, ok := rf.in[string(vec.GetRawBytesAt(row))]; ok {
				sels = append(sels, int64(row))
			}
		}
	} else if rf.bloom != nil {
		rf.bloom.Test(vec, func(exist bool, row int) {
			if exist {
				sels = append(sels, int64(row))
			}
		})
	} else {
		return nil
	}
	if len(sels) != rows {
		chk.Shrink(sels)
	}
	return nil
}

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

package main

import (
	"os"

	"github.com/fagongzi/util/format"
	"github.com/matrixorigin/simdcsv"

	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

func buildKVChunk(mp *mpool.MPool, keys, vals []int64) (*chunk.Chunk, error) {
	keyVec := vector.NewVec(types.T_int64.ToType())
	if err := vector.AppendFixedList(keyVec, keys, mp); err != nil {
		keyVec.Free(mp)
		return nil, err
	}
	valVec := vector.NewVec(types.T_int64.ToType())
	if err := vector.AppendFixedList(valVec, vals, mp); err != nil {
		keyVec.Free(mp)
		valVec.Free(mp)
		return nil, err
	}
	chk := chunk.NewWithSize(2)
	chk.SetVector(0, keyVec)
	chk.SetVector(1, valVec)
	chk.SetRowCount(len(vals))
	return chk, nil
}

func cleanChunks(chks []*chunk.Chunk, mp *mpool.MPool) {
	for _, c := range chks {
		c.Clean(mp)
	}
}

// loadSynthetic fabricates rows: key = row % groups, value = row.
func loadSynthetic(proc *process.Process, rows, groups int) ([]*chunk.Chunk, int, error) {
	if rows <= 0 || groups <= 0 {
		return nil, 0, srerr.NewInvalidInputNoCtx("rows and groups must be positive")
	}
	mp := proc.Mp()
	size := proc.ChunkSize()
	var chunks []*chunk.Chunk
	for base := 0; base < rows; base += size {
		n := size
		if rows-base < n {
			n = rows - base
		}
		keys := make([]int64, n)
		vals := make([]int64, n)
		for i := 0; i < n; i++ {
			r := base + i
			keys[i] = int64(r % groups)
			vals[i] = int64(r)
		}
		chk, err := buildKVChunk(mp, keys, vals)
		if err != nil {
			cleanChunks(chunks, mp)
			return nil, 0, err
		}
		chunks = append(chunks, chk)
	}
	return chunks, rows, nil
}

// loadCSV reads key/value rows in batches sized to the engine chunk
// budget. Blank and comment lines are skipped.
func loadCSV(proc *process.Process, path string, keyCol, valCol int) ([]*chunk.Chunk, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	mp := proc.Mp()
	size := proc.ChunkSize()
	reader := simdcsv.NewReaderWithOptions(f, ',', '#', true, true)
	records := make([][]string, size)
	keys := make([]int64, 0, size)
	vals := make([]int64, 0, size)
	var chunks []*chunk.Chunk
	total := 0
	for {
		batch, cnt, err := reader.Read(size, proc.Ctx, records)
		if err != nil {
			cleanChunks(chunks, mp)
			return nil, 0, err
		}
		for i := 0; i < cnt; i++ {
			rec := batch[i]
			if len(rec) == 0 {
				continue
			}
			if keyCol >= len(rec) || valCol >= len(rec) {
				cleanChunks(chunks, mp)
				return nil, 0, srerr.NewInvalidInputNoCtx("csv row %d has %d columns", total+1, len(rec))
			}
			k, err := format.ParseStringInt64(rec[keyCol])
			if err != nil {
				cleanChunks(chunks, mp)
				return nil, 0, err
			}
			v, err := format.ParseStringInt64(rec[valCol])
			if err != nil {
				cleanChunks(chunks, mp)
				return nil, 0, err
			}
			keys = append(keys, k)
			vals = append(vals, v)
			total++
			if len(keys) == size {
				chk, err := buildKVChunk(mp, keys, vals)
				if err != nil {
					cleanChunks(chunks, mp)
					return nil, 0, err
				}
				chunks = append(chunks, chk)
				keys = keys[:0]
				vals = vals[:0]
			}
		}
		if cnt < size {
			break
		}
	}
	if len(keys) > 0 {
		chk, err := buildKVChunk(mp, keys, vals)
		if err != nil {
			cleanChunks(chunks, mp)
			return nil, 0, err
		}
		chunks = append(chunks, chk)
	}
	return chunks, total, nil
}

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

package chunkio

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
	"github.com/dupen01/starrocks/pkg/testutil"
	"github.com/dupen01/starrocks/pkg/vm"
)

var (
	_ vm.Operator = (*ChunkSourceOperator)(nil)
	_ vm.Operator = (*ChunkSinkOperator)(nil)
)

func makeInt64Chunk(t *testing.T, mp *mpool.MPool, vals []int64) *chunk.Chunk {
	vec := vector.NewVec(types.T_int64.ToType())
	require.NoError(t, vector.AppendFixedList(vec, vals, mp))
	chk := chunk.NewWithSize(1)
	chk.SetVector(0, vec)
	chk.SetRowCount(len(vals))
	return chk
}

func TestChunkSourceReplay(t *testing.T) {
	proc := testutil.NewProcess()
	mp := proc.Mp()
	src := NewChunkSource([]*chunk.Chunk{
		makeInt64Chunk(t, mp, []int64{1, 2}),
		makeInt64Chunk(t, mp, []int64{3}),
	})
	require.NoError(t, src.Prepare(proc))
	require.Equal(t, vm.ChunkSource, src.OpType())
	require.Equal(t, "chunk_source", src.String())
	require.False(t, src.NeedInput())

	require.True(t, src.HasOutput())
	require.False(t, src.IsFinished())
	first, err := src.PullChunk(proc)
	require.NoError(t, err)
	require.Equal(t, 2, first.RowCount())
	require.True(t, src.HasOutput())

	second, err := src.PullChunk(proc)
	require.NoError(t, err)
	require.Equal(t, 1, second.RowCount())
	require.False(t, src.HasOutput())
	require.True(t, src.IsFinished())

	extra, err := src.PullChunk(proc)
	require.NoError(t, err)
	require.Nil(t, extra)

	first.Clean(mp)
	second.Clean(mp)
	require.NoError(t, src.Close(proc))
	require.NoError(t, src.Close(proc))
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestChunkSourceForcedFinish(t *testing.T) {
	proc := testutil.NewProcess()
	mp := proc.Mp()
	src := NewChunkSource([]*chunk.Chunk{
		makeInt64Chunk(t, mp, []int64{1}),
		makeInt64Chunk(t, mp, []int64{2}),
	})
	require.NoError(t, src.Prepare(proc))

	first, err := src.PullChunk(proc)
	require.NoError(t, err)
	first.Clean(mp)

	require.NoError(t, src.SetFinished(proc))
	require.False(t, src.HasOutput())
	require.True(t, src.IsFinished())
	extra, err := src.PullChunk(proc)
	require.NoError(t, err)
	require.Nil(t, extra)

	// the undelivered chunk is released at Close
	require.NoError(t, src.Close(proc))
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestChunkSourceCancelled(t *testing.T) {
	proc := testutil.NewProcess()
	src := NewChunkSource([]*chunk.Chunk{makeInt64Chunk(t, proc.Mp(), []int64{1})})
	require.NoError(t, src.Prepare(proc))

	proc.Cancel()
	_, err := src.PullChunk(proc)
	require.Error(t, err)
	require.True(t, srerr.IsSrErrCode(err, srerr.ErrQueryInterrupted))
	require.True(t, src.HasOutput())

	require.NoError(t, src.Close(proc))
	require.Equal(t, int64(0), proc.Mp().CurrNB())
}

func TestChunkSinkCollectAndTake(t *testing.T) {
	proc := testutil.NewProcess()
	mp := proc.Mp()
	sink := NewChunkSink()
	require.NoError(t, sink.Prepare(proc))
	require.Equal(t, vm.ChunkSink, sink.OpType())
	require.Equal(t, "chunk_sink", sink.String())
	require.True(t, sink.NeedInput())
	require.False(t, sink.HasOutput())
	require.False(t, sink.IsFinished())

	a := makeInt64Chunk(t, mp, []int64{1, 2, 3})
	require.NoError(t, sink.PushChunk(proc, a))
	a.Clean(mp)

	require.NoError(t, sink.PushChunk(proc, nil))
	empty := makeInt64Chunk(t, mp, nil)
	require.NoError(t, sink.PushChunk(proc, empty))
	empty.Clean(mp)

	b := makeInt64Chunk(t, mp, []int64{4})
	require.NoError(t, sink.PushChunk(proc, b))
	b.Clean(mp)

	require.NoError(t, sink.SetFinishing(proc))
	require.False(t, sink.NeedInput())
	require.True(t, sink.IsFinished())

	out := sink.TakeChunks()
	require.Len(t, out, 2)
	require.Equal(t, []int64{1, 2, 3}, vector.MustFixedCol[int64](out[0].Vecs[0]))
	require.Equal(t, []int64{4}, vector.MustFixedCol[int64](out[1].Vecs[0]))
	for _, chk := range out {
		chk.Clean(mp)
	}
	require.Nil(t, sink.TakeChunks())

	require.NoError(t, sink.Close(proc))
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestChunkSinkCloseReleasesCollected(t *testing.T) {
	proc := testutil.NewProcess()
	mp := proc.Mp()
	sink := NewChunkSink()
	require.NoError(t, sink.Prepare(proc))

	chk := makeInt64Chunk(t, mp, []int64{7})
	require.NoError(t, sink.PushChunk(proc, chk))
	chk.Clean(mp)

	require.NoError(t, sink.SetFinished(proc))
	require.True(t, sink.IsFinished())

	// collected but never taken, Close drops the sink's references
	require.NoError(t, sink.Close(proc))
	require.NoError(t, sink.Close(proc))
	require.Equal(t, int64(0), mp.CurrNB())
}

func TestChunkSinkCancelled(t *testing.T) {
	proc := testutil.NewProcess()
	mp := proc.Mp()
	sink := NewChunkSink()
	require.NoError(t, sink.Prepare(proc))

	chk := makeInt64Chunk(t, mp, []int64{1})
	proc.Cancel()
	err := sink.PushChunk(proc, chk)
	require.Error(t, err)
	require.True(t, srerr.IsSrErrCode(err, srerr.ErrQueryInterrupted))
	chk.Clean(mp)

	require.NoError(t, sink.Close(proc))
	require.Equal(t, int64(0), mp.CurrNB())
}

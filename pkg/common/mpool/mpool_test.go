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

package mpool

import (
	"sync"
	"testing"

	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/stretchr/testify/require"
)

func TestMPool(t *testing.T) {
	m, err := NewMPool("test-mpool-small", NoLimit)
	require.True(t, err == nil, "new mpool failed %v", err)
	defer DeleteMPool(m)

	nb0 := m.CurrNB()
	nalloc0 := m.Stats().NumAlloc.Load()
	nfree0 := m.Stats().NumFree.Load()

	require.True(t, nalloc0 == 0, "bad nalloc")
	require.True(t, nfree0 == 0, "bad nfree")

	for i := 1; i <= 1000; i++ {
		a, err := m.Alloc(i * 10)
		require.True(t, err == nil, "alloc failure, %v", err)
		require.True(t, len(a) == i*10, "allocation i size error")
		a[0] = 0xF0
		require.True(t, a[1] == 0, "allocation result not zeroed.")
		a[i*10-1] = 0xBA
		a, err = m.Realloc(a, i*20)
		require.True(t, err == nil, "realloc failure %v", err)
		require.True(t, len(a) == i*20, "allocation i size error")
		require.True(t, a[0] == 0xF0, "reallocation not copied")
		require.True(t, a[i*10-1] == 0xBA, "reallocation not copied")
		require.True(t, a[i*10] == 0, "reallocation not zeroed")
		require.True(t, a[i*20-1] == 0, "reallocation not zeroed")
		m.Free(a)
	}

	require.True(t, nb0 == m.CurrNB(), "leak")
	// 30 -- realloc allocates the new buffer before freeing the old one.
	require.True(t, int64(1000*30) == m.Stats().HighWaterMark.Load(), "hw")
	require.True(t, m.Stats().NumAlloc.Load()-m.Stats().NumFree.Load() == 0, "free")
}

func TestMPoolCap(t *testing.T) {
	m, err := NewMPool("test-mpool-cap", 1*MB)
	require.NoError(t, err)
	defer DeleteMPool(m)

	a, err := m.Alloc(512 * 1024)
	require.NoError(t, err)

	_, err = m.Alloc(1 * MB)
	require.True(t, srerr.IsSrErrCode(err, srerr.ErrOOM), "expected oom, got %v", err)

	m.Free(a)
	require.Equal(t, int64(0), m.CurrNB())

	a, err = m.Alloc(1 * MB)
	require.NoError(t, err)
	m.Free(a)
}

func TestMPoolDupTag(t *testing.T) {
	m, err := NewMPool("test-mpool-dup", NoLimit)
	require.NoError(t, err)
	defer DeleteMPool(m)

	_, err = NewMPool("test-mpool-dup", NoLimit)
	require.Error(t, err)
}

// test race
func TestMPoolForRace(t *testing.T) {
	pool := MustNewZero()
	var wg sync.WaitGroup
	run := func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			buf, err := pool.Alloc(10)
			if err != nil {
				panic(err)
			}
			pool.Free(buf)
		}
	}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go run()
	}
	wg.Wait()
	require.Equal(t, int64(0), pool.CurrNB())
}

func TestGrow(t *testing.T) {
	m := MustNewZero()
	a, err := m.Alloc(8)
	require.NoError(t, err)
	a[7] = 0xAB

	a, err = m.Grow(a, 9)
	require.NoError(t, err)
	require.Equal(t, 9, len(a))
	require.True(t, cap(a) >= 16, "grow should at least double")
	require.Equal(t, uint8(0xAB), a[7])
	m.Free(a)
	require.Equal(t, int64(0), m.CurrNB())
}

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
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dupen01/starrocks/pkg/common/srerr"
)

const (
	MB = 1 << 20
	GB = 1 << 30

	// NoLimit: a pool created with cap <= 0 does not enforce a cap.
	NoLimit int64 = 0
)

// MPoolStats are accounting counters of one pool. All fields are atomics so
// a pool can be shared by the sink and source sides of an operator pair.
type MPoolStats struct {
	NumAlloc      atomic.Int64
	NumFree       atomic.Int64
	NumCurrBytes  atomic.Int64
	HighWaterMark atomic.Int64
}

func (s *MPoolStats) Report(tab string) string {
	if s.HighWaterMark.Load() == 0 {
		// empty, don't print anything
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s curr bytes: %d\n", tab, s.NumCurrBytes.Load()))
	sb.WriteString(fmt.Sprintf("%s high water mark: %d\n", tab, s.HighWaterMark.Load()))
	sb.WriteString(fmt.Sprintf("%s num of alloc: %d\n", tab, s.NumAlloc.Load()))
	sb.WriteString(fmt.Sprintf("%s num of free: %d\n", tab, s.NumFree.Load()))
	return sb.String()
}

// RecordAlloc accounts sz newly allocated bytes and maintains the high
// water mark.
func (s *MPoolStats) RecordAlloc(sz int64) int64 {
	s.NumAlloc.Add(1)
	curr := s.NumCurrBytes.Add(sz)
	for {
		hwm := s.HighWaterMark.Load()
		if curr <= hwm || s.HighWaterMark.CompareAndSwap(hwm, curr) {
			break
		}
	}
	return curr
}

func (s *MPoolStats) RecordFree(sz int64) int64 {
	s.NumFree.Add(1)
	return s.NumCurrBytes.Add(-sz)
}

// MPool is a memory accounting pool. Allocations are ordinary Go slices;
// the pool enforces a byte cap and keeps leak-detectable counters. A query
// breaching its cap gets an OOM error instead of taking the process down.
type MPool struct {
	tag   string
	cap   int64
	stats MPoolStats
}

var globalPools sync.Map

func NewMPool(tag string, cap int64) (*MPool, error) {
	m := &MPool{tag: tag, cap: cap}
	if _, loaded := globalPools.LoadOrStore(tag, m); loaded {
		return nil, srerr.NewInvalidInputNoCtx("duplicate mpool %s", tag)
	}
	return m, nil
}

// MustNewZero creates an anonymous pool without a cap. Test and tooling
// convenience; the pool is not registered globally.
func MustNewZero() *MPool {
	return &MPool{tag: "anonymous", cap: NoLimit}
}

func MustNew(tag string) *MPool {
	m, err := NewMPool(tag, NoLimit)
	if err != nil {
		panic(err)
	}
	return m
}

func DeleteMPool(m *MPool) {
	if m == nil {
		return
	}
	globalPools.Delete(m.tag)
}

func (m *MPool) Tag() string {
	return m.tag
}

func (m *MPool) Cap() int64 {
	if m.cap <= 0 {
		return PB
	}
	return m.cap
}

// CurrNB returns the currently allocated byte count. Tests assert it is
// balanced after Free.
func (m *MPool) CurrNB() int64 {
	return m.stats.NumCurrBytes.Load()
}

func (m *MPool) Stats() *MPoolStats {
	return &m.stats
}

const PB int64 = 1 << 50

func (m *MPool) Alloc(sz int) ([]byte, error) {
	if sz < 0 {
		return nil, srerr.NewInternalErrorNoCtx("mpool alloc with negative size %d", sz)
	}
	if sz == 0 {
		return nil, nil
	}
	if curr := m.stats.RecordAlloc(int64(sz)); m.cap > 0 && curr > m.cap {
		m.stats.RecordFree(int64(sz))
		return nil, srerr.NewOOMNoCtx()
	}
	return make([]byte, sz), nil
}

func (m *MPool) Free(bs []byte) {
	if bs == nil || cap(bs) == 0 {
		return
	}
	m.stats.RecordFree(int64(cap(bs)))
}

// Realloc allocates a new buffer of size sz, copies old over and frees it.
// The new tail is zeroed.
func (m *MPool) Realloc(old []byte, sz int) ([]byte, error) {
	if sz <= cap(old) {
		return old[:sz], nil
	}
	bs, err := m.Alloc(sz)
	if err != nil {
		return nil, err
	}
	copy(bs, old)
	m.Free(old)
	return bs, nil
}

// Grow is Realloc with geometric growth, for append-heavy callers.
func (m *MPool) Grow(old []byte, sz int) ([]byte, error) {
	if sz < len(old) {
		return nil, srerr.NewInternalErrorNoCtx("mpool grow actually shrinks, %d, %d", len(old), sz)
	}
	if sz <= cap(old) {
		return old[:sz], nil
	}
	newCap := calculateNewCap(cap(old), sz)
	bs, err := m.Realloc(old, newCap)
	if err != nil {
		return nil, err
	}
	return bs[:sz], nil
}

// copied from go slice grow strategy.
func calculateNewCap(oldCap int, requiredSize int) int {
	newcap := oldCap
	doublecap := newcap + newcap
	if requiredSize > doublecap {
		newcap = requiredSize
	} else {
		const threshold = 256
		if oldCap < threshold {
			newcap = doublecap
		} else {
			for 0 < newcap && newcap < requiredSize {
				newcap += (newcap + 3*threshold) / 4
			}
			if newcap <= 0 {
				newcap = requiredSize
			}
		}
	}
	return newcap
}

// ReportMemUsage reports the stats of the named pool, or of every
// registered pool when tag is empty.
func ReportMemUsage(tag string) string {
	var sb strings.Builder
	globalPools.Range(func(_, v any) bool {
		m := v.(*MPool)
		if tag == "" || tag == m.tag {
			sb.WriteString(fmt.Sprintf("%s:\n%s", m.tag, m.stats.Report("    ")))
		}
		return true
	})
	return sb.String()
}

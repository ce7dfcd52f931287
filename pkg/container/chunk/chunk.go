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

// Package chunk implements the columnar batch passed between pipeline
// operators.
package chunk

import (
	"strings"
	"sync/atomic"

	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/container/vector"
)

// Chunk is an ordered set of column vectors sharing one row count. A chunk
// is reference counted: operators that retain it past the call take a ref
// with AddCnt, and Clean frees the columns once the count drops to zero.
type Chunk struct {
	cnt      int64
	rowCount int

	Attrs []string
	Vecs  []*vector.Vector
}

func New(attrs []string) *Chunk {
	return &Chunk{
		cnt:   1,
		Attrs: attrs,
		Vecs:  make([]*vector.Vector, len(attrs)),
	}
}

func NewWithSize(n int) *Chunk {
	return &Chunk{
		cnt:  1,
		Vecs: make([]*vector.Vector, n),
	}
}

func (c *Chunk) RowCount() int {
	return c.rowCount
}

func (c *Chunk) SetRowCount(rowCount int) {
	c.rowCount = rowCount
}

func (c *Chunk) VectorCount() int {
	return len(c.Vecs)
}

func (c *Chunk) GetVector(pos int32) *vector.Vector {
	return c.Vecs[pos]
}

func (c *Chunk) SetVector(pos int32, vec *vector.Vector) {
	c.Vecs[pos] = vec
}

func (c *Chunk) AddCnt(cnt int) {
	atomic.AddInt64(&c.cnt, int64(cnt))
}

func (c *Chunk) GetCnt() int64 {
	return atomic.LoadInt64(&c.cnt)
}

// Shrink keeps only the rows of sels, in place, across every column.
func (c *Chunk) Shrink(sels []int64) {
	for _, vec := range c.Vecs {
		vec.Shrink(sels)
	}
	c.rowCount = len(sels)
}

// Clean drops one reference; the last reference frees the columns.
func (c *Chunk) Clean(mp *mpool.MPool) {
	if c == nil {
		return
	}
	if atomic.AddInt64(&c.cnt, -1) != 0 {
		return
	}
	for _, vec := range c.Vecs {
		if vec != nil {
			vec.Free(mp)
		}
	}
	c.Attrs = nil
	c.Vecs = nil
	c.rowCount = 0
}

func (c *Chunk) String() string {
	var sb strings.Builder
	for i, vec := range c.Vecs {
		if i > 0 {
			sb.WriteString("\n")
		}
		if len(c.Attrs) > i {
			sb.WriteString(c.Attrs[i])
			sb.WriteString(": ")
		}
		sb.WriteString(vec.String())
	}
	return sb.String()
}

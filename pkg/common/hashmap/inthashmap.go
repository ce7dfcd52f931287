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

package hashmap

import (
	"encoding/binary"

	"github.com/dupen01/starrocks/pkg/container/vector"
)

// IntHashMap hashes group-by keys whose packed width fits in 8 bytes. Each
// row's key packs, column by column, an optional null byte followed by the
// column's raw value bytes (zeroed when null), padded with zeros up to 8.
type IntHashMap struct {
	hasNull bool
	rows    uint64
	hashMap map[uint64]uint64

	// per-unit scratch, reused across Insert calls
	keys [UnitLimit]uint64
	zs   [UnitLimit]int64
	vs   [UnitLimit]uint64
}

type intHashMapIterator struct {
	mp *IntHashMap
}

func NewIntHashMap(hasNull bool) *IntHashMap {
	return &IntHashMap{
		hasNull: hasNull,
		hashMap: make(map[uint64]uint64),
	}
}

func (m *IntHashMap) NewIterator() Iterator {
	return &intHashMapIterator{mp: m}
}

func (m *IntHashMap) HasNull() bool {
	return m.hasNull
}

func (m *IntHashMap) GroupCount() uint64 {
	return m.rows
}

func (m *IntHashMap) Free() {
	m.hashMap = nil
}

func (m *IntHashMap) encodeKeys(start, count int, vecs []*vector.Vector) {
	var buf [MaxIntFixedKeySize]byte
	for i := 0; i < count; i++ {
		row := start + i
		off := 0
		m.zs[i] = 1
		for _, vec := range vecs {
			isNull := vec.IsNull(uint64(row))
			if isNull && !m.hasNull {
				m.zs[i] = 0
			}
			if m.hasNull {
				if isNull {
					buf[off] = 1
				} else {
					buf[off] = 0
				}
				off++
			}
			w := vec.GetType().TypeSize()
			if isNull {
				for j := 0; j < w; j++ {
					buf[off+j] = 0
				}
			} else {
				copy(buf[off:off+w], vec.GetRawBytesAt(row))
			}
			off += w
		}
		for ; off < MaxIntFixedKeySize; off++ {
			buf[off] = 0
		}
		m.keys[i] = binary.LittleEndian.Uint64(buf[:])
	}
}

func (itr *intHashMapIterator) Insert(start, count int, vecs []*vector.Vector) ([]uint64, error) {
	m := itr.mp
	m.encodeKeys(start, count, vecs)
	for i := 0; i < count; i++ {
		if m.zs[i] == 0 {
			m.vs[i] = 0
			continue
		}
		gid, ok := m.hashMap[m.keys[i]]
		if !ok {
			m.rows++
			gid = m.rows
			m.hashMap[m.keys[i]] = gid
		}
		m.vs[i] = gid
	}
	return m.vs[:count], nil
}

func (itr *intHashMapIterator) Find(start, count int, vecs []*vector.Vector) []uint64 {
	m := itr.mp
	m.encodeKeys(start, count, vecs)
	for i := 0; i < count; i++ {
		if m.zs[i] == 0 {
			m.vs[i] = 0
			continue
		}
		m.vs[i] = m.hashMap[m.keys[i]]
	}
	return m.vs[:count]
}

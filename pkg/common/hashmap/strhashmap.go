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
	"github.com/fagongzi/util/hack"
)

// StrHashMap hashes group-by keys of any shape. Each row's key packs, per
// column, an optional null byte, a 4-byte length prefix for var-len
// columns, then the value bytes.
type StrHashMap struct {
	hasNull bool
	rows    uint64
	hashMap map[string]uint64

	// per-unit scratch, reused across Insert calls
	keys [UnitLimit][]byte
	zs   [UnitLimit]int64
	vs   [UnitLimit]uint64
}

type strHashMapIterator struct {
	mp *StrHashMap
}

func NewStrHashMap(hasNull bool) *StrHashMap {
	return &StrHashMap{
		hasNull: hasNull,
		hashMap: make(map[string]uint64),
	}
}

func (m *StrHashMap) NewIterator() Iterator {
	return &strHashMapIterator{mp: m}
}

func (m *StrHashMap) HasNull() bool {
	return m.hasNull
}

func (m *StrHashMap) GroupCount() uint64 {
	return m.rows
}

func (m *StrHashMap) Free() {
	m.hashMap = nil
}

func (m *StrHashMap) encodeKeys(start, count int, vecs []*vector.Vector) {
	var lenBuf [4]byte
	for i := 0; i < count; i++ {
		row := start + i
		key := m.keys[i][:0]
		m.zs[i] = 1
		for _, vec := range vecs {
			isNull := vec.IsNull(uint64(row))
			if isNull && !m.hasNull {
				m.zs[i] = 0
			}
			if m.hasNull {
				if isNull {
					key = append(key, 1)
				} else {
					key = append(key, 0)
				}
			}
			if isNull {
				if vec.GetType().IsString() {
					binary.LittleEndian.PutUint32(lenBuf[:], 0)
					key = append(key, lenBuf[:]...)
				} else {
					for j := 0; j < vec.GetType().TypeSize(); j++ {
						key = append(key, 0)
					}
				}
				continue
			}
			val := vec.GetRawBytesAt(row)
			if vec.GetType().IsString() {
				binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(val)))
				key = append(key, lenBuf[:]...)
			}
			key = append(key, val...)
		}
		m.keys[i] = key
	}
}

func (itr *strHashMapIterator) Insert(start, count int, vecs []*vector.Vector) ([]uint64, error) {
	m := itr.mp
	m.encodeKeys(start, count, vecs)
	for i := 0; i < count; i++ {
		if m.zs[i] == 0 {
			m.vs[i] = 0
			continue
		}
		// lookup without copying the key; copy only on first insertion
		gid, ok := m.hashMap[hack.SliceToString(m.keys[i])]
		if !ok {
			m.rows++
			gid = m.rows
			m.hashMap[string(m.keys[i])] = gid
		}
		m.vs[i] = gid
	}
	return m.vs[:count], nil
}

func (itr *strHashMapIterator) Find(start, count int, vecs []*vector.Vector) []uint64 {
	m := itr.mp
	m.encodeKeys(start, count, vecs)
	for i := 0; i < count; i++ {
		if m.zs[i] == 0 {
			m.vs[i] = 0
			continue
		}
		m.vs[i] = m.hashMap[hack.SliceToString(m.keys[i])]
	}
	return m.vs[:count]
}

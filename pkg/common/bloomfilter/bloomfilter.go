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

package bloomfilter

import (
	"bytes"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"

	"github.com/dupen01/starrocks/pkg/common/hashmap"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
)

func (bf *BloomFilter) Clean() {
	if bf.bitmap != nil {
		bf.bitmap.ClearAll()
	}
	bf.hashSeed = nil
	bf.digest = nil
}

// hashRow fills positions for one key. The k probe positions come from
// two xxhash values combined, one plain and one salted with the seed.
func (bf *BloomFilter) hashRow(key []byte, positions []uint64) {
	nbits := uint64(bf.bitmap.Len())
	h1 := xxhash.Sum64(key)
	var seedBuf [8]byte
	seed := bf.hashSeed[0]
	for i := 0; i < 8; i++ {
		seedBuf[i] = byte(seed >> (8 * i))
	}
	bf.digest.Reset()
	bf.digest.Write(seedBuf[:])
	bf.digest.Write(key)
	h2 := bf.digest.Sum64()
	for i := 0; i < bf.k; i++ {
		positions[i] = (h1 + uint64(i)*h2) % nbits
	}
}

func (bf *BloomFilter) rowKey(v *vector.Vector, row int) []byte {
	if v.IsNull(uint64(row)) {
		return nil
	}
	return v.GetRawBytesAt(row)
}

// Add inserts every row of v.
func (bf *BloomFilter) Add(v *vector.Vector) {
	length := v.Length()
	step := hashmap.UnitLimit
	for i := 0; i < length; i += step {
		n := length - i
		if n > step {
			n = step
		}
		for j := 0; j < n; j++ {
			bf.hashRow(bf.rowKey(v, i+j), bf.vals[j])
			for _, pos := range bf.vals[j] {
				bf.bitmap.Set(uint(pos))
			}
		}
	}
}

// Test probes every row of v and reports (exist, rowIndex) through
// callBack in row order.
func (bf *BloomFilter) Test(v *vector.Vector, callBack func(bool, int)) {
	bf.handle(v, func(j, beginIdx int) {
		exist := true
		for _, pos := range bf.vals[j] {
			if !bf.bitmap.Test(uint(pos)) {
				exist = false
				break
			}
		}
		callBack(exist, beginIdx+j)
	})
}

// TestAndAdd reports whether each row was already present, inserting
// it as a side effect.
func (bf *BloomFilter) TestAndAdd(v *vector.Vector, callBack func(bool, int)) {
	bf.handle(v, func(j, beginIdx int) {
		exist := true
		for _, pos := range bf.vals[j] {
			if !bf.bitmap.Test(uint(pos)) {
				exist = false
				bf.bitmap.Set(uint(pos))
			}
		}
		callBack(exist, beginIdx+j)
	})
}

func (bf *BloomFilter) handle(v *vector.Vector, callBack func(int, int)) {
	length := v.Length()
	step := hashmap.UnitLimit
	for i := 0; i < length; i += step {
		n := length - i
		if n > step {
			n = step
		}
		for j := 0; j < n; j++ {
			bf.hashRow(bf.rowKey(v, i+j), bf.vals[j])
			callBack(j, i)
		}
	}
}

// Marshal encodes the filter for transmission inside a runtime filter
// message. Format:
//
//	[seedCount:uint32][seeds...:uint64][k:uint32][bitmapLen:uint32][bitmapBytes...]
func (bf *BloomFilter) Marshal() ([]byte, error) {
	var buf bytes.Buffer

	seedCount := uint32(len(bf.hashSeed))
	buf.Write(types.EncodeUint32(&seedCount))
	for i := 0; i < int(seedCount); i++ {
		buf.Write(types.EncodeUint64(&bf.hashSeed[i]))
	}

	k := uint32(bf.k)
	buf.Write(types.EncodeUint32(&k))

	bmBytes, err := bf.bitmap.MarshalBinary()
	if err != nil {
		return nil, err
	}
	bmLen := uint32(len(bmBytes))
	buf.Write(types.EncodeUint32(&bmLen))
	buf.Write(bmBytes)

	return buf.Bytes(), nil
}

// Unmarshal restores a filter produced by Marshal.
func (bf *BloomFilter) Unmarshal(data []byte) error {
	if len(data) < 4 {
		return srerr.NewInternalErrorNoCtx("invalid bloomfilter data")
	}
	seedCount := int(types.DecodeUint32(data[:4]))
	data = data[4:]
	if seedCount <= 0 {
		return srerr.NewInternalErrorNoCtx("invalid bloomfilter seed count")
	}

	hashSeed := make([]uint64, seedCount)
	for i := 0; i < seedCount; i++ {
		if len(data) < 8 {
			return srerr.NewInternalErrorNoCtx("invalid bloomfilter data (seed truncated)")
		}
		hashSeed[i] = types.DecodeUint64(data[:8])
		data = data[8:]
	}

	if len(data) < 4 {
		return srerr.NewInternalErrorNoCtx("invalid bloomfilter data (no probe count)")
	}
	k := int(types.DecodeUint32(data[:4]))
	data = data[4:]
	if k <= 0 {
		return srerr.NewInternalErrorNoCtx("invalid bloomfilter probe count")
	}

	if len(data) < 4 {
		return srerr.NewInternalErrorNoCtx("invalid bloomfilter data (no bitmap length)")
	}
	bmLen := int(types.DecodeUint32(data[:4]))
	data = data[4:]
	if bmLen < 0 || len(data) < bmLen {
		return srerr.NewInternalErrorNoCtx("invalid bloomfilter data (bitmap truncated)")
	}

	bm := &bitset.BitSet{}
	if err := bm.UnmarshalBinary(data[:bmLen]); err != nil {
		return err
	}

	bf.bitmap = bm
	bf.hashSeed = hashSeed
	bf.k = k
	bf.digest = xxhash.New()
	for j := 0; j < hashmap.UnitLimit; j++ {
		bf.vals[j] = make([]uint64, k)
	}
	return nil
}

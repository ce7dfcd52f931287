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
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"

	"github.com/dupen01/starrocks/pkg/common/hashmap"
)

// BloomFilter answers approximate membership over the raw bytes of
// vector rows. False positives happen, false negatives never do. Not
// safe for concurrent mutation.
type BloomFilter struct {
	bitmap   *bitset.BitSet
	hashSeed []uint64
	k        int

	digest *xxhash.Digest

	// per-unit scratch
	keys [hashmap.UnitLimit][]byte
	vals [hashmap.UnitLimit][]uint64
}

func computeMemAndHashCount(rowCount int64, probability float64) (int64, int) {
	mFloat := -float64(rowCount) * math.Log(probability) / math.Pow(math.Log(2), 2)
	m := int64(math.Ceil(mFloat))
	kFloat := float64(m) / float64(rowCount) * math.Log(2)
	k := int(math.Ceil(kFloat))
	return m, k
}

// New sizes a filter for rowCount expected keys at the given false
// positive probability.
func New(rowCount int64, probability float64) *BloomFilter {
	if rowCount <= 0 {
		rowCount = 2
	}
	nbits, k := computeMemAndHashCount(rowCount, probability)
	bf := &BloomFilter{
		bitmap:   bitset.New(uint(nbits)),
		hashSeed: []uint64{0x9E3779B97F4A7C15},
		k:        k,
		digest:   xxhash.New(),
	}
	for j := 0; j < hashmap.UnitLimit; j++ {
		bf.vals[j] = make([]uint64, k)
	}
	return bf
}

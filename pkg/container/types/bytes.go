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

package types

// Bytes is the storage of a var-len column: all values packed into Data,
// addressed by per-row offset and length.
type Bytes struct {
	Data    []byte
	Offsets []uint32
	Lengths []uint32
}

func (b *Bytes) Reset() {
	b.Data = b.Data[:0]
	b.Offsets = b.Offsets[:0]
	b.Lengths = b.Lengths[:0]
}

// Get returns the i-th value. The returned slice aliases Data.
func (b *Bytes) Get(i int64) []byte {
	return b.Data[b.Offsets[i] : b.Offsets[i]+b.Lengths[i]]
}

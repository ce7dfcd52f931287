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

package vector

import (
	"fmt"
	"strings"

	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/container/nulls"
	"github.com/dupen01/starrocks/pkg/container/types"
)

// Vector is one column of a chunk. Fixed-width values live in data and are
// accessed through typed reinterpretation; var-len values live in bytes.
type Vector struct {
	typ    types.Type
	length int

	// fixed-width storage, allocated from an mpool
	data []byte

	// var-len storage; Data is allocated from an mpool
	bytes *types.Bytes

	nsp *nulls.Nulls
}

func NewVec(typ types.Type) *Vector {
	vec := &Vector{typ: typ, nsp: &nulls.Nulls{}}
	if typ.IsString() {
		vec.bytes = &types.Bytes{}
	}
	return vec
}

func (v *Vector) GetType() *types.Type {
	return &v.typ
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.nsp
}

func (v *Vector) SetNulls(nsp *nulls.Nulls) {
	if nsp == nil {
		nsp = &nulls.Nulls{}
	}
	v.nsp = nsp
}

// HasNull is a cheap pre-check before per-row null tests.
func (v *Vector) HasNull() bool {
	return nulls.Any(v.nsp)
}

func (v *Vector) IsNull(row uint64) bool {
	return nulls.Contains(v.nsp, row)
}

func (v *Vector) Free(mp *mpool.MPool) {
	if v == nil {
		return
	}
	if v.data != nil {
		mp.Free(v.data)
		v.data = nil
	}
	if v.bytes != nil {
		mp.Free(v.bytes.Data)
		v.bytes = &types.Bytes{}
	}
	v.length = 0
	nulls.Reset(v.nsp)
}

// Reset empties the vector but keeps its storage for reuse.
func (v *Vector) Reset() {
	v.length = 0
	if v.data != nil {
		v.data = v.data[:0]
	}
	if v.bytes != nil {
		v.bytes.Reset()
	}
	nulls.Reset(v.nsp)
}

// PreExtend reserves room for rows more elements.
func (v *Vector) PreExtend(rows int, mp *mpool.MPool) error {
	if v.typ.IsString() {
		return nil
	}
	sz := v.typ.TypeSize()
	need := (v.length + rows) * sz
	if need <= cap(v.data) {
		return nil
	}
	data, err := mp.Grow(v.data, need)
	if err != nil {
		return err
	}
	v.data = data[:v.length*sz]
	return nil
}

// MustFixedCol returns the typed view of a fixed-width vector's storage.
func MustFixedCol[T types.FixedSizeT](v *Vector) []T {
	if v.data == nil {
		return nil
	}
	return types.DecodeSlice[T](v.data)[:v.length]
}

// MustBytesCol returns per-row byte views of a var-len vector. The views
// alias the vector's storage.
func MustBytesCol(v *Vector) [][]byte {
	if v.bytes == nil || v.length == 0 {
		return nil
	}
	col := make([][]byte, v.length)
	for i := range col {
		col[i] = v.bytes.Get(int64(i))
	}
	return col
}

// GetFixedAt reads one element of a fixed-width vector.
func GetFixedAt[T types.FixedSizeT](v *Vector, idx int) T {
	return types.DecodeSlice[T](v.data)[idx]
}

func (v *Vector) GetBytesAt(idx int) []byte {
	return v.bytes.Get(int64(idx))
}

// GetRawBytesAt returns the raw storage bytes of one row, for key packing.
// Null rows still return their zeroed storage; callers track nulls
// separately.
func (v *Vector) GetRawBytesAt(idx int) []byte {
	if v.typ.IsString() {
		return v.bytes.Get(int64(idx))
	}
	sz := v.typ.TypeSize()
	return v.data[idx*sz : (idx+1)*sz]
}

// AppendFixed appends one fixed-width value. A null appends the zero value
// and marks the row in the null set.
func AppendFixed[T types.FixedSizeT](v *Vector, val T, isNull bool, mp *mpool.MPool) error {
	if v.typ.IsString() {
		return srerr.NewInternalErrorNoCtx("append fixed to %s vector", v.typ.String())
	}
	sz := v.typ.TypeSize()
	data, err := mp.Grow(v.data, (v.length+1)*sz)
	if err != nil {
		return err
	}
	v.data = data
	if isNull {
		var zero T
		val = zero
		nulls.Add(v.nsp, uint64(v.length))
	}
	types.DecodeSlice[T](v.data)[v.length] = val
	v.length++
	return nil
}

// AppendFixedList appends a batch of fixed-width values, all non-null.
func AppendFixedList[T types.FixedSizeT](v *Vector, vals []T, mp *mpool.MPool) error {
	if len(vals) == 0 {
		return nil
	}
	sz := v.typ.TypeSize()
	data, err := mp.Grow(v.data, (v.length+len(vals))*sz)
	if err != nil {
		return err
	}
	v.data = data
	copy(types.DecodeSlice[T](v.data)[v.length:], vals)
	v.length += len(vals)
	return nil
}

func AppendBytes(v *Vector, val []byte, isNull bool, mp *mpool.MPool) error {
	if !v.typ.IsString() {
		return srerr.NewInternalErrorNoCtx("append bytes to %s vector", v.typ.String())
	}
	if isNull {
		nulls.Add(v.nsp, uint64(v.length))
		val = nil
	}
	data, err := mp.Grow(v.bytes.Data, len(v.bytes.Data)+len(val))
	if err != nil {
		return err
	}
	v.bytes.Offsets = append(v.bytes.Offsets, uint32(len(v.bytes.Data)))
	v.bytes.Lengths = append(v.bytes.Lengths, uint32(len(val)))
	copy(data[len(v.bytes.Data):], val)
	v.bytes.Data = data
	v.length++
	return nil
}

// UnionBatch appends cnt rows of w starting at offset to v, keeping only
// the rows whose flag is set. Null rows stay null.
func UnionBatch(v, w *Vector, offset int64, cnt int, flags []uint8, mp *mpool.MPool) error {
	if v.typ.Oid != w.typ.Oid {
		return srerr.NewInternalErrorNoCtx("union %s vector with %s vector", v.typ.String(), w.typ.String())
	}
	for i := 0; i < cnt; i++ {
		if flags[i] == 0 {
			continue
		}
		row := offset + int64(i)
		if err := unionOne(v, w, row, mp); err != nil {
			return err
		}
	}
	return nil
}

// CloneWindow copies rows [start, end) into a fresh vector.
func (v *Vector) CloneWindow(start, end int, mp *mpool.MPool) (*Vector, error) {
	w := NewVec(v.typ)
	for row := start; row < end; row++ {
		if err := unionOne(w, v, int64(row), mp); err != nil {
			w.Free(mp)
			return nil, err
		}
	}
	return w, nil
}

func unionOne(v, w *Vector, row int64, mp *mpool.MPool) error {
	if w.IsNull(uint64(row)) {
		return appendOneNull(v, mp)
	}
	if v.typ.IsString() {
		return AppendBytes(v, w.bytes.Get(row), false, mp)
	}
	sz := v.typ.TypeSize()
	data, err := mp.Grow(v.data, (v.length+1)*sz)
	if err != nil {
		return err
	}
	v.data = data
	copy(v.data[v.length*sz:], w.data[row*int64(sz):(row+1)*int64(sz)])
	v.length++
	return nil
}

func appendOneNull(v *Vector, mp *mpool.MPool) error {
	if v.typ.IsString() {
		return AppendBytes(v, nil, true, mp)
	}
	switch v.typ.TypeSize() {
	case 1:
		return AppendFixed[int8](v, 0, true, mp)
	case 2:
		return AppendFixed[int16](v, 0, true, mp)
	case 4:
		return AppendFixed[int32](v, 0, true, mp)
	default:
		return AppendFixed[int64](v, 0, true, mp)
	}
}

// Shrink keeps only the rows of sels, in sels order, in place.
func (v *Vector) Shrink(sels []int64) {
	if v.typ.IsString() {
		offsets := make([]uint32, len(sels))
		lengths := make([]uint32, len(sels))
		for i, sel := range sels {
			offsets[i] = v.bytes.Offsets[sel]
			lengths[i] = v.bytes.Lengths[sel]
		}
		v.bytes.Offsets = offsets
		v.bytes.Lengths = lengths
	} else {
		sz := int64(v.typ.TypeSize())
		for i, sel := range sels {
			copy(v.data[int64(i)*sz:], v.data[sel*sz:(sel+1)*sz])
		}
	}
	v.nsp = nulls.Filter(v.nsp, sels)
	v.length = len(sels)
	if !v.typ.IsString() {
		v.data = v.data[:int64(v.length)*int64(v.typ.TypeSize())]
	}
}

func (v *Vector) String() string {
	var sb strings.Builder
	sb.WriteString(v.typ.String())
	sb.WriteString("[")
	for i := 0; i < v.length; i++ {
		if i > 0 {
			sb.WriteString(" ")
		}
		if v.IsNull(uint64(i)) {
			sb.WriteString("null")
			continue
		}
		sb.WriteString(rowString(v, i))
	}
	sb.WriteString("]")
	return sb.String()
}

func rowString(v *Vector, i int) string {
	switch v.typ.Oid {
	case types.T_bool:
		return fmt.Sprintf("%v", GetFixedAt[bool](v, i))
	case types.T_int8:
		return fmt.Sprintf("%d", GetFixedAt[int8](v, i))
	case types.T_int16:
		return fmt.Sprintf("%d", GetFixedAt[int16](v, i))
	case types.T_int32:
		return fmt.Sprintf("%d", GetFixedAt[int32](v, i))
	case types.T_int64:
		return fmt.Sprintf("%d", GetFixedAt[int64](v, i))
	case types.T_uint8:
		return fmt.Sprintf("%d", GetFixedAt[uint8](v, i))
	case types.T_uint16:
		return fmt.Sprintf("%d", GetFixedAt[uint16](v, i))
	case types.T_uint32:
		return fmt.Sprintf("%d", GetFixedAt[uint32](v, i))
	case types.T_uint64:
		return fmt.Sprintf("%d", GetFixedAt[uint64](v, i))
	case types.T_float32:
		return fmt.Sprintf("%v", GetFixedAt[float32](v, i))
	case types.T_float64:
		return fmt.Sprintf("%v", GetFixedAt[float64](v, i))
	case types.T_timestamp:
		return fmt.Sprintf("%d", GetFixedAt[types.Timestamp](v, i))
	case types.T_char, types.T_varchar:
		return string(v.GetBytesAt(i))
	}
	return "?"
}

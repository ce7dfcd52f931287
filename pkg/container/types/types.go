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

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

type T uint8

const (
	T_any T = iota
	T_bool
	T_int8
	T_int16
	T_int32
	T_int64
	T_uint8
	T_uint16
	T_uint32
	T_uint64
	T_float32
	T_float64
	T_timestamp
	T_char
	T_varchar
)

// Type describes the type of a column. Size is the in-memory size of one
// fixed-length element, or -1 for var-len types.
type Type struct {
	Oid   T
	Size  int32
	Width int32
	Scale int32
}

// FixedSizeT is the constraint for element types stored inline in a vector.
type FixedSizeT interface {
	constraints.Integer | constraints.Float | bool | Timestamp
}

// Ints groups the signed integer column types.
type Ints interface {
	int8 | int16 | int32 | int64
}

// UInts groups the unsigned integer column types.
type UInts interface {
	uint8 | uint16 | uint32 | uint64
}

// Floats groups the floating point column types.
type Floats interface {
	float32 | float64
}

// Number is any type the numeric aggregate executors accept.
type Number interface {
	Ints | UInts | Floats
}

// OrderedT is any type the min/max executors accept without a custom
// comparator.
type OrderedT interface {
	constraints.Ordered | Timestamp
}

// Timestamp is microseconds since the unix epoch.
type Timestamp int64

func New(oid T) Type {
	return Type{Oid: oid, Size: int32(oid.FixedLength())}
}

func NewWithWidth(oid T, width int32) Type {
	typ := New(oid)
	typ.Width = width
	return typ
}

func (t Type) IsFixedLen() bool {
	return t.Oid.FixedLength() > 0
}

func (t Type) IsString() bool {
	return t.Oid == T_char || t.Oid == T_varchar
}

// TypeSize returns the byte width of one element, -1 for var-len types.
func (t Type) TypeSize() int {
	return t.Oid.FixedLength()
}

func (t Type) String() string {
	return t.Oid.String()
}

func (t T) ToType() Type {
	return New(t)
}

// FixedLength returns the in-memory byte width of the type, or -1 when the
// type is var-len.
func (t T) FixedLength() int {
	switch t {
	case T_bool, T_int8, T_uint8:
		return 1
	case T_int16, T_uint16:
		return 2
	case T_int32, T_uint32, T_float32:
		return 4
	case T_int64, T_uint64, T_float64, T_timestamp:
		return 8
	case T_char, T_varchar:
		return -1
	}
	panic(fmt.Sprintf("unknown type %d", t))
}

func (t T) String() string {
	switch t {
	case T_any:
		return "ANY"
	case T_bool:
		return "BOOL"
	case T_int8:
		return "TINYINT"
	case T_int16:
		return "SMALLINT"
	case T_int32:
		return "INT"
	case T_int64:
		return "BIGINT"
	case T_uint8:
		return "TINYINT UNSIGNED"
	case T_uint16:
		return "SMALLINT UNSIGNED"
	case T_uint32:
		return "INT UNSIGNED"
	case T_uint64:
		return "BIGINT UNSIGNED"
	case T_float32:
		return "FLOAT"
	case T_float64:
		return "DOUBLE"
	case T_timestamp:
		return "TIMESTAMP"
	case T_char:
		return "CHAR"
	case T_varchar:
		return "VARCHAR"
	}
	return fmt.Sprintf("unexpected type %d", t)
}

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

// Package hashmap implements the group hash maps of the aggregation and
// join operators. Group ids are 1-based; 0 never names a group.
package hashmap

import (
	"github.com/dupen01/starrocks/pkg/container/vector"
)

const (
	// UnitLimit is the batch unit of Insert and Find calls. Callers feed
	// rows in units of at most UnitLimit.
	UnitLimit = 256

	// MaxIntFixedKeySize is the widest packed key (value bytes plus null
	// bytes) an IntHashMap accepts; wider keys go to a StrHashMap.
	MaxIntFixedKeySize = 8
)

// HashMap maps group-by keys to dense 1-based group ids, assigned in
// first-seen order.
type HashMap interface {
	// GroupCount returns the number of distinct groups inserted so far.
	GroupCount() uint64

	// HasNull reports whether the map was built for nullable keys.
	HasNull() bool

	// Free releases the map.
	Free()
}

// Iterator is the batched insert/lookup handle of a HashMap.
type Iterator interface {
	// Insert inserts the rows [start, start+count) of the group-by vectors
	// and returns one group id per row. New keys are assigned fresh ids.
	// count must not exceed UnitLimit.
	Insert(start, count int, vecs []*vector.Vector) ([]uint64, error)

	// Find looks up the rows without inserting; absent keys yield 0.
	Find(start, count int, vecs []*vector.Vector) []uint64
}

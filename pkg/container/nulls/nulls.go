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

// Package nulls wraps the roaring bitmap library to store the NULL rows of
// a column. A nil *Nulls (or a nil inner bitmap) means no NULLs at all.
package nulls

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/roaring64"
)

type Nulls struct {
	Np *roaring64.Bitmap
}

// Any returns true if any row is marked null.
func Any(n *Nulls) bool {
	return n != nil && n.Np != nil && !n.Np.IsEmpty()
}

// Size returns the number of rows marked null.
func Size(n *Nulls) int {
	if n == nil || n.Np == nil {
		return 0
	}
	return int(n.Np.GetCardinality())
}

func Contains(n *Nulls, row uint64) bool {
	return n != nil && n.Np != nil && n.Np.Contains(row)
}

func Add(n *Nulls, rows ...uint64) {
	if n == nil || len(rows) == 0 {
		return
	}
	if n.Np == nil {
		n.Np = roaring64.NewBitmap()
	}
	n.Np.AddMany(rows)
}

// Filter rebuilds n to the rows selected by sels: if sels[i] was null, row
// i of the result is null.
func Filter(n *Nulls, sels []int64) *Nulls {
	if !Any(n) || len(sels) == 0 {
		if n != nil {
			n.Np = nil
		}
		return n
	}
	np := roaring64.NewBitmap()
	for i, sel := range sels {
		if n.Np.Contains(uint64(sel)) {
			np.Add(uint64(i))
		}
	}
	n.Np = np
	return n
}

func Reset(n *Nulls) {
	if n != nil {
		n.Np = nil
	}
}

func (n *Nulls) String() string {
	if n == nil || n.Np == nil {
		return "[]"
	}
	return fmt.Sprintf("%v", n.Np.ToArray())
}

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

package sum

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/sys/cpu"
)

var (
	int64Sum       func([]int64) int64
	int64SumSels   func([]int64, []int64) int64
	uint64Sum      func([]uint64) uint64
	uint64SumSels  func([]uint64, []int64) uint64
	float64Sum     func([]float64) float64
	float64SumSels func([]float64, []int64) float64
)

func init() {
	// wide cores hide the latency of the extra accumulators, narrow
	// ones run the plain loop faster
	if cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD {
		int64Sum = int64SumUnrolled
		uint64Sum = uint64SumUnrolled
		float64Sum = float64SumUnrolled
	} else {
		int64Sum = sumPure[int64]
		uint64Sum = sumPure[uint64]
		float64Sum = sumPure[float64]
	}
	int64SumSels = sumSelsPure[int64]
	uint64SumSels = sumSelsPure[uint64]
	float64SumSels = sumSelsPure[float64]
}

func Int64Sum(xs []int64) int64 {
	return int64Sum(xs)
}

func Int64SumSels(xs []int64, sels []int64) int64 {
	return int64SumSels(xs, sels)
}

func Uint64Sum(xs []uint64) uint64 {
	return uint64Sum(xs)
}

func Uint64SumSels(xs []uint64, sels []int64) uint64 {
	return uint64SumSels(xs, sels)
}

func Float64Sum(xs []float64) float64 {
	return float64Sum(xs)
}

func Float64SumSels(xs []float64, sels []int64) float64 {
	return float64SumSels(xs, sels)
}

// Sum accumulates any numeric slice in its own width. Callers that
// need a wider accumulator widen before calling.
func Sum[T constraints.Integer | constraints.Float](xs []T) T {
	return sumPure(xs)
}

func sumPure[T constraints.Integer | constraints.Float](xs []T) T {
	var res T
	for _, x := range xs {
		res += x
	}
	return res
}

func sumSelsPure[T constraints.Integer | constraints.Float](xs []T, sels []int64) T {
	var res T
	for _, sel := range sels {
		res += xs[sel]
	}
	return res
}

func int64SumUnrolled(xs []int64) int64 {
	var r0, r1, r2, r3 int64
	n := len(xs) / 4 * 4
	for i := 0; i < n; i += 4 {
		r0 += xs[i]
		r1 += xs[i+1]
		r2 += xs[i+2]
		r3 += xs[i+3]
	}
	res := r0 + r1 + r2 + r3
	for i := n; i < len(xs); i++ {
		res += xs[i]
	}
	return res
}

func uint64SumUnrolled(xs []uint64) uint64 {
	var r0, r1, r2, r3 uint64
	n := len(xs) / 4 * 4
	for i := 0; i < n; i += 4 {
		r0 += xs[i]
		r1 += xs[i+1]
		r2 += xs[i+2]
		r3 += xs[i+3]
	}
	res := r0 + r1 + r2 + r3
	for i := n; i < len(xs); i++ {
		res += xs[i]
	}
	return res
}

func float64SumUnrolled(xs []float64) float64 {
	var r0, r1, r2, r3 float64
	n := len(xs) / 4 * 4
	for i := 0; i < n; i += 4 {
		r0 += xs[i]
		r1 += xs[i+1]
		r2 += xs[i+2]
		r3 += xs[i+3]
	}
	res := r0 + r1 + r2 + r3
	for i := n; i < len(xs); i++ {
		res += xs[i]
	}
	return res
}

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

package expression

import (
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
	"github.com/dupen01/starrocks/pkg/testutil"
)

func TestCompareOpsInt64(t *testing.T) {
	convey.Convey("compare an int64 column against a constant", t, func() {
		proc := testutil.NewProcess()
		mp := proc.Mp()
		chk := makeTestChunk(t, proc, []int64{3, 7, 9}, []string{"a", "b", "c"})

		cases := []struct {
			op   CompareOp
			want []bool
		}{
			{Equal, []bool{false, true, false}},
			{NotEqual, []bool{true, false, true}},
			{Less, []bool{true, false, false}},
			{LessEqual, []bool{true, true, false}},
			{Greater, []bool{false, false, true}},
			{GreaterEqual, []bool{false, true, true}},
		}
		for _, c := range cases {
			col := NewColumnExpressionExecutor(0, types.T_int64.ToType())
			konst, err := NewFixedConstExecutor[int64](types.T_int64.ToType(), 7, mp)
			convey.So(err, convey.ShouldBeNil)
			cmp, err := NewCompareExecutor(c.op, col, konst, mp)
			convey.So(err, convey.ShouldBeNil)
			vec, err := cmp.Eval(proc, chk)
			convey.So(err, convey.ShouldBeNil)
			convey.So(vector.MustFixedCol[bool](vec), convey.ShouldResemble, c.want)
			cmp.Free()
		}

		chk.Clean(mp)
		convey.So(mp.CurrNB(), convey.ShouldEqual, 0)
	})
}

func TestCompareOpsVarchar(t *testing.T) {
	convey.Convey("compare a varchar column against a constant", t, func() {
		proc := testutil.NewProcess()
		mp := proc.Mp()
		chk := makeTestChunk(t, proc, []int64{1, 2, 3}, []string{"ant", "bee", "cat"})

		cases := []struct {
			op   CompareOp
			want []bool
		}{
			{Equal, []bool{false, true, false}},
			{NotEqual, []bool{true, false, true}},
			{Less, []bool{true, false, false}},
			{LessEqual, []bool{true, true, false}},
			{Greater, []bool{false, false, true}},
			{GreaterEqual, []bool{false, true, true}},
		}
		for _, c := range cases {
			col := NewColumnExpressionExecutor(1, types.T_varchar.ToType())
			konst, err := NewStringConstExecutor(types.T_varchar.ToType(), []byte("bee"), mp)
			convey.So(err, convey.ShouldBeNil)
			cmp, err := NewCompareExecutor(c.op, col, konst, mp)
			convey.So(err, convey.ShouldBeNil)
			vec, err := cmp.Eval(proc, chk)
			convey.So(err, convey.ShouldBeNil)
			convey.So(vector.MustFixedCol[bool](vec), convey.ShouldResemble, c.want)
			cmp.Free()
		}

		chk.Clean(mp)
		convey.So(mp.CurrNB(), convey.ShouldEqual, 0)
	})
}

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

package srerr

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorCode(t *testing.T) {
	err := NewQueryInterrupted(context.TODO())
	require.Equal(t, ErrQueryInterrupted, err.ErrorCode())
	require.Equal(t, ER_QUERY_INTERRUPTED, err.MySQLCode())
	require.Equal(t, MySQLDefaultSqlState, err.SqlState())
	require.True(t, IsSrErrCode(err, ErrQueryInterrupted))
	require.False(t, IsSrErrCode(err, ErrInternal))
	require.True(t, IsSrErrCode(nil, Ok))
}

func TestErrorFormat(t *testing.T) {
	err := NewInternalError(context.TODO(), "agg executor %d", 42)
	require.Equal(t, "internal error: agg executor 42", err.Error())

	err = NewOutOfRange(context.TODO(), "int8", "value %v", 1000)
	require.Equal(t, "data out of range: data type int8, value 1000", err.Error())
	require.False(t, err.Succeeded())
}

func TestConvertGoError(t *testing.T) {
	require.NoError(t, ConvertGoError(context.TODO(), nil))

	err := NewDivByZero(context.TODO())
	require.Equal(t, err, ConvertGoError(context.TODO(), err))

	converted := ConvertGoError(context.TODO(), context.Canceled)
	require.True(t, IsSrErrCode(converted, ErrQueryInterrupted))

	converted = ConvertGoError(context.TODO(), fmt.Errorf("some go error"))
	require.True(t, IsSrErrCode(converted, ErrInternal))
}

func TestConvertPanicError(t *testing.T) {
	err := ConvertPanicError(context.TODO(), "runtime panic")
	require.True(t, IsSrErrCode(err, ErrInternal))

	orig := NewOOM(context.TODO())
	require.Equal(t, orig, ConvertPanicError(context.TODO(), orig))
}

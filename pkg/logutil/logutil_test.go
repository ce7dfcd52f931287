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

package logutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lni/goutils/leaktest"
	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogConfigAdjust(t *testing.T) {
	cfg := &LogConfig{}
	cfg.Adjust()
	require.Equal(t, "info", cfg.Level)
	require.Equal(t, "console", cfg.Format)
	require.Equal(t, 512, cfg.MaxSize)
	require.Equal(t, "panic", cfg.StacktraceLevel)

	cfg = &LogConfig{Level: "warn", Format: "json", MaxSize: 64, StacktraceLevel: "error"}
	cfg.Adjust()
	require.Equal(t, "warn", cfg.Level)
	require.Equal(t, "json", cfg.Format)
	require.Equal(t, 64, cfg.MaxSize)
	require.Equal(t, "error", cfg.StacktraceLevel)
}

func TestLogConfigGetters(t *testing.T) {
	require.Equal(t, zapcore.DebugLevel, (&LogConfig{Level: "debug"}).getLevel().Level())
	require.Equal(t, zapcore.ErrorLevel, (&LogConfig{Level: "error"}).getLevel().Level())
	require.Equal(t, zapcore.InfoLevel, (&LogConfig{Level: "bogus"}).getLevel().Level())

	require.Equal(t, zapcore.ErrorLevel, (&LogConfig{StacktraceLevel: "error"}).getStacktraceLevel())
	require.Equal(t, zapcore.PanicLevel, (&LogConfig{StacktraceLevel: "bogus"}).getStacktraceLevel())

	entry := zapcore.Entry{Level: zapcore.InfoLevel, Message: "m"}
	jbuf, err := (&LogConfig{Format: "json"}).getEncoder().EncodeEntry(entry, nil)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(jbuf.String(), "{"))
	cbuf, err := (&LogConfig{Format: "console"}).getEncoder().EncodeEntry(entry, nil)
	require.NoError(t, err)
	require.False(t, strings.HasPrefix(cbuf.String(), "{"))

	require.NotNil(t, (&LogConfig{}).getSyncer())
	require.NotNil(t, (&LogConfig{Filename: "x.log", MaxSize: 1}).getSyncer())
	require.NotNil(t, GetGlobalLogger())
}

func TestSetupLoggerCapturesOutput(t *testing.T) {
	defer leaktest.AfterTest(t)()
	buf := new(bytes.Buffer)
	stubs := gostub.Stub(&getConsoleSyncer, func() zapcore.WriteSyncer {
		return zapcore.AddSync(buf)
	})
	defer func() {
		stubs.Reset()
		SetupLogger(&LogConfig{})
	}()

	SetupLogger(&LogConfig{Level: "debug", Format: "json"})
	Debug("drain step", zap.Int("rows", 8192))
	Infof("pipeline %d parked", 3)
	Warn("sink refused chunk")

	out := buf.String()
	require.Contains(t, out, `"DEBUG"`)
	require.Contains(t, out, "drain step")
	require.Contains(t, out, `"rows":8192`)
	require.Contains(t, out, "pipeline 3 parked")
	require.Contains(t, out, `"WARN"`)
	// the helper register skips its own frame, callers land here
	require.Contains(t, out, "logutil_test.go")

	buf.Reset()
	SetupLogger(&LogConfig{Level: "warn", Format: "console"})
	Info("quiet")
	Errorf("loud %s", "failure")
	out = buf.String()
	require.NotContains(t, out, "quiet")
	require.Contains(t, out, "loud failure")
}

func TestFileLogger(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "engine.log")
	SetupLogger(&LogConfig{Level: "info", Format: "json", Filename: fn, MaxSize: 1, MaxDays: 1, MaxBackups: 2})
	defer SetupLogger(&LogConfig{})

	Info("chunk flushed", zap.Uint64("groups", 10))
	data, err := os.ReadFile(fn)
	require.NoError(t, err)
	require.Contains(t, string(data), "chunk flushed")
}

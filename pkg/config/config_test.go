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

package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dupen01/starrocks/pkg/vm/process"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.Equal(t, process.DefaultChunkSize, cfg.ChunkSize)
	require.Equal(t, int64(0), cfg.MemoryLimit)
	require.Equal(t, runtime.NumCPU(), cfg.Workers)
	require.Equal(t, uint32(1024), cfg.ReadyQueueSize)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "console", cfg.Log.Format)
}

func TestLoadConfigFile(t *testing.T) {
	content := `
chunk-size = 4096
memory-limit = 1073741824
workers = 3
ready-queue-size = 128

[log]
level = "debug"
format = "json"
max-size = 64
`
	fn := filepath.Join(t.TempDir(), "engine.toml")
	require.NoError(t, os.WriteFile(fn, []byte(content), 0o644))

	cfg, err := LoadConfig(fn)
	require.NoError(t, err)
	require.Equal(t, 4096, cfg.ChunkSize)
	require.Equal(t, int64(1<<30), cfg.MemoryLimit)
	require.Equal(t, 3, cfg.Workers)
	require.Equal(t, uint32(128), cfg.ReadyQueueSize)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, 64, cfg.Log.MaxSize)
	// defaults still fill what the file leaves out
	require.Equal(t, "panic", cfg.Log.StacktraceLevel)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestSetDefaultValuesClampsNegative(t *testing.T) {
	cfg := &EngineConfig{ChunkSize: -1, MemoryLimit: -5, Workers: -2}
	cfg.SetDefaultValues()
	require.Equal(t, process.DefaultChunkSize, cfg.ChunkSize)
	require.Equal(t, int64(0), cfg.MemoryLimit)
	require.Equal(t, runtime.NumCPU(), cfg.Workers)
}

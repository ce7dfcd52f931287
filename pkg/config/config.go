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

// Package config loads the engine's runtime configuration from toml.
package config

import (
	"runtime"

	"github.com/BurntSushi/toml"

	"github.com/dupen01/starrocks/pkg/logutil"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

// EngineConfig is the engine's runtime configuration.
type EngineConfig struct {
	// ChunkSize caps rows per chunk moved through a pipeline.
	ChunkSize int `toml:"chunk-size"`

	// MemoryLimit caps pool allocation in bytes; 0 means no cap.
	MemoryLimit int64 `toml:"memory-limit"`

	// Workers is the pipeline scheduler's worker pool size.
	Workers int `toml:"workers"`

	// ReadyQueueSize is the scheduler's ready ring capacity.
	ReadyQueueSize uint32 `toml:"ready-queue-size"`

	// Log configures the process logger.
	Log logutil.LogConfig `toml:"log"`
}

// SetDefaultValues fills zero fields with serving defaults.
func (cfg *EngineConfig) SetDefaultValues() {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = process.DefaultChunkSize
	}
	if cfg.MemoryLimit < 0 {
		cfg.MemoryLimit = 0
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.ReadyQueueSize == 0 {
		cfg.ReadyQueueSize = 1024
	}
	cfg.Log.Adjust()
}

// LoadConfig decodes file into an EngineConfig and fills defaults. An
// empty path yields the default configuration.
func LoadConfig(file string) (*EngineConfig, error) {
	cfg := &EngineConfig{}
	if file != "" {
		if _, err := toml.DecodeFile(file, cfg); err != nil {
			return nil, err
		}
	}
	cfg.SetDefaultValues()
	return cfg, nil
}

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

// Package logutil wires the engine's zap logging: one process global
// logger configured from LogConfig, console or rotated file output,
// and sugar helpers that skip the wrapper frame at the call site.
package logutil

import (
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig is the logging section of the engine configuration.
type LogConfig struct {
	// Level is the minimum emitted level: debug, info, warn, error,
	// dpanic, panic or fatal.
	Level string `toml:"level"`
	// Format picks the encoder, console or json.
	Format string `toml:"format"`
	// Filename routes output to a rotated file when set; empty logs
	// to stdout.
	Filename string `toml:"filename"`
	// MaxSize is the size in MB a log file may reach before rotation.
	MaxSize int `toml:"max-size"`
	// MaxDays is the retention of rotated files in days; 0 keeps all.
	MaxDays int `toml:"max-days"`
	// MaxBackups is the number of rotated files kept; 0 keeps all.
	MaxBackups int `toml:"max-backups"`
	// StacktraceLevel is the first level that carries a stacktrace.
	StacktraceLevel string `toml:"stacktrace-level"`
}

// Adjust fills zero fields with serving defaults.
func (cfg *LogConfig) Adjust() {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "console"
	}
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 512
	}
	if cfg.StacktraceLevel == "" {
		cfg.StacktraceLevel = "panic"
	}
}

func (cfg *LogConfig) getLevel() zap.AtomicLevel {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}
	return level
}

func (cfg *LogConfig) getStacktraceLevel() zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.StacktraceLevel)); err != nil {
		return zapcore.PanicLevel
	}
	return level
}

func (cfg *LogConfig) getOptions() []zap.Option {
	return []zap.Option{
		zap.AddStacktrace(cfg.getStacktraceLevel()),
		zap.AddCaller(),
	}
}

func (cfg *LogConfig) getEncoder() zapcore.Encoder {
	return getLoggerEncoder(cfg.Format)
}

func getLoggerEncoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	if format == "json" {
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// getConsoleSyncer is a package var so tests can stub the console
// destination and capture output.
var getConsoleSyncer = func() zapcore.WriteSyncer {
	return zapcore.Lock(os.Stdout)
}

func (cfg *LogConfig) getSyncer() zapcore.WriteSyncer {
	if cfg.Filename == "" {
		return getConsoleSyncer()
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxDays,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	})
}

var (
	globalLogger atomic.Value
	defaultOnce  sync.Once
)

// SetupLogger configures the process global logger; later calls
// replace it, loggers captured earlier keep writing to the old one.
func SetupLogger(cfg *LogConfig) {
	cfg.Adjust()
	core := zapcore.NewCore(cfg.getEncoder(), cfg.getSyncer(), cfg.getLevel())
	replaceGlobalLogger(zap.New(core, cfg.getOptions()...))
}

func replaceGlobalLogger(logger *zap.Logger) {
	globalLogger.Store(logger)
	zap.ReplaceGlobals(logger)
}

// GetGlobalLogger hands back the configured logger, setting up the
// default console logger on first use.
func GetGlobalLogger() *zap.Logger {
	if l, ok := globalLogger.Load().(*zap.Logger); ok && l != nil {
		return l
	}
	defaultOnce.Do(func() {
		SetupLogger(&LogConfig{})
	})
	return globalLogger.Load().(*zap.Logger)
}

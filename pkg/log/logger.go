// Copyright 2019-2022 Intel Corporation. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"os"
)

// Level describes the severity of log messages.
type Level int

const (
	// LevelDebug is the severity for debug messages.
	LevelDebug Level = iota
	// LevelInfo is the severity for informational messages.
	LevelInfo
	// LevelWarn is the severity for warnings.
	LevelWarn
	// LevelError is the severity for errors.
	LevelError
	// LevelFatal is the severity for fatal errors.
	LevelFatal
)

// Logger is the interface for producing log messages for/from a particular source.
type Logger interface {
	// Debug formats and emits a debug message.
	Debug(format string, args ...interface{})
	// Info formats and emits an informational message.
	Info(format string, args ...interface{})
	// Warn formats and emits a warning message.
	Warn(format string, args ...interface{})
	// Error formats and emits an error message.
	Error(format string, args ...interface{})
	// Fatal formats and emits an error message and os.Exit()'s with status 1.
	Fatal(format string, args ...interface{})

	// DebugBlock formats and emits a multiline debug message.
	DebugBlock(prefix string, format string, args ...interface{})
	// InfoBlock formats and emits a multiline information message.
	InfoBlock(prefix string, format string, args ...interface{})

	// EnableDebug enables debug messages for this Logger.
	EnableDebug(bool) bool
	// DebugEnabled checks if debug messages are enabled for this Logger.
	DebugEnabled() bool

	// Source returns the source name of this Logger.
	Source() string
}

// logger implements Logger. It is an index into the runtime state.
type logger uint

// EnableDebug enables/disables debug logging for this logger.
func (l logger) EnableDebug(state bool) bool {
	log.Lock()
	defer log.Unlock()

	cfg := log.configs[l]
	old := cfg.setDebugging(state)
	log.configs[l] = cfg

	return old
}

// DebugEnabled checks debug logging is enabled for this logger.
func (l logger) DebugEnabled() bool {
	log.RLock()
	defer log.RUnlock()

	cfg := log.configs[l]

	return cfg.isDebugging() || log.forced
}

// Source returns the source for the given logger.
func (l logger) Source() string {
	log.RLock()
	defer log.RUnlock()

	return log.sources[l]
}

// Debug logs a debug message.
func (l logger) Debug(format string, args ...interface{}) {
	l.emit(LevelDebug, "", format, args...)
}

// Info logs a informational message.
func (l logger) Info(format string, args ...interface{}) {
	l.emit(LevelInfo, "", format, args...)
}

// Warn logs a warning message.
func (l logger) Warn(format string, args ...interface{}) {
	l.emit(LevelWarn, "", format, args...)
}

// Error logs an error message.
func (l logger) Error(format string, args ...interface{}) {
	l.emit(LevelError, "", format, args...)
}

// Fatal logs a fatal error message and os.Exit(1)'s.
func (l logger) Fatal(format string, args ...interface{}) {
	source, active, _ := l.config(LevelFatal)
	active.Log(LevelFatal, source, format, args...)
	active.Sync()

	os.Exit(1)
}

// DebugBlock logs a multi-line debug message.
func (l logger) DebugBlock(prefix string, format string, args ...interface{}) {
	l.emit(LevelDebug, prefix, format, args...)
}

// InfoBlock logs a multi-line informational message.
func (l logger) InfoBlock(prefix string, format string, args ...interface{}) {
	l.emit(LevelInfo, prefix, format, args...)
}

// emit passes a message to the active backend if it is not filtered out.
func (l logger) emit(level Level, prefix, format string, args ...interface{}) {
	source, active, emit := l.config(level)
	if !emit {
		return
	}
	if prefix == "" {
		active.Log(level, source, format, args...)
	} else {
		active.Block(level, source, prefix, format, args...)
	}
}

// config returns the logger's source, the active backend and whether level is emitted.
func (l logger) config(level Level) (string, Backend, bool) {
	log.RLock()
	defer log.RUnlock()

	cfg := log.configs[l]
	source := log.sources[l]
	active := log.active

	switch {
	case level == LevelDebug:
		return source, active, cfg.isDebugging() || log.forced
	case level < log.level:
		return source, active, false
	case level == LevelInfo || level == LevelWarn:
		return source, active, cfg.isLogging()
	default:
		return source, active, true
	}
}

//
// Runtime configuration of a single logger instance.
//

const (
	loggingBit = (1 << iota)
	debuggingBit
)

// config holds the enabled state bits of a single logger.
type config uint8

// mkConfig creates a configuration with the given parameters.
func mkConfig(logging, debugging bool) config {
	var cfg config
	cfg.setLogging(logging)
	cfg.setDebugging(debugging)
	return cfg
}

// setLogging sets/clears the logging bit in this config.
func (cfg *config) setLogging(enable bool) bool {
	old := (*cfg & loggingBit) != 0
	if enable {
		*cfg |= loggingBit
	} else {
		*cfg &^= loggingBit
	}
	return old
}

// isLogging tests if this config has its logging bit enabled.
func (cfg config) isLogging() bool {
	return (cfg & loggingBit) != 0
}

// setDebugging sets/clears the debugging bit in this config.
func (cfg *config) setDebugging(enable bool) bool {
	old := (*cfg & debuggingBit) != 0
	if enable {
		*cfg |= debuggingBit
	} else {
		*cfg &^= debuggingBit
	}
	return old
}

// isDebugging tests if this config has its debugging bit enabled.
func (cfg config) isDebugging() bool {
	return (cfg & debuggingBit) != 0
}

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
	"fmt"
	"sort"
	"strings"
	"sync"
)

// logging is the runtime state of all loggers.
type logging struct {
	sync.RWMutex
	level    Level                // lowest unsuppressed severity
	active   Backend              // active backend
	backends map[string]BackendFn // registered backends
	loggers  map[string]logger    // source to logger mapping
	sources  map[logger]string    // logger to source mapping
	configs  map[logger]config    // per-logger enabled bits
	forced   bool                 // forced full debugging
	align    int                  // longest source name seen
}

// our runtime logging state
var log = &logging{
	level:    DefaultLevel,
	active:   createFmtBackend(),
	backends: map[string]BackendFn{FmtBackendName: createFmtBackend},
	loggers:  make(map[string]logger),
	sources:  make(map[logger]string),
	configs:  make(map[logger]config),
}

// NewLogger creates a new logger for the source, or returns the existing one.
func NewLogger(source string) Logger {
	return log.get(source)
}

// Get is an alias for NewLogger.
func Get(source string) Logger {
	return log.get(source)
}

// SetLevel sets the lowest severity level for non-debug messages to pass through.
func SetLevel(level Level) {
	log.Lock()
	defer log.Unlock()
	log.setLevel(level)
}

// SetBackend activates the named, registered Backend.
func SetBackend(name string) error {
	log.Lock()
	defer log.Unlock()
	return log.setBackend(name)
}

// RegisterBackend registers a logger backend.
func RegisterBackend(name string, fn BackendFn) {
	log.Lock()
	defer log.Unlock()
	log.backends[name] = fn
}

// Backends returns the sorted names of all registered backends.
func Backends() []string {
	log.RLock()
	defer log.RUnlock()

	names := make([]string, 0, len(log.backends))
	for name := range log.backends {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// ForceDebug forces debug messages on for all sources, or turns forcing off.
func ForceDebug(on bool) {
	log.Lock()
	defer log.Unlock()
	log.forced = on
}

// DebugForced checks if debug messages are forced on for all sources.
func DebugForced() bool {
	log.RLock()
	defer log.RUnlock()
	return log.forced
}

// Flush flushes any messages buffered by the active backend.
func Flush() {
	log.RLock()
	active := log.active
	log.RUnlock()
	active.Sync()
}

// get returns the logger for source, creating it if necessary.
func (l *logging) get(source string) logger {
	source = strings.Trim(source, "[] ")

	l.Lock()
	defer l.Unlock()

	if id, ok := l.loggers[source]; ok {
		return id
	}

	id := logger(len(l.loggers))
	l.loggers[source] = id
	l.sources[id] = source
	l.configs[id] = mkConfig(opt.Enable.isEnabled(source, true), opt.Debug.isEnabled(source, false))

	if len(source) > l.align {
		l.align = len(source)
		l.active.SetSourceAlignment(l.align)
	}

	return id
}

// update reconfigures all loggers from the given source maps.
func (l *logging) update(enable, debug srcmap) {
	for source, id := range l.loggers {
		cfg := l.configs[id]
		if enable != nil {
			cfg.setLogging(enable.isEnabled(source, true))
		}
		if debug != nil {
			cfg.setDebugging(debug.isEnabled(source, false))
		}
		l.configs[id] = cfg
	}
}

func (l *logging) setLevel(level Level) {
	l.level = level
}

func (l *logging) setBackend(name string) error {
	if l.active != nil && l.active.Name() == name {
		return nil
	}

	fn, ok := l.backends[name]
	if !ok {
		return loggerError("can't activate unknown backend '%s'", name)
	}

	if l.active != nil {
		l.active.Sync()
		l.active.Stop()
	}
	l.active = fn()
	l.active.SetSourceAlignment(l.align)

	return nil
}

// loggerError produces a formatted logger-specific error.
func loggerError(format string, args ...interface{}) error {
	return fmt.Errorf("logger: "+format, args...)
}

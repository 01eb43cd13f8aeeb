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
	"encoding/json"
	"flag"
	"sort"
	"strings"

	"github.com/intel/numatrace/pkg/utils"
)

const (
	// DefaultLevel is the default logging severity level.
	DefaultLevel = LevelInfo
	// command-line argument prefix.
	optPrefix = "logger"
	// Flag for enabling/disabling normal non-debug logging for sources.
	optEnable = optPrefix + "-sources"
	// Flag for enabling/disabling debug logging for sources.
	optDebug = optPrefix + "-debug"
	// Flag for selecting logging level.
	optLevel = optPrefix + "-level"
	// Flag for selecting logging backend.
	optBackend = optPrefix
)

// Options are the logger settings configurable via the command line or
// the configuration file.
type Options struct {
	// Level is the logging severity/level.
	Level Level `json:"level,omitempty"`
	// Enable is a map for enabling/disabling normal logging for sources.
	Enable srcmap `json:"enable,omitempty"`
	// Debug is a map for enabling/disabling debug logging for sources.
	Debug srcmap `json:"debug,omitempty"`
	// Backend is the name of the logger backend to use.
	Backend string `json:"backend,omitempty"`
}

// srcmap tracks logging or debugging settings for sources.
type srcmap map[string]bool

// active options, updated by command line flags and Configure
var opt = &Options{
	Level:   DefaultLevel,
	Enable:  make(srcmap),
	Debug:   make(srcmap),
	Backend: FmtBackendName,
}

// Configure applies the given options to all existing and future loggers.
func Configure(o *Options) error {
	if o == nil {
		return nil
	}

	log.Lock()
	defer log.Unlock()

	if o.Backend != "" {
		if err := log.setBackend(o.Backend); err != nil {
			return err
		}
		opt.Backend = o.Backend
	}

	opt.Level = o.Level
	log.setLevel(o.Level)

	if o.Enable != nil {
		opt.Enable = make(srcmap)
		opt.Enable.copy(o.Enable)
	}
	if o.Debug != nil {
		opt.Debug = make(srcmap)
		opt.Debug.copy(o.Debug)
	}
	log.update(opt.Enable, opt.Debug)

	return nil
}

// CurrentOptions returns a copy of the active logger options.
func CurrentOptions() *Options {
	log.RLock()
	defer log.RUnlock()

	o := &Options{
		Level:   opt.Level,
		Enable:  make(srcmap),
		Debug:   make(srcmap),
		Backend: opt.Backend,
	}
	o.Enable.copy(opt.Enable)
	o.Debug.copy(opt.Debug)

	return o
}

var levelNames = map[Level]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warning",
	LevelError: "error",
	LevelFatal: "fatal",
}

// ParseLevel parses the given name into a Level.
func ParseLevel(value string) (Level, error) {
	name := strings.ToLower(value)
	if name == "warn" {
		name = "warning"
	}
	for level, n := range levelNames {
		if n == name {
			return level, nil
		}
	}
	return DefaultLevel, loggerError("invalid logging level %s", value)
}

// String returns the name of the level.
func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return levelNames[DefaultLevel]
}

// MarshalJSON is the JSON marshaller for Level.
func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON is the JSON unmarshaller for Level.
func (l *Level) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return loggerError("failed to unmarshal level '%s': %v", string(raw), err)
	}
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	*l = level
	return nil
}

// parse updates srcmap entries by parsing the given value.
func (m srcmap) parse(value string) error {
	prev, state, src := "", "", ""
	for _, entry := range strings.Split(value, ",") {
		if entry == "" {
			continue
		}
		statesrc := strings.Split(entry, ":")
		switch len(statesrc) {
		case 2:
			state, src = statesrc[0], statesrc[1]
		case 1:
			state, src = "", statesrc[0]
		default:
			return loggerError("invalid state spec '%s' in source map", entry)
		}

		if state != "" {
			prev = state
		} else {
			state = prev
			if state == "" {
				state = "on"
			}
		}
		if src == "all" {
			src = "*"
		}

		enabled, err := utils.ParseEnabled(state)
		if err != nil {
			return loggerError("invalid state '%s' in source map", state)
		}
		m[src] = enabled
	}
	return nil
}

// isEnabled checks the state of source, falling back to the wildcard, then to def.
func (m srcmap) isEnabled(source string, def bool) bool {
	if state, ok := m[source]; ok {
		return state
	}
	if state, ok := m["*"]; ok {
		return state
	}
	return def
}

// String returns a string representation of the srcmap.
func (m srcmap) String() string {
	on, off := []string{}, []string{}
	for src, state := range m {
		if state {
			on = append(on, src)
		} else {
			off = append(off, src)
		}
	}
	sort.Strings(on)
	sort.Strings(off)

	switch {
	case len(off) == 0:
		return "on:" + strings.Join(on, ",")
	case len(on) == 0:
		return "off:" + strings.Join(off, ",")
	}
	return "on:" + strings.Join(on, ",") + ",off:" + strings.Join(off, ",")
}

// MarshalJSON is the JSON marshaller for srcmap.
func (m srcmap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON is the JSON unmarshaller for srcmap. It accepts either
// a source map string or an {"on": [...], "off": [...]} map.
func (m *srcmap) UnmarshalJSON(raw []byte) error {
	*m = make(srcmap)

	cfgstr := ""
	if err := json.Unmarshal(raw, &cfgstr); err == nil {
		return m.parse(cfgstr)
	}

	rawmap := map[string][]string{}
	if err := json.Unmarshal(raw, &rawmap); err != nil {
		return loggerError("failed to unmarshal logger source map '%s': %v", string(raw), err)
	}
	for state, sources := range rawmap {
		enabled, err := utils.ParseEnabled(state)
		if err != nil {
			return loggerError("invalid state '%s' in logger source map", state)
		}
		for _, src := range sources {
			if src == "all" {
				src = "*"
			}
			(*m)[src] = enabled
		}
	}
	return nil
}

// copy state from another srcmap.
func (m srcmap) copy(o srcmap) {
	for src, state := range o {
		m[src] = state
	}
}

//
// flag.Value adapters for the command line.
//

type levelFlag struct{}

func (levelFlag) String() string {
	if opt == nil {
		return DefaultLevel.String()
	}
	return opt.Level.String()
}

func (levelFlag) Set(value string) error {
	level, err := ParseLevel(value)
	if err != nil {
		return err
	}
	log.Lock()
	defer log.Unlock()
	opt.Level = level
	log.setLevel(level)
	return nil
}

type srcmapFlag struct {
	debug bool
}

func (f srcmapFlag) String() string {
	if opt == nil {
		return ""
	}
	if f.debug {
		return opt.Debug.String()
	}
	return opt.Enable.String()
}

func (f srcmapFlag) Set(value string) error {
	log.Lock()
	defer log.Unlock()

	if f.debug {
		if err := opt.Debug.parse(value); err != nil {
			return err
		}
		log.update(nil, opt.Debug)
	} else {
		if err := opt.Enable.parse(value); err != nil {
			return err
		}
		log.update(opt.Enable, nil)
	}
	return nil
}

type backendFlag struct{}

func (backendFlag) String() string {
	if opt == nil {
		return FmtBackendName
	}
	return opt.Backend
}

func (backendFlag) Set(value string) error {
	log.Lock()
	defer log.Unlock()
	if err := log.setBackend(value); err != nil {
		return err
	}
	opt.Backend = value
	return nil
}

// RegisterFlags registers the logger command line flags in the given FlagSet.
func RegisterFlags(fs *flag.FlagSet) {
	fs.Var(backendFlag{}, optBackend,
		"logger backend to use ("+strings.Join(Backends(), ", ")+").")
	fs.Var(levelFlag{}, optLevel,
		"lowest severity level to pass through (info, warning, error)")
	fs.Var(srcmapFlag{}, optEnable,
		"comma-separated list of source names to enable/disable.\n"+
			"Specify '*' or 'all' to enable all sources, which is also the default.\n"+
			"Prefix a source or list with 'off:' to disable.")
	fs.Var(srcmapFlag{debug: true}, optDebug,
		"comma-separated list of source names to enable debug messages for.\n"+
			"Specify '*' or 'all' to enable all sources.\n"+
			"Prefix a source or list with 'off:' to disable, which is also the default state.")
}

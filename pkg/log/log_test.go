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
	"bytes"
	"flag"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// a test Backend that records messages for verification
type testlogger struct {
	sync.Mutex
	recorded []string
}

var testlog = &testlogger{}

const testLoggerName = "testlogger"

func (l *testlogger) Name() string {
	return testLoggerName
}

func (l *testlogger) Log(level Level, source, format string, args ...interface{}) {
	l.record(level, fmt.Sprintf("["+source+"] "+format, args...))
}

func (l *testlogger) Block(level Level, source, prefix, format string, args ...interface{}) {
	l.record(level, fmt.Sprintf("["+source+"] "+prefix+format, args...))
}

func (l *testlogger) Sync()                  {}
func (l *testlogger) Stop()                  {}
func (l *testlogger) SetSourceAlignment(int) {}

func (l *testlogger) record(level Level, msg string) {
	l.Lock()
	defer l.Unlock()
	l.recorded = append(l.recorded, fmtTags[level]+msg)
}

func (l *testlogger) messages() []string {
	l.Lock()
	defer l.Unlock()
	return append([]string{}, l.recorded...)
}

func setup(t *testing.T) *testlogger {
	require.NoError(t, SetBackend(testLoggerName))
	SetLevel(LevelInfo)

	log.Lock()
	opt.Enable = make(srcmap)
	opt.Debug = make(srcmap)
	log.forced = false
	log.update(opt.Enable, opt.Debug)
	log.Unlock()

	testlog.Lock()
	testlog.recorded = nil
	testlog.Unlock()

	return testlog
}

func init() {
	RegisterBackend(testLoggerName, func() Backend { return testlog })
}

func TestBackendOverride(t *testing.T) {
	tl := setup(t)

	test := NewLogger("test")
	test.Info("this is a test info message")
	test.Warn("this is a test warning message")
	test.Error("this is a test error message")

	require.Equal(t, []string{
		"I: [test] this is a test info message",
		"W: [test] this is a test warning message",
		"E: [test] this is a test error message",
	}, tl.messages())
}

func TestUnknownBackend(t *testing.T) {
	setup(t)
	require.Error(t, SetBackend("no-such-backend"))
}

func TestSeverityFiltering(t *testing.T) {
	tl := setup(t)

	test := NewLogger("severity")
	emit := func() {
		test.Debug("debug")
		test.Info("info")
		test.Warn("warning")
		test.Error("error")
	}

	SetLevel(LevelWarn)
	emit()
	require.Equal(t, []string{"W: [severity] warning", "E: [severity] error"}, tl.messages())

	tl = setup(t)
	SetLevel(LevelError)
	test.EnableDebug(true)
	emit()
	require.Equal(t, []string{"D: [severity] debug", "E: [severity] error"}, tl.messages())
	test.EnableDebug(false)
}

func TestSourceMaps(t *testing.T) {
	tl := setup(t)

	a := NewLogger("source-a")
	b := NewLogger("source-b")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"-logger-debug", "on:*,off:source-b",
		"-logger-sources", "off:source-a",
	}))

	require.True(t, a.DebugEnabled())
	require.False(t, b.DebugEnabled())

	a.Info("hidden")
	a.Debug("shown")
	b.Info("shown")
	b.Debug("hidden")

	require.Equal(t, []string{"D: [source-a] shown", "I: [source-b] shown"}, tl.messages())

	// loggers created later pick up the current maps
	c := NewLogger("source-c")
	require.True(t, c.DebugEnabled())
}

func TestConfigure(t *testing.T) {
	tl := setup(t)

	o := &Options{}
	require.NoError(t, o.Level.UnmarshalJSON([]byte(`"warning"`)))
	require.NoError(t, o.Debug.UnmarshalJSON([]byte(`{"on": ["configured"]}`)))
	require.NoError(t, Configure(o))

	l := NewLogger("configured")
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")

	require.Equal(t, []string{"D: [configured] debug", "W: [configured] warn"}, tl.messages())
	require.Equal(t, LevelWarn, CurrentOptions().Level)
	require.Equal(t, "on:configured", CurrentOptions().Debug.String())

	require.Error(t, Configure(&Options{Backend: "bogus"}))
}

func TestParseLevel(t *testing.T) {
	for name, expected := range map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"WARNING": LevelWarn,
		"error":   LevelError,
	} {
		level, err := ParseLevel(name)
		require.NoError(t, err, name)
		require.Equal(t, expected, level, name)
	}
	_, err := ParseLevel("verbose")
	require.Error(t, err)
}

func TestSrcmapString(t *testing.T) {
	m := make(srcmap)
	require.NoError(t, m.parse("on:b,a,off:c"))
	require.Equal(t, "on:a,b,off:c", m.String())
	require.True(t, m.isEnabled("a", false))
	require.False(t, m.isEnabled("c", true))
	require.True(t, m.isEnabled("d", true))

	require.Error(t, m.parse("maybe:x"))
	require.Error(t, m.parse("on:x:y"))
}

func TestBlock(t *testing.T) {
	tl := setup(t)

	test := NewLogger("block")
	test.InfoBlock("  <prefix> ", "line")
	require.Equal(t, []string{"I: [block]   <prefix> line"}, tl.messages())
	require.Equal(t, "block", test.Source())
}

func TestForceDebug(t *testing.T) {
	tl := setup(t)

	l := NewLogger("forced")
	l.Debug("hidden")
	ForceDebug(true)
	require.True(t, DebugForced())
	require.True(t, l.DebugEnabled())
	l.Debug("shown")
	ForceDebug(false)
	l.Debug("hidden again")

	require.Equal(t, []string{"D: [forced] shown"}, tl.messages())
}

func TestDelay(t *testing.T) {
	calls := 0
	d := Delay(func() string { calls++; return "delayed" })
	require.Equal(t, 0, calls)
	require.Equal(t, "delayed", fmt.Sprintf("%s", d))
	require.Equal(t, 1, calls)
	require.Equal(t, "42", DelayValue(func() interface{} { return 42 }).String())
}

func TestFmtBackend(t *testing.T) {
	buf := &bytes.Buffer{}
	f := &fmtBackend{out: buf}
	f.SetSourceAlignment(6)
	f.Log(LevelWarn, "ab", "one\ntwo")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, []string{"W:  [  ab  ] one", "W:  [  ab  ] two"}, lines)
}

func TestRateLimit(t *testing.T) {
	tl := setup(t)

	rl := RateLimit(NewLogger("limited"), Rate{Limit: Every(time.Hour), Window: MinimumWindow})
	for i := 0; i < 3; i++ {
		rl.Warn("repeated")
	}
	rl.Warn("other")

	require.Equal(t, []string{
		"W: [limited] repeated",
		"W: [limited] other",
	}, tl.messages())
}

func TestRateLimitByFormat(t *testing.T) {
	tl := setup(t)

	interval := 50 * time.Millisecond
	rl := RateLimit(NewLogger("limited"), Rate{Limit: Every(interval), ByFormat: true})
	for line := 1; line <= 3; line++ {
		rl.Warn("skipping line %d", line)
	}
	time.Sleep(2 * interval)
	rl.Warn("skipping line %d", 4)

	require.Equal(t, []string{
		"W: [limited] skipping line 1",
		"W: [limited] skipping line 4 (2 similar messages suppressed)",
	}, tl.messages())
}

func TestRateLimitWindow(t *testing.T) {
	rl := RateLimit(NewLogger("window"), Rate{Window: 1, Limit: Every(time.Second)}).(*ratelimited)
	require.Equal(t, MinimumWindow, rl.rate.Window)

	for idx := 0; idx < MinimumWindow; idx++ {
		rl.filter("message #%d", idx)
	}
	first := rl.getMessageLimit("message #0")
	require.NotNil(t, first)

	// a new message shifts the oldest one out of the window
	rl.filter("message #%d", MinimumWindow)
	require.Nil(t, rl.getMessageLimit("message #0"))
	require.NotNil(t, rl.getMessageLimit("message #1"))
	require.NotNil(t, rl.getMessageLimit(fmt.Sprintf("message #%d", MinimumWindow)))
}

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
	"sync"
	"time"

	goxrate "golang.org/x/time/rate"
)

// Rate specifies the maximum logging rate of a message.
type Rate struct {
	// rate limit
	Limit goxrate.Limit
	// allowed bursts
	Burst int
	// optional message window size
	Window int
	// ByFormat makes messages with the same format share a limit,
	// regardless of their arguments.
	ByFormat bool
}

const (
	// DefaultWindow is the default message window size for rate limiting.
	DefaultWindow = 256
	// MinimumWindow is the smallest message window size for rate limiting.
	MinimumWindow = 32
)

// limit tracks the limiter and the number of suppressed instances of a message.
type limit struct {
	*goxrate.Limiter
	suppressed int
}

// ratelimited implements rate limiting for a Logger. Once a suppressed
// message is let through again, it is annotated with the number of
// instances suppressed since the last one emitted.
type ratelimited struct {
	Logger
	sync.Mutex
	rate   Rate
	keys   []string // tracked message keys, oldest first
	limits map[string]*limit
}

// Every defines a rate limit for the given interval.
func Every(interval time.Duration) goxrate.Limit {
	return goxrate.Every(interval)
}

// Interval returns a Rate for the given interval.
func Interval(interval time.Duration) Rate {
	return Rate{Limit: Every(interval), Burst: 1}
}

// RateLimit returns a ratelimited version of the given logger.
func RateLimit(log Logger, rate Rate) Logger {
	switch {
	case rate.Window == 0:
		rate.Window = DefaultWindow
	case rate.Window < MinimumWindow:
		rate.Window = MinimumWindow
	}
	if rate.Burst < 1 {
		rate.Burst = 1
	}
	return &ratelimited{
		Logger: log,
		rate:   rate,
		keys:   make([]string, 0, rate.Window),
		limits: make(map[string]*limit),
	}
}

func (rl *ratelimited) Debug(format string, args ...interface{}) {
	if !rl.Logger.DebugEnabled() {
		return
	}
	if msg, ok := rl.filter(format, args...); ok {
		rl.Logger.Debug("%s", msg)
	}
}

func (rl *ratelimited) Info(format string, args ...interface{}) {
	if msg, ok := rl.filter(format, args...); ok {
		rl.Logger.Info("%s", msg)
	}
}

func (rl *ratelimited) Warn(format string, args ...interface{}) {
	if msg, ok := rl.filter(format, args...); ok {
		rl.Logger.Warn("%s", msg)
	}
}

func (rl *ratelimited) Error(format string, args ...interface{}) {
	if msg, ok := rl.filter(format, args...); ok {
		rl.Logger.Error("%s", msg)
	}
}

// filter formats the message and checks whether its limit allows it.
// Limits are tracked for the last Window distinct keys.
func (rl *ratelimited) filter(format string, args ...interface{}) (string, bool) {
	rl.Lock()
	defer rl.Unlock()

	msg := fmt.Sprintf(format, args...)
	key := msg
	if rl.rate.ByFormat {
		key = format
	}

	lim, ok := rl.limits[key]
	if !ok {
		if len(rl.keys) >= rl.rate.Window {
			delete(rl.limits, rl.keys[0])
			rl.keys = rl.keys[1:]
		}
		rl.keys = append(rl.keys, key)
		lim = &limit{Limiter: goxrate.NewLimiter(rl.rate.Limit, rl.rate.Burst)}
		rl.limits[key] = lim
	}

	if !lim.Allow() {
		lim.suppressed++
		return "", false
	}
	if lim.suppressed > 0 {
		msg = fmt.Sprintf("%s (%d similar messages suppressed)", msg, lim.suppressed)
		lim.suppressed = 0
	}

	return msg, true
}

// getMessageLimit returns the limit for key, if it is still tracked.
func (rl *ratelimited) getMessageLimit(key string) *limit {
	rl.Lock()
	defer rl.Unlock()
	return rl.limits[key]
}

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

package metricsring

import (
	"container/ring"
	"time"

	"github.com/VividCortex/ewma"
)

// SampleBuffer keeps the latest samples of a metric.
type SampleBuffer interface {
	Push(value float64, at time.Time)
	EWMA() float64
	Span() time.Duration
	Size() int
	Len() int
	LastN(count int) []float64
}

// MetricsRing implements SampleBuffer on a fixed size ring.
type MetricsRing struct {
	r  *ring.Ring
	n  int // the count of samples in the ring
	ma ewma.MovingAverage
}

type sample struct {
	value     float64
	timestamp time.Time
}

// NewMetricsRing creates a ring for the given number of samples.
func NewMetricsRing(size int) SampleBuffer {
	if size < 1 {
		size = 1
	}
	// Note: ewma has a warm-up period of 10 samples, EWMA() returns
	// 0.0 until then.
	return &MetricsRing{
		r:  ring.New(size),
		ma: ewma.NewMovingAverage(float64(size)),
	}
}

// Push adds a sample, overwriting the oldest one if the ring is full.
func (mr *MetricsRing) Push(value float64, at time.Time) {
	mr.r.Value = sample{
		value:     value,
		timestamp: at,
	}
	mr.ma.Add(value)
	mr.r = mr.r.Next()

	if mr.n < mr.r.Len() {
		mr.n++
	}
}

// EWMA returns the moving average of all samples pushed.
func (mr *MetricsRing) EWMA() float64 {
	return mr.ma.Value()
}

// Span returns the time between the oldest and the latest sample.
func (mr *MetricsRing) Span() time.Duration {
	if mr.n < 2 {
		return 0
	}
	latest := mr.r.Prev().Value.(sample).timestamp
	oldest := mr.r.Move(-mr.n).Value.(sample).timestamp
	return latest.Sub(oldest)
}

// Size returns the capacity of the ring.
func (mr *MetricsRing) Size() int {
	return mr.r.Len()
}

// Len returns the number of samples in the ring.
func (mr *MetricsRing) Len() int {
	return mr.n
}

// LastN returns at most count latest samples, oldest first.
func (mr *MetricsRing) LastN(count int) []float64 {
	if count > mr.n {
		count = mr.n
	}
	if count < 0 {
		count = 0
	}

	s := make([]float64, count)
	r := mr.r.Move(-count)
	for i := 0; i < count; i++ {
		s[i] = r.Value.(sample).value
		r = r.Next()
	}

	return s
}

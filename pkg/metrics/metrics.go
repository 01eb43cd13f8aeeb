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

package metrics

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	logger "github.com/intel/numatrace/pkg/log"
)

var (
	defaultRegistry = NewRegistry()
	log             = logger.NewLogger("metrics")
)

// InitCollector is the type for functions that initialize collectors.
type InitCollector func() (prometheus.Collector, error)

// Registry tracks named collectors for metrics collection.
type Registry struct {
	sync.Mutex
	builtIn     map[string]InitCollector
	collectors  []prometheus.Collector
	initialized map[string]struct{}
}

// NewRegistry creates a new, empty collector registry.
func NewRegistry() *Registry {
	return &Registry{
		builtIn:     make(map[string]InitCollector),
		initialized: make(map[string]struct{}),
	}
}

// RegisterCollector registers the named prometheus.Collector for metrics collection.
func RegisterCollector(name string, init InitCollector) error {
	return defaultRegistry.RegisterCollector(name, init)
}

// NewMetricGatherer creates a new prometheus.Gatherer with all registered collectors.
func NewMetricGatherer() (prometheus.Gatherer, error) {
	return defaultRegistry.NewMetricGatherer()
}

// RegisterCollector registers the named prometheus.Collector for metrics collection.
func (r *Registry) RegisterCollector(name string, init InitCollector) error {
	r.Lock()
	defer r.Unlock()

	log.Debug("registering collector %s...", name)

	if _, found := r.builtIn[name]; found {
		return metricsError("collector %s already registered", name)
	}
	r.builtIn[name] = init

	return nil
}

// NewMetricGatherer creates a new prometheus.Gatherer with all registered
// collectors. Collectors that fail to initialize are skipped.
func (r *Registry) NewMetricGatherer() (prometheus.Gatherer, error) {
	r.Lock()
	defer r.Unlock()

	reg := prometheus.NewPedanticRegistry()

	names := make([]string, 0, len(r.builtIn))
	for name := range r.builtIn {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := r.initialized[name]; ok {
			continue
		}
		c, err := r.builtIn[name]()
		if err != nil {
			log.Error("failed to initialize collector '%s': %v. Skipping it.", name, err)
			continue
		}
		r.collectors = append(r.collectors, c)
		r.initialized[name] = struct{}{}
	}

	for _, c := range r.collectors {
		if err := reg.Register(c); err != nil {
			return nil, metricsError("failed to register collector: %v", err)
		}
	}

	return reg, nil
}

// Dump gathers all metrics and writes them in text exposition format.
func Dump(w io.Writer, g prometheus.Gatherer) error {
	mfs, err := g.Gather()
	if err != nil {
		return metricsError("failed to collect metrics: %v", err)
	}
	return writeFamilies(w, mfs)
}

func writeFamilies(w io.Writer, mfs []*dto.MetricFamily) error {
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return metricsError("failed to dump metrics: %v", err)
		}
	}
	return nil
}

func metricsError(format string, args ...interface{}) error {
	return fmt.Errorf("metrics: "+format, args...)
}

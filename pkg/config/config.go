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
package config

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	logger "github.com/intel/numatrace/pkg/log"
)

// Output modes.
const (
	// ModeRaw emits the real frames as a movie.
	ModeRaw = "raw"
	// ModeSmooth emits linearly interpolated frames as a movie.
	ModeSmooth = "smooth"
	// ModeSummary emits per-thread and per-node whole-run summaries.
	ModeSummary = "summary"
	// ModeInterconnect emits per-frame node-to-node traffic.
	ModeInterconnect = "interconnect"
	// ModePages emits per-frame per-page access counts.
	ModePages = "pages"
	// ModeSharing emits per-frame page sharing statistics.
	ModeSharing = "sharing"
)

// Output formats for movie modes.
const (
	FormatText       = "text"
	FormatYAML       = "yaml"
	FormatPrometheus = "prometheus"
)

// Trace record layouts.
const (
	RecordPlain  = "plain"
	RecordPadded = "padded"
)

const (
	// DefaultTimeStep is the default frame width.
	DefaultTimeStep = Duration(time.Second)
	// DefaultSysfsRoot is where node topology is discovered from.
	DefaultSysfsRoot = "/sys"
	// DefaultMaxFrames limits the number of smoothed frames.
	DefaultMaxFrames = 1 << 20
)

var (
	validModes   = []string{ModeRaw, ModeSmooth, ModeSummary, ModeInterconnect, ModePages, ModeSharing}
	validFormats = []string{FormatText, FormatYAML, FormatPrometheus}
	validRecords = []string{RecordPlain, RecordPadded}
)

// Options is the full run configuration.
type Options struct {
	// Topology is the node-to-core configuration file.
	Topology string `json:"topology,omitempty"`
	// TopologyFromSysfs discovers the topology of the running machine instead.
	TopologyFromSysfs bool `json:"topologyFromSysfs,omitempty"`
	// SysfsRoot is the sysfs mount point used for discovery.
	SysfsRoot string `json:"sysfsRoot,omitempty"`
	// Inputs are trace directories or files.
	Inputs []string `json:"inputs,omitempty"`
	// TimeStep is the width of a frame.
	TimeStep Duration `json:"timeStep,omitempty"`
	// Smooth is the number of interpolated frames per real frame.
	Smooth int `json:"smooth,omitempty"`
	// Mode selects the report to produce.
	Mode string `json:"mode,omitempty"`
	// Format selects the encoding of movie reports.
	Format string `json:"format,omitempty"`
	// RecordFormat selects the trace record layout.
	RecordFormat string `json:"recordFormat,omitempty"`
	// MaxFrames is the largest number of smoothed frames to emit, 0 for no limit.
	MaxFrames int64 `json:"maxFrames,omitempty"`
	// Workers is the number of traces processed in parallel.
	Workers int `json:"workers,omitempty"`
	// Output is the report file, stdout if empty.
	Output string `json:"output,omitempty"`
	// FromReport re-reads a raw movie report instead of traces.
	FromReport string `json:"fromReport,omitempty"`
	// Stats dumps ingest metrics to stderr after processing.
	Stats bool `json:"stats,omitempty"`
	// Logger holds the logger configuration.
	Logger *logger.Options `json:"logger,omitempty"`
}

var log = logger.NewLogger("config")

// Defaults returns the default options.
func Defaults() *Options {
	return &Options{
		SysfsRoot:    DefaultSysfsRoot,
		TimeStep:     DefaultTimeStep,
		Smooth:       1,
		MaxFrames:    DefaultMaxFrames,
		Mode:         ModeRaw,
		Format:       FormatText,
		RecordFormat: RecordPlain,
		Workers:      runtime.GOMAXPROCS(0),
		Logger:       &logger.Options{Level: logger.DefaultLevel},
	}
}

// Load reads YAML options from path on top of the defaults.
func Load(path string) (*Options, error) {
	o := Defaults()
	if path == "" {
		return o, nil
	}
	if err := o.LoadFile(path); err != nil {
		return nil, err
	}
	return o, nil
}

// LoadFile reads YAML options from path on top of the current ones.
func (o *Options) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read configuration file")
	}
	return errors.Wrapf(o.Parse(data), "failed to load configuration file %q", path)
}

// Parse reads YAML or JSON options from data on top of the current ones.
func (o *Options) Parse(data []byte) error {
	if err := yaml.UnmarshalStrict(data, o); err != nil {
		return configError("%v", err)
	}
	log.Debug("parsed configuration: %s", logger.Delay(o.String))
	return nil
}

// String returns the options in YAML.
func (o *Options) String() string {
	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return string(data)
}

// RegisterFlags binds the options to command line flags in fs. Flags
// given on the command line override the configuration file.
func (o *Options) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&o.Topology, "topology", o.Topology,
		"node-to-core topology file, one 'node<TAB>core[,core...]' per line")
	fs.BoolVar(&o.TopologyFromSysfs, "topology-from-sysfs", o.TopologyFromSysfs,
		"discover node topology of this machine from sysfs")
	fs.StringVar(&o.SysfsRoot, "sysfs-root", o.SysfsRoot,
		"sysfs mount point for topology discovery")
	fs.Var((*stringList)(&o.Inputs), "input",
		"trace directory or file, can be given multiple times")
	fs.Var(&o.TimeStep, "time-step",
		"frame width, a duration or an integer number of microseconds")
	fs.IntVar(&o.Smooth, "smooth", o.Smooth,
		"number of interpolated frames per real frame (smooth mode)")
	fs.Int64Var(&o.MaxFrames, "max-frames", o.MaxFrames,
		"largest number of smoothed frames to produce, 0 for no limit")
	fs.StringVar(&o.Mode, "mode", o.Mode,
		"report to produce ("+strings.Join(validModes, ", ")+")")
	fs.StringVar(&o.Format, "format", o.Format,
		"movie output format ("+strings.Join(validFormats, ", ")+")")
	fs.StringVar(&o.RecordFormat, "record-format", o.RecordFormat,
		"trace record layout ("+strings.Join(validRecords, ", ")+")")
	fs.IntVar(&o.Workers, "workers", o.Workers,
		"number of traces to process in parallel")
	fs.StringVar(&o.Output, "output", o.Output,
		"report output file, stdout by default")
	fs.StringVar(&o.FromReport, "from-report", o.FromReport,
		"read frames from an existing raw movie report instead of traces")
	fs.BoolVar(&o.Stats, "stats", o.Stats,
		"dump ingest metrics in Prometheus text format to stderr")
}

// ApplyArgs takes positional arguments in the form
// CONFIG INPUTDIR [TIMESTEP [SMOOTH]]. A SMOOTH argument implies smooth mode.
func (o *Options) ApplyArgs(args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 1:
		return configError("missing input directory after topology file %q", args[0])
	case 2, 3, 4:
	default:
		return configError("too many arguments: %s", strings.Join(args, " "))
	}

	o.Topology = args[0]
	o.Inputs = append(o.Inputs, args[1])

	if len(args) > 2 {
		us, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return configError("invalid time step %q: %v", args[2], err)
		}
		o.TimeStep = Duration(time.Duration(us) * time.Microsecond)
	}
	if len(args) > 3 {
		smooth, err := strconv.Atoi(args[3])
		if err != nil {
			return configError("invalid smoothing factor %q: %v", args[3], err)
		}
		o.Smooth = smooth
		o.Mode = ModeSmooth
	}

	return nil
}

// Validate checks the options, reporting all problems found.
func (o *Options) Validate() error {
	var result *multierror.Error

	if o.FromReport == "" {
		if o.Topology == "" && !o.TopologyFromSysfs {
			result = multierror.Append(result, configError("no topology file given"))
		}
		if o.Topology != "" && o.TopologyFromSysfs {
			result = multierror.Append(result,
				configError("topology file and sysfs discovery are mutually exclusive"))
		}
		if len(o.Inputs) == 0 {
			result = multierror.Append(result, configError("no trace input given"))
		}
	} else if !o.IsMovie() {
		result = multierror.Append(result,
			configError("mode %q can't be used with a movie report as input", o.Mode))
	}
	if o.TimeStep.Microseconds() < 1 {
		result = multierror.Append(result,
			configError("invalid time step %s, must be at least 1us", o.TimeStep.String()))
	}
	if o.Smooth < 1 {
		result = multierror.Append(result,
			configError("invalid smoothing factor %d, must be at least 1", o.Smooth))
	}
	if o.MaxFrames < 0 {
		result = multierror.Append(result,
			configError("invalid smoothed frame limit %d", o.MaxFrames))
	}
	if o.Workers < 1 {
		result = multierror.Append(result,
			configError("invalid number of workers %d", o.Workers))
	}
	if !oneOf(o.Mode, validModes) {
		result = multierror.Append(result, configError("invalid mode %q", o.Mode))
	}
	if !oneOf(o.Format, validFormats) {
		result = multierror.Append(result, configError("invalid format %q", o.Format))
	}
	if !oneOf(o.RecordFormat, validRecords) {
		result = multierror.Append(result, configError("invalid record format %q", o.RecordFormat))
	}

	return result.ErrorOrNil()
}

// IsMovie returns true if the configured mode produces a movie report.
func (o *Options) IsMovie() bool {
	return o.Mode == ModeRaw || o.Mode == ModeSmooth
}

func oneOf(value string, valid []string) bool {
	for _, v := range valid {
		if value == v {
			return true
		}
	}
	return false
}

// stringList is a repeatable string flag.
type stringList []string

func (l *stringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	*l = append(*l, value)
	return nil
}

// configError returns a formatted configuration-specific error.
func configError(format string, args ...interface{}) error {
	return fmt.Errorf("config error: "+format, args...)
}

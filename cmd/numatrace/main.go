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

package main

import (
	"bytes"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/intel/numatrace/pkg/config"
	"github.com/intel/numatrace/pkg/frames"
	logger "github.com/intel/numatrace/pkg/log"
	"github.com/intel/numatrace/pkg/metrics"
	"github.com/intel/numatrace/pkg/report"
	"github.com/intel/numatrace/pkg/sysfs"
	"github.com/intel/numatrace/pkg/topology"
	"github.com/intel/numatrace/pkg/trace"
)

// Our logger instance.
var log = logger.NewLogger("numatrace")

func main() {
	opts, err := parseOptions(os.Args[1:], os.Stderr)
	if err == flag.ErrHelp {
		os.Exit(0)
	}
	if err != nil {
		log.Error("%v", err)
		logger.Flush()
		os.Exit(2)
	}

	ingest := metrics.NewIngest()
	stop := handleSignals(ingest)
	err = run(opts, ingest, os.Stdout, os.Stderr)
	stop()

	if err != nil {
		log.Error("%v", err)
		logger.Flush()
		os.Exit(1)
	}
	logger.Flush()
}

// run produces the configured report. Nothing is written to the output
// unless all inputs were processed successfully.
func run(opts *config.Options, ingest *metrics.Ingest, stdout, stderr io.Writer) error {
	var (
		emitter report.Emitter
		err     error
	)

	if opts.FromReport != "" {
		emitter, err = replayReport(opts)
	} else {
		emitter, err = aggregate(opts, ingest)
		if opts.Stats {
			if serr := dumpStats(ingest, stderr); serr != nil {
				log.Warn("%v", serr)
			}
		}
	}
	if err != nil {
		return err
	}

	// render in memory first, a failing emitter must not leave a partial report
	buf := &bytes.Buffer{}
	if err := emitter.Emit(buf); err != nil {
		return err
	}

	if opts.Output == "" {
		_, err = buf.WriteTo(stdout)
		return errors.Wrap(err, "failed to write report")
	}
	if err := os.WriteFile(opts.Output, buf.Bytes(), 0644); err != nil {
		return errors.Wrapf(err, "failed to write report %q", opts.Output)
	}
	log.Info("report written to %s", opts.Output)

	return nil
}

// loadTopology reads the topology file or discovers the topology of this machine.
func loadTopology(opts *config.Options) (*topology.Table, error) {
	if opts.TopologyFromSysfs {
		sys, err := sysfs.DiscoverSystem(opts.SysfsRoot)
		if err != nil {
			return nil, err
		}
		topo := sys.Topology()
		log.Info("discovered %d nodes from %s", len(topo.Nodes()), opts.SysfsRoot)
		return topo, nil
	}

	f, err := os.Open(opts.Topology)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open topology file")
	}
	defer f.Close()

	topo, err := topology.Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", opts.Topology)
	}
	return topo, nil
}

// aggregate processes the trace inputs and sets up the configured report.
func aggregate(opts *config.Options, observer frames.Observer) (report.Emitter, error) {
	topo, err := loadTopology(opts)
	if err != nil {
		return nil, err
	}

	format, err := trace.ParseFormat(opts.RecordFormat)
	if err != nil {
		return nil, err
	}

	files, err := trace.Files(opts.Inputs...)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Warn("no trace files found in %v", opts.Inputs)
	}
	sources := make([]frames.Source, 0, len(files))
	for _, path := range files {
		sources = append(sources, frames.FileSource(path))
	}

	a := &frames.Aggregator{
		Topology:   topo,
		Classifier: trace.Classifier{Format: format},
		Options: frames.Options{
			TimeStep:     opts.TimeStep.Microseconds(),
			TrackPages:   opts.Mode == config.ModePages,
			TrackSharing: opts.Mode == config.ModeSharing,
		},
		Workers:  opts.Workers,
		Observer: observer,
	}

	tbl, stats, err := a.Run(sources)
	if err != nil {
		return nil, err
	}
	if stats.Discarded > 0 || stats.Malformed > 0 {
		log.Info("%d accesses with unresolved memory node discarded, %d malformed lines skipped",
			stats.Discarded, stats.Malformed)
	}

	nodes := frames.AllNodes(topo, tbl)
	if opts.IsMovie() {
		if unknown := frames.UnknownNodes(topo, tbl); len(unknown) > 0 {
			log.Warn("traffic of nodes %s missing from the topology left out of the movie",
				strings.Join(unknown, ","))
		}
		nodes = topo.Nodes()
	}

	switch opts.Mode {
	case config.ModeSummary:
		return &report.Summary{Table: tbl, Nodes: nodes}, nil
	case config.ModeInterconnect:
		return &report.Interconnect{Table: tbl, Nodes: nodes}, nil
	case config.ModePages:
		return &report.PageDetail{Table: tbl}, nil
	case config.ModeSharing:
		return &report.Sharing{Table: tbl}, nil
	case config.ModeSmooth:
		it, err := frames.Interpolate(tbl, nodes, opts.Smooth)
		if err != nil {
			return nil, err
		}
		if err := checkFrameCount(opts, it); err != nil {
			return nil, err
		}
		return movie(opts.Format, it, nodes), nil
	}

	return movie(opts.Format, frames.Raw(tbl, nodes), nodes), nil
}

// replayReport reads frames back from a raw movie report.
func replayReport(opts *config.Options) (report.Emitter, error) {
	r, err := trace.Open(opts.FromReport)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	parsed, nodes, err := report.ParseMovie(r)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", opts.FromReport)
	}
	log.Info("read %d frames for %d nodes from %s", len(parsed), len(nodes), opts.FromReport)

	if opts.Mode == config.ModeSmooth {
		it, err := frames.InterpolateSnapshots(frames.NewSnapshots(parsed), nodes, opts.Smooth)
		if err != nil {
			return nil, err
		}
		if err := checkFrameCount(opts, it); err != nil {
			return nil, err
		}
		return movie(opts.Format, it, nodes), nil
	}

	return movie(opts.Format, frames.Slice(parsed), nodes), nil
}

// checkFrameCount refuses to smooth into more frames than configured. Frame
// indices count from time zero, so traces with absolute timestamps need a
// coarse time step.
func checkFrameCount(opts *config.Options, it *frames.Interpolator) error {
	if opts.MaxFrames > 0 && it.Len() > opts.MaxFrames {
		return errors.Errorf("smoothing would produce %d frames, more than the limit of %d "+
			"(use a larger time step or -max-frames)", it.Len(), opts.MaxFrames)
	}
	return nil
}

// movie returns the emitter of movie frames in the given format.
func movie(format string, c frames.Cursor, nodes []string) report.Emitter {
	switch format {
	case config.FormatYAML:
		return &report.YAML{Frames: c, Nodes: nodes}
	case config.FormatPrometheus:
		return &report.Prometheus{Frames: c, Nodes: nodes}
	}
	return &report.Movie{Frames: c, Nodes: nodes}
}

// dumpStats writes the ingest metrics to w.
func dumpStats(ingest *metrics.Ingest, w io.Writer) error {
	if err := ingest.Register(); err != nil {
		return err
	}
	g, err := metrics.NewMetricGatherer()
	if err != nil {
		return err
	}
	return metrics.Dump(w, g)
}

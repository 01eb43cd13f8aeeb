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
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/intel/numatrace/pkg/config"
	logger "github.com/intel/numatrace/pkg/log"
	"github.com/intel/numatrace/pkg/version"
)

const (
	// Flag for specifying a configuration file.
	optionConfigFile = "config"
)

// configFile digs out the configuration file from the command line. The
// file is loaded before parsing the rest of the flags, so that the flags
// given on the command line override the ones in the file.
func configFile(args []string) string {
	for idx, arg := range args {
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if name == optionConfigFile && idx < len(args)-1 {
			return args[idx+1]
		}
		if strings.HasPrefix(name, optionConfigFile+"=") {
			return strings.TrimPrefix(name, optionConfigFile+"=")
		}
	}
	return ""
}

// parseOptions produces the run configuration from the configuration
// file, the command line flags and the positional arguments, in this
// order of precedence.
func parseOptions(args []string, output io.Writer) (*config.Options, error) {
	path := configFile(args)

	opts, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := logger.Configure(opts.Logger); err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("numatrace", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprintf(output, "usage: numatrace [options] [CONFIG INPUTDIR [TIMESTEP [SMOOTH]]]\n\n")
		fs.PrintDefaults()
	}
	fs.String(optionConfigFile, path, "YAML configuration file")
	opts.RegisterFlags(fs)
	logger.RegisterFlags(fs)
	version.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := opts.ApplyArgs(fs.Args()); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	opts.Logger = logger.CurrentOptions()
	log.Debug("running with configuration:\n%s", logger.Delay(opts.String))

	return opts, nil
}

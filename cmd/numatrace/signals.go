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
	"os"
	"os/signal"
	"syscall"

	logger "github.com/intel/numatrace/pkg/log"
	"github.com/intel/numatrace/pkg/metrics"
)

// handleSignals toggles forced debugging on SIGUSR1 and logs ingest
// progress on SIGUSR2. The returned function stops handling signals.
func handleSignals(ingest *metrics.Ingest) func() {
	sigs := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGUSR2)

	go func() {
		state := map[bool]string{false: "off", true: "on"}
		for {
			select {
			case <-done:
				return
			case sig := <-sigs:
				switch sig {
				case syscall.SIGUSR1:
					forced := !logger.DebugForced()
					logger.ForceDebug(forced)
					log.Warn("forced full debugging is now %s...", state[forced])
				case syscall.SIGUSR2:
					logProgress(ingest)
				}
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// logProgress logs the ingest statistics collected so far.
func logProgress(ingest *metrics.Ingest) {
	ok, failed := ingest.Streams()
	totals := ingest.Totals()
	log.Info("%d streams done (%d failed): %d lines, %d ticks, %d accesses, %.0f lines/s per stream",
		ok+failed, failed, totals.Lines, totals.Ticks, totals.Accesses, ingest.Throughput())
}

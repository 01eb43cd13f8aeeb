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
	"strings"

	"k8s.io/klog/v2"
)

const (
	// KlogBackendName is the name of the klog-based logging backend.
	KlogBackendName = "klog"
)

// klogBackend passes our messages to klog.
type klogBackend struct{}

func createKlogBackend() Backend {
	return &klogBackend{}
}

func (*klogBackend) Name() string {
	return KlogBackendName
}

func (k *klogBackend) Log(level Level, source, format string, args ...interface{}) {
	k.emit(level, "["+source+"] ", fmt.Sprintf(format, args...))
}

func (k *klogBackend) Block(level Level, source, prefix, format string, args ...interface{}) {
	k.emit(level, "["+source+"] "+prefix+" ", fmt.Sprintf(format, args...))
}

func (*klogBackend) emit(level Level, prefix, msg string) {
	for _, line := range strings.Split(msg, "\n") {
		switch level {
		case LevelDebug:
			klog.InfoDepth(3, "DEBUG: "+prefix+line)
		case LevelInfo:
			klog.InfoDepth(3, prefix+line)
		case LevelWarn:
			klog.WarningDepth(3, prefix+line)
		default:
			klog.ErrorDepth(3, prefix+line)
		}
	}
}

func (*klogBackend) Sync() {
	klog.Flush()
}

func (*klogBackend) Stop() {
	klog.Flush()
}

func (*klogBackend) SetSourceAlignment(int) {}

func init() {
	RegisterBackend(KlogBackendName, createKlogBackend)
}

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
// Package log provides source-scoped, leveled logging with per-source
// enabling of normal and debug messages.
//
// Each package gets its own Logger with NewLogger(source). Messages go
// to the active Backend, which by default writes tagged lines to stderr.
// Which sources log, and which sources produce debug messages, is
// controlled with source maps like
//
//   -logger-debug on:*,off:reader
//
// which turn on debugging for every source except 'reader'. The same
// settings can be given in the configuration file:
//
//   logger:
//     level: warning
//     debug: frames,trace
//
// As an alternative for '*' you can also use 'all'.
package log

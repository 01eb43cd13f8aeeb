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
package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"

	"github.com/intel/numatrace/pkg/frames"
)

// PageDetail emits per-frame access sums of every page as
// 'frame page reads writes' rows. It needs a table aggregated with
// page tracking enabled.
type PageDetail struct {
	Table *frames.Table
}

// Emit implements Emitter.
func (p *PageDetail) Emit(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "frame\tpage\treads\twrites\n")
	for _, idx := range p.Table.Indices() {
		f := p.Table.Frame(idx)
		pages := make([]string, 0, len(f.Pages))
		for page := range f.Pages {
			pages = append(pages, page)
		}
		sort.Strings(pages)
		for _, page := range pages {
			pc := f.Pages[page]
			fmt.Fprintf(bw, "%d\t%s\t%d\t%d\n", idx, page, pc.Reads, pc.Writes)
		}
	}

	return flush(bw)
}

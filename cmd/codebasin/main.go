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

// Command codebasin runs the Analysis Orchestrator over an analysis TOML
// file and renders the requested reports: a per-platform summary, a
// per-file breakdown, duplicate-content groups, and a divergence dendrogram.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/codebase-investigator/cbi/internal/analysis"
	"github.com/codebase-investigator/cbi/internal/cliutil"
	"github.com/codebase-investigator/cbi/internal/report"
)

func main() {
	fs := flag.NewFlagSet("codebasin", flag.ExitOnError)
	verbose, quiet := cliutil.Verbosity(fs)
	var reportKinds cliutil.RepeatedFlag
	fs.Var(&reportKinds, "R", "report to render: summary, files, duplicates, clustering, all (repeatable, default all)")
	var excludes cliutil.RepeatedFlag
	fs.Var(&excludes, "x", "additional exclude glob pattern (repeatable)")
	var platforms cliutil.RepeatedFlag
	fs.Var(&platforms, "p", "platform to include (repeatable, default all)")
	fs.Parse(os.Args[1:])
	cliutil.ApplyVerbosity(verbose, quiet)

	if fs.NArg() != 1 {
		fs.Usage()
		log.Fatalf("codebasin requires exactly one argument: the path to an analysis.toml file")
	}
	analysisPath := fs.Arg(0)

	kinds := []string(reportKinds)
	if len(kinds) == 0 {
		kinds = []string{"all"}
	}

	result, err := analysis.Run(analysis.Options{
		AnalysisPath: analysisPath,
		Platforms:    []string(platforms),
		ExtraExclude: []string(excludes),
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	for name, perr := range result.PlatformErrs {
		log.Printf("warning: platform %q failed: %v", name, perr)
	}
	for _, d := range result.Diags.All() {
		log.Printf("%v", d)
	}

	want := func(kind string) bool {
		for _, k := range kinds {
			if k == "all" || k == kind {
				return true
			}
		}
		return false
	}

	if want("summary") {
		totals := report.Summary(result.SetMap, result.Platforms)
		if err := report.WriteSummary(os.Stdout, totals); err != nil {
			log.Fatalf("failed to render summary report: %v", err)
		}
	}
	if want("files") {
		rows := report.Files(result.SetMap, result.Platforms)
		if err := report.WriteFiles(os.Stdout, rows, result.Platforms); err != nil {
			log.Fatalf("failed to render files report: %v", err)
		}
	}
	if want("duplicates") {
		groups, err := report.Duplicates(result.SetMap, result.Platforms)
		if err != nil {
			log.Fatalf("failed to compute duplicates: %v", err)
		}
		for _, g := range groups {
			fmt.Printf("%s: %s\n", g.Platform, strings.Join(g.Files, ", "))
		}
	}
	if want("clustering") {
		d := report.DivergenceMatrix(result.SetMap, result.Platforms)
		merges := report.Cluster(d)
		for _, m := range merges {
			fmt.Printf("merge %v + %v at %.4f\n", m.A, m.B, m.Height)
		}
		basename := strings.TrimSuffix(filepath.Base(analysisPath), filepath.Ext(analysisPath))
		outPath := report.DendrogramFilename(basename, result.Platforms)
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatalf("failed to create dendrogram file %s: %v", outPath, err)
		}
		defer f.Close()
		if err := report.WriteDendrogramPNG(f, result.Platforms, merges); err != nil {
			log.Fatalf("failed to render dendrogram: %v", err)
		}
		fmt.Printf("wrote %s\n", outPath)
	}
}

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

// Command cbi-cov computes per-line preprocessor coverage for a single
// compilation database, without requiring a full analysis TOML file
// (SUPPLEMENTED FEATURE #1).
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/codebase-investigator/cbi/internal/analysis"
	"github.com/codebase-investigator/cbi/internal/cliutil"
)

// fileCoverage is one file's per-line liveness in the compute subcommand's
// output: Live is the sorted set of physical line numbers the preprocessor
// kept under the compdb's single implicit platform.
type fileCoverage struct {
	File string `json:"file"`
	Live []int  `json:"live"`
}

func main() {
	if len(os.Args) < 2 || os.Args[1] != "compute" {
		log.Fatalf("cbi-cov requires a subcommand: compute")
	}

	fs := flag.NewFlagSet("cbi-cov compute", flag.ExitOnError)
	sourceRoot := fs.String("S", "", "source root that exclude patterns and the default .cbi/config are relative to (default: the compilation database's directory)")
	out := fs.String("o", "", "output path for the coverage JSON (default stdout)")
	var excludes cliutil.RepeatedFlag
	fs.Var(&excludes, "x", "additional exclude glob pattern (repeatable)")
	fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		fs.Usage()
		log.Fatalf("cbi-cov compute requires exactly one argument: the path to a compdb.json file")
	}
	compdbPath := fs.Arg(0)

	result, err := analysis.RunCompdb(analysis.CompdbOptions{
		CompdbPath:   compdbPath,
		SourceRoot:   *sourceRoot,
		ExtraExclude: []string(excludes),
	})
	if err != nil {
		log.Fatalf("%v", err)
	}
	for name, perr := range result.PlatformErrs {
		log.Printf("warning: %q failed: %v", name, perr)
	}
	for _, d := range result.Diags.All() {
		log.Printf("%v", d)
	}

	coverage := make([]fileCoverage, 0, len(result.SetMap.Files()))
	for _, f := range result.SetMap.Files() {
		coverage = append(coverage, fileCoverage{File: f, Live: result.SetMap.Lines(f)})
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("failed to create output file %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(coverage); err != nil {
		log.Fatalf("failed to write coverage JSON: %v", err)
	}
}

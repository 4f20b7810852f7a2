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

// Command cbi-tree renders the analyzed codebase as a directory tree
// annotated with liveness, optionally pruning subtrees that are dead under
// every configured platform (SUPPLEMENTED FEATURE #3).
package main

import (
	"flag"
	"log"
	"os"

	"github.com/codebase-investigator/cbi/internal/analysis"
	"github.com/codebase-investigator/cbi/internal/cliutil"
	"github.com/codebase-investigator/cbi/internal/report"
)

func main() {
	fs := flag.NewFlagSet("cbi-tree", flag.ExitOnError)
	var excludes cliutil.RepeatedFlag
	fs.Var(&excludes, "x", "additional exclude glob pattern (repeatable)")
	var platforms cliutil.RepeatedFlag
	fs.Var(&platforms, "p", "platform to include (repeatable, default all)")
	prune := fs.Bool("prune", false, "drop subtrees that are dead under every selected platform")
	maxDepth := fs.Int("L", 0, "maximum tree depth to render (0 means unlimited)")
	fs.Parse(os.Args[1:])

	if fs.NArg() != 1 {
		fs.Usage()
		log.Fatalf("cbi-tree requires exactly one argument: the path to an analysis.toml file")
	}
	analysisPath := fs.Arg(0)

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

	tree := report.BuildTree(result.SetMap, result.Config.Root)
	if *prune {
		report.Prune(tree)
	}
	report.WriteTree(os.Stdout, tree, *maxDepth)
}

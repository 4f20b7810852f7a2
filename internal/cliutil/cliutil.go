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

// Package cliutil holds the tiny set of flag-parsing helpers shared by
// cbi's three CLI entry points, mirroring the teacher's small per-command
// flag.FlagSet style (index/conan/main.go, index/bzlmod/main.go) rather
// than introducing a cobra/urfave dependency the teacher never reaches
// for.
package cliutil

import (
	"flag"

	"github.com/codebase-investigator/cbi/internal/logging"
)

// RepeatedFlag accumulates every occurrence of a repeatable flag such as
// "-x PATTERN" or "-p PLATFORM" into a slice, in the order given.
type RepeatedFlag []string

func (r *RepeatedFlag) String() string {
	if r == nil {
		return ""
	}
	return ""
}

func (r *RepeatedFlag) Set(value string) error {
	*r = append(*r, value)
	return nil
}

// Verbosity registers the boolean "-v"/"-q" flags on fs and returns
// pointers to their values; pass them to ApplyVerbosity once fs has been
// parsed. Repeating either flag has no further effect.
func Verbosity(fs *flag.FlagSet) (verbose, quiet *bool) {
	verbose = fs.Bool("v", false, "enable verbose logging")
	quiet = fs.Bool("q", false, "suppress informational logging")
	return verbose, quiet
}

// ApplyVerbosity sets internal/logging's level from the parsed -v/-q
// flags. -v wins over -q if both are given, since asking for more detail
// is the more specific request.
func ApplyVerbosity(verbose, quiet *bool) {
	switch {
	case *verbose:
		logging.SetLevel(logging.LevelVerbose)
	case *quiet:
		logging.SetLevel(logging.LevelQuiet)
	default:
		logging.SetLevel(logging.LevelNormal)
	}
}

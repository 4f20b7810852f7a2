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

// Package logging is a thin verbosity filter over the standard log package,
// matching the teacher's preference for log.Printf/log.Fatalf over a
// dedicated logging framework. The CLI flags -v (increase) and -q
// (decrease) adjust a package-level level that gates Infof/Debugf.
package logging

import "log"

type Level int

const (
	LevelQuiet Level = iota - 1
	LevelNormal
	LevelVerbose
)

var current = LevelNormal

// SetLevel sets the process-wide verbosity level.
func SetLevel(l Level) { current = l }

func CurrentLevel() Level { return current }

// Warnf always logs: warnings are surfaced regardless of verbosity.
func Warnf(format string, args ...any) {
	log.Printf("warning: "+format, args...)
}

// Infof logs at normal verbosity and above.
func Infof(format string, args ...any) {
	if current >= LevelNormal {
		log.Printf(format, args...)
	}
}

// Debugf logs only when -v was given.
func Debugf(format string, args ...any) {
	if current >= LevelVerbose {
		log.Printf(format, args...)
	}
}

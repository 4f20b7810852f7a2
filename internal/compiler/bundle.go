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

package compiler

import (
	"sort"
	"strings"
)

// TranslationUnit is everything the specialization tree builder needs to
// process one source file the way a specific compiler invocation would:
// the file itself, its predefined macros (in -D order, modes and passes
// appended after), and its include search path / forced includes.
type TranslationUnit struct {
	File         string
	Predefines   []string
	IncludePaths []string
	IncludeFiles []string
}

type parseState struct {
	file         string
	predefines   []string
	includePaths []string
	includeFiles []string
	modes        map[string]bool
	scalars      map[string]string
}

// ParseCommandLine parses argv (argv[0] is the compiler path/name itself
// and is ignored beyond identifying which Config applies) against cfg,
// producing a TranslationUnit for the first non-flag argument found, which
// is taken to be the source file. Unrecognized flags are silently ignored,
// matching the spec's "best-effort" emulation of an arbitrary compiler's
// flag surface rather than a hard failure on anything unexpected.
func ParseCommandLine(cfg *Config, argv []string) TranslationUnit {
	st := &parseState{modes: make(map[string]bool), scalars: make(map[string]string)}

	for i := 1; i < len(argv); i++ {
		arg := argv[i]
		if !strings.HasPrefix(arg, "-") {
			if st.file == "" {
				st.file = arg
			}
			continue
		}
		applyRule(st, cfg, arg)
	}

	predefines := append([]string{}, st.predefines...)
	includePaths := append([]string{}, st.includePaths...)
	includeFiles := append([]string{}, st.includeFiles...)

	for _, name := range sortedActiveModes(st.modes) {
		mode, ok := cfg.Modes[name]
		if !ok {
			continue
		}
		predefines = append(predefines, mode.Defines...)
		includePaths = append(includePaths, mode.IncludePaths...)
		includeFiles = append(includeFiles, mode.IncludeFiles...)
	}

	for _, name := range sortedPassNames(cfg.Passes) {
		pass := cfg.Passes[name]
		if allModesActive(st.modes, pass.RequiresModes) {
			predefines = append(predefines, pass.Defines...)
		}
	}

	return TranslationUnit{
		File:         st.file,
		Predefines:   predefines,
		IncludePaths: includePaths,
		IncludeFiles: includeFiles,
	}
}

func sortedActiveModes(modes map[string]bool) []string {
	var names []string
	for name, active := range modes {
		if active {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func sortedPassNames(passes map[string]Pass) []string {
	names := make([]string, 0, len(passes))
	for name := range passes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func allModesActive(modes map[string]bool, required []string) bool {
	for _, m := range required {
		if !modes[m] {
			return false
		}
	}
	return true
}

func applyRule(st *parseState, cfg *Config, arg string) {
	for _, rule := range cfg.Parser {
		value, matched := matchRule(rule, arg)
		if !matched {
			continue
		}
		applyAction(st, rule, value)
		return
	}
}

// matchRule reports whether arg matches rule.Pattern, and the captured
// value: empty for an exact match, or the text following the prefix for a
// prefix-style rule (e.g. "-D" matching "-DFOO=3" captures "FOO=3").
func matchRule(rule Rule, arg string) (string, bool) {
	if arg == rule.Pattern {
		return "", true
	}
	if strings.HasPrefix(arg, rule.Pattern) && len(rule.Pattern) > 0 {
		return arg[len(rule.Pattern):], true
	}
	return "", false
}

func applyAction(st *parseState, rule Rule, value string) {
	switch rule.Action {
	case ActionStoreConst:
		setScalar(st, rule.Dest, rule.Const, rule.Override)
	case ActionAppendConst:
		appendDest(st, rule.Dest, rule.Const)
	case ActionStore:
		setScalar(st, rule.Dest, value, rule.Override)
	case ActionAppend:
		appendDest(st, rule.Dest, value)
	case ActionStoreSplit:
		sep := rule.Split
		if sep == "" {
			sep = ","
		}
		for _, part := range strings.Split(value, sep) {
			if part != "" {
				appendDest(st, rule.Dest, part)
			}
		}
	case ActionStoreTrue:
		st.modes[rule.Dest] = true
	case ActionStoreFalse:
		st.modes[rule.Dest] = false
	}
}

func setScalar(st *parseState, dest, value string, override bool) {
	if _, ok := st.scalars[dest]; ok && !override {
		return
	}
	st.scalars[dest] = value
	appendDestReplace(st, dest, value)
}

func appendDestReplace(st *parseState, dest, value string) {
	switch dest {
	case "defines":
		st.predefines = []string{value}
	case "include_paths":
		st.includePaths = []string{value}
	case "include_files":
		st.includeFiles = []string{value}
	}
}

func appendDest(st *parseState, dest, value string) {
	switch dest {
	case "defines":
		st.predefines = append(st.predefines, value)
	case "include_paths":
		st.includePaths = append(st.includePaths, value)
	case "include_files":
		st.includeFiles = append(st.includeFiles, value)
	}
}

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

// Package compiler models CBI's compiler emulation layer: a TOML-described
// set of command-line parsing rules, modes, and passes per known compiler,
// loaded from a ".cbi/config" registry directory layered additively over a
// shipped default registry (gcc, g++, cc, clang, clang++, c++) embedded
// into the binary. Parsing a real invocation's argv against a compiler's
// Config produces a TranslationUnit bundle of predefines, include paths,
// and forced include files -- the inputs the specialization tree builder
// needs and nothing else; CBI never actually invokes the compiler.
package compiler

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/codebase-investigator/cbi/internal/cberrors"
)

//go:embed defaults/*.toml
var defaultConfigs embed.FS

// Action is a closed tagged variant of the ways a matched flag can mutate
// parser state, modeled directly on the teacher's gazelle-cc flag-parsing
// rules but generalized from "build a Bazel attribute" to "build a
// TranslationUnit".
type Action string

const (
	ActionStoreConst  Action = "store_const"
	ActionAppendConst Action = "append_const"
	ActionStore       Action = "store"
	ActionAppend      Action = "append"
	ActionStoreSplit  Action = "store_split"
	ActionStoreTrue   Action = "store_true"
	ActionStoreFalse  Action = "store_false"
)

// Rule matches one command-line flag shape. Pattern is either an exact
// flag ("-fopenmp") or a prefix ("-D", "-I") whose remainder becomes the
// captured value for store/append/store_split actions.
type Rule struct {
	Pattern string `toml:"pattern"`
	Action  Action `toml:"action"`
	Dest    string `toml:"dest"`
	Const   string `toml:"const,omitempty"`
	Split   string `toml:"split,omitempty"`
	// Override, when true, lets a later matching rule's store/store_const
	// replace an already-set scalar destination rather than the default of
	// first-match-wins; irrelevant to append-style actions.
	Override bool `toml:"override,omitempty"`
}

// Mode bundles the predefines/search paths contributed whenever its flag
// is active, e.g. the "openmp" mode always defines _OPENMP.
type Mode struct {
	Defines      []string `toml:"defines"`
	IncludePaths []string `toml:"include_paths"`
	IncludeFiles []string `toml:"include_files"`
}

// Pass contributes additional predefines once every mode it requires is
// active -- modeling a compiler's internal passes (e.g. device-code
// compilation only runs, and only then defines __CUDACC__, once both
// "cuda" and "device" modes are on).
type Pass struct {
	RequiresModes []string `toml:"requires_modes"`
	Defines       []string `toml:"defines"`
}

// Config is one compiler's full emulation description.
type Config struct {
	// AliasOf names another compiler whose Config this one defers to
	// entirely, e.g. "c++" aliasing "gcc". Mutually exclusive with Parser.
	AliasOf string          `toml:"alias_of,omitempty"`
	Parser  []Rule          `toml:"parser"`
	Modes   map[string]Mode `toml:"modes"`
	Passes  map[string]Pass `toml:"passes"`
}

// Registry is the set of known compiler configs, keyed by compiler name
// (the file's base name without extension, e.g. "gcc", "clang", "ifx").
type Registry struct {
	configs map[string]*Config
}

// defaultRegistry returns the shipped built-in compiler configs (§4.5:
// "shipped defaults plus user overrides via .cbi/config"), embedded into
// the binary so an analysis works against common compilers even when a
// codebase carries no .cbi/config directory at all.
func defaultRegistry() (*Registry, error) {
	reg := &Registry{configs: make(map[string]*Config)}
	if err := loadConfigsFS(defaultConfigs, "defaults", reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// LoadRegistry builds the effective compiler registry: the shipped
// defaults, with every *.toml file in dir layered additively on top (a
// user config with the same base name replaces the shipped one; any other
// name is simply added). A missing dir is not an error -- it just means
// the shipped defaults are used unmodified, per §4.5.
func LoadRegistry(dir string) (*Registry, error) {
	reg, err := defaultRegistry()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return reg, nil
		}
		return nil, cberrors.NewConfigError("failed to read compiler config directory "+dir, err)
	}
	if err := loadConfigsFS(os.DirFS(dir), ".", reg); err != nil {
		return nil, err
	}
	return reg, nil
}

// loadConfigsFS reads every *.toml file directly under root in fsys,
// unmarshals it as a Config, and stores it in reg keyed by its base name.
func loadConfigsFS(fsys fs.FS, root string, reg *Registry) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return cberrors.NewConfigError("failed to read compiler config directory", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}
		path := entry.Name()
		if root != "." {
			path = root + "/" + entry.Name()
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return cberrors.NewConfigError("failed to read compiler config "+path, err)
		}
		var cfg Config
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cberrors.NewConfigError("failed to parse compiler config "+path, err)
		}
		name := strings.TrimSuffix(entry.Name(), ".toml")
		reg.configs[name] = &cfg
	}
	return nil
}

// Resolve follows AliasOf chains to the effective Config for name,
// detecting cycles.
func (r *Registry) Resolve(name string) (*Config, error) {
	seen := make(map[string]bool)
	cur := name
	for {
		cfg, ok := r.configs[cur]
		if !ok {
			return nil, cberrors.NewConfigError(fmt.Sprintf("unknown compiler %q", cur), nil)
		}
		if cfg.AliasOf == "" {
			return cfg, nil
		}
		if seen[cur] {
			return nil, cberrors.NewConfigError(fmt.Sprintf("alias_of cycle detected starting at %q", name), nil)
		}
		seen[cur] = true
		cur = cfg.AliasOf
	}
}

// Names returns the registry's compiler names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.configs))
	for n := range r.configs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

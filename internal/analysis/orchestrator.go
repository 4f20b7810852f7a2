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

package analysis

import (
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codebase-investigator/cbi/internal/cberrors"
	"github.com/codebase-investigator/cbi/internal/compiler"
	"github.com/codebase-investigator/cbi/internal/macro"
	"github.com/codebase-investigator/cbi/internal/platform"
	"github.com/codebase-investigator/cbi/internal/tree"
)

// Options configures one Run of the orchestrator.
type Options struct {
	AnalysisPath      string
	Platforms         []string // empty means every platform in the analysis file
	ExtraExclude      []string // from the CLI's repeated -x flag
	CompilerConfigDir string   // defaults to "<analysis root>/.cbi/config"
}

// Result is everything a report collaborator needs: the merged setmap, the
// diagnostics accumulated across every platform walk, and per-platform
// fatal errors that only aborted that one platform (§7: CompdbError is
// "fatal for that platform", not the whole run).
type Result struct {
	Config       *Config
	Platforms    []string
	SetMap       *platform.SetMap
	Diags        *cberrors.Diagnostics
	PlatformErrs map[string]error
}

// Run loads the analysis file named by opts.AnalysisPath and walks every
// selected platform's translation units, using one errgroup goroutine per
// platform -- platforms are "the natural parallel units" (§5) and mapping
// across them is embarrassingly parallel, while within a platform each
// translation unit's walk is independent of every other's.
func Run(opts Options) (*Result, error) {
	cfg, err := Load(opts.AnalysisPath)
	if err != nil {
		return nil, err
	}
	names, err := cfg.SelectPlatforms(opts.Platforms)
	if err != nil {
		return nil, err
	}
	return runConfig(cfg, names, opts.ExtraExclude, opts.CompilerConfigDir)
}

// CompdbOptions configures a single-compilation-database run of the
// orchestrator for `cbi-cov compute`, which has no analysis TOML and
// therefore no named platforms -- it maps one compdb.json in isolation
// under a single synthetic platform named "compdb".
type CompdbOptions struct {
	CompdbPath        string
	SourceRoot        string // root for exclude patterns and the default .cbi/config (defaults to the compdb's directory); relative `file` entries still resolve against their own `directory`
	ExtraExclude      []string
	CompilerConfigDir string
}

const compdbPlatformName = "compdb"

// RunCompdb drives the orchestrator over a single compdb.json outside of
// any analysis TOML, per SUPPLEMENTED FEATURE #1: `cbi-cov compute` needs
// the same path-resolution and walk behavior `codebasin` gets from
// internal/analysis, without requiring a full analysis file.
func RunCompdb(opts CompdbOptions) (*Result, error) {
	root := opts.SourceRoot
	if root == "" {
		root = filepath.Dir(opts.CompdbPath)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, cberrors.NewIoError("failed to resolve source root "+root, err)
	}
	compdbAbs, err := filepath.Abs(opts.CompdbPath)
	if err != nil {
		return nil, cberrors.NewIoError("failed to resolve compilation database path "+opts.CompdbPath, err)
	}
	cfg := &Config{
		Platform: map[string]PlatformConfig{
			compdbPlatformName: {Commands: compdbAbs},
		},
		Root: abs,
	}
	cfg.Codebase.Exclude = nil
	return runConfig(cfg, []string{compdbPlatformName}, opts.ExtraExclude, opts.CompilerConfigDir)
}

// runConfig is the shared body of Run and RunCompdb: resolve the compiler
// registry, build the excluder, and fan the requested platforms out across
// one errgroup goroutine each.
func runConfig(cfg *Config, names []string, extraExclude []string, compilerConfigDir string) (*Result, error) {
	compilerDir := compilerConfigDir
	if compilerDir == "" {
		compilerDir = filepath.Join(cfg.Root, ".cbi", "config")
	}
	// A missing compilerDir is not an error: LoadRegistry falls back to its
	// shipped default registry (gcc/clang and common aliases), per §4.5.
	registry, err := compiler.LoadRegistry(compilerDir)
	if err != nil {
		return nil, err
	}

	excl := NewExcluder(cfg.Root, append(append([]string{}, cfg.Codebase.Exclude...), extraExclude...))

	diags := &cberrors.Diagnostics{}
	setmap := platform.NewSetMap()
	builder := tree.NewBuilder(nil, diags)

	var g errgroup.Group
	errs := make(map[string]error)
	var errsMu sync.Mutex

	for _, name := range names {
		name := name
		g.Go(func() error {
			perr := walkPlatform(cfg, name, registry, excl, builder, diags, setmap)
			if perr != nil {
				errsMu.Lock()
				errs[name] = perr
				errsMu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return a non-nil error; failures are per-platform

	return &Result{Config: cfg, Platforms: names, SetMap: setmap, Diags: diags, PlatformErrs: errs}, nil
}

// walkPlatform resolves one platform's compilation database into
// translation units and maps each through the Platform Mapper. Any
// CompdbError aborts only this platform, per §7, and is returned to the
// caller rather than propagated through the errgroup (which would cancel
// sibling platforms still in flight).
func walkPlatform(cfg *Config, name string, registry *compiler.Registry, excl *Excluder, builder *tree.Builder, diags *cberrors.Diagnostics, setmap *platform.SetMap) error {
	pcfg := cfg.Platform[name]
	entries, err := LoadCompdb(cfg.CommandsPath(name))
	if err != nil {
		return err
	}

	var base []string
	if pcfg.OS != "" || pcfg.Arch != "" {
		base = platform.KnownMacros(pcfg.OS, pcfg.Arch)
	}

	for _, e := range entries {
		resolved := e.ResolvedFile()
		if excl.Excluded(resolved) {
			continue
		}

		compilerName := compilerNameFromArgv0(e.Argv())
		ccfg, err := registry.Resolve(compilerName)
		if err != nil {
			diags.Add(cberrors.CompdbError, resolved, 0, "unknown compiler %q for platform %q: %v", compilerName, name, err)
			continue
		}
		tu := compiler.ParseCommandLine(ccfg, e.Argv())
		if tu.File == "" {
			continue
		}
		file := tu.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(e.Directory, file)
		}

		node, err := builder.Build(file, tu.IncludePaths)
		if err != nil {
			diags.Add(cberrors.IoError, file, 0, "%v", err)
			continue
		}
		if node == nil {
			continue
		}

		macros := macro.NewTable()
		for _, d := range base {
			macros.DefineObject(d, nil)
		}
		for _, d := range tu.Predefines {
			def, err := macro.ParseDefinitionArgs(d)
			if err != nil {
				diags.Add(cberrors.MacroWarning, file, 0, "invalid predefine %q: %v", d, err)
				continue
			}
			macros.Define(def)
		}

		mapper := platform.NewMapper(builder, tu.IncludePaths, diags)
		if err := mapper.Walk(node, macros, name, setmap); err != nil {
			return err
		}
	}
	return nil
}

// compilerNameFromArgv0 derives the registry lookup key from a compiler
// invocation's argv[0], the same "basename of argv[0]" rule §4.5 names.
func compilerNameFromArgv0(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	name := filepath.Base(argv[0])
	return strings.TrimSuffix(name, ".exe")
}

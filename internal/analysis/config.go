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

// Package analysis implements the Analysis Orchestrator (spec §4.8): it
// loads an analysis TOML file, resolves each named platform's compilation
// database into TranslationUnits, and fans the Platform Mapper out across
// platforms to produce one shared setmap.
package analysis

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/codebase-investigator/cbi/internal/cberrors"
)

// PlatformConfig is one [platform.NAME] table: the path to a compilation
// database, relative to the analysis file's own directory unless absolute.
// OS/Arch are an optional supplement beyond spec.md's bare `commands` field:
// when given, they seed the platform's initial macro table with that
// target's implicit compiler-predefined macros (internal/platform's
// KnownMacros) before layering each translation unit's own -D predefines
// on top, the way a real toolchain's builtin macros precede command-line
// ones.
type PlatformConfig struct {
	Commands string `toml:"commands"`
	OS       string `toml:"os,omitempty"`
	Arch     string `toml:"arch,omitempty"`
}

// Config is the decoded analysis TOML file.
type Config struct {
	Codebase struct {
		Exclude []string `toml:"exclude"`
	} `toml:"codebase"`
	Platform map[string]PlatformConfig `toml:"platform"`

	// Root is the directory containing the analysis file, against which
	// relative `commands` paths and `exclude` patterns are both resolved.
	Root string `toml:"-"`
}

// Load reads and parses the analysis TOML file at path. Per §6/§7, a
// non-".toml" path or any schema/parse failure is a fatal ConfigError.
func Load(path string) (*Config, error) {
	if strings.ToLower(filepath.Ext(path)) != ".toml" {
		return nil, cberrors.NewConfigError("analysis file must have a .toml extension: "+path, nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cberrors.NewIoError("failed to read analysis file "+path, err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, cberrors.NewConfigError("failed to parse analysis file "+path, err)
	}
	if len(cfg.Platform) == 0 {
		return nil, cberrors.NewConfigError("analysis file "+path+" declares no [platform.NAME] tables", nil)
	}
	for name, p := range cfg.Platform {
		if strings.TrimSpace(p.Commands) == "" {
			return nil, cberrors.NewConfigError("platform "+name+" is missing a commands path", nil)
		}
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, cberrors.NewIoError("failed to resolve analysis file path "+path, err)
	}
	cfg.Root = filepath.Dir(abs)
	return &cfg, nil
}

// PlatformNames returns the configured platform names in sorted order.
func (c *Config) PlatformNames() []string {
	names := make([]string, 0, len(c.Platform))
	for n := range c.Platform {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CommandsPath resolves a platform's `commands` entry against the analysis
// file's directory.
func (c *Config) CommandsPath(platform string) string {
	p := c.Platform[platform].Commands
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// SelectPlatforms filters names to the requested subset, in the order
// requested names appear, failing with ConfigError if any requested
// platform is not present -- the CLI's "-p" flag behavior per §6.
func (c *Config) SelectPlatforms(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return c.PlatformNames(), nil
	}
	for _, name := range requested {
		if _, ok := c.Platform[name]; !ok {
			return nil, cberrors.NewConfigError("requested platform "+name+" is not present in the analysis file", nil)
		}
	}
	out := make([]string, len(requested))
	copy(out, requested)
	return out, nil
}

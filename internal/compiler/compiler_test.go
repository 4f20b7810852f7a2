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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".toml"), []byte(content), 0o644))
}

const gccConfig = `
[[parser]]
pattern = "-fopenmp"
action = "store_true"
dest = "openmp"

[[parser]]
pattern = "-D"
action = "append"
dest = "defines"

[[parser]]
pattern = "-I"
action = "append"
dest = "include_paths"

[[parser]]
pattern = "-include"
action = "append"
dest = "include_files"

[modes.openmp]
defines = ["_OPENMP"]
`

func TestParseCommandLine_OpenMPDefineInclude(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "gcc", gccConfig)
	reg, err := LoadRegistry(dir)
	require.NoError(t, err)

	cfg, err := reg.Resolve("gcc")
	require.NoError(t, err)

	argv := SplitCommandLine("/usr/bin/c++ -fopenmp -DFOO=3 -I./inc -c f.cpp")
	tu := ParseCommandLine(cfg, argv)

	assert.Equal(t, "f.cpp", tu.File)
	assert.Equal(t, []string{"FOO=3", "_OPENMP"}, tu.Predefines)
	assert.Equal(t, []string{"./inc"}, tu.IncludePaths)
}

func TestParseCommandLine_UnrecognizedFlagIgnored(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "gcc", gccConfig)
	reg, err := LoadRegistry(dir)
	require.NoError(t, err)
	cfg, err := reg.Resolve("gcc")
	require.NoError(t, err)

	tu := ParseCommandLine(cfg, SplitCommandLine("gcc -Wall -O2 -std=c++17 f.cpp"))
	assert.Equal(t, "f.cpp", tu.File)
	assert.Empty(t, tu.Predefines)
}

func TestResolve_AliasChain(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "gcc", gccConfig)
	writeConfig(t, dir, "c++", `alias_of = "gcc"`)
	reg, err := LoadRegistry(dir)
	require.NoError(t, err)

	cfg, err := reg.Resolve("c++")
	require.NoError(t, err)
	assert.Len(t, cfg.Parser, 4)
}

func TestResolve_AliasCycleIsConfigError(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "a", `alias_of = "b"`)
	writeConfig(t, dir, "b", `alias_of = "a"`)
	reg, err := LoadRegistry(dir)
	require.NoError(t, err)

	_, err = reg.Resolve("a")
	assert.Error(t, err)
}

func TestResolve_UnknownCompiler(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "gcc", gccConfig)
	reg, err := LoadRegistry(dir)
	require.NoError(t, err)

	_, err = reg.Resolve("nonexistent")
	assert.Error(t, err)
}

func TestLoadRegistry_FallsBackToShippedDefaultsWhenDirMissing(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join(t.TempDir(), "nonexistent"))
	require.NoError(t, err)

	cfg, err := reg.Resolve("gcc")
	require.NoError(t, err)

	tu := ParseCommandLine(cfg, SplitCommandLine("gcc -fopenmp -DFOO=1 -Iinc -c f.c"))
	assert.Equal(t, "f.c", tu.File)
	assert.Contains(t, tu.Predefines, "FOO=1")
	assert.Contains(t, tu.Predefines, "_OPENMP")
	assert.Equal(t, []string{"inc"}, tu.IncludePaths)
}

func TestLoadRegistry_ShippedAliasesResolveToGccAndClang(t *testing.T) {
	reg, err := LoadRegistry(filepath.Join(t.TempDir(), "nonexistent"))
	require.NoError(t, err)

	for _, name := range []string{"gcc", "g++", "cc", "c++", "clang", "clang++"} {
		_, err := reg.Resolve(name)
		assert.NoErrorf(t, err, "expected shipped default for %q", name)
	}
}

func TestLoadRegistry_UserConfigOverridesShippedDefaultAdditively(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "gcc", `
[[parser]]
pattern = "-DCUSTOM"
action = "store_true"
dest = "custom"
`)
	reg, err := LoadRegistry(dir)
	require.NoError(t, err)

	cfg, err := reg.Resolve("gcc")
	require.NoError(t, err)
	assert.Len(t, cfg.Parser, 1, "user gcc.toml should fully replace the shipped gcc config by name")

	// Other shipped defaults are untouched.
	_, err = reg.Resolve("clang")
	assert.NoError(t, err)
}

func TestSplitCommandLine_Quoting(t *testing.T) {
	argv := SplitCommandLine(`gcc -DMSG="hello world" -c f.c`)
	assert.Equal(t, []string{"gcc", `-DMSG=hello world`, "-c", "f.c"}, argv)
}

func TestParseCommandLine_PassGatedOnModes(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "nvcc", `
[[parser]]
pattern = "-cuda"
action = "store_true"
dest = "cuda"

[[parser]]
pattern = "--device-c"
action = "store_true"
dest = "device"

[passes.device-compile]
requires_modes = ["cuda", "device"]
defines = ["__CUDACC__"]
`)
	reg, err := LoadRegistry(dir)
	require.NoError(t, err)
	cfg, err := reg.Resolve("nvcc")
	require.NoError(t, err)

	tu := ParseCommandLine(cfg, SplitCommandLine("nvcc -cuda --device-c k.cu"))
	assert.Contains(t, tu.Predefines, "__CUDACC__")

	tu2 := ParseCommandLine(cfg, SplitCommandLine("nvcc -cuda k.cu"))
	assert.NotContains(t, tu2.Predefines, "__CUDACC__")
}

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

package platform

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebase-investigator/cbi/internal/cberrors"
	"github.com/codebase-investigator/cbi/internal/macro"
	"github.com/codebase-investigator/cbi/internal/tree"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func seeded(defines ...string) *macro.Table {
	t := macro.NewTable()
	for _, d := range defines {
		t.DefineObject(d, nil)
	}
	return t
}

// Mirrors the spec's GPU/CPU Fortran scenario: the same #ifdef chooses
// different live code for different platforms.
func TestWalk_GPUCPUBranchSelection(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "kernel.F90", `program kernel
#ifdef _OPENACC
  call gpu_path()
#else
  call cpu_path()
#endif
end program
`)
	b := tree.NewBuilder(nil, nil)
	node, err := b.Build(path, nil)
	require.NoError(t, err)

	out := NewSetMap()
	m := NewMapper(b, nil, nil)

	require.NoError(t, m.Walk(node, seeded(), "cpu", out))
	require.NoError(t, m.Walk(node, seeded("_OPENACC"), "gpu", out))

	assert.Contains(t, out.Platforms(path, 3), "gpu")
	assert.NotContains(t, out.Platforms(path, 3), "cpu")
	assert.Contains(t, out.Platforms(path, 5), "cpu")
	assert.NotContains(t, out.Platforms(path, 5), "gpu")
	// Code outside any conditional is live everywhere.
	assert.ElementsMatch(t, []string{"cpu", "gpu"}, out.Platforms(path, 1))
}

func TestWalk_IfExpressionEvaluatedAgainstMacroState(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "t.c", `#if VERSION >= 2
new_api();
#else
old_api();
#endif
`)
	b := tree.NewBuilder(nil, nil)
	node, err := b.Build(path, nil)
	require.NoError(t, err)

	out := NewSetMap()
	m := NewMapper(b, nil, nil)

	v2 := macro.NewTable()
	v2.DefineObject("VERSION", tokenize("2"))
	require.NoError(t, m.Walk(node, v2, "v2", out))

	v1 := macro.NewTable()
	v1.DefineObject("VERSION", tokenize("1"))
	require.NoError(t, m.Walk(node, v1, "v1", out))

	assert.Equal(t, []string{"v2"}, out.Platforms(path, 2))
	assert.Equal(t, []string{"v1"}, out.Platforms(path, 4))
}

func TestWalk_IncludeGuardSkipsSecondEntry(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "shared.h", `#ifndef SHARED_H
#define SHARED_H
int shared;
#endif
`)
	main := write(t, dir, "main.c", `#include "shared.h"
#include "shared.h"
`)
	b := tree.NewBuilder(nil, nil)
	node, err := b.Build(main, nil)
	require.NoError(t, err)

	out := NewSetMap()
	m := NewMapper(b, nil, nil)
	require.NoError(t, m.Walk(node, macro.NewTable(), "p", out))

	sharedPath := filepath.Join(dir, "shared.h")
	assert.Equal(t, []string{"p"}, out.Platforms(sharedPath, 3))
}

func TestWalk_ComputedIncludeResolvedFromMacroState(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "plat_linux.h", "int on_linux;\n")
	main := write(t, dir, "main.c", `#define PLATFORM_HEADER "plat_linux.h"
#include PLATFORM_HEADER
`)
	b := tree.NewBuilder(nil, nil)
	node, err := b.Build(main, nil)
	require.NoError(t, err)

	macros := macro.NewTable()
	macros.DefineObject("PLATFORM_HEADER", tokenize(`"plat_linux.h"`))

	out := NewSetMap()
	m := NewMapper(b, nil, nil)
	require.NoError(t, m.Walk(node, macros, "p", out))

	assert.Equal(t, []string{"p"}, out.Platforms(filepath.Join(dir, "plat_linux.h"), 1))
}

// #error/#warning are only diagnosed when the branch containing them is
// actually live under the platform being walked.
func TestWalk_DirectiveNoteOnlyDiagnosedWhenBranchLive(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "t.c", `#ifndef SUPPORTED
#error "unsupported"
#endif
`)
	b := tree.NewBuilder(nil, nil)
	node, err := b.Build(path, nil)
	require.NoError(t, err)

	diags := &cberrors.Diagnostics{}
	m := NewMapper(b, nil, diags)

	require.NoError(t, m.Walk(node, seeded("SUPPORTED"), "ok", NewSetMap()))
	assert.Equal(t, 0, diags.Len())

	require.NoError(t, m.Walk(node, macro.NewTable(), "broken", NewSetMap()))
	assert.Equal(t, 1, diags.Len())
}

func TestWalk_RedefinitionWithDifferentBodyIsMacroWarning(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "t.c", `#define LIMIT 1
#define LIMIT 2
value(LIMIT);
`)
	b := tree.NewBuilder(nil, nil)
	node, err := b.Build(path, nil)
	require.NoError(t, err)

	diags := &cberrors.Diagnostics{}
	m := NewMapper(b, nil, diags)
	require.NoError(t, m.Walk(node, macro.NewTable(), "cpu", NewSetMap()))

	assert.Equal(t, 1, diags.Len())
	assert.Equal(t, cberrors.MacroWarning, diags.All()[0].Kind)
}

func TestWalk_RedefinitionWithSameBodyIsSilent(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "t.c", `#define LIMIT 1
#define LIMIT 1
value(LIMIT);
`)
	b := tree.NewBuilder(nil, nil)
	node, err := b.Build(path, nil)
	require.NoError(t, err)

	diags := &cberrors.Diagnostics{}
	m := NewMapper(b, nil, diags)
	require.NoError(t, m.Walk(node, macro.NewTable(), "cpu", NewSetMap()))

	assert.Equal(t, 0, diags.Len())
}

// Platform mapping is monotone: mapping an additional platform never
// removes a platform already recorded for a line.
func TestWalk_IsMonotone(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "t.c", "int always_live;\n")
	b := tree.NewBuilder(nil, nil)
	node, err := b.Build(path, nil)
	require.NoError(t, err)

	out := NewSetMap()
	m := NewMapper(b, nil, nil)
	require.NoError(t, m.Walk(node, macro.NewTable(), "a", out))
	before := out.Platforms(path, 1)

	require.NoError(t, m.Walk(node, macro.NewTable(), "b", out))
	after := out.Platforms(path, 1)

	for _, p := range before {
		assert.Contains(t, after, p)
	}
	assert.Contains(t, after, "b")
}

func TestKnownMacros_AliasesAndUnknownTarget(t *testing.T) {
	assert.ElementsMatch(t, KnownMacros("linux", "x86_64"), KnownMacros("linux", "amd64"))
	assert.ElementsMatch(t, KnownMacros("macos", "arm64"), KnownMacros("osx", "aarch64"))
	assert.Nil(t, KnownMacros("plan9", "mips"))
}

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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_ValidAnalysisFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "analysis.toml", `
[codebase]
exclude = ["vendor/**"]

[platform.cpu]
commands = "cpu.json"

[platform.gpu]
commands = "gpu.json"
os = "linux"
arch = "x86_64"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu", "gpu"}, cfg.PlatformNames())
	assert.Equal(t, []string{"vendor/**"}, cfg.Codebase.Exclude)
	assert.Equal(t, filepath.Join(dir, "cpu.json"), cfg.CommandsPath("cpu"))
}

func TestLoad_RejectsNonTomlExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "analysis.yaml", `[platform.cpu]
commands = "cpu.json"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsMissingCommands(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "analysis.toml", `[platform.cpu]
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsNoPlatforms(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "analysis.toml", `[codebase]
exclude = []
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSelectPlatforms_UnknownRequestedPlatformIsError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "analysis.toml", `[platform.cpu]
commands = "cpu.json"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	_, err = cfg.SelectPlatforms([]string{"gpu"})
	assert.Error(t, err)

	got, err := cfg.SelectPlatforms([]string{"cpu"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cpu"}, got)
}

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

// knownTargetMacros mirrors the teacher's platform.KnownPlatformEnv: a
// precomputed table of the macros a real compiler predefines implicitly
// for a given OS/architecture target, independent of anything that shows up
// literally on its command line (_WIN32, __linux__, __x86_64__ and so on).
// An analysis.toml platform entry may give an os and arch alongside its
// commands; the Analysis Orchestrator seeds the
// macro table for that platform from here before layering the compilation
// database's own -D flags on top.
package platform

// Target identifies an OS/architecture pair using the same vocabulary as
// the teacher's @platforms//os and @platforms//cpu constraint names.
type Target struct {
	OS   string
	Arch string
}

var knownTargetMacros = map[Target][]string{
	{OS: "linux", Arch: "x86_64"}:   {"__linux__", "__linux", "linux", "__unix__", "__x86_64__", "__amd64__"},
	{OS: "linux", Arch: "aarch64"}:  {"__linux__", "__linux", "linux", "__unix__", "__aarch64__"},
	{OS: "windows", Arch: "x86_64"}: {"_WIN32", "_WIN64", "__x86_64__", "_M_X64"},
	{OS: "windows", Arch: "i386"}:   {"_WIN32", "_M_IX86"},
	{OS: "osx", Arch: "x86_64"}:     {"__APPLE__", "__MACH__", "__x86_64__"},
	{OS: "osx", Arch: "aarch64"}:    {"__APPLE__", "__MACH__", "__aarch64__", "__arm64__"},
	{OS: "android", Arch: "aarch64"}: {"__ANDROID__", "__linux__", "__aarch64__"},
}

var targetAlias = map[string]string{
	"macos": "osx",
	"arm64": "aarch64",
	"amd64": "x86_64",
}

func dealias(s string) string {
	if a, ok := targetAlias[s]; ok {
		return a
	}
	return s
}

// KnownMacros returns the macros implicitly predefined for (os, arch),
// accepting the common aliases (macos/arm64/amd64). The result is nil, not
// an error, for an unrecognized pair: CBI tolerates analysis.toml platform
// entries for targets it doesn't know about, relying entirely on the
// compilation database's own -D flags in that case.
func KnownMacros(os, arch string) []string {
	return knownTargetMacros[Target{OS: dealias(os), Arch: dealias(arch)}]
}

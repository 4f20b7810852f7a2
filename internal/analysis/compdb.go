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
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/codebase-investigator/cbi/internal/cberrors"
	"github.com/codebase-investigator/cbi/internal/compiler"
)

// CompdbEntry is one element of a JSON compilation database, matching the
// de facto clang `compile_commands.json` schema.
type CompdbEntry struct {
	File      string   `json:"file"`
	Directory string   `json:"directory"`
	Arguments []string `json:"arguments,omitempty"`
	Command   string   `json:"command,omitempty"`
	Output    string   `json:"output,omitempty"`
}

// LoadCompdb reads and parses the JSON compilation database at path,
// deduplicating entries by File (last one wins) per §6. A read or parse
// failure, or any entry missing File/Directory/both-of-Arguments-and-
// Command, or carrying a non-absolute Directory, is a CompdbError -- fatal
// for the platform this database belongs to, not the whole run.
func LoadCompdb(path string) ([]CompdbEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cberrors.NewCompdbError("failed to read compilation database "+path, err)
	}
	var raw []CompdbEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, cberrors.NewCompdbError("failed to parse compilation database "+path, err)
	}

	order := make([]string, 0, len(raw))
	byFile := make(map[string]CompdbEntry, len(raw))
	for _, e := range raw {
		if e.File == "" {
			return nil, cberrors.NewCompdbError("compilation database "+path+" has an entry with no file", nil)
		}
		if e.Directory == "" {
			return nil, cberrors.NewCompdbError("compilation database "+path+" entry for "+e.File+" has no directory", nil)
		}
		if !filepath.IsAbs(e.Directory) {
			return nil, cberrors.NewCompdbError("compilation database "+path+" entry for "+e.File+" has a non-absolute directory", nil)
		}
		if len(e.Arguments) == 0 && e.Command == "" {
			return nil, cberrors.NewCompdbError("compilation database "+path+" entry for "+e.File+" has neither arguments nor command", nil)
		}
		if _, seen := byFile[e.File]; !seen {
			order = append(order, e.File)
		}
		byFile[e.File] = e
	}

	entries := make([]CompdbEntry, 0, len(order))
	for _, f := range order {
		entries = append(entries, byFile[f])
	}
	return entries, nil
}

// Argv returns the entry's argument vector, splitting Command shell-style
// if Arguments wasn't populated directly.
func (e CompdbEntry) Argv() []string {
	if len(e.Arguments) > 0 {
		return e.Arguments
	}
	return compiler.SplitCommandLine(e.Command)
}

// ResolvedFile returns e.File resolved against e.Directory, matching how a
// real compiler invocation would interpret a relative source path.
func (e CompdbEntry) ResolvedFile() string {
	if filepath.IsAbs(e.File) {
		return e.File
	}
	return filepath.Join(e.Directory, e.File)
}

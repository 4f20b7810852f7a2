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

	"github.com/bmatcuk/doublestar/v4"
)

// Excluder matches paths against a set of gitignore-style pathspecs,
// rooted at a codebase's analysis root directory, exactly the way the
// teacher's expandGlob matches BUILD-file glob patterns against a repo
// root. Invalid patterns are dropped rather than rejected outright,
// mirroring the teacher's "filter out invalid patterns" behavior.
type Excluder struct {
	root     string
	patterns []string
}

// NewExcluder validates patterns (discarding any doublestar rejects) and
// roots them at root.
func NewExcluder(root string, patterns []string) *Excluder {
	valid := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if doublestar.ValidatePattern(p) {
			valid = append(valid, p)
		}
	}
	return &Excluder{root: root, patterns: valid}
}

// Excluded reports whether path matches any configured pathspec. An
// absolute path is first made relative to root; a relative path is matched
// as given, that is, as already relative to root.
func (x *Excluder) Excluded(path string) bool {
	rel := path
	if filepath.IsAbs(path) {
		if r, err := filepath.Rel(x.root, path); err == nil {
			rel = r
		}
	}
	rel = filepath.ToSlash(rel)
	for _, p := range x.patterns {
		if doublestar.MatchUnvalidated(p, rel) {
			return true
		}
	}
	return false
}

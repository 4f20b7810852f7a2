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
	"sort"
	"sync"
)

// SetMap is the mapping PhysicalLine -> set of platform names described in
// the data model: unique by (file, line) identity, accumulated across every
// translation unit and every platform in an analysis. It is write-heavy
// from concurrent per-platform walks, so -- like internal/cberrors'
// Diagnostics sink -- it is guarded by a single mutex rather than sharded.
type SetMap struct {
	mu   sync.Mutex
	data map[string]map[int]map[string]struct{}
}

func NewSetMap() *SetMap {
	return &SetMap{data: make(map[string]map[int]map[string]struct{})}
}

// Mark records that physical line `line` of `file` is live under
// `platform`. Safe for concurrent use by independent platform walks.
func (s *SetMap) Mark(file string, line int, platform string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, ok := s.data[file]
	if !ok {
		lines = make(map[int]map[string]struct{})
		s.data[file] = lines
	}
	set, ok := lines[line]
	if !ok {
		set = make(map[string]struct{})
		lines[line] = set
	}
	set[platform] = struct{}{}
}

// Platforms returns the platforms that cover (file, line), sorted for
// deterministic reporting. A line absent from the map entirely is dead
// under every configured platform.
func (s *SetMap) Platforms(file string, line int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.data[file][line]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Files returns every file with at least one recorded line, sorted.
func (s *SetMap) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data))
	for f := range s.data {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Lines returns every line recorded for file, sorted ascending.
func (s *SetMap) Lines(file string) []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.data[file]
	out := make([]int, 0, len(lines))
	for l := range lines {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// Merge folds other's entries into s. The orchestrator does not call it:
// its platform walks all write into one shared SetMap.
func (s *SetMap) Merge(other *SetMap) {
	other.mu.Lock()
	snapshot := make(map[string]map[int][]string, len(other.data))
	for file, lines := range other.data {
		perLine := make(map[int][]string, len(lines))
		for line, set := range lines {
			names := make([]string, 0, len(set))
			for p := range set {
				names = append(names, p)
			}
			perLine[line] = names
		}
		snapshot[file] = perLine
	}
	other.mu.Unlock()

	for file, lines := range snapshot {
		for line, names := range lines {
			for _, p := range names {
				s.Mark(file, line, p)
			}
		}
	}
}

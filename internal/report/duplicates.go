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

package report

import (
	"crypto/sha256"
	"sort"
	"strings"

	"github.com/codebase-investigator/cbi/internal/platform"
	"github.com/codebase-investigator/cbi/internal/source"
)

// DuplicateGroup is a set of files whose live content under Platform is
// byte-identical.
type DuplicateGroup struct {
	Platform string
	Files    []string
}

// Duplicates implements SUPPLEMENTED FEATURE #2: two files are duplicates
// under a platform if the concatenation of their lines live under that
// platform is byte-identical. A file is compared against others only
// through platforms both share, mirroring the original CBI's duplicate
// source detection.
func Duplicates(sm *platform.SetMap, platforms []string) ([]DuplicateGroup, error) {
	var groups []DuplicateGroup
	for _, p := range platforms {
		digestToFiles := make(map[[sha256.Size]byte][]string)
		for _, f := range sm.Files() {
			content, ok, err := liveContent(sm, f, p)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			digest := sha256.Sum256([]byte(content))
			digestToFiles[digest] = append(digestToFiles[digest], f)
		}
		var keys [][sha256.Size]byte
		for k, files := range digestToFiles {
			if len(files) > 1 {
				keys = append(keys, k)
			}
		}
		sort.Slice(keys, func(i, j int) bool {
			return digestToFiles[keys[i]][0] < digestToFiles[keys[j]][0]
		})
		for _, k := range keys {
			files := append([]string{}, digestToFiles[k]...)
			sort.Strings(files)
			groups = append(groups, DuplicateGroup{Platform: p, Files: files})
		}
	}
	return groups, nil
}

// liveContent reads file's source and concatenates the lines recorded live
// under platform, in ascending line order. ok is false if no line of file
// is live under platform at all (nothing to compare).
func liveContent(sm *platform.SetMap, file, plat string) (string, bool, error) {
	lines := sm.Lines(file)
	if len(lines) == 0 {
		return "", false, nil
	}
	f, err := source.Read(file)
	if err != nil {
		return "", false, err
	}
	var b strings.Builder
	found := false
	for _, n := range lines {
		live := false
		for _, p := range sm.Platforms(file, n) {
			if p == plat {
				live = true
				break
			}
		}
		if !live {
			continue
		}
		found = true
		if text, ok := f.Line(n); ok {
			b.WriteString(text)
			b.WriteByte('\n')
		}
	}
	return b.String(), found, nil
}

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

// Package source implements the Source Reader: it turns a file on disk (or
// an in-memory buffer, for tests) into an indexable array of physical
// lines, each retaining its one-based line number. Bytes are decoded as
// permissive UTF-8 (invalid sequences become the replacement rune) and all
// line-ending styles are normalized to LF before splitting.
package source

import (
	"os"
	"strings"
	"unicode/utf8"

	"github.com/codebase-investigator/cbi/internal/cberrors"
)

// Line is one physical line of source, one-based.
type Line struct {
	Number int
	Text   string // does not include the line terminator
}

// File is the indexable array of physical lines belonging to one file, plus
// the path it was read from (used for #include resolution and for
// attributing lines back to a file in the PlatformSetMap).
type File struct {
	Path  string
	Lines []Line
}

// Line returns the 1-based physical line, or ("", false) if out of range.
func (f *File) Line(n int) (string, bool) {
	if n < 1 || n > len(f.Lines) {
		return "", false
	}
	return f.Lines[n-1].Text, true
}

// Read opens path, decodes it permissively as UTF-8, and splits it into
// physical lines. CRLF and lone CR are normalized to LF before splitting,
// so downstream components never see anything but LF-terminated lines.
//
// A missing #include target is not a Source Reader failure (see the
// Specialization Tree Builder); only a file that cannot be opened/read at
// all raises IoError here.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cberrors.NewIoError("failed to read source file "+path, err)
	}
	return FromBytes(path, data), nil
}

// FromBytes builds a File from an in-memory buffer, applying the same
// decoding and line-splitting rules as Read. Read calls it on the file's
// bytes; tests call it directly on in-memory content.
func FromBytes(path string, data []byte) *File {
	text := decodeUTF8Permissive(data)
	text = normalizeLineEndings(text)

	var lines []Line
	start := 0
	lineNo := 1
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, Line{Number: lineNo, Text: text[start:i]})
			start = i + 1
			lineNo++
		}
	}
	if start < len(text) {
		lines = append(lines, Line{Number: lineNo, Text: text[start:]})
	}
	return &File{Path: path, Lines: lines}
}

func normalizeLineEndings(s string) string {
	if !strings.ContainsAny(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// decodeUTF8Permissive scans data and replaces any invalid UTF-8 byte
// sequence with the Unicode replacement character, rather than failing.
func decodeUTF8Permissive(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	var b strings.Builder
	b.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		b.WriteRune(r)
		data = data[size:]
	}
	return b.String()
}

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

// Package tree implements the specialization tree: a structural, largely
// configuration-independent model of a translation unit's #if/#include
// skeleton, built once per (file, include-path) configuration
// and walked repeatedly -- once per platform -- by internal/platform to
// decide which branches are actually live.
package tree

// FileNode is the specialization tree for a single physical file (the
// translation unit's main file or one reached via #include).
type FileNode struct {
	Path     string
	Children []Item // CodeRange, IfGroup, IncludeEdge, DirectiveNote, or MacroEdit, in source order

	// GuardMacro is the name of the macro that classically guards this file
	// against re-inclusion (#ifndef G / #define G wrapping the body), or ""
	// if the builder didn't recognize that pattern. internal/platform uses
	// it to skip re-entering a file whose guard macro is already defined.
	GuardMacro string
}

// Item is one element of a FileNode's body.
type Item interface{ isItem() }

// CodeRange is a contiguous run of physical lines that are not themselves
// directives -- ordinary code, always structurally present, whose
// liveness for a given platform is entirely a function of the IfGroup
// branches that contain it.
type CodeRange struct {
	StartLine, EndLine int // inclusive, 1-based, physical line numbers
}

// IfGroup is one #if/#ifdef/#ifndef ... #elif* ... #else? ... #endif
// group. Exactly one Branch is live for a given macro state -- or none, if
// every condition is false and there is no #else.
type IfGroup struct {
	Branches []Branch
}

// Branch is one arm of an IfGroup: the #if/#elif/#else that opened it, its
// controlling expression text (empty for #else and for #ifdef/#ifndef,
// which are represented directly as Identifier/Negate), and its body.
type Branch struct {
	Keyword    string // "if", "ifdef", "ifndef", "elif", "elifdef", "elifndef", "else"
	Negate     bool   // true for ifndef/elifndef
	Identifier string // the macro name tested, for ifdef/ifndef/elifdef/elifndef
	Expr       string // the raw condition text, for if/elif (parsed lazily by the platform mapper)
	Line       int    // physical line the directive itself is on
	Body       []Item
}

// IncludeEdge is a #include directive: the target as written, the line it
// appears on, and -- once resolved by the builder -- the FileNode it
// points to. Resolution failure (target not found on any search path) is
// recorded as a nil Target plus a diagnostic, not a fatal error: the
// specialization tree still needs this line accounted for.
type IncludeEdge struct {
	Line     int
	Raw      string // the text between <> or "" as written
	Angled   bool
	Resolved string // the resolved absolute/relative path, or "" if not found
	Target   *FileNode
}

// DirectiveNote is a #error/#warning/#warn encountered while building the
// tree. It is not itself a diagnostic: whether it is ever reported depends
// on whether the branch containing it is live under a given platform, so
// recording that is internal/platform's job, done only when its walk
// actually steps onto this Item.
type DirectiveNote struct {
	Kind    string // "error", "warning", or "warn"
	Line    int
	Message string
}

// MacroEdit is a #define or #undef. The builder itself never interprets
// these -- it has no macro table of its own -- but the platform mapper
// needs them recorded in source order so it can thread real #define/#undef
// mutations through its per-platform macro state exactly where they occur,
// including inside conditional branches and included headers.
type MacroEdit struct {
	Kind string // "define" or "undef"
	Line int
	Args string // the directive's raw text after "#define "/"#undef "
}

func (CodeRange) isItem()     {}
func (*IfGroup) isItem()      {}
func (IncludeEdge) isItem()   {}
func (DirectiveNote) isItem() {}
func (MacroEdit) isItem()     {}

// Lines returns every physical line number in the range, StartLine through
// EndLine inclusive.
func (c CodeRange) Lines() []int {
	lines := make([]int, 0, c.EndLine-c.StartLine+1)
	for l := c.StartLine; l <= c.EndLine; l++ {
		lines = append(lines, l)
	}
	return lines
}

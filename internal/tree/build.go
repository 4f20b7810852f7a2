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

package tree

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/codebase-investigator/cbi/internal/cberrors"
	"github.com/codebase-investigator/cbi/internal/lexer"
	"github.com/codebase-investigator/cbi/internal/source"
)

// DialectFor maps a file path to the lexer.Dialect it should be lexed
// under, typically by extension.
type DialectFor func(path string) lexer.Dialect

// DefaultDialectFor is the fallback extension-based dialect selector.
func DefaultDialectFor(path string) lexer.Dialect {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".f90", ".f95", ".f03", ".f08":
		return lexer.Dialect{Language: lexer.LanguageFortranFree}
	case ".f", ".for", ".f77":
		return lexer.Dialect{Language: lexer.LanguageFortranFixed}
	default:
		return lexer.Dialect{Language: lexer.LanguageC}
	}
}

// Builder builds and caches FileNode trees. A tree's shape depends only on
// a file's own content, its dialect, and the include search path used to
// resolve literal #include targets -- never on a platform's macro state --
// so a single Builder's cache is shared across every platform that walks
// the same compiland under the same include-path configuration.
type Builder struct {
	DialectFor DialectFor
	Diags      *cberrors.Diagnostics

	// mu serializes every top-level Build call, including ones made
	// concurrently by independent platform walks sharing this Builder
	// (internal/analysis fans the Platform Mapper out one goroutine per
	// platform, and a computed #include may call back into Build from
	// within that walk). Recursion during one Build's own #include
	// resolution goes through buildLocked instead, which assumes the lock
	// is already held by its caller's top-level Build.
	mu      sync.Mutex
	cache   map[string]*FileNode
	visited map[string]bool
}

func NewBuilder(dialectFor DialectFor, diags *cberrors.Diagnostics) *Builder {
	if dialectFor == nil {
		dialectFor = DefaultDialectFor
	}
	return &Builder{
		DialectFor: dialectFor,
		Diags:      diags,
		cache:      make(map[string]*FileNode),
		visited:    make(map[string]bool),
	}
}

// Build returns the FileNode for path, resolving literal #include targets
// ("x.h" and <x.h>) against includePaths. Computed includes
// (#include SOME_MACRO) are left unresolved in the returned tree --
// internal/platform resolves those per-platform, once it knows what the
// macro expands to under that platform's state.
func (b *Builder) Build(path string, includePaths []string) (*FileNode, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buildLocked(path, includePaths)
}

// buildLocked is Build's body, callable while b.mu is already held -- used
// for #include recursion within a single Build call so that recursion
// never tries to re-acquire the (non-reentrant) lock its own top-level
// Build call is holding.
func (b *Builder) buildLocked(path string, includePaths []string) (*FileNode, error) {
	key := cacheKey(path) + "\x00" + strings.Join(includePaths, "\x00")

	if cached, ok := b.cache[key]; ok {
		return cached, nil
	}
	if b.visited[key] {
		if b.Diags != nil {
			b.Diags.Add(cberrors.GuardCycle, path, 0, "include cycle detected building specialization tree for %s", path)
		}
		return nil, nil
	}
	b.visited[key] = true
	defer delete(b.visited, key)

	f, err := source.Read(path)
	if err != nil {
		return nil, err
	}

	node := &FileNode{Path: path}
	dialect := b.DialectFor(path)
	lines := lexer.Lines(f, dialect)

	if err := b.walk(node, &node.Children, lines, 0, len(lines), includePaths); err != nil {
		return nil, err
	}
	detectGuard(node, lines)

	b.cache[key] = node
	return node, nil
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}

// walk appends Items built from lines[start:end] -- a run of LogicalLines
// all at the same nesting depth -- to *items.
func (b *Builder) walk(node *FileNode, items *[]Item, lines []lexer.LogicalLine, start, end int, includePaths []string) error {
	codeStart, codeEnd := -1, -1
	flush := func() {
		if codeStart < 0 {
			return
		}
		*items = append(*items, CodeRange{StartLine: codeStart, EndLine: codeEnd})
		codeStart, codeEnd = -1, -1
	}

	i := start
	for i < end {
		ll := &lines[i]
		switch ll.Kind {
		case lexer.KindBlank:
			flush()
			i++

		case lexer.KindCode:
			if codeStart < 0 {
				codeStart = firstPhysical(ll)
			}
			codeEnd = lastPhysical(ll)
			i++

		case lexer.KindDirective:
			flush()
			switch ll.DirectiveName {
			case "if", "ifdef", "ifndef":
				ifg, next, err := b.buildIfGroup(node, lines, i, includePaths)
				if err != nil {
					return err
				}
				*items = append(*items, ifg)
				i = next

			case "include", "include_next":
				edge, err := b.buildInclude(node, ll, includePaths)
				if err != nil {
					return err
				}
				*items = append(*items, edge)
				i++

			case "error", "warning", "warn":
				*items = append(*items, DirectiveNote{
					Kind:    ll.DirectiveName,
					Line:    firstPhysical(ll),
					Message: ll.DirectiveArgs,
				})
				i++

			case "define", "undef":
				*items = append(*items, MacroEdit{
					Kind: ll.DirectiveName,
					Line: firstPhysical(ll),
					Args: ll.DirectiveArgs,
				})
				i++

			default:
				// #pragma, #line and the like don't shape the tree or the
				// macro table.
				i++
			}
		}
	}
	flush()
	return nil
}

// buildIfGroup consumes the #if/#ifdef/#ifndef at lines[i] and every
// following #elif*/#else/#endif at the same nesting depth, returning the
// completed IfGroup and the index just past its #endif.
func (b *Builder) buildIfGroup(node *FileNode, lines []lexer.LogicalLine, i int, includePaths []string) (*IfGroup, int, error) {
	ifg := &IfGroup{}
	j := i
	for {
		ll := &lines[j]
		branch := Branch{Line: firstPhysical(ll), Keyword: ll.DirectiveName}
		switch ll.DirectiveName {
		case "if", "elif":
			branch.Expr = ll.DirectiveArgs
		case "ifdef", "elifdef":
			branch.Identifier = strings.TrimSpace(ll.DirectiveArgs)
		case "ifndef", "elifndef":
			branch.Negate = true
			branch.Identifier = strings.TrimSpace(ll.DirectiveArgs)
		case "else":
			// no condition to record
		}

		bodyStart := j + 1
		bodyEnd, next, closed := scanBranchBody(lines, bodyStart)
		if err := b.walk(node, &branch.Body, lines, bodyStart, bodyEnd, includePaths); err != nil {
			return nil, 0, err
		}
		ifg.Branches = append(ifg.Branches, branch)
		j = next
		if closed {
			return ifg, j, nil
		}
	}
}

// scanBranchBody finds the next #elif*/#else/#endif at nesting depth 0
// starting at `start`. bodyEnd is that directive's index (the exclusive end
// of the current branch's body); next is where the caller should resume
// (the boundary directive's own index for #elif/#else, or just past it for
// #endif); closed reports whether the IfGroup is now fully closed.
func scanBranchBody(lines []lexer.LogicalLine, start int) (bodyEnd, next int, closed bool) {
	depth := 0
	k := start
	for k < len(lines) {
		ll := &lines[k]
		if ll.Kind == lexer.KindDirective {
			switch ll.DirectiveName {
			case "if", "ifdef", "ifndef":
				depth++
			case "endif":
				if depth == 0 {
					return k, k + 1, true
				}
				depth--
			case "elif", "elifdef", "elifndef", "else":
				if depth == 0 {
					return k, k, false
				}
			}
		}
		k++
	}
	// Unterminated group at EOF: treat the rest of the file as the body and
	// consider the group closed rather than looping forever.
	return k, k, true
}

func (b *Builder) buildInclude(node *FileNode, ll *lexer.LogicalLine, includePaths []string) (IncludeEdge, error) {
	args := strings.TrimSpace(ll.DirectiveArgs)
	edge := IncludeEdge{Line: firstPhysical(ll)}

	var raw string
	var angled, literal bool
	switch {
	case strings.HasPrefix(args, `"`):
		if end := strings.Index(args[1:], `"`); end >= 0 {
			raw, literal = args[1:1+end], true
		}
	case strings.HasPrefix(args, "<"):
		if end := strings.Index(args, ">"); end > 0 {
			raw, angled, literal = args[1:end], true, true
		}
	default:
		raw = args // computed include: macro name, resolved later per-platform
	}
	edge.Raw, edge.Angled = raw, angled
	if !literal {
		return edge, nil
	}

	resolved, ok := resolveInclude(filepath.Dir(node.Path), raw, angled, includePaths)
	if !ok {
		if b.Diags != nil {
			b.Diags.Add(cberrors.IncludeNotFound, node.Path, edge.Line, "could not resolve #include %q", raw)
		}
		return edge, nil
	}
	edge.Resolved = resolved

	target, err := b.buildLocked(resolved, includePaths)
	if err != nil {
		return edge, err
	}
	edge.Target = target
	return edge, nil
}

// ResolveInclude exposes the builder's quoted/angled search-path resolution
// for internal/platform, which needs it to resolve a computed #include
// (#include SOME_MACRO) once it knows what SOME_MACRO expands to -- a
// resolution the builder itself deliberately deferred.
func ResolveInclude(fromDir, raw string, angled bool, includePaths []string) (string, bool) {
	return resolveInclude(fromDir, raw, angled, includePaths)
}

// resolveInclude implements the classic quoted-vs-angled search order: a
// quoted include first searches the including file's own directory, then
// falls through to includePaths in order; an angled include only searches
// includePaths.
func resolveInclude(fromDir, raw string, angled bool, includePaths []string) (string, bool) {
	try := func(dir string) (string, bool) {
		p := filepath.Join(dir, raw)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, true
		}
		return "", false
	}
	if !angled {
		if p, ok := try(fromDir); ok {
			return p, true
		}
	}
	for _, ip := range includePaths {
		if p, ok := try(ip); ok {
			return p, true
		}
	}
	return "", false
}

// detectGuard recognizes the classic #ifndef GUARD / #define GUARD pattern
// wrapping a header: if the file's first non-blank logical line is an
// #ifndef and the first non-blank line inside its body #defines the same
// name, that name is recorded as the file's guard macro. This is a
// positional heuristic -- it does not additionally verify that the #ifndef
// is the file's *only* top-level construct and closes at end-of-file --
// matching what most real-world guard detectors settle for in practice.
func detectGuard(node *FileNode, lines []lexer.LogicalLine) {
	first := firstNonBlank(lines, 0)
	if first < 0 || lines[first].Kind != lexer.KindDirective || lines[first].DirectiveName != "ifndef" {
		return
	}
	name := strings.TrimSpace(lines[first].DirectiveArgs)
	if name == "" {
		return
	}
	second := firstNonBlank(lines, first+1)
	if second < 0 || lines[second].Kind != lexer.KindDirective || lines[second].DirectiveName != "define" {
		return
	}
	defArgs := strings.TrimSpace(lines[second].DirectiveArgs)
	if defArgs == name || strings.HasPrefix(defArgs, name+" ") || strings.HasPrefix(defArgs, name+"(") {
		node.GuardMacro = name
	}
}

func firstNonBlank(lines []lexer.LogicalLine, from int) int {
	for i := from; i < len(lines); i++ {
		if lines[i].Kind != lexer.KindBlank {
			return i
		}
	}
	return -1
}

func firstPhysical(ll *lexer.LogicalLine) int {
	if len(ll.Physical) == 0 {
		return 0
	}
	return ll.Physical[0]
}

func lastPhysical(ll *lexer.LogicalLine) int {
	if len(ll.Physical) == 0 {
		return 0
	}
	return ll.Physical[len(ll.Physical)-1]
}

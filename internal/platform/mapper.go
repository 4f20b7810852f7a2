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

// Package platform implements the Platform Mapper (spec §4.7): given an
// already-built specialization tree and a platform's initial macro state,
// it walks the tree exactly once, threading macro-table mutations through
// in source order, and records every physical line it finds live into a
// shared SetMap. It also carries the known-target macro tables adapted
// from the teacher's platform package.
package platform

import (
	"path/filepath"
	"strings"

	"github.com/codebase-investigator/cbi/internal/cberrors"
	"github.com/codebase-investigator/cbi/internal/expr"
	"github.com/codebase-investigator/cbi/internal/lexer"
	"github.com/codebase-investigator/cbi/internal/macro"
	"github.com/codebase-investigator/cbi/internal/tree"
)

// Mapper walks specialization trees for a single platform at a time. A
// Mapper is not safe for concurrent Walk calls that share macro state, but
// independent Mappers (or independent Walk calls with independent *macro.
// Table instances) may run concurrently against the same SetMap, which
// does its own locking.
type Mapper struct {
	// Builder resolves computed #include targets (#include SOME_MACRO)
	// once the Mapper knows, from the live macro state, what the macro
	// expands to -- resolution the tree Builder deliberately deferred.
	Builder      *tree.Builder
	IncludePaths []string
	Diags        *cberrors.Diagnostics
}

func NewMapper(builder *tree.Builder, includePaths []string, diags *cberrors.Diagnostics) *Mapper {
	return &Mapper{Builder: builder, IncludePaths: includePaths, Diags: diags}
}

// Walk maps root's specialization tree under platform, recording live
// physical lines into out. macros is the platform's seeded initial macro
// table; Walk mutates it in place as #define/#undef are encountered, the
// same way a real preprocessor's state evolves across a translation unit.
func (m *Mapper) Walk(root *tree.FileNode, macros *macro.Table, platformName string, out *SetMap) error {
	return m.walkNode(root, macros, platformName, out, make(map[*tree.FileNode]bool))
}

func (m *Mapper) walkNode(node *tree.FileNode, macros *macro.Table, platform string, out *SetMap, entering map[*tree.FileNode]bool) error {
	if node == nil {
		return nil
	}
	if node.GuardMacro != "" && macros.IsDefined(node.GuardMacro) {
		// The classic #ifndef GUARD would evaluate false on this entry;
		// skip walking it again entirely rather than re-deriving the same
		// empty result, honoring guards "via the Builder's cache".
		return nil
	}
	if entering[node] {
		if m.Diags != nil {
			m.Diags.Add(cberrors.GuardCycle, node.Path, 0, "include cycle detected mapping platform %q", platform)
		}
		return nil
	}
	entering[node] = true
	defer delete(entering, node)

	return m.walkItems(node.Path, node.Children, macros, platform, out, entering)
}

func (m *Mapper) walkItems(path string, items []tree.Item, macros *macro.Table, platform string, out *SetMap, entering map[*tree.FileNode]bool) error {
	for _, item := range items {
		switch v := item.(type) {
		case tree.CodeRange:
			for _, line := range v.Lines() {
				out.Mark(path, line, platform)
			}

		case *tree.IfGroup:
			if err := m.walkIfGroup(path, v, macros, platform, out, entering); err != nil {
				return err
			}

		case tree.IncludeEdge:
			if err := m.walkInclude(path, v, macros, platform, out, entering); err != nil {
				return err
			}

		case tree.DirectiveNote:
			if m.Diags != nil {
				m.Diags.Add(cberrors.MacroWarning, path, v.Line, "#%s %s", v.Kind, v.Message)
			}

		case tree.MacroEdit:
			m.applyMacroEdit(path, v, macros)
		}
	}
	return nil
}

// walkIfGroup evaluates branches in order against the current macro state
// and recurses into the first live one only; later branch conditions, per
// C rules, are never evaluated once an earlier one is taken.
func (m *Mapper) walkIfGroup(path string, ifg *tree.IfGroup, macros *macro.Table, platform string, out *SetMap, entering map[*tree.FileNode]bool) error {
	for _, branch := range ifg.Branches {
		live, err := m.branchLive(branch, macros)
		if err != nil {
			if m.Diags != nil {
				m.Diags.Add(cberrors.ExpressionError, path, branch.Line, "%v", err)
			}
			continue
		}
		if live {
			return m.walkItems(path, branch.Body, macros, platform, out, entering)
		}
	}
	return nil
}

func (m *Mapper) applyMacroEdit(path string, edit tree.MacroEdit, macros *macro.Table) {
	switch edit.Kind {
	case "define":
		def, err := macro.ParseDefinitionArgs(edit.Args)
		if err != nil {
			if m.Diags != nil {
				m.Diags.Add(cberrors.MacroWarning, path, edit.Line, "invalid #define: %v", err)
			}
			return
		}
		if prior, ok := macros.Lookup(def.Name); ok && !prior.SameBody(def) && m.Diags != nil {
			m.Diags.Add(cberrors.MacroWarning, path, edit.Line, "redefinition of macro %q with a different body", def.Name)
		}
		macros.Define(def)
	case "undef":
		macros.Undef(strings.TrimSpace(edit.Args))
	}
}

func (m *Mapper) branchLive(b tree.Branch, macros *macro.Table) (bool, error) {
	switch b.Keyword {
	case "else":
		return true, nil
	case "ifdef", "elifdef":
		return macros.IsDefined(b.Identifier), nil
	case "ifndef", "elifndef":
		return !macros.IsDefined(b.Identifier), nil
	default: // "if", "elif"
		toks := tokenize(b.Expr)
		expanded := macros.Expand(toks, true)
		node, err := expr.Parse(expanded)
		if err != nil {
			return false, err
		}
		v, err := expr.Eval(node, macros)
		if err != nil {
			return false, err
		}
		return v != 0, nil
	}
}

// walkInclude recurses into an IncludeEdge's target. A literal include
// already carries its resolved *tree.FileNode from the builder; a computed
// include (#include SOME_MACRO) is resolved here, now that macros reflects
// every #define up to the include site.
func (m *Mapper) walkInclude(path string, edge tree.IncludeEdge, macros *macro.Table, platform string, out *SetMap, entering map[*tree.FileNode]bool) error {
	if edge.Target != nil {
		return m.walkNode(edge.Target, macros, platform, out, entering)
	}
	if edge.Resolved != "" {
		// Already attempted and failed to resolve at build time (a literal
		// include with no matching file); already diagnosed there.
		return nil
	}
	if edge.Raw == "" {
		return nil
	}

	expanded := macros.Expand(tokenize(edge.Raw), false)
	text := renderTokens(expanded)
	raw, angled, ok := literalTarget(text)
	if !ok {
		if m.Diags != nil {
			m.Diags.Add(cberrors.IncludeNotFound, path, edge.Line, "computed #include %q did not expand to a header name", edge.Raw)
		}
		return nil
	}

	resolved, found := tree.ResolveInclude(filepath.Dir(path), raw, angled, m.IncludePaths)
	if !found {
		if m.Diags != nil {
			m.Diags.Add(cberrors.IncludeNotFound, path, edge.Line, "could not resolve computed #include %q", text)
		}
		return nil
	}
	target, err := m.Builder.Build(resolved, m.IncludePaths)
	if err != nil {
		return err
	}
	return m.walkNode(target, macros, platform, out, entering)
}

func tokenize(text string) []lexer.Token {
	ll := lexer.LogicalLine{Text: text}
	return ll.Tokens()
}

func renderTokens(toks []lexer.Token) string {
	var b strings.Builder
	for _, t := range toks {
		if t.Type == lexer.TokenEOF {
			continue
		}
		if t.LeadingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(t.Text)
	}
	return b.String()
}

func literalTarget(text string) (raw string, angled bool, ok bool) {
	text = strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(text, `"`):
		if end := strings.Index(text[1:], `"`); end >= 0 {
			return text[1 : 1+end], false, true
		}
	case strings.HasPrefix(text, "<"):
		if end := strings.Index(text, ">"); end > 0 {
			return text[1:end], true, true
		}
	}
	return "", false, false
}

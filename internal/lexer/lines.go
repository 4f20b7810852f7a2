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

// Package lexer turns a source.File into a sequence of LogicalLines: runs
// of one or more physical lines joined by a continuation marker, with
// comments stripped (while preserving the physical line count) and
// classified as a preprocessor directive, ordinary code, or blank.
//
// Tokenization is lazy: a LogicalLine carries its folded, comment-stripped
// text and only becomes a []Token when something downstream (directive
// parsing, #if evaluation) actually asks for it. Most code-body lines in a
// real translation unit are never tokenized at all -- the specialization
// tree only needs their physical line numbers.
package lexer

import (
	"strings"

	"github.com/codebase-investigator/cbi/internal/source"
)

// Language selects which continuation, comment, and directive-prefix rules
// apply. internal/tree's DefaultDialectFor picks one from a file's
// extension.
type Language int

const (
	LanguageC Language = iota
	LanguageFortranFixed
	LanguageFortranFree
)

// Dialect carries the language plus the one per-configuration knob that
// changes lexing: whether "!$"/"c$" OpenMP sentinels are lexed as code
// rather than stripped as comments. The fixed-form column conventions are
// fixed constants in the fixed-form line joiner, not Dialect fields.
type Dialect struct {
	Language        Language
	OpenMPSentinels bool
}

// Kind classifies a LogicalLine.
type Kind int

const (
	KindBlank Kind = iota
	KindCode
	KindDirective
)

// LogicalLine is one or more physical lines folded together by a
// continuation marker, with comments already stripped.
type LogicalLine struct {
	Kind     Kind
	Text     string // folded, comment-stripped; directive lines include the '#'
	Physical []int  // physical line numbers contributing to this logical line, in order

	// DirectiveName is set only when Kind == KindDirective: the identifier
	// immediately following '#' (or the Fortran preprocessor equivalent),
	// e.g. "if", "define", "include".
	DirectiveName string
	// DirectiveArgs is the directive line's text after the directive name,
	// with leading/trailing space trimmed. Not tokenized until requested.
	DirectiveArgs string

	dialect Dialect
	tokens  []Token // lazily populated by Tokens()
	tokenized bool
}

// Lines folds f's physical lines into LogicalLines under the given dialect.
func Lines(f *source.File, dialect Dialect) []LogicalLine {
	switch dialect.Language {
	case LanguageFortranFixed:
		return fortranFixedLines(f, dialect)
	case LanguageFortranFree:
		return fortranFreeLines(f, dialect)
	default:
		return cLines(f, dialect)
	}
}

func classify(text string, _ Dialect) (Kind, string, string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return KindBlank, "", ""
	}
	if trimmed[0] != '#' {
		return KindCode, "", ""
	}
	rest := strings.TrimSpace(trimmed[1:])
	var name, args string
	if idx := strings.IndexAny(rest, " \t"); idx >= 0 {
		name = rest[:idx]
		args = strings.TrimSpace(rest[idx+1:])
	} else {
		name = rest
	}
	return KindDirective, name, args
}

// cLines implements C/C++ backslash-newline splicing over a per-physical
// line comment strip.
func cLines(f *source.File, dialect Dialect) []LogicalLine {
	stripper := &cCommentStripper{}
	stripped := make([]string, len(f.Lines))
	for i, l := range f.Lines {
		stripped[i] = stripper.Strip(l.Text)
	}

	var out []LogicalLine
	i := 0
	for i < len(stripped) {
		var textParts []string
		var physical []int
		for {
			line := stripped[i]
			physical = append(physical, f.Lines[i].Number)
			if strings.HasSuffix(strings.TrimRight(line, " \t"), "\\") {
				trimmedRight := strings.TrimRight(line, " \t")
				textParts = append(textParts, trimmedRight[:len(trimmedRight)-1])
				i++
				if i >= len(stripped) {
					break
				}
				continue
			}
			textParts = append(textParts, line)
			i++
			break
		}
		text := strings.Join(textParts, "")
		kind, name, args := classify(text, dialect)
		out = append(out, LogicalLine{
			Kind: kind, Text: text, Physical: physical,
			DirectiveName: name, DirectiveArgs: args, dialect: dialect,
		})
	}
	return out
}

// fortranFreeLines implements free-form Fortran continuation: a line ending
// in '&' continues onto the next line; a continuation line may itself begin
// with '&', which is dropped.
func fortranFreeLines(f *source.File, dialect Dialect) []LogicalLine {
	stripped := make([]string, len(f.Lines))
	for i, l := range f.Lines {
		stripped[i] = stripFortranComment(l.Text, dialect.OpenMPSentinels)
	}

	var out []LogicalLine
	i := 0
	for i < len(stripped) {
		var textParts []string
		var physical []int
		for {
			line := strings.TrimRight(stripped[i], " \t")
			physical = append(physical, f.Lines[i].Number)
			if strings.HasSuffix(line, "&") {
				textParts = append(textParts, line[:len(line)-1])
				i++
				if i >= len(stripped) {
					break
				}
				next := strings.TrimLeft(stripped[i], " \t")
				next = strings.TrimPrefix(next, "&")
				stripped[i] = next
				continue
			}
			textParts = append(textParts, line)
			i++
			break
		}
		text := strings.Join(textParts, "")
		kind, name, args := classify(text, dialect)
		out = append(out, LogicalLine{
			Kind: kind, Text: text, Physical: physical,
			DirectiveName: name, DirectiveArgs: args, dialect: dialect,
		})
	}
	return out
}

// fortranFixedLines implements classic fixed-form columns: column 1 of
// 'c'/'C'/'*' marks a full-line comment, column 6 non-blank/non-zero
// continues the previous line, and content beyond column 72 is a sequence
// number field and is ignored.
func fortranFixedLines(f *source.File, dialect Dialect) []LogicalLine {
	const contCol = 6
	const maxCol = 72

	pad := func(s string) string {
		if len(s) > maxCol {
			return s[:maxCol]
		}
		return s
	}

	type classified struct {
		physical int
		blank    bool
		cont     bool
		body     string // columns 7+ (or full line for column-1 directive)
		raw      string
	}

	var rows []classified
	for _, l := range f.Lines {
		raw := pad(l.Text)
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			rows = append(rows, classified{physical: l.Number, blank: true})
			continue
		}
		if trimmed[0] == '#' {
			rows = append(rows, classified{physical: l.Number, body: trimmed, raw: raw})
			continue
		}
		first := raw[0]
		if first == 'c' || first == 'C' || first == '*' {
			if dialect.OpenMPSentinels && len(raw) > 1 && raw[1] == '$' {
				body := stripFortranComment("      "+raw[2:], false)
				rows = append(rows, classified{physical: l.Number, body: strings.TrimSpace(body), raw: raw})
				continue
			}
			rows = append(rows, classified{physical: l.Number, blank: true})
			continue
		}
		stripped := stripFortranComment(raw, dialect.OpenMPSentinels)
		if len(stripped) <= contCol {
			rows = append(rows, classified{physical: l.Number, blank: strings.TrimSpace(stripped) == ""})
			continue
		}
		contMarker := stripped[contCol-1]
		body := strings.TrimRight(stripped[contCol:], " \t")
		isCont := contMarker != ' ' && contMarker != '0'
		if strings.TrimSpace(stripped[:contCol-1]) == "" && strings.TrimSpace(body) == "" {
			rows = append(rows, classified{physical: l.Number, blank: true})
			continue
		}
		rows = append(rows, classified{physical: l.Number, cont: isCont, body: body, raw: raw})
	}

	var out []LogicalLine
	i := 0
	for i < len(rows) {
		if rows[i].blank {
			out = append(out, LogicalLine{Kind: KindBlank, Physical: []int{rows[i].physical}, dialect: dialect})
			i++
			continue
		}
		var parts []string
		var physical []int
		parts = append(parts, rows[i].body)
		physical = append(physical, rows[i].physical)
		i++
		for i < len(rows) && rows[i].cont {
			parts = append(parts, rows[i].body)
			physical = append(physical, rows[i].physical)
			i++
		}
		text := strings.Join(parts, "")
		kind, name, args := classify(text, dialect)
		out = append(out, LogicalLine{
			Kind: kind, Text: text, Physical: physical,
			DirectiveName: name, DirectiveArgs: args, dialect: dialect,
		})
	}
	return out
}

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

// Package macro implements the preprocessor's macro table: #define/#undef,
// object-like and function-like macro storage, and full rescan-based
// expansion with per-token hide sets (# stringize, ## paste, and
// __VA_ARGS__ included). Identifier validation and -D command-line literal
// parsing mirror the teacher's cc.ParseMacro, generalized from "always an
// int" storage to arbitrary replacement-list tokens since CBI needs to
// expand macros into code, not just evaluate #if integers.
package macro

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/codebase-investigator/cbi/internal/lexer"
)

// Identifier mirrors the teacher's MacroIdentifierRegex: first character
// '_' or a letter, remaining characters '_', letters, or digits.
var Identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Macro is one #define'd name. Object-like macros have Params == nil and
// FunctionLike == false; function-like macros (even with zero parameters,
// i.e. "FOO()") have FunctionLike == true.
type Macro struct {
	Name         string
	FunctionLike bool
	Params       []string
	Variadic     bool // last parameter is ...
	Body         []lexer.Token
}

// Table is the set of macros currently in effect. It is not safe for
// concurrent use; the orchestrator builds a fresh Table for every
// translation unit it walks, so independent walks never share mutable state.
type Table struct {
	macros map[string]*Macro
}

func NewTable() *Table {
	return &Table{macros: make(map[string]*Macro)}
}

// Clone returns a deep-enough copy for independent mutation: the map is
// copied, but *Macro values are treated as immutable once defined and are
// shared, which is safe since Define always installs a fresh *Macro rather
// than mutating one in place.
func (t *Table) Clone() *Table {
	clone := NewTable()
	for k, v := range t.macros {
		clone.macros[k] = v
	}
	return clone
}

func (t *Table) IsDefined(name string) bool {
	_, ok := t.macros[name]
	return ok
}

func (t *Table) Lookup(name string) (*Macro, bool) {
	m, ok := t.macros[name]
	return m, ok
}

func (t *Table) Undef(name string) {
	delete(t.macros, name)
}

func (t *Table) Define(m *Macro) {
	t.macros[m.Name] = m
}

// SameBody reports whether m and other would expand identically: same
// function-like-ness, parameter list, variadic-ness, and replacement-list
// token text. Used to distinguish a redefinition that merely repeats an
// existing #define (allowed silently, per the C standard) from one that
// changes the replacement list (§7's "redefinition with differing body"
// MacroWarning).
func (m *Macro) SameBody(other *Macro) bool {
	if m.FunctionLike != other.FunctionLike || m.Variadic != other.Variadic {
		return false
	}
	if len(m.Params) != len(other.Params) {
		return false
	}
	for i, p := range m.Params {
		if p != other.Params[i] {
			return false
		}
	}
	if len(m.Body) != len(other.Body) {
		return false
	}
	for i, tok := range m.Body {
		otherTok := other.Body[i]
		if tok.Type != otherTok.Type || tok.Text != otherTok.Text {
			return false
		}
	}
	return true
}

// DefineObject registers a simple, non-parameterized replacement such as
// the ones produced by -D command-line flags or the compiler emulator's
// implicit predefines.
func (t *Table) DefineObject(name string, body []lexer.Token) {
	if n := len(body); n > 0 && body[n-1].Type == lexer.TokenEOF {
		body = body[:n-1]
	}
	t.Define(&Macro{Name: name, Body: body})
}

// ParseDefinitionArgs parses the text following "#define " (or a -D
// command-line flag's RHS) into a Macro. For object-like macros, args is
// "NAME rest-of-line", the -D form "NAME=rest", or bare "NAME". For
// function-like macros, args is "NAME(params) rest-of-line" with no space
// between NAME and '('.
func ParseDefinitionArgs(args string) (*Macro, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return nil, fmt.Errorf("empty #define")
	}

	if idx := strings.IndexByte(args, '('); idx > 0 && !strings.ContainsAny(args[:idx], " \t=") {
		name := args[:idx]
		if !Identifier.MatchString(name) {
			return nil, fmt.Errorf("invalid macro name %q", name)
		}
		closeIdx := strings.IndexByte(args[idx:], ')')
		if closeIdx < 0 {
			return nil, fmt.Errorf("macro %s: unterminated parameter list", name)
		}
		closeIdx += idx
		paramList := strings.TrimSpace(args[idx+1 : closeIdx])
		params, variadic, err := parseParams(paramList)
		if err != nil {
			return nil, fmt.Errorf("macro %s: %w", name, err)
		}
		body := strings.TrimSpace(args[closeIdx+1:])
		return &Macro{
			Name: name, FunctionLike: true, Params: params, Variadic: variadic,
			Body: bodyTokens(body),
		}, nil
	}

	var name, rest string
	if idx := strings.IndexAny(args, " \t="); idx >= 0 {
		name = args[:idx]
		rest = strings.TrimSpace(args[idx+1:])
	} else {
		name = args
		rest = ""
	}
	if !Identifier.MatchString(name) {
		return nil, fmt.Errorf("invalid macro name %q", name)
	}
	return &Macro{Name: name, Body: bodyTokens(rest)}, nil
}

func parseParams(paramList string) ([]string, bool, error) {
	if paramList == "" {
		return nil, false, nil
	}
	rawParams := strings.Split(paramList, ",")
	params := make([]string, 0, len(rawParams))
	variadic := false
	for i, p := range rawParams {
		p = strings.TrimSpace(p)
		if p == "..." {
			if i != len(rawParams)-1 {
				return nil, false, fmt.Errorf("'...' must be the last parameter")
			}
			params = append(params, "__VA_ARGS__")
			variadic = true
			continue
		}
		if !Identifier.MatchString(p) {
			return nil, false, fmt.Errorf("invalid parameter name %q", p)
		}
		params = append(params, p)
	}
	return params, variadic, nil
}

func bodyTokens(text string) []lexer.Token {
	ll := lexer.LogicalLine{Text: text}
	toks := ll.Tokens()
	if len(toks) > 0 && toks[len(toks)-1].Type == lexer.TokenEOF {
		toks = toks[:len(toks)-1]
	}
	return toks
}

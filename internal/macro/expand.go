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

package macro

import (
	"regexp"
	"strings"

	"github.com/codebase-investigator/cbi/internal/collections"
	"github.com/codebase-investigator/cbi/internal/lexer"
)

// hToken is a token carrying the hide set that the classic Prosser/Dave
// Prosser macro-expansion algorithm (the one GCC, Clang, and most other
// conforming preprocessors implement) uses to prevent a macro from
// re-expanding itself, directly or through a chain of other macros.
type hToken struct {
	lexer.Token
	Hide collections.Set[string]
}

func hideOf(h collections.Set[string]) collections.Set[string] {
	if h == nil {
		return collections.Set[string]{}
	}
	return h
}

// cloneHide returns a copy of h so callers can Join/Add into it without
// mutating a hide set another token still references.
func cloneHide(h collections.Set[string]) collections.Set[string] {
	return hideOf(h).Intersect(hideOf(h))
}

func wrap(toks []lexer.Token) []hToken {
	out := make([]hToken, len(toks))
	for i, t := range toks {
		out[i] = hToken{Token: t}
	}
	return out
}

func unwrap(toks []hToken) []lexer.Token {
	out := make([]lexer.Token, len(toks))
	for i, t := range toks {
		out[i] = t.Token
	}
	return out
}

// Expand performs full macro expansion over tokens. When protectDefined is
// true (the #if/#elif expression context), "defined X" and
// "defined(X)" are passed through verbatim: the #if evaluator resolves
// `defined` itself, and the operand must name the macro being tested, not
// whatever it would expand to.
func (t *Table) Expand(tokens []lexer.Token, protectDefined bool) []lexer.Token {
	return unwrap(t.expand(wrap(tokens), protectDefined))
}

func (t *Table) expand(queue []hToken, protectDefined bool) []hToken {
	var out []hToken
	for len(queue) > 0 {
		tok := queue[0]
		rest := queue[1:]

		if protectDefined && tok.Type == lexer.TokenIdentifier && tok.Text == "defined" {
			out = append(out, tok)
			queue = rest
			if len(queue) > 0 && queue[0].IsPunctuator("(") {
				out = append(out, queue[0])
				queue = queue[1:]
				for len(queue) > 0 && !queue[0].IsPunctuator(")") {
					out = append(out, queue[0])
					queue = queue[1:]
				}
				if len(queue) > 0 {
					out = append(out, queue[0])
					queue = queue[1:]
				}
			} else if len(queue) > 0 && queue[0].Type == lexer.TokenIdentifier {
				out = append(out, queue[0])
				queue = queue[1:]
			}
			continue
		}

		if tok.Type != lexer.TokenIdentifier {
			out = append(out, tok)
			queue = rest
			continue
		}
		if hideOf(tok.Hide).Contains(tok.Text) {
			out = append(out, tok)
			queue = rest
			continue
		}
		m, ok := t.Lookup(tok.Text)
		if !ok {
			out = append(out, tok)
			queue = rest
			continue
		}

		if !m.FunctionLike {
			hs := cloneHide(tok.Hide).Join(collections.SetOf(tok.Text))
			substituted := subst(m.Body, nil, nil, hs, t, protectDefined)
			queue = append(substituted, rest...)
			continue
		}

		// Function-like macro: only triggers when immediately followed by
		// '(' (modulo no whitespace tokens -- CBI's lexer never produces
		// separate whitespace tokens, so "immediately" just means next).
		if len(rest) == 0 || !rest[0].IsPunctuator("(") {
			out = append(out, tok)
			queue = rest
			continue
		}

		args, closeHide, consumed, ok := parseArgs(rest[1:], len(m.Params), m.Variadic)
		if !ok {
			// Unterminated argument list: not a macro invocation we can
			// resolve here; emit literally and let the caller's source
			// diagnostics surface the malformed directive, if any.
			out = append(out, tok)
			queue = rest
			continue
		}
		hs := hideOf(tok.Hide).Intersect(closeHide).Join(collections.SetOf(tok.Text))
		substituted := subst(m.Body, m.Params, args, hs, t, protectDefined)
		queue = append(substituted, rest[1+consumed:]...)
	}
	return out
}

// parseArgs splits the tokens up to (and including) the matching top-level
// ')' into per-parameter argument token lists, respecting nested
// parentheses. It returns the hide set of the closing ')' (used to compute
// the invocation's hide set), how many tokens (including the ')') were
// consumed, and whether a matching ')' was found at all.
func parseArgs(toks []hToken, numParams int, variadic bool) ([][]hToken, collections.Set[string], int, bool) {
	var args [][]hToken
	var cur []hToken
	depth := 0
	i := 0
	for i < len(toks) {
		t := toks[i]
		switch {
		case t.IsPunctuator("("):
			depth++
			cur = append(cur, t)
		case t.IsPunctuator(")"):
			if depth == 0 {
				args = append(args, cur)
				return args, hideOf(t.Hide), i + 1, true
			}
			depth--
			cur = append(cur, t)
		// Once the fixed parameters are all accounted for, a variadic
		// macro's trailing comma no longer separates arguments -- it's
		// folded, literally, into the __VA_ARGS__ token stream.
		case t.IsPunctuator(",") && depth == 0 && !(variadic && len(args) == numParams-1):
			args = append(args, cur)
			cur = nil
		default:
			cur = append(cur, t)
		}
		i++
	}
	return nil, nil, 0, false
}

func paramIndex(params []string, name string) (int, bool) {
	for i, p := range params {
		if p == name {
			return i, true
		}
	}
	return -1, false
}

// subst implements the replacement-list substitution step of the
// Prosser algorithm: stringize (#param), paste (##), unexpanded
// substitution of arguments adjacent to ##, and fully expanded substitution
// everywhere else, followed by adding hs to every resulting token's hide
// set.
func subst(body []lexer.Token, params []string, args [][]hToken, hs collections.Set[string], table *Table, protectDefined bool) []hToken {
	var out []hToken
	i := 0
	for i < len(body) {
		t := body[i]

		if t.IsPunctuator("#") && i+1 < len(body) {
			if idx, ok := paramIndex(params, body[i+1].Text); ok {
				str := stringize(args[idx])
				out = append(out, hToken{Token: lexer.Token{Type: lexer.TokenStringLiteral, Text: str, LeadingSpace: t.LeadingSpace}})
				i += 2
				continue
			}
		}

		if t.IsPunctuator("##") {
			i++
			if i >= len(body) {
				break
			}
			next := body[i]
			var rhs []hToken
			if idx, ok := paramIndex(params, next.Text); ok {
				rhs = args[idx]
			} else {
				rhs = []hToken{{Token: next}}
			}
			if len(rhs) == 0 {
				i++
				continue
			}
			out = glue(out, rhs)
			i++
			continue
		}

		if idx, ok := paramIndex(params, t.Text); ok {
			raw := args[idx]
			followedByPaste := i+1 < len(body) && body[i+1].IsPunctuator("##")
			if followedByPaste {
				out = append(out, raw...)
			} else if len(raw) > 0 {
				out = append(out, table.expand(raw, protectDefined)...)
			}
			i++
			continue
		}

		out = append(out, hToken{Token: t})
		i++
	}
	return hsaddAll(out, hs)
}

func hsaddAll(toks []hToken, hs collections.Set[string]) []hToken {
	for i := range toks {
		toks[i].Hide = hideOf(toks[i].Hide).Join(hs)
	}
	return toks
}

// glue concatenates the textual spelling of left's last token and right's
// first token into a single new token (classic ## paste), leaving the rest
// of left and right untouched around it.
func glue(left, right []hToken) []hToken {
	if len(left) == 0 {
		return right
	}
	a := left[len(left)-1]
	b := right[0]
	text := a.Text + b.Text
	glued := hToken{
		Token: lexer.Token{Type: classifyGlued(text), Text: text, LeadingSpace: a.LeadingSpace},
		Hide:  hideOf(a.Hide).Intersect(hideOf(b.Hide)),
	}
	out := append([]hToken{}, left[:len(left)-1]...)
	out = append(out, glued)
	out = append(out, right[1:]...)
	return out
}

var identifierLike = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
var numberLike = regexp.MustCompile(`^[0-9][0-9a-zA-Z_.]*$`)

func classifyGlued(text string) lexer.TokenType {
	switch {
	case identifierLike.MatchString(text):
		return lexer.TokenIdentifier
	case numberLike.MatchString(text):
		return lexer.TokenNumber
	default:
		return lexer.TokenPunctuator
	}
}

// stringize implements the # operator: the argument's preprocessing tokens
// are rendered back to text, with exactly one space wherever LeadingSpace
// was set, and with every " and \ inside string/char literal spellings
// backslash-escaped.
func stringize(toks []hToken) string {
	var b strings.Builder
	b.WriteByte('"')
	for i, t := range toks {
		if i > 0 && t.LeadingSpace {
			b.WriteByte(' ')
		}
		text := t.Text
		if t.Type == lexer.TokenStringLiteral || t.Type == lexer.TokenCharLiteral {
			text = strings.ReplaceAll(text, `\`, `\\`)
			text = strings.ReplaceAll(text, `"`, `\"`)
		}
		b.WriteString(text)
	}
	b.WriteByte('"')
	return b.String()
}

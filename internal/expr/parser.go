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

package expr

import (
	"fmt"

	"github.com/codebase-investigator/cbi/internal/lexer"
)

// binaryPrecedence ranks binary operators low-to-high, following C's
// standard precedence table (logical-or binds loosest, multiplicative
// tightest). Ternary and comma sit below "||" and are handled directly by
// the recursive-descent entry points rather than through this table.
var binaryPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"&":  5,
	"==": 6, "!=": 6,
	"<": 7, "<=": 7, ">": 7, ">=": 7,
	"<<": 8, ">>": 8,
	"+": 9, "-": 9,
	"*": 10, "/": 10, "%": 10,
}

type parser struct {
	toks []lexer.Token
	pos  int
}

// Parse parses a fully macro-expanded #if/#elif token stream (with
// `defined` already protected from expansion, see macro.Table.Expand) into
// an expression tree.
func Parse(toks []lexer.Token) (Node, error) {
	// Tokens carry a trailing EOF sentinel from the lexer; Parse also
	// tolerates being handed a stream without one.
	if n := len(toks); n > 0 && toks[n-1].Type == lexer.TokenEOF {
		toks = toks[:n-1]
	}
	if len(toks) == 0 {
		return nil, fmt.Errorf("empty #if expression")
	}
	p := &parser{toks: toks}
	node, err := p.parseComma()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, fmt.Errorf("unexpected token %q", p.toks[p.pos].Text)
	}
	return node, nil
}

func (p *parser) peek() (lexer.Token, bool) {
	if p.pos >= len(p.toks) {
		return lexer.Token{}, false
	}
	return p.toks[p.pos], true
}

func (p *parser) next() (lexer.Token, bool) {
	t, ok := p.peek()
	if ok {
		p.pos++
	}
	return t, ok
}

func (p *parser) parseComma() (Node, error) {
	left, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || !t.IsPunctuator(",") {
			return left, nil
		}
		p.next()
		right, err := p.parseTernary()
		if err != nil {
			return nil, err
		}
		left = Comma{Left: left, Right: right}
	}
}

func (p *parser) parseTernary() (Node, error) {
	cond, err := p.parseBinary(1)
	if err != nil {
		return nil, err
	}
	t, ok := p.peek()
	if !ok || !t.IsPunctuator("?") {
		return cond, nil
	}
	p.next()
	then, err := p.parseComma()
	if err != nil {
		return nil, err
	}
	colon, ok := p.next()
	if !ok || !colon.IsPunctuator(":") {
		return nil, fmt.Errorf("expected ':' in ternary expression")
	}
	els, err := p.parseTernary()
	if err != nil {
		return nil, err
	}
	return Ternary{Cond: cond, Then: then, Else: els}, nil
}

func (p *parser) parseBinary(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.peek()
		if !ok || t.Type != lexer.TokenPunctuator {
			return left, nil
		}
		prec, isBinOp := binaryPrecedence[t.Text]
		if !isBinOp || prec < minPrec {
			return left, nil
		}
		p.next()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = Binary{Op: t.Text, Left: left, Right: right}
	}
}

var unaryOps = map[string]bool{"+": true, "-": true, "!": true, "~": true}

func (p *parser) parseUnary() (Node, error) {
	t, ok := p.peek()
	if ok && t.Type == lexer.TokenPunctuator && unaryOps[t.Text] {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return Unary{Op: t.Text, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	t, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("unexpected end of expression")
	}

	switch {
	case t.IsPunctuator("("):
		inner, err := p.parseComma()
		if err != nil {
			return nil, err
		}
		closeParen, ok := p.next()
		if !ok || !closeParen.IsPunctuator(")") {
			return nil, fmt.Errorf("expected ')'")
		}
		return inner, nil

	case t.IsIdentifier("defined"):
		return p.parseDefined()

	case t.Type == lexer.TokenNumber:
		v, err := parseIntLiteral(t.Text)
		if err != nil {
			return nil, err
		}
		return IntLiteral{Value: v}, nil

	case t.Type == lexer.TokenCharLiteral:
		v, err := parseCharLiteral(t.Text)
		if err != nil {
			return nil, err
		}
		return IntLiteral{Value: v}, nil

	case t.Type == lexer.TokenIdentifier:
		return Identifier{Name: t.Text}, nil

	default:
		return nil, fmt.Errorf("unexpected token %q in #if expression", t.Text)
	}
}

func (p *parser) parseDefined() (Node, error) {
	t, ok := p.next()
	if !ok {
		return nil, fmt.Errorf("expected identifier after 'defined'")
	}
	if t.IsPunctuator("(") {
		name, ok := p.next()
		if !ok || name.Type != lexer.TokenIdentifier {
			return nil, fmt.Errorf("expected identifier inside defined(...)")
		}
		closeParen, ok := p.next()
		if !ok || !closeParen.IsPunctuator(")") {
			return nil, fmt.Errorf("expected ')' after defined(%s", name.Text)
		}
		return Defined{Name: name.Text}, nil
	}
	if t.Type != lexer.TokenIdentifier {
		return nil, fmt.Errorf("expected identifier after 'defined', got %q", t.Text)
	}
	return Defined{Name: t.Text}, nil
}

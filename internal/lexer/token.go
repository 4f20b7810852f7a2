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

package lexer

// TokenType classifies a Token. CBI only needs enough granularity to drive
// macro expansion and #if expression evaluation -- it is not a full C
// tokenizer and does not distinguish e.g. every punctuator individually.
type TokenType int

const (
	TokenInvalid TokenType = iota
	TokenIdentifier
	TokenNumber       // a pp-number: digit sequence, optionally with . e E p P and sign
	TokenStringLiteral
	TokenCharLiteral
	TokenPunctuator
	TokenPlacemarker // not produced: ## with an empty operand drops that operand instead
	TokenEOF
)

func (t TokenType) String() string {
	switch t {
	case TokenIdentifier:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenStringLiteral:
		return "string-literal"
	case TokenCharLiteral:
		return "char-literal"
	case TokenPunctuator:
		return "punctuator"
	case TokenPlacemarker:
		return "placemarker"
	case TokenEOF:
		return "eof"
	default:
		return "invalid"
	}
}

// Token is one lexical token within a logical line's folded text.
//
// LeadingSpace records whether whitespace (or a removed comment) preceded
// this token on the same logical line, which macro stringification (#arg)
// and token spacing during re-emission depend on.
type Token struct {
	Type         TokenType
	Text         string
	Pos          Cursor
	LeadingSpace bool
}

func (t Token) IsIdentifier(name string) bool {
	return t.Type == TokenIdentifier && t.Text == name
}

func (t Token) IsPunctuator(text string) bool {
	return t.Type == TokenPunctuator && t.Text == text
}

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

// Package expr parses and evaluates #if/#elif controlling expressions: the
// constant-integer-expression subset of C, with `defined` as the one
// preprocessor-only operator. Parsing uses precedence climbing (the same
// technique the teacher's cc parser uses for its own expression grammar),
// and all arithmetic is two's-complement 64-bit, matching a typical
// target's intmax_t evaluation of #if.
package expr

// Node is a parsed #if expression.
type Node interface{ isNode() }

type IntLiteral struct{ Value int64 }

type Unary struct {
	Op      string // "+" "-" "!" "~"
	Operand Node
}

type Binary struct {
	Op          string
	Left, Right Node
}

type Ternary struct {
	Cond, Then, Else Node
}

type Comma struct {
	Left, Right Node
}

// Defined is the "defined X" / "defined(X)" operator. It is resolved
// directly against the macro table at evaluation time and never reaches
// macro expansion as an identifier.
type Defined struct{ Name string }

// Identifier is any name left over after macro expansion and `defined`
// resolution -- per the standard, an undefined identifier (anything that
// isn't a macro and isn't a literal) evaluates to 0.
type Identifier struct{ Name string }

func (IntLiteral) isNode() {}
func (Unary) isNode()      {}
func (Binary) isNode()     {}
func (Ternary) isNode()    {}
func (Comma) isNode()      {}
func (Defined) isNode()    {}
func (Identifier) isNode() {}

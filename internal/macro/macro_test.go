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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebase-investigator/cbi/internal/lexer"
)

func tokenize(text string) []lexer.Token {
	ll := lexer.LogicalLine{Text: text}
	toks := ll.Tokens()
	return toks[:len(toks)-1] // drop EOF
}

func texts(toks []lexer.Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.Text
	}
	return out
}

func TestParseDefinitionArgs_ObjectLike(t *testing.T) {
	m, err := ParseDefinitionArgs("FOO 1 + 2")
	require.NoError(t, err)
	assert.Equal(t, "FOO", m.Name)
	assert.False(t, m.FunctionLike)
	assert.Equal(t, []string{"1", "+", "2"}, texts(m.Body))
}

func TestParseDefinitionArgs_FunctionLike(t *testing.T) {
	m, err := ParseDefinitionArgs("MAX(a, b) ((a) > (b) ? (a) : (b))")
	require.NoError(t, err)
	assert.Equal(t, "MAX", m.Name)
	assert.True(t, m.FunctionLike)
	assert.Equal(t, []string{"a", "b"}, m.Params)
}

func TestParseDefinitionArgs_Variadic(t *testing.T) {
	m, err := ParseDefinitionArgs(`LOG(fmt, ...) printf(fmt, __VA_ARGS__)`)
	require.NoError(t, err)
	assert.True(t, m.Variadic)
	assert.Equal(t, []string{"fmt", "__VA_ARGS__"}, m.Params)
}

func TestParseDefinitionArgs_InvalidName(t *testing.T) {
	_, err := ParseDefinitionArgs("1FOO bar")
	assert.Error(t, err)
}

func TestMacro_SameBody(t *testing.T) {
	a, err := ParseDefinitionArgs("LIMIT 1")
	require.NoError(t, err)
	b, err := ParseDefinitionArgs("LIMIT 1")
	require.NoError(t, err)
	c, err := ParseDefinitionArgs("LIMIT 2")
	require.NoError(t, err)

	assert.True(t, a.SameBody(b))
	assert.False(t, a.SameBody(c))
}

func TestMacro_SameBody_DiffersByParamsOrVariadic(t *testing.T) {
	fn, err := ParseDefinitionArgs("F(a) a")
	require.NoError(t, err)
	fn2, err := ParseDefinitionArgs("F(b) a")
	require.NoError(t, err)
	variadic, err := ParseDefinitionArgs("F(a, ...) a")
	require.NoError(t, err)

	assert.False(t, fn.SameBody(fn2), "different parameter name changes meaning")
	assert.False(t, fn.SameBody(variadic))
}

func TestExpand_ObjectLike(t *testing.T) {
	table := NewTable()
	m, err := ParseDefinitionArgs("FOO 1 + 2")
	require.NoError(t, err)
	table.Define(m)

	out := table.Expand(tokenize("x = FOO;"), false)
	assert.Equal(t, []string{"x", "=", "1", "+", "2", ";"}, texts(out))
}

func TestExpand_SelfReferenceDoesNotRecurse(t *testing.T) {
	table := NewTable()
	m, err := ParseDefinitionArgs("FOO FOO + 1")
	require.NoError(t, err)
	table.Define(m)

	out := table.Expand(tokenize("FOO"), false)
	assert.Equal(t, []string{"FOO", "+", "1"}, texts(out))
}

func TestExpand_MutualRecursionTerminates(t *testing.T) {
	table := NewTable()
	a, err := ParseDefinitionArgs("A B")
	require.NoError(t, err)
	b, err := ParseDefinitionArgs("B A")
	require.NoError(t, err)
	table.Define(a)
	table.Define(b)

	out := table.Expand(tokenize("A"), false)
	assert.Equal(t, []string{"A"}, texts(out))
}

func TestExpand_FunctionLikeMacro(t *testing.T) {
	table := NewTable()
	m, err := ParseDefinitionArgs("MAX(a, b) ((a) > (b) ? (a) : (b))")
	require.NoError(t, err)
	table.Define(m)

	out := table.Expand(tokenize("MAX(1, 2)"), false)
	assert.Equal(t, []string{"(", "(", "1", ")", ">", "(", "2", ")", "?", "(", "1", ")", ":", "(", "2", ")", ")"}, texts(out))
}

func TestExpand_FunctionLikeNotInvokedWithoutParen(t *testing.T) {
	table := NewTable()
	m, err := ParseDefinitionArgs("FOO(x) x")
	require.NoError(t, err)
	table.Define(m)

	out := table.Expand(tokenize("FOO ;"), false)
	assert.Equal(t, []string{"FOO", ";"}, texts(out))
}

func TestExpand_Stringize(t *testing.T) {
	table := NewTable()
	m, err := ParseDefinitionArgs(`STR(x) #x`)
	require.NoError(t, err)
	table.Define(m)

	out := table.Expand(tokenize(`STR(hello world)`), false)
	require.Len(t, out, 1)
	assert.Equal(t, lexer.TokenStringLiteral, out[0].Type)
	assert.Equal(t, `"hello world"`, out[0].Text)
}

func TestExpand_Paste(t *testing.T) {
	table := NewTable()
	m, err := ParseDefinitionArgs("CAT(a, b) a ## b")
	require.NoError(t, err)
	table.Define(m)

	out := table.Expand(tokenize("CAT(foo, bar)"), false)
	require.Len(t, out, 1)
	assert.Equal(t, "foobar", out[0].Text)
	assert.Equal(t, lexer.TokenIdentifier, out[0].Type)
}

func TestExpand_Variadic(t *testing.T) {
	table := NewTable()
	m, err := ParseDefinitionArgs(`LOG(fmt, ...) printf(fmt, __VA_ARGS__)`)
	require.NoError(t, err)
	table.Define(m)

	out := table.Expand(tokenize(`LOG("x=%d", 1, 2)`), false)
	assert.Equal(t, []string{"printf", "(", `"x=%d"`, ",", "1", ",", "2", ")"}, texts(out))
}

func TestExpand_ProtectsDefinedOperand(t *testing.T) {
	table := NewTable()
	m, err := ParseDefinitionArgs("FOO 1")
	require.NoError(t, err)
	table.Define(m)

	out := table.Expand(tokenize("defined(FOO) && FOO"), true)
	assert.Equal(t, []string{"defined", "(", "FOO", ")", "&&", "1"}, texts(out))
}

func TestExpand_ArgumentsExpandedBeforeSubstitution(t *testing.T) {
	table := NewTable()
	bar, err := ParseDefinitionArgs("BAR 5")
	require.NoError(t, err)
	id, err := ParseDefinitionArgs("ID(x) x")
	require.NoError(t, err)
	table.Define(bar)
	table.Define(id)

	out := table.Expand(tokenize("ID(BAR)"), false)
	assert.Equal(t, []string{"5"}, texts(out))
}

func TestTable_Clone_Independent(t *testing.T) {
	table := NewTable()
	m, _ := ParseDefinitionArgs("FOO 1")
	table.Define(m)

	clone := table.Clone()
	clone.Undef("FOO")

	assert.True(t, table.IsDefined("FOO"))
	assert.False(t, clone.IsDefined("FOO"))
}

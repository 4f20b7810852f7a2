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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codebase-investigator/cbi/internal/source"
)

func cDialect() Dialect { return Dialect{Language: LanguageC} }

func TestCLines_BackslashContinuation(t *testing.T) {
	f := source.FromBytes("t.c", []byte("#define FOO(a, b) \\\n  (a) + (b)\nint x;\n"))
	lines := Lines(f, cDialect())
	require.Len(t, lines, 2)

	require.Equal(t, KindDirective, lines[0].Kind)
	assert.Equal(t, "define", lines[0].DirectiveName)
	assert.Equal(t, []int{1, 2}, lines[0].Physical)
	assert.Equal(t, "FOO(a, b)   (a) + (b)", lines[0].DirectiveArgs)

	assert.Equal(t, KindCode, lines[1].Kind)
	assert.Equal(t, []int{3}, lines[1].Physical)
}

func TestCLines_LineCommentEndsAtPhysicalEOL(t *testing.T) {
	// A trailing backslash inside a // comment must NOT splice the next
	// physical line into the comment.
	f := source.FromBytes("t.c", []byte("int x; // comment \\\nint y;\n"))
	lines := Lines(f, cDialect())
	require.Len(t, lines, 2)
	assert.Equal(t, KindCode, lines[0].Kind)
	assert.Equal(t, []int{1}, lines[0].Physical)
	assert.Equal(t, KindCode, lines[1].Kind)
	assert.Equal(t, []int{2}, lines[1].Physical)
}

func TestCLines_BlockCommentSpansLines(t *testing.T) {
	f := source.FromBytes("t.c", []byte("int x; /* start\nstill comment\nend */ int y;\n"))
	lines := Lines(f, cDialect())
	require.Len(t, lines, 3)
	assert.Equal(t, KindCode, lines[0].Kind)
	assert.Equal(t, KindBlank, lines[1].Kind)
	assert.Equal(t, KindCode, lines[2].Kind)
}

func TestCLines_StringContainingCommentMarkers(t *testing.T) {
	f := source.FromBytes("t.c", []byte(`char *s = "/* not a comment */ // also not";` + "\n"))
	lines := Lines(f, cDialect())
	require.Len(t, lines, 1)
	assert.Equal(t, KindCode, lines[0].Kind)
	assert.Contains(t, lines[0].Text, "not a comment")
}

func TestCLines_DirectiveClassification(t *testing.T) {
	f := source.FromBytes("t.c", []byte("  #  if FOO\n#include <x.h>\n#else\n"))
	lines := Lines(f, cDialect())
	require.Len(t, lines, 3)
	assert.Equal(t, "if", lines[0].DirectiveName)
	assert.Equal(t, "FOO", lines[0].DirectiveArgs)
	assert.Equal(t, "include", lines[1].DirectiveName)
	assert.Equal(t, "<x.h>", lines[1].DirectiveArgs)
	assert.Equal(t, "else", lines[2].DirectiveName)
	assert.Equal(t, "", lines[2].DirectiveArgs)
}

func TestTokenize_IdentifiersNumbersStrings(t *testing.T) {
	toks := tokenize(`foo(123, "a\"b", 'c', 0x1Ap-2)`)
	var kinds []TokenType
	for _, tok := range toks {
		kinds = append(kinds, tok.Type)
	}
	require.True(t, len(kinds) > 5)
	assert.Equal(t, TokenIdentifier, toks[0].Type)
	assert.Equal(t, "foo", toks[0].Text)
	assert.Equal(t, TokenPunctuator, toks[1].Type)
	assert.Equal(t, "(", toks[1].Text)
	assert.Equal(t, TokenNumber, toks[2].Type)
	assert.Equal(t, "123", toks[2].Text)
	assert.Equal(t, TokenEOF, toks[len(toks)-1].Type)
}

func TestTokenize_LeadingSpace(t *testing.T) {
	toks := tokenize("a  b")
	require.Len(t, toks, 3)
	assert.False(t, toks[0].LeadingSpace)
	assert.True(t, toks[1].LeadingSpace)
}

func TestTokenize_MultiCharPunctuators(t *testing.T) {
	toks := tokenize("a<<=b")
	require.Len(t, toks, 4)
	assert.Equal(t, "<<=", toks[1].Text)
}

func TestLogicalLine_TokensIsLazyAndCached(t *testing.T) {
	ll := LogicalLine{Text: "a + b"}
	assert.False(t, ll.tokenized)
	toks := ll.Tokens()
	assert.True(t, ll.tokenized)
	assert.Same(t, &toks[0], &ll.Tokens()[0])
}

func fortranFreeDialect() Dialect { return Dialect{Language: LanguageFortranFree} }

func TestFortranFree_AmpersandContinuation(t *testing.T) {
	f := source.FromBytes("t.f90", []byte("x = 1 + &\n    &2\ny = 3\n"))
	lines := Lines(f, fortranFreeDialect())
	require.Len(t, lines, 2)
	assert.Equal(t, []int{1, 2}, lines[0].Physical)
	assert.Equal(t, KindCode, lines[0].Kind)
	assert.Equal(t, []int{3}, lines[1].Physical)
}

func TestFortranFree_BangComment(t *testing.T) {
	f := source.FromBytes("t.f90", []byte("x = 1 ! a comment\n"))
	lines := Lines(f, fortranFreeDialect())
	require.Len(t, lines, 1)
	assert.Equal(t, KindCode, lines[0].Kind)
	assert.NotContains(t, lines[0].Text, "comment")
}

func TestFortranFree_OpenMPSentinelAsCode(t *testing.T) {
	d := Dialect{Language: LanguageFortranFree, OpenMPSentinels: true}
	f := source.FromBytes("t.f90", []byte("!$omp parallel\n"))
	lines := Lines(f, d)
	require.Len(t, lines, 1)
	assert.Equal(t, KindCode, lines[0].Kind)
	assert.Contains(t, lines[0].Text, "omp parallel")
}

func fortranFixedDialect() Dialect { return Dialect{Language: LanguageFortranFixed} }

func TestFortranFixed_Column6Continuation(t *testing.T) {
	src := "      x = 1 +\n     &2\n      y = 3\n"
	f := source.FromBytes("t.f", []byte(src))
	lines := Lines(f, fortranFixedDialect())
	require.Len(t, lines, 2)
	assert.Equal(t, []int{1, 2}, lines[0].Physical)
	assert.Equal(t, KindCode, lines[0].Kind)
	assert.Equal(t, []int{3}, lines[1].Physical)
}

func TestFortranFixed_ColumnOneCommentIsBlank(t *testing.T) {
	src := "c this is a fixed-form comment\n      x = 1\n"
	f := source.FromBytes("t.f", []byte(src))
	lines := Lines(f, fortranFixedDialect())
	require.Len(t, lines, 2)
	assert.Equal(t, KindBlank, lines[0].Kind)
	assert.Equal(t, KindCode, lines[1].Kind)
}

func TestFortranFixed_DirectiveInColumnOne(t *testing.T) {
	src := "#ifdef GPU\n      x = 1\n#endif\n"
	f := source.FromBytes("t.f", []byte(src))
	lines := Lines(f, fortranFixedDialect())
	require.Len(t, lines, 3)
	assert.Equal(t, "ifdef", lines[0].DirectiveName)
	assert.Equal(t, "endif", lines[2].DirectiveName)
}

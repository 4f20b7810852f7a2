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
	"fmt"
	"strings"
	"unicode/utf8"
)

// Cursor is a position within a logical line's folded text. Line and Column
// are 1-based. It exists mainly so token-level diagnostics can point at a
// specific column; physical-line attribution (the thing CBI actually
// reports on) travels separately on LogicalLine.Physical.
type Cursor struct {
	Line, Column int
}

var CursorInit = Cursor{Line: 1, Column: 1}

func (c Cursor) String() string {
	return fmt.Sprintf("%d:%d", c.Line, c.Column)
}

// AdvancedBy returns a new Cursor advanced past lookAhead, assuming the
// cursor currently points at its first byte.
func (c Cursor) AdvancedBy(lookAhead string) Cursor {
	newlines := strings.Count(lookAhead, "\n")
	tailBegin := 1 + strings.LastIndex(lookAhead, "\n")
	tailLen := utf8.RuneCountInString(lookAhead[tailBegin:])

	if newlines == 0 {
		c.Column += tailLen
	} else {
		c.Line += newlines
		c.Column = 1 + tailLen
	}
	return c
}

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
	"strconv"
	"strings"
)

// parseIntLiteral parses a C integer pp-number: decimal, octal (leading 0),
// hex (0x/0X), or GNU binary (0b/0B), with any combination of u/U/l/L/ll/LL
// suffixes ignored (CBI only needs the value, never the promoted type).
func parseIntLiteral(tok string) (int64, error) {
	body := strings.TrimRightFunc(tok, func(r rune) bool {
		return r == 'u' || r == 'U' || r == 'l' || r == 'L'
	})
	if body == "" {
		return 0, fmt.Errorf("empty integer literal %q", tok)
	}

	base := 10
	switch {
	case strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X"):
		base = 16
		body = body[2:]
	case strings.HasPrefix(body, "0b") || strings.HasPrefix(body, "0B"):
		base = 2
		body = body[2:]
	case body != "0" && strings.HasPrefix(body, "0"):
		base = 8
	}
	if body == "" {
		return 0, nil
	}

	v, err := strconv.ParseUint(body, base, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal %q: %w", tok, err)
	}
	return int64(v), nil
}

// parseCharLiteral parses a single-quoted character literal, including the
// common C escapes. Multi-character literals are combined the way GCC does:
// each successive character shifts the accumulator left by 8 bits.
func parseCharLiteral(tok string) (int64, error) {
	if len(tok) < 2 || tok[0] != '\'' || tok[len(tok)-1] != '\'' {
		return 0, fmt.Errorf("malformed character literal %q", tok)
	}
	body := tok[1 : len(tok)-1]

	var acc int64
	i := 0
	any := false
	for i < len(body) {
		var v int64
		if body[i] == '\\' && i+1 < len(body) {
			val, n := parseEscape(body[i:])
			v = val
			i += n
		} else {
			v = int64(body[i])
			i++
		}
		acc = acc<<8 | (v & 0xff)
		any = true
	}
	if !any {
		return 0, fmt.Errorf("empty character literal %q", tok)
	}
	return acc, nil
}

func parseEscape(s string) (int64, int) {
	// s[0] == '\\'
	if len(s) < 2 {
		return 0, 1
	}
	switch s[1] {
	case 'n':
		return '\n', 2
	case 't':
		return '\t', 2
	case 'r':
		return '\r', 2
	case 'a':
		return '\a', 2
	case 'b':
		return '\b', 2
	case 'f':
		return '\f', 2
	case 'v':
		return '\v', 2
	case '\\':
		return '\\', 2
	case '\'':
		return '\'', 2
	case '"':
		return '"', 2
	case '0', '1', '2', '3', '4', '5', '6', '7':
		j := 1
		for j < len(s) && j < 4 && s[j] >= '0' && s[j] <= '7' {
			j++
		}
		v, _ := strconv.ParseInt(s[1:j], 8, 32)
		return v, j
	case 'x':
		j := 2
		for j < len(s) && isHexDigit(s[j]) {
			j++
		}
		v, _ := strconv.ParseInt(s[2:j], 16, 32)
		return v, j
	default:
		return int64(s[1]), 2
	}
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// Copyright 2025 KrakLabs
// SPDX-License-Identifier: Apache-2.0

package astx

// NestingDepthScanCap is the byte window NestingDepth inspects, per spec.md
// §4.1: "scans the first 100,000 bytes".
const NestingDepthScanCap = 100_000

var openBrackets = map[byte]bool{'[': true, '(': true, '{': true}
var closeBrackets = map[byte]bool{']': true, ')': true, '}': true}

// NestingDepth scans source for matched bracket nesting depth, returning
// early once depth exceeds cap. Used only as a prefilter (§4.1); it is a
// byte scan, not a parse, so it tolerates unparseable source.
func NestingDepth(source []byte, cap int) int {
	limit := len(source)
	if limit > NestingDepthScanCap {
		limit = NestingDepthScanCap
	}

	depth := 0
	maxDepth := 0
	inString := byte(0)
	escaped := false

	for i := 0; i < limit; i++ {
		b := source[i]

		if inString != 0 {
			if escaped {
				escaped = false
				continue
			}
			if b == '\\' {
				escaped = true
				continue
			}
			if b == inString {
				inString = 0
			}
			continue
		}

		switch b {
		case '\'', '"', '`':
			inString = b
		default:
			if openBrackets[b] {
				depth++
				if depth > maxDepth {
					maxDepth = depth
				}
				if cap > 0 && maxDepth > cap {
					return maxDepth
				}
			} else if closeBrackets[b] && depth > 0 {
				depth--
			}
		}
	}

	return maxDepth
}

package util

import (
	"strings"
	"unicode/utf8"
)

// TruncateRunes cuts s to at most n runes without splitting a UTF-8 sequence.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	rs := []rune(s)
	return string(rs[:n])
}

// OneLine collapses all whitespace runs (newlines included) into single spaces
// and truncates the result to n runes.
func OneLine(s string, n int) string {
	return TruncateRunes(strings.Join(strings.Fields(s), " "), n)
}

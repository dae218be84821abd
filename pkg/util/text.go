package util

import (
	"unicode/utf16"
)

// UTF16Len returns the length of s in UTF-16 code units
// UTF16Len 返回字符串的 UTF-16 码元长度（与浏览器 String.length 一致）
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if utf16.RuneLen(r) == 2 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// TruncateUTF16 truncates s to at most max UTF-16 code units without splitting a rune
// TruncateUTF16 按 UTF-16 码元截断字符串，不会截断半个字符
func TruncateUTF16(s string, max int) string {
	if max <= 0 {
		return ""
	}
	n := 0
	for i, r := range s {
		w := 1
		if utf16.RuneLen(r) == 2 {
			w = 2
		}
		if n+w > max {
			return s[:i]
		}
		n += w
	}
	return s
}

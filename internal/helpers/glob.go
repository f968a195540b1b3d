package helpers

import "strings"

const globMetaChars = "*?[]{}\\"

// EscapeGlob escapes every character that has a meaning in a doublestar
// pattern so the text only ever matches itself.
func EscapeGlob(text string) string {
	if !strings.ContainsAny(text, globMetaChars) {
		return text
	}
	sb := strings.Builder{}
	sb.Grow(len(text) + 4)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if strings.IndexByte(globMetaChars, c) >= 0 {
			sb.WriteByte('\\')
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// SplitGlobDir splits a rendered pattern into the directory before the path
// component holding the first unescaped wildcard, and the remaining pattern.
// The directory keeps its trailing slash. A pattern without wildcards is
// split at its last slash.
func SplitGlobDir(pattern string) (dir string, rest string) {
	end := len(pattern)
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c == '\\' {
			i++
			continue
		}
		if c == '*' || c == '?' || c == '[' || c == '{' {
			end = i
			break
		}
	}
	slash := strings.LastIndexByte(pattern[:end], '/')
	return pattern[:slash+1], pattern[slash+1:]
}

// UnescapeGlob reverses EscapeGlob.
func UnescapeGlob(text string) string {
	if strings.IndexByte(text, '\\') < 0 {
		return text
	}
	sb := strings.Builder{}
	sb.Grow(len(text))
	for i := 0; i < len(text); i++ {
		if text[i] == '\\' && i+1 < len(text) {
			i++
		}
		sb.WriteByte(text[i])
	}
	return sb.String()
}

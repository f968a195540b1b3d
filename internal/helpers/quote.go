package helpers

import (
	"strings"
	"unicode/utf8"
)

const hexChars = "0123456789ABCDEF"
const firstASCII = 0x20
const lastASCII = 0x7E
const firstHighSurrogate = 0xD800
const firstLowSurrogate = 0xDC00
const lastLowSurrogate = 0xDFFF

func canPrintWithoutEscape(c rune, quoteChar byte) bool {
	if c <= lastASCII {
		return c >= firstASCII && c != '\\' && c != rune(quoteChar)
	}

	// These are line terminators in JavaScript string literals
	if c == '\u2028' || c == '\u2029' {
		return false
	}
	return c != '\uFEFF' && c != utf8.RuneError && (c < firstHighSurrogate || c > lastLowSurrogate)
}

// QuoteForJSON returns text as a double-quoted literal that is valid both as
// JSON and as a JavaScript string.
func QuoteForJSON(text string) string {
	return internalQuote(text, '"')
}

func QuoteSingle(text string) string {
	return internalQuote(text, '\'')
}

func internalQuote(text string, quoteChar byte) string {
	sb := strings.Builder{}
	sb.Grow(len(text) + 2)
	sb.WriteByte(quoteChar)

	for i := 0; i < len(text); {
		c, width := utf8.DecodeRuneInString(text[i:])

		// Fast path for a run of printable characters
		if canPrintWithoutEscape(c, quoteChar) {
			start := i
			for i < len(text) {
				c, width = utf8.DecodeRuneInString(text[i:])
				if !canPrintWithoutEscape(c, quoteChar) {
					break
				}
				i += width
			}
			sb.WriteString(text[start:i])
			continue
		}

		i += width
		switch c {
		case '\b':
			sb.WriteString("\\b")
		case '\f':
			sb.WriteString("\\f")
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		case '\t':
			sb.WriteString("\\t")
		case '\\':
			sb.WriteString("\\\\")
		case rune(quoteChar):
			sb.WriteByte('\\')
			sb.WriteByte(quoteChar)

		default:
			// Invalid UTF-8 is written as the replacement character
			if c == utf8.RuneError && width == 1 {
				c = '\uFFFD'
			}
			if c <= 0xFFFF {
				writeEscapedUnit(&sb, c)
			} else {
				c -= 0x10000
				writeEscapedUnit(&sb, firstHighSurrogate+((c>>10)&0x3FF))
				writeEscapedUnit(&sb, firstLowSurrogate+(c&0x3FF))
			}
		}
	}

	sb.WriteByte(quoteChar)
	return sb.String()
}

func writeEscapedUnit(sb *strings.Builder, c rune) {
	sb.WriteString("\\u")
	sb.WriteByte(hexChars[c>>12])
	sb.WriteByte(hexChars[(c>>8)&15])
	sb.WriteByte(hexChars[(c>>4)&15])
	sb.WriteByte(hexChars[c&15])
}

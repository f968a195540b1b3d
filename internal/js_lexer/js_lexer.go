package js_lexer

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

// EscapeError points at the escape sequence that could not be decoded.
// Offset and Len are relative to the text handed to DecodeEscapeSequences.
type EscapeError struct {
	Offset int
	Len    int
	Text   string
}

func (e *EscapeError) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Text, e.Offset)
}

// DecodeEscapeSequences decodes the body of a string literal or of one piece
// of an untagged template literal, without its delimiters. Template pieces
// also have their "\r\n" and "\r" line terminators normalized to "\n".
func DecodeEscapeSequences(text string, isTemplate bool) (string, error) {
	decoded := make([]uint16, 0, len(text))
	i := 0

	for i < len(text) {
		c, width := utf8.DecodeRuneInString(text[i:])
		escapeStart := i
		i += width

		switch c {
		case '\r':
			if !isTemplate {
				break
			}

			// From the specification:
			//
			// 11.8.6.1 Static Semantics: TV and TRV
			//
			// TV excludes the code units of LineContinuation while TRV includes
			// them. <CR><LF> and <CR> LineTerminatorSequences are normalized to
			// <LF> for both TV and TRV. An explicit EscapeSequence is needed to
			// include a <CR> or <CR><LF> sequence.
			if i < len(text) && text[i] == '\n' {
				i++
			}
			decoded = append(decoded, '\n')
			continue

		case '\\':
			if i == len(text) {
				return "", &EscapeError{Offset: escapeStart, Len: 1, Text: "Unterminated escape sequence"}
			}
			c2, width2 := utf8.DecodeRuneInString(text[i:])
			i += width2

			switch c2 {
			case 'b':
				c = '\b'
			case 'f':
				c = '\f'
			case 'n':
				c = '\n'
			case 'r':
				c = '\r'
			case 't':
				c = '\t'
			case 'v':
				c = '\v'

			case '0', '1', '2', '3', '4', '5', '6', '7':
				// "\0" not followed by a digit is the only octal-looking escape that
				// is allowed in template literals
				if isTemplate && (c2 != '0' || (i < len(text) && text[i] >= '0' && text[i] <= '9')) {
					return "", &EscapeError{Offset: escapeStart, Len: i - escapeStart, Text: "Octal escape sequences are not allowed in template literals"}
				}

				// 1-3 digit octal
				value := c2 - '0'
				if i < len(text) && text[i] >= '0' && text[i] <= '7' {
					value = value*8 + rune(text[i]-'0')
					i++
					if i < len(text) && text[i] >= '0' && text[i] <= '7' {
						if temp := value*8 + rune(text[i]-'0'); temp < 256 {
							value = temp
							i++
						}
					}
				}
				c = value

			case 'x':
				// 2-digit hexadecimal
				value, ok := decodeHex(text, i, 2)
				if !ok {
					return "", &EscapeError{Offset: escapeStart, Len: i - escapeStart, Text: "Invalid hexadecimal escape sequence"}
				}
				i += 2
				c = value

			case 'u':
				if i < len(text) && text[i] == '{' {
					// Variable-length
					end := i + 1
					for end < len(text) && text[end] != '}' {
						end++
					}
					if end == len(text) || end == i+1 {
						return "", &EscapeError{Offset: escapeStart, Len: end - escapeStart, Text: "Invalid unicode escape sequence"}
					}
					value, ok := decodeHex(text, i+1, end-i-1)
					if !ok {
						return "", &EscapeError{Offset: escapeStart, Len: end + 1 - escapeStart, Text: "Invalid unicode escape sequence"}
					}
					if value > utf8.MaxRune {
						return "", &EscapeError{Offset: escapeStart, Len: end + 1 - escapeStart, Text: "Unicode escape sequence is out of range"}
					}
					i = end + 1
					c = value
				} else {
					// Fixed-length
					value, ok := decodeHex(text, i, 4)
					if !ok {
						return "", &EscapeError{Offset: escapeStart, Len: i - escapeStart, Text: "Invalid unicode escape sequence"}
					}
					i += 4
					c = value
				}

			case '\r':
				// Ignore line continuations. A line continuation is not an escaped newline.
				if i < len(text) && text[i] == '\n' {
					// Make sure Windows CRLF counts as a single newline
					i++
				}
				continue

			case '\n', '\u2028', '\u2029':
				// Ignore line continuations. A line continuation is not an escaped newline.
				continue

			default:
				c = c2
			}
		}

		if c <= 0xFFFF {
			decoded = append(decoded, uint16(c))
		} else {
			r1, r2 := utf16.EncodeRune(c)
			decoded = append(decoded, uint16(r1), uint16(r2))
		}
	}

	// Escaped surrogate pairs combine here. Lone surrogates cannot be
	// represented in a Go string and become U+FFFD.
	return string(utf16.Decode(decoded)), nil
}

func decodeHex(text string, start int, count int) (rune, bool) {
	if count <= 0 || start+count > len(text) {
		return 0, false
	}
	value := rune(0)
	for _, c := range []byte(text[start : start+count]) {
		switch {
		case c >= '0' && c <= '9':
			value = value*16 | rune(c-'0')
		case c >= 'a' && c <= 'f':
			value = value*16 | rune(c+10-'a')
		case c >= 'A' && c <= 'F':
			value = value*16 | rune(c+10-'A')
		default:
			return 0, false
		}
		if value > utf8.MaxRune {
			return value, true
		}
	}
	return value, true
}

package sourcemap

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ohmlnz/denopack/internal/helpers"
)

// Mapping associates one generated position with an original one. Columns
// are counted in UTF-16 code units. A mapping without a source marks the
// start of generated text that has no counterpart in the original file.
type Mapping struct {
	GeneratedLine   int32 // 0-based
	GeneratedColumn int32 // 0-based count of UTF-16 code units

	OriginalLine   int32 // 0-based
	OriginalColumn int32 // 0-based count of UTF-16 code units

	HasSource bool
}

type SourceMap struct {
	File           string
	Sources        []string
	SourcesContent []string
	Mappings       []Mapping
}

// Find returns the last mapping at or before the given generated position.
func (sm *SourceMap) Find(line int32, column int32) *Mapping {
	mappings := sm.Mappings

	// Binary search
	count := len(mappings)
	index := 0
	for count > 0 {
		step := count / 2
		i := index + step
		mapping := mappings[i]
		if mapping.GeneratedLine < line || (mapping.GeneratedLine == line && mapping.GeneratedColumn <= column) {
			index = i + 1
			count -= step + 1
		} else {
			count = step
		}
	}

	// Handle search failure
	if index > 0 {
		mapping := &mappings[index-1]

		// Match the behavior of the popular "source-map" library from Mozilla
		if mapping.GeneratedLine == line {
			return mapping
		}
	}
	return nil
}

var base64 = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/")

// A single base 64 digit can contain 6 bits of data. For the base 64 variable
// length quantities we use in the source map spec, the first bit is the sign,
// the next four bits are the actual value, and the 6th bit is the continuation
// bit. The continuation bit tells us whether there are more digits in this
// value following this digit.
//
//	Continuation
//	|    Sign
//	|    |
//	V    V
//	101011
func encodeVLQ(encoded []byte, value int) []byte {
	var vlq int
	if value < 0 {
		vlq = ((-value) << 1) | 1
	} else {
		vlq = value << 1
	}

	// Handle the common case
	if (vlq >> 5) == 0 {
		return append(encoded, base64[vlq&31])
	}

	for {
		digit := vlq & 31
		vlq >>= 5

		// If there are still more digits in this value, we must make sure the
		// continuation bit is marked
		if vlq != 0 {
			digit |= 32
		}

		encoded = append(encoded, base64[digit])

		if vlq == 0 {
			break
		}
	}

	return encoded
}

// DecodeVLQ reads one value starting at "start" and returns it along with
// the offset just past it. The returned offset equals "start" when nothing
// could be decoded.
func DecodeVLQ(encoded []byte, start int) (int, int) {
	shift := 0
	vlq := 0

	// Scan over the input
	for start < len(encoded) {
		index := bytes.IndexByte(base64, encoded[start])
		if index < 0 {
			break
		}

		// Decode a single byte
		vlq |= (index & 31) << shift
		start++
		shift += 5

		// Stop if there's no continuation bit
		if (index & 32) == 0 {
			break
		}
	}

	// Recover the value
	value := vlq >> 1
	if (vlq & 1) != 0 {
		value = -value
	}
	return value, start
}

type LineColumnOffset struct {
	Lines   int
	Columns int
}

func (a LineColumnOffset) ComesBefore(b LineColumnOffset) bool {
	return a.Lines < b.Lines || (a.Lines == b.Lines && a.Columns < b.Columns)
}

// AdvanceString moves the offset past "text". Only "\n" starts a new line
// since that is what source map consumers split generated code on.
func (offset *LineColumnOffset) AdvanceString(text string) {
	columns := offset.Columns
	for _, c := range text {
		if c == '\n' {
			offset.Lines++
			columns = 0
			continue
		}

		// Mozilla's "source-map" library counts columns using UTF-16 code units
		if c <= 0xFFFF {
			columns++
		} else {
			columns += 2
		}
	}
	offset.Columns = columns
}

// UTF16Len returns the number of UTF-16 code units needed for one character.
func UTF16Len(c rune) int {
	if c <= 0xFFFF {
		return 1
	}
	return 2
}

type SourceMapState struct {
	GeneratedLine   int
	GeneratedColumn int
	SourceIndex     int
	OriginalLine    int
	OriginalColumn  int
}

func appendMappingToBuffer(buffer []byte, prevState SourceMapState, currentState SourceMapState, omitSource bool) []byte {
	// Put commas in between mappings
	if len(buffer) > 0 {
		if lastByte := buffer[len(buffer)-1]; lastByte != ';' {
			buffer = append(buffer, ',')
		}
	}

	// Record the mapping (note that the generated line is recorded using ';' elsewhere)
	buffer = encodeVLQ(buffer, currentState.GeneratedColumn-prevState.GeneratedColumn)
	if !omitSource {
		buffer = encodeVLQ(buffer, currentState.SourceIndex-prevState.SourceIndex)
		buffer = encodeVLQ(buffer, currentState.OriginalLine-prevState.OriginalLine)
		buffer = encodeVLQ(buffer, currentState.OriginalColumn-prevState.OriginalColumn)
	}
	return buffer
}

// EncodeMappings renders the "mappings" field. Mappings must be sorted by
// generated position.
func (sm *SourceMap) EncodeMappings() string {
	var buffer []byte
	prevState := SourceMapState{}

	for _, m := range sm.Mappings {
		// Start new lines with ';' and reset the generated column
		for prevState.GeneratedLine < int(m.GeneratedLine) {
			buffer = append(buffer, ';')
			prevState.GeneratedLine++
			prevState.GeneratedColumn = 0
		}

		currentState := SourceMapState{
			GeneratedLine:   int(m.GeneratedLine),
			GeneratedColumn: int(m.GeneratedColumn),
			SourceIndex:     prevState.SourceIndex,
			OriginalLine:    prevState.OriginalLine,
			OriginalColumn:  prevState.OriginalColumn,
		}
		if m.HasSource {
			currentState.OriginalLine = int(m.OriginalLine)
			currentState.OriginalColumn = int(m.OriginalColumn)
		}
		buffer = appendMappingToBuffer(buffer, prevState, currentState, !m.HasSource)
		prevState = currentState
	}

	return string(buffer)
}

// JSON renders a version 3 source map.
func (sm *SourceMap) JSON() []byte {
	sb := strings.Builder{}
	sb.WriteString(`{"version":3,"file":`)
	sb.WriteString(helpers.QuoteForJSON(sm.File))

	sb.WriteString(`,"sources":[`)
	for i, source := range sm.Sources {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(helpers.QuoteForJSON(source))
	}

	sb.WriteString(`],"sourcesContent":[`)
	for i, content := range sm.SourcesContent {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(helpers.QuoteForJSON(content))
	}

	sb.WriteString(`],"names":[],"mappings":`)
	sb.WriteString(helpers.QuoteForJSON(sm.EncodeMappings()))
	sb.WriteString("}")
	return []byte(sb.String())
}

var ErrInvalidMappings = errors.New("invalid source map mappings")

// DecodeMappings parses a "mappings" field back into absolute mappings. Names
// are not tracked and a fifth field is skipped.
func DecodeMappings(text string) ([]Mapping, error) {
	var mappings []Mapping
	data := []byte(text)
	current := 0
	generatedLine := 0
	generatedColumn := 0
	sourceIndex := 0
	originalLine := 0
	originalColumn := 0

	for current < len(data) {
		switch data[current] {
		case ';':
			generatedLine++
			generatedColumn = 0
			current++
			continue
		case ',':
			current++
			continue
		}

		fields := 0
		for current < len(data) && data[current] != ',' && data[current] != ';' {
			value, next := DecodeVLQ(data, current)
			if next == current {
				return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrInvalidMappings, data[current], current)
			}
			current = next
			switch fields {
			case 0:
				generatedColumn += value
			case 1:
				sourceIndex += value
			case 2:
				originalLine += value
			case 3:
				originalColumn += value
			}
			fields++
		}

		switch fields {
		case 1:
			mappings = append(mappings, Mapping{
				GeneratedLine:   int32(generatedLine),
				GeneratedColumn: int32(generatedColumn),
			})
		case 4, 5:
			if sourceIndex != 0 {
				return nil, fmt.Errorf("%w: source index %d", ErrInvalidMappings, sourceIndex)
			}
			mappings = append(mappings, Mapping{
				GeneratedLine:   int32(generatedLine),
				GeneratedColumn: int32(generatedColumn),
				OriginalLine:    int32(originalLine),
				OriginalColumn:  int32(originalColumn),
				HasSource:       true,
			})
		default:
			return nil, fmt.Errorf("%w: segment with %d fields", ErrInvalidMappings, fields)
		}
	}

	sort.SliceStable(mappings, func(i, j int) bool {
		a, b := mappings[i], mappings[j]
		return a.GeneratedLine < b.GeneratedLine || (a.GeneratedLine == b.GeneratedLine && a.GeneratedColumn < b.GeneratedColumn)
	})
	return mappings, nil
}

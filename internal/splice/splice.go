// Package splice applies offset-addressed text edits to one source file and
// produces a source map from the edited text back to the original.
package splice

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ohmlnz/denopack/internal/sourcemap"
)

var ErrInvalidEdit = errors.New("invalid edit")

type insertion struct {
	offset int
	text   string
}

type overwrite struct {
	start int
	end   int
	text  string
}

// Buffer records edits against the original text. Offsets always refer to
// the original text no matter how many edits were made before.
type Buffer struct {
	original   string
	intro      string
	inserts    []insertion // Sorted by offset, then by call order
	overwrites []overwrite // Sorted by start, never overlapping
}

func New(original string) *Buffer {
	return &Buffer{original: original}
}

func (b *Buffer) Original() string {
	return b.original
}

// Prepend adds text before everything else, including earlier prepends.
func (b *Buffer) Prepend(text string) {
	b.intro = text + b.intro
}

// Insert adds text at an offset of the original text. Text inserted at the
// same offset appears in call order, and before any overwrite starting there.
func (b *Buffer) Insert(offset int, text string) error {
	if offset < 0 || offset > len(b.original) {
		return fmt.Errorf("%w: insertion offset %d is outside [0, %d]", ErrInvalidEdit, offset, len(b.original))
	}
	for _, o := range b.overwrites {
		if o.start < offset && offset < o.end {
			return fmt.Errorf("%w: insertion offset %d is inside the overwritten range [%d, %d)", ErrInvalidEdit, offset, o.start, o.end)
		}
	}
	i := sort.Search(len(b.inserts), func(i int) bool { return b.inserts[i].offset > offset })
	b.inserts = append(b.inserts, insertion{})
	copy(b.inserts[i+1:], b.inserts[i:])
	b.inserts[i] = insertion{offset: offset, text: text}
	return nil
}

// Overwrite replaces the original text in [start, end) with text.
func (b *Buffer) Overwrite(start int, end int, text string) error {
	if start < 0 || end > len(b.original) || start >= end {
		return fmt.Errorf("%w: overwrite range [%d, %d) is empty or outside [0, %d]", ErrInvalidEdit, start, end, len(b.original))
	}
	for _, o := range b.overwrites {
		if start < o.end && o.start < end {
			return fmt.Errorf("%w: overwrite range [%d, %d) overlaps [%d, %d)", ErrInvalidEdit, start, end, o.start, o.end)
		}
	}
	for _, ins := range b.inserts {
		if start < ins.offset && ins.offset < end {
			return fmt.Errorf("%w: overwrite range [%d, %d) contains an insertion at %d", ErrInvalidEdit, start, end, ins.offset)
		}
	}
	i := sort.Search(len(b.overwrites), func(i int) bool { return b.overwrites[i].start > start })
	b.overwrites = append(b.overwrites, overwrite{})
	copy(b.overwrites[i+1:], b.overwrites[i:])
	b.overwrites[i] = overwrite{start: start, end: end, text: text}
	return nil
}

func (b *Buffer) HasChanged() bool {
	return b.intro != "" || len(b.inserts) > 0 || len(b.overwrites) > 0
}

func (b *Buffer) String() string {
	return b.generate(nil)
}

// SourceMap returns the edited text and a map back to the original. Each
// unedited character gets its own mapping. Inserted and overwriting text
// starts with a mapping that has no source.
func (b *Buffer) SourceMap(file string) (string, *sourcemap.SourceMap) {
	var mappings []sourcemap.Mapping
	code := b.generate(&mappings)
	return code, &sourcemap.SourceMap{
		File:           file,
		Sources:        []string{file},
		SourcesContent: []string{b.original},
		Mappings:       mappings,
	}
}

type generator struct {
	sb        strings.Builder
	mappings  *[]sourcemap.Mapping
	generated sourcemap.LineColumnOffset
	original  sourcemap.LineColumnOffset
}

func (g *generator) addSynthetic(text string) {
	if text == "" {
		return
	}
	if g.mappings != nil {
		*g.mappings = append(*g.mappings, sourcemap.Mapping{
			GeneratedLine:   int32(g.generated.Lines),
			GeneratedColumn: int32(g.generated.Columns),
		})
		g.generated.AdvanceString(text)
	}
	g.sb.WriteString(text)
}

func (g *generator) addOriginal(text string) {
	g.sb.WriteString(text)
	if g.mappings == nil {
		return
	}
	for _, c := range text {
		if c == '\n' {
			g.generated.Lines++
			g.generated.Columns = 0
			g.original.Lines++
			g.original.Columns = 0
			continue
		}
		*g.mappings = append(*g.mappings, sourcemap.Mapping{
			GeneratedLine:   int32(g.generated.Lines),
			GeneratedColumn: int32(g.generated.Columns),
			OriginalLine:    int32(g.original.Lines),
			OriginalColumn:  int32(g.original.Columns),
			HasSource:       true,
		})
		width := sourcemap.UTF16Len(c)
		g.generated.Columns += width
		g.original.Columns += width
	}
}

func (b *Buffer) generate(mappings *[]sourcemap.Mapping) string {
	g := generator{mappings: mappings}
	g.sb.Grow(len(b.original) + len(b.intro))
	g.addSynthetic(b.intro)

	pos := 0
	nextInsert := 0
	nextOverwrite := 0
	for {
		for nextInsert < len(b.inserts) && b.inserts[nextInsert].offset == pos {
			g.addSynthetic(b.inserts[nextInsert].text)
			nextInsert++
		}
		if pos == len(b.original) {
			break
		}

		if nextOverwrite < len(b.overwrites) && b.overwrites[nextOverwrite].start == pos {
			o := b.overwrites[nextOverwrite]
			g.addSynthetic(o.text)
			if mappings != nil {
				g.original.AdvanceString(b.original[o.start:o.end])
			}
			pos = o.end
			nextOverwrite++
			continue
		}

		next := len(b.original)
		if nextInsert < len(b.inserts) {
			next = min(next, b.inserts[nextInsert].offset)
		}
		if nextOverwrite < len(b.overwrites) {
			next = min(next, b.overwrites[nextOverwrite].start)
		}
		g.addOriginal(b.original[pos:next])
		pos = next
	}

	return g.sb.String()
}

package importvars

import (
	"fmt"
	"strings"

	"github.com/ohmlnz/denopack/internal/helpers"
	"github.com/ohmlnz/denopack/internal/js_ast"
)

// Segment is either a Literal or a Wildcard.
type Segment interface{ isSegment() }

type Literal struct {
	Text string
}

// Wildcard stands for the runtime value of one expression hole. It matches
// any run of characters within a single path component.
type Wildcard struct{}

func (Literal) isSegment()  {}
func (Wildcard) isSegment() {}

// GlobPattern is immutable. Adjacent literals are always merged and adjacent
// wildcards collapsed, and at least one literal is non-empty.
type GlobPattern struct {
	segments []Segment
}

func (p GlobPattern) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// String renders the pattern for doublestar. Literal text is escaped so it
// only matches itself.
func (p GlobPattern) String() string {
	sb := strings.Builder{}
	for _, segment := range p.segments {
		switch s := segment.(type) {
		case Literal:
			sb.WriteString(helpers.EscapeGlob(s.Text))
		case Wildcard:
			sb.WriteByte('*')
		}
	}
	return sb.String()
}

// Display renders the pattern the way it reads in source code, for messages.
func (p GlobPattern) Display() string {
	sb := strings.Builder{}
	for _, segment := range p.segments {
		switch s := segment.(type) {
		case Literal:
			sb.WriteString(s.Text)
		case Wildcard:
			sb.WriteByte('*')
		}
	}
	return sb.String()
}

// SegmentRange locates one segment within String().
type SegmentRange struct {
	Start    int
	End      int
	Wildcard bool
}

func (p GlobPattern) Ranges() []SegmentRange {
	ranges := make([]SegmentRange, 0, len(p.segments))
	offset := 0
	for _, segment := range p.segments {
		switch s := segment.(type) {
		case Literal:
			n := len(helpers.EscapeGlob(s.Text))
			ranges = append(ranges, SegmentRange{Start: offset, End: offset + n})
			offset += n
		case Wildcard:
			ranges = append(ranges, SegmentRange{Start: offset, End: offset + 1, Wildcard: true})
			offset++
		}
	}
	return ranges
}

type patternBuilder struct {
	segments []Segment
	hasHole  bool
}

func (b *patternBuilder) literal(text string) {
	if text == "" {
		return
	}
	if n := len(b.segments); n > 0 {
		if prev, ok := b.segments[n-1].(Literal); ok {
			b.segments[n-1] = Literal{Text: prev.Text + text}
			return
		}
	}
	b.segments = append(b.segments, Literal{Text: text})
}

func (b *patternBuilder) wildcard() {
	b.hasHole = true
	if n := len(b.segments); n > 0 {
		if _, ok := b.segments[n-1].(Wildcard); ok {
			return
		}
	}
	b.segments = append(b.segments, Wildcard{})
}

// unsupportedHole is set when a hole has a shape that can never be part of
// a variable import.
type flattener struct {
	patternBuilder
	unsupportedHole *js_ast.Expr
}

// flatten walks string concatenations and template literals in source order.
// Everything else is a hole.
func (f *flattener) flatten(expr js_ast.Expr) {
	switch e := expr.Data.(type) {
	case *js_ast.EString:
		f.literal(e.Value)

	case *js_ast.ETemplate:
		f.literal(e.Head)
		for _, part := range e.Parts {
			f.flatten(part.Value)
			f.literal(part.Tail)
		}

	case *js_ast.EBinary:
		if e.Op == js_ast.BinOpAdd {
			f.flatten(e.Left)
			f.flatten(e.Right)
			return
		}
		f.wildcard()

	case *js_ast.ECall, *js_ast.ENew, *js_ast.EDot, *js_ast.EIndex:
		if f.unsupportedHole == nil {
			hole := expr
			f.unsupportedHole = &hole
		}
		f.wildcard()

	default:
		f.wildcard()
	}
}

const importExample = "For example: import(`./foo/${bar}.js`)."

// PatternError explains why a template could not be turned into a pattern.
type PatternError struct {
	Code   FailureCode
	Reason string
}

func (e *PatternError) Error() string {
	return e.Reason
}

// Translate checks the flattened segments against the rules every variable
// import must follow and returns the finished pattern.
func Translate(segments []Segment, callText string) (GlobPattern, error) {
	pattern := GlobPattern{segments: segments}
	invalid := func(code FailureCode, text string) (GlobPattern, error) {
		return GlobPattern{}, &PatternError{Code: code, Reason: fmt.Sprintf("invalid import %q. %s %s", callText, text, importExample)}
	}

	hasLiteral := false
	for _, segment := range segments {
		if s, ok := segment.(Literal); ok && s.Text != "" {
			hasLiteral = true
			break
		}
	}
	if !hasLiteral {
		return invalid(CodeEmptyPattern, "It cannot be statically analyzed. Variable dynamic imports must contain a static part that limits them to a specific directory.")
	}

	// Everything before the first hole is plain text
	prefix, firstHole := "", -1
	for i, segment := range segments {
		if _, ok := segment.(Wildcard); ok {
			firstHole = i
			break
		}
		prefix += segment.(Literal).Text
	}

	ownDirectory := firstHole == 1 && prefix == "./" && len(segments) > 2
	if ownDirectory {
		ownDirectory = strings.HasPrefix(segments[2].(Literal).Text, ".")
	}

	switch {
	case firstHole == 0:
		return invalid(CodeNotRelative, "It cannot be statically analyzed. Variable dynamic imports must start with ./ and be limited to a specific directory.")

	case strings.HasPrefix(prefix, "/"):
		return invalid(CodeNotRelative, "Variable absolute imports are not supported, imports must start with ./ in the static part of the import.")

	case !strings.HasPrefix(prefix, "./") && !strings.HasPrefix(prefix, "../"):
		return invalid(CodeNotRelative, "Variable bare imports are not supported, imports must start with ./ in the static part of the import.")

	case ownDirectory:
		return invalid(CodeOwnDirectory, "Variable imports cannot import their own directory, place imports in a separate directory or make the import filename more specific.")

	case !hasExtension(pattern.Display()):
		return invalid(CodeMissingExtension, "A file extension must be included in the static part of the import.")
	}

	// A hole only ever stands for part of one path component. Directory
	// navigation after it would make it impossible to tell which directory
	// the hole is in.
	if firstHole >= 0 {
		suffix := GlobPattern{segments: segments[firstHole:]}.Display()
		for _, component := range strings.Split(suffix, "/")[1:] {
			if component == "." || component == ".." {
				return invalid(CodeAmbiguousSeparator, fmt.Sprintf("The path component %q cannot follow a variable part of the import.", component))
			}
		}
	}

	return pattern, nil
}

// hasExtension matches the behavior of node's "path.extname": a leading dot
// in the last path component does not start an extension.
func hasExtension(glob string) bool {
	base := glob[strings.LastIndexByte(glob, '/')+1:]
	return strings.LastIndexByte(base, '.') > 0
}

package importvars

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ohmlnz/denopack/internal/helpers"
	"github.com/ohmlnz/denopack/internal/logger"
)

var ErrSynthesis = errors.New("cannot synthesize dispatcher")

// DispatchEdit is everything needed to rewrite one variable import: a
// function to insert ahead of the module body, and the "import" keyword
// span to overwrite with that function's name. The argument is left in
// place so it becomes the argument of the dispatcher.
type DispatchEdit struct {
	Name       string
	Function   string
	Keyword    logger.Range
	Candidates CandidateSet
}

func DispatcherName(index int) string {
	return fmt.Sprintf("__variableDynamicImportRuntime%d__", index)
}

// Synthesize builds the dispatcher for one site. Every candidate becomes a
// "case" with a literal "import()" so the bundler can still see it. It never
// touches the file system.
func Synthesize(site ImportSite, candidates CandidateSet) (DispatchEdit, error) {
	if site.Keyword.Len <= 0 {
		return DispatchEdit{}, fmt.Errorf("%w: import %d has an empty keyword span", ErrSynthesis, site.Index)
	}

	name := DispatcherName(site.Index)
	sb := strings.Builder{}
	sb.WriteString("function ")
	sb.WriteString(name)
	// Import attributes stay at the call site, so they reach the dispatcher as
	// its second argument and are passed on to every target
	params, args := "path", ""
	if site.HasOptions {
		params, args = "path, options", ", options"
	}
	sb.WriteString("(")
	sb.WriteString(params)
	sb.WriteString(") {\n  switch (path) {\n")

	seen := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		if seen[candidate] {
			return DispatchEdit{}, fmt.Errorf("%w: duplicate candidate %q", ErrSynthesis, candidate)
		}
		if strings.ContainsAny(candidate, "\n\r\u2028\u2029") {
			return DispatchEdit{}, fmt.Errorf("%w: candidate %q contains a line terminator", ErrSynthesis, candidate)
		}
		seen[candidate] = true

		quoted := helpers.QuoteForJSON(candidate)
		sb.WriteString("    case ")
		sb.WriteString(quoted)
		sb.WriteString(": return import(")
		sb.WriteString(quoted)
		sb.WriteString(args)
		sb.WriteString(");\n")
	}

	sb.WriteString("    default: return Promise.reject(new Error(\"Unknown variable dynamic import: \" + path));\n")
	sb.WriteString("  }\n}\n")

	return DispatchEdit{
		Name:       name,
		Function:   sb.String(),
		Keyword:    site.Keyword,
		Candidates: candidates,
	}, nil
}

// dispatchBlock joins dispatchers in site order. The block ends with an empty
// line so it stays visually apart from the module body.
func dispatchBlock(edits []DispatchEdit) string {
	sb := strings.Builder{}
	for _, edit := range edits {
		sb.WriteString(edit.Function)
		sb.WriteByte('\n')
	}
	return sb.String()
}
